package ui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// NumericalEntry is an Entry that only accepts ASCII digits, whether typed
// or pasted. SetText is not filtered.
type NumericalEntry struct {
	widget.Entry
}

// NewNumericalEntry creates an empty NumericalEntry.
func NewNumericalEntry() *NumericalEntry {
	entry := &NumericalEntry{}
	entry.ExtendBaseWidget(entry)
	return entry
}

// TypedRune drops anything that is not a digit.
func (e *NumericalEntry) TypedRune(r rune) {
	if isDigit(r) {
		e.Entry.TypedRune(r)
	}
}

// TypedShortcut keeps the digits of pasted text and forwards other shortcuts.
func (e *NumericalEntry) TypedShortcut(s fyne.Shortcut) {
	paste, ok := s.(*fyne.ShortcutPaste)
	if !ok || paste.Clipboard == nil {
		e.Entry.TypedShortcut(s)
		return
	}
	for _, r := range paste.Clipboard.Content() {
		if isDigit(r) {
			e.Entry.TypedRune(r)
		}
	}
}

// Keyboard asks mobile drivers for a numeric keypad.
func (e *NumericalEntry) Keyboard() mobile.KeyboardType {
	return mobile.NumberKeyboard
}

// IntOr returns the entry as an int, or fallback when it is empty or not a
// number.
func (e *NumericalEntry) IntOr(fallback int) int {
	n, err := strconv.Atoi(e.Text)
	if err != nil {
		return fallback
	}
	return n
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
