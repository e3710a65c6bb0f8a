// Package locale turns resolved events into human labels in the user's language.
package locale

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/tartampluch/go-celebrations/internal/engine"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	localeDir    = "locales"
	localePrefix = "active."
	localeSuffix = ".json"
)

// Localizer translates message keys for one language. The zero value is not
// usable; build it with New. It is safe for concurrent use, SetLanguage
// included.
type Localizer struct {
	languages []string
	bundle    *i18n.Bundle

	mu        sync.RWMutex
	lang      string
	localizer *i18n.Localizer
}

// New loads every embedded locale and selects lang, falling back to English
// for unknown languages and missing keys.
func New(lang string) *Localizer {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	l := &Localizer{bundle: bundle}

	entries, err := localeFS.ReadDir(localeDir)
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, localePrefix) || !strings.HasSuffix(name, localeSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, localePrefix), localeSuffix)
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, localeDir+"/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		l.languages = append(l.languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
	}

	l.SetLanguage(lang)
	return l
}

// SetLanguage switches the active language. Unknown codes select the default.
func (l *Localizer) SetLanguage(lang string) {
	if lang == "" || !slices.Contains(l.languages, lang) {
		lang = config.DefaultLanguage
	}
	loc := i18n.NewLocalizer(l.bundle, lang)

	l.mu.Lock()
	l.lang = lang
	l.localizer = loc
	l.mu.Unlock()
}

// Language returns the active language code.
func (l *Localizer) Language() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lang
}

// Languages returns the codes of the embedded locales.
func (l *Localizer) Languages() []string { return slices.Clone(l.languages) }

// GetMsg translates a key, returning the key itself when it is unknown.
func (l *Localizer) GetMsg(key string) string {
	msg, ok := l.localize(&i18n.LocalizeConfig{MessageID: key})
	if !ok {
		return key
	}
	return msg
}

// DaysUntil renders a day count as "Today!", "Tomorrow" or "N days".
func (l *Localizer) DaysUntil(n int) string {
	switch n {
	case 0:
		return l.msgOr(config.TKeyDaysToday, config.FallbackDaysToday)
	case 1:
		return l.msgOr(config.TKeyDaysTomorrow, config.FallbackDaysTomorrow)
	}
	msg, ok := l.localize(&i18n.LocalizeConfig{
		MessageID:    config.TKeyDaysCount,
		PluralCount:  n,
		TemplateData: map[string]any{"Count": n},
	})
	if !ok {
		return fmt.Sprintf(config.FallbackDaysCount, n)
	}
	return msg
}

// EventType returns the display label of an event type.
func (l *Localizer) EventType(t engine.EventType) string {
	if t == engine.EventAnniversary {
		return l.GetMsg(config.TKeyEvtAnniversary)
	}
	return l.GetMsg(config.TKeyEvtBirthday)
}

// Summary renders the calendar event title. Its signature matches
// engine.Generator.FormatSummary.
func (l *Localizer) Summary(t engine.EventType, name string) string {
	key, fallback := config.TKeySummaryBirthday, config.FallbackSummaryBirthday
	if t == engine.EventAnniversary {
		key, fallback = config.TKeySummaryAnniv, config.FallbackSummaryAnniv
	}
	msg, ok := l.localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: map[string]any{"Name": name},
	})
	if !ok {
		return fmt.Sprintf(fallback, name)
	}
	return msg
}

// TrayStatus renders the tray tooltip for the number of celebrations today.
func (l *Localizer) TrayStatus(count int) string {
	if count == 0 {
		return l.msgOr(config.TKeyTrayStatusZero, config.FallbackTrayLabel)
	}
	msg, ok := l.localize(&i18n.LocalizeConfig{
		MessageID:    config.TKeyTrayStatus,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
	if !ok {
		return fmt.Sprintf(config.FallbackTrayDefault, count)
	}
	return msg
}

// DateFormat returns the Go layout used for short occurrence dates.
func (l *Localizer) DateFormat() string {
	return l.msgOr(config.TKeyFormatDate, config.DateFormatDisplay)
}

func (l *Localizer) msgOr(key, fallback string) string {
	if msg, ok := l.localize(&i18n.LocalizeConfig{MessageID: key}); ok {
		return msg
	}
	return fallback
}

func (l *Localizer) localize(lc *i18n.LocalizeConfig) (string, bool) {
	if l == nil {
		return "", false
	}
	l.mu.RLock()
	loc := l.localizer
	l.mu.RUnlock()
	if loc == nil {
		return "", false
	}
	msg, err := loc.Localize(lc)
	// A key missing in the active language still renders from English.
	var notFound *i18n.MessageNotFoundErr
	if errors.As(err, &notFound) && msg != "" {
		return msg, true
	}
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, lc.MessageID,
			config.LogKeyError, err,
		)
		return "", false
	}
	return msg, true
}
