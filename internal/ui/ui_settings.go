package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/tartampluch/go-celebrations/internal/worker"
)

// Selector entries, in display order.
var (
	sourceModes     = []string{config.SourceModeLocal, config.SourceModeWeb, config.SourceModeAPI}
	sourceModeKey   = []string{config.TKeyModeLocal, config.TKeyModeWeb, config.TKeyModeAPI}
	reminderUnits   = []string{config.UnitDays, config.UnitHours, config.UnitMinutes}
	reminderUnitKey = []string{config.TKeyUnitDays, config.TKeyUnitHours, config.TKeyUnitMinutes}
	reminderDirs    = []string{config.DirBefore, config.DirAfter}
	reminderDirKey  = []string{config.TKeyDirBefore, config.TKeyDirAfter}
)

// settingsForm holds the widgets of the open settings window.
type settingsForm struct {
	app    *CelebrationsApp
	window fyne.Window

	mode     *widget.Select
	path     *widget.Entry
	url      *widget.Entry
	user     *widget.Entry
	pass     *widget.Entry
	language *widget.Select
	refresh  *widget.Entry
	timezone *widget.Entry
	port     *NumericalEntry
	lookup   *NumericalEntry
	limit    *NumericalEntry

	reminder *widget.Check
	remValue *NumericalEntry
	remUnit  *widget.Select
	remDir   *widget.Select

	localForm *fyne.Container
	webForm   *widget.Form
	remRow    *fyne.Container

	saveBtn   *widget.Button
	cancelBtn *widget.Button

	// storedPass is the keyring value shown at open time.
	storedPass string
}

// ShowSettingsWindow displays the configuration form. Saving writes the
// settings file, stores the password in the keyring and restarts the
// refresh worker. If the window is already open, it requests focus.
func (app *CelebrationsApp) ShowSettingsWindow() {
	if app.settingsView != nil {
		slog.Debug(config.LogMsgFocusSettings, config.LogKeyComponent, config.CompUI)
		app.settingsView.window.RequestFocus()
		return
	}

	slog.Info(config.LogMsgOpenSettings, config.LogKeyComponent, config.CompUI)

	f := &settingsForm{app: app}
	f.window = app.App.NewWindow(app.Locale.GetMsg(config.TKeyWinSettings))
	app.settingsView = f

	s := app.currentSettings()
	f.build(s)

	footer := widget.NewLabel(fmt.Sprintf("%s %s", config.AppName, config.Version))
	footer.Alignment = fyne.TextAlignCenter
	footer.TextStyle = fyne.TextStyle{Italic: true}

	content := container.NewPadded(container.NewVBox(
		f.sourceCard(),
		f.generalCard(),
		f.reminderCard(),
		container.NewGridWithColumns(config.LayoutColumnsDouble, f.cancelBtn, f.saveBtn),
		footer,
	))

	f.window.SetContent(content)
	f.window.Resize(fyne.NewSize(config.SettingsWinWidth, content.MinSize().Height))
	f.window.SetOnClosed(func() { app.settingsView = nil })
	f.window.Show()
}

// build creates the widgets and fills them from s.
func (f *settingsForm) build(s *config.Settings) {
	l := f.app.Locale

	f.mode = widget.NewSelect(f.app.localizeAll(sourceModeKey), nil)
	f.mode.SetSelectedIndex(optionIndex(sourceModes, s.Source.Mode))

	f.path = widget.NewEntry()
	f.path.SetText(s.Source.Path)

	f.url = widget.NewEntry()
	f.url.SetPlaceHolder(config.PlaceholderURL)
	f.url.SetText(s.Source.URL)

	f.user = widget.NewEntry()
	f.user.SetText(s.Source.Username)

	f.pass = widget.NewPasswordEntry()
	if s.Source.Username != "" && f.app.Secret != nil {
		f.storedPass = f.app.Secret(s.Source.Username)
		f.pass.SetText(f.storedPass)
	}

	f.language = widget.NewSelect(l.Languages(), nil)
	f.language.SetSelected(l.Language())

	f.refresh = widget.NewEntry()
	f.refresh.SetPlaceHolder(config.PlaceholderRefresh)
	f.refresh.SetText(s.Refresh)
	f.refresh.Validator = func(spec string) error {
		if err := worker.ValidateSpec(strings.TrimSpace(spec)); err != nil {
			return errors.New(l.GetMsg(config.TKeyErrRefresh))
		}
		return nil
	}

	f.timezone = widget.NewEntry()
	f.timezone.SetPlaceHolder(config.PlaceholderTimezone)
	f.timezone.SetText(s.Timezone)
	f.timezone.Validator = func(tz string) error {
		candidate := config.Settings{Timezone: strings.TrimSpace(tz)}
		if _, err := candidate.Location(); err != nil {
			return errors.New(l.GetMsg(config.TKeyErrTimezone))
		}
		return nil
	}

	f.port = NewNumericalEntry()
	f.port.SetText(s.Port)
	f.port.Validator = func(p string) error {
		if p == "" {
			return errors.New(l.GetMsg(config.TKeyErrPortReq))
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return errors.New(l.GetMsg(config.TKeyErrPortNum))
		}
		if n < config.MinPort || n > config.MaxPort {
			return errors.New(l.GetMsg(config.TKeyErrPortRange))
		}
		return nil
	}

	f.lookup = NewNumericalEntry()
	f.lookup.SetText(strconv.Itoa(s.WindowDays))

	f.limit = NewNumericalEntry()
	f.limit.SetText(strconv.Itoa(s.DashboardLimit))

	f.reminder = widget.NewCheck(l.GetMsg(config.TKeyLblEnableRem), nil)
	f.reminder.SetChecked(s.Reminder.Enabled)

	f.remValue = NewNumericalEntry()
	f.remValue.SetText(strconv.Itoa(s.Reminder.Value))

	f.remUnit = widget.NewSelect(f.app.localizeAll(reminderUnitKey), nil)
	f.remUnit.SetSelectedIndex(optionIndex(reminderUnits, s.Reminder.Unit))

	f.remDir = widget.NewSelect(f.app.localizeAll(reminderDirKey), nil)
	f.remDir.SetSelectedIndex(optionIndex(reminderDirs, s.Reminder.Direction))

	f.saveBtn = widget.NewButtonWithIcon(l.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), func() {
		if err := f.submit(); err != nil {
			dialog.ShowError(err, f.window)
		}
	})
	f.saveBtn.Importance = widget.HighImportance
	f.cancelBtn = widget.NewButtonWithIcon(l.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), func() {
		f.window.Close()
	})
}

func (f *settingsForm) sourceCard() *widget.Card {
	l := f.app.Locale

	browse := widget.NewButton(l.GetMsg(config.TKeyBtnBrowse), func() {
		d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err == nil && r != nil {
				f.path.SetText(r.URI().Path())
				_ = r.Close()
			}
		}, f.window)
		d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtVCF, config.ExtVCard}))
		d.Show()
	})
	f.localForm = container.NewBorder(nil, nil, widget.NewLabel(l.GetMsg(config.TKeyLblPath)), browse, f.path)

	f.webForm = widget.NewForm(
		widget.NewFormItem(l.GetMsg(config.TKeyLblURL), f.url),
		widget.NewFormItem(l.GetMsg(config.TKeyLblUser), f.user),
		widget.NewFormItem(l.GetMsg(config.TKeyLblPass), f.pass),
	)

	f.mode.OnChanged = func(string) { f.updateSourceVisibility() }
	f.updateSourceVisibility()

	return widget.NewCard(l.GetMsg(config.TKeyLblSource), "", container.NewVBox(f.mode, f.localForm, f.webForm))
}

// updateSourceVisibility shows the file picker in local mode and the
// URL and credentials otherwise.
func (f *settingsForm) updateSourceVisibility() {
	if sourceModes[selectedIndex(f.mode)] == config.SourceModeLocal {
		f.webForm.Hide()
		f.localForm.Show()
	} else {
		f.localForm.Hide()
		f.webForm.Show()
	}
}

func (f *settingsForm) generalCard() *widget.Card {
	l := f.app.Locale
	days := func(e *NumericalEntry) fyne.CanvasObject {
		return container.NewBorder(nil, nil, nil, widget.NewLabel(l.GetMsg(config.TKeyLblDays)), e)
	}

	form := widget.NewForm(
		widget.NewFormItem(l.GetMsg(config.TKeyLblLanguage), f.language),
		widget.NewFormItem(l.GetMsg(config.TKeyLblRefresh), f.refresh),
		widget.NewFormItem(l.GetMsg(config.TKeyLblTimezone), f.timezone),
		widget.NewFormItem(l.GetMsg(config.TKeyLblPort), f.port),
		widget.NewFormItem(l.GetMsg(config.TKeyLblWindow), days(f.lookup)),
		widget.NewFormItem(l.GetMsg(config.TKeyLblLimit), f.limit),
	)
	return widget.NewCard(l.GetMsg(config.TKeyLblGeneral), "", form)
}

func (f *settingsForm) reminderCard() *widget.Card {
	controls := container.NewHBox(f.remUnit, f.remDir)
	f.remRow = container.NewBorder(nil, nil, nil, controls, f.remValue)

	f.reminder.OnChanged = func(on bool) {
		if on {
			f.remRow.Show()
		} else {
			f.remRow.Hide()
		}
	}
	f.reminder.OnChanged(f.reminder.Checked)

	return widget.NewCard(f.app.Locale.GetMsg(config.TKeyLblNotif), "", container.NewVBox(f.reminder, f.remRow))
}

// submit validates the form, persists it and applies it. The window closes
// on success and stays open with its content untouched on error.
func (f *settingsForm) submit() error {
	for _, e := range []interface{ Validate() error }{f.port, f.refresh, f.timezone} {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	slog.Info(config.LogMsgSaveSettings, config.LogKeyComponent, config.CompUI)

	next := f.values()
	if f.app.SettingsPath != "" {
		if err := config.SaveSettings(f.app.SettingsPath, next); err != nil {
			return err
		}
	}

	user := next.Source.Username
	if user != "" && f.pass.Text != "" && f.pass.Text != f.storedPass {
		if err := config.StoreSecret(user, f.pass.Text); err != nil {
			slog.Error(config.ErrSaveSecret,
				config.LogKeyComponent, config.CompUI,
				config.LogKeyUser, user,
				config.LogKeyError, err)
		}
	}

	if err := f.app.applySettings(next); err != nil {
		return err
	}
	f.window.Close()
	return nil
}

// values builds new settings from the form. The active settings are copied,
// never edited: the refresh worker may be reading them.
func (f *settingsForm) values() *config.Settings {
	next := *f.app.currentSettings()

	next.Source = config.SourceSettings{
		Mode:     sourceModes[selectedIndex(f.mode)],
		Path:     strings.TrimSpace(f.path.Text),
		URL:      strings.TrimSpace(f.url.Text),
		Username: strings.TrimSpace(f.user.Text),
	}
	next.Language = f.language.Selected
	next.Refresh = strings.TrimSpace(f.refresh.Text)
	next.Timezone = strings.TrimSpace(f.timezone.Text)
	next.Port = f.port.Text
	next.WindowDays = f.lookup.IntOr(config.DefaultWindowDays)
	next.DashboardLimit = f.limit.IntOr(0)

	// An empty value turns the reminder off whatever the checkbox says.
	next.Reminder = config.ReminderSettings{
		Enabled:   f.reminder.Checked && f.remValue.Text != "",
		Value:     f.remValue.IntOr(config.DefaultReminderValue),
		Unit:      reminderUnits[selectedIndex(f.remUnit)],
		Direction: reminderDirs[selectedIndex(f.remDir)],
	}
	next.Normalize()
	return &next
}

// applySettings makes s the active configuration: the language and tray
// labels follow it and the refresh worker restarts, which syncs at once.
// The feed server keeps its port until the next launch.
func (app *CelebrationsApp) applySettings(s *config.Settings) error {
	app.setSettings(s)
	app.Locale.SetLanguage(s.Language)
	app.refreshTrayMenu()

	if err := app.startScheduler(); err != nil {
		return err
	}

	slog.Info(config.LogMsgSettingsApplied,
		config.LogKeyComponent, config.CompUI,
		config.LogKeySpec, s.Refresh,
		config.LogKeyLang, s.Language,
		config.LogKeyMode, s.Source.Mode)
	return nil
}

// optionIndex returns the position of v in options, or 0.
func optionIndex(options []string, v string) int {
	for i, o := range options {
		if o == v {
			return i
		}
	}
	return 0
}
