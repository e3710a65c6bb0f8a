package ui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/zalando/go-keyring"
)

// openSettings opens the settings window of an app whose settings file and
// local address book live in a temporary directory.
func openSettings(t *testing.T) (*CelebrationsApp, *settingsForm, string) {
	t.Helper()
	keyring.MockInit()

	app, _, _ := setupTestApp(t)
	dir := t.TempDir()
	app.SettingsPath = filepath.Join(dir, config.SettingsFileName)
	app.Settings.Source.Username = "ana"
	app.Secret = func(user string) string {
		if user == "ana" {
			return "old-pass"
		}
		return ""
	}
	app.setupTrayMenu()

	vcf := filepath.Join(dir, "contacts.vcf")
	require.NoError(t, os.WriteFile(vcf, []byte("BEGIN:VCARD\nVERSION:3.0\nFN:Today\nBDAY:--01-01\nEND:VCARD\n"), 0o600))

	app.ShowSettingsWindow()
	require.NotNil(t, app.settingsView)
	t.Cleanup(func() {
		if app.settingsView != nil {
			app.settingsView.window.Close()
		}
	})
	return app, app.settingsView, vcf
}

func TestSettingsWindow_Singleton(t *testing.T) {
	app, f, _ := openSettings(t)
	assert.Equal(t, "Go Celebrations Settings", f.window.Title())

	app.ShowSettingsWindow()
	assert.Same(t, f, app.settingsView)

	test.Tap(f.cancelBtn)
	assert.Nil(t, app.settingsView)
	assert.NoFileExists(t, app.SettingsPath, "cancel saves nothing")
}

func TestSettingsWindow_Prefill(t *testing.T) {
	_, f, _ := openSettings(t)

	assert.Equal(t, "CardDAV / WebDAV", f.mode.Selected)
	assert.Equal(t, "http://test.local", f.url.Text)
	assert.Equal(t, "ana", f.user.Text)
	assert.Equal(t, "old-pass", f.pass.Text)
	assert.Equal(t, config.DefaultRefreshSpec, f.refresh.Text)
	assert.Equal(t, "UTC", f.timezone.Text)
	assert.Equal(t, config.DefaultPort, f.port.Text)
	assert.Equal(t, "30", f.lookup.Text)
	assert.Equal(t, "en", f.language.Selected)
	assert.False(t, f.reminder.Checked)
	assert.False(t, f.remRow.Visible())

	assert.True(t, f.webForm.Visible())
	assert.False(t, f.localForm.Visible())
	f.mode.SetSelected("Local file")
	assert.False(t, f.webForm.Visible())
	assert.True(t, f.localForm.Visible())
}

func TestSettingsWindow_SaveAppliesEverything(t *testing.T) {
	app, f, vcf := openSettings(t)
	oldScheduler := app.Scheduler
	oldSettings := app.Settings

	f.mode.SetSelected("Local file")
	f.path.SetText(vcf)
	f.pass.SetText("new-pass")
	f.language.SetSelected("fr")
	f.refresh.SetText("*/15 * * * *")
	f.timezone.SetText("Europe/Paris")
	f.port.SetText("19090")
	f.lookup.SetText("0")
	f.limit.SetText("5")
	f.reminder.SetChecked(true)
	f.remValue.SetText("2")
	f.remUnit.SetSelected("Hours")
	f.remDir.SetSelected("After")

	test.Tap(f.saveBtn)
	require.Nil(t, app.settingsView, "the window closes after a successful save")

	saved, err := config.LoadSettings(app.SettingsPath)
	require.NoError(t, err)
	assert.Equal(t, config.SourceModeLocal, saved.Source.Mode)
	assert.Equal(t, vcf, saved.Source.Path)
	assert.Equal(t, "ana", saved.Source.Username)
	assert.Equal(t, "fr", saved.Language)
	assert.Equal(t, "*/15 * * * *", saved.Refresh)
	assert.Equal(t, "Europe/Paris", saved.Timezone)
	assert.Equal(t, "19090", saved.Port)
	assert.Equal(t, 0, saved.WindowDays)
	assert.Equal(t, 5, saved.DashboardLimit)
	assert.Equal(t, config.ReminderSettings{Enabled: true, Value: 2, Unit: config.UnitHours, Direction: config.DirAfter}, saved.Reminder)

	assert.Equal(t, "new-pass", config.LookupSecret("ana"))

	assert.NotSame(t, oldSettings, app.Settings, "active settings are replaced, not edited")
	assert.Equal(t, config.DefaultRefreshSpec, oldSettings.Refresh)
	assert.Equal(t, "fr", app.Locale.Language())
	assert.Equal(t, "Actualiser", app.TrayRefreshItem.Label)

	require.NotNil(t, app.Scheduler)
	assert.NotSame(t, oldScheduler, app.Scheduler)
	assert.Equal(t, "*/15 * * * *", app.Scheduler.Spec)
	assert.Equal(t, "Europe/Paris", app.Scheduler.Location.String())

	// The restarted worker syncs the new source right away.
	assert.Eventually(t, func() bool {
		snap := app.Snapshot()
		return snap != nil && snap.Stats.TotalContacts == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSettingsWindow_UnchangedPasswordIsNotRewritten(t *testing.T) {
	app, f, vcf := openSettings(t)
	f.mode.SetSelected("Local file")
	f.path.SetText(vcf)

	test.Tap(f.saveBtn)
	require.Nil(t, app.settingsView)

	_, err := keyring.Get(config.KeyringService, "ana")
	assert.ErrorIs(t, err, keyring.ErrNotFound, "the prefilled password came from the keyring already")
}

func TestSettingsWindow_EmptyReminderValueDisables(t *testing.T) {
	app, f, vcf := openSettings(t)
	f.mode.SetSelected("Local file")
	f.path.SetText(vcf)
	f.reminder.SetChecked(true)
	f.remValue.SetText("")

	test.Tap(f.saveBtn)
	require.Nil(t, app.settingsView)
	assert.False(t, app.Settings.Reminder.Enabled)
	assert.Equal(t, config.DefaultReminderValue, app.Settings.Reminder.Value)
}

func TestSettingsWindow_InvalidInputKeepsWindowOpen(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(f *settingsForm)
		wants string
	}{
		{"empty port", func(f *settingsForm) { f.port.SetText("") }, "A port is required"},
		{"port out of range", func(f *settingsForm) { f.port.SetText("70000") }, "The port must be between 1 and 65535"},
		{"bad schedule", func(f *settingsForm) { f.refresh.SetText("sometimes") }, "Invalid refresh schedule"},
		{"bad timezone", func(f *settingsForm) { f.timezone.SetText("Mars/Olympus") }, "Unknown timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, f, _ := openSettings(t)
			oldSettings := app.Settings
			tt.edit(f)

			err := f.submit()
			require.Error(t, err)
			assert.Equal(t, tt.wants, err.Error())

			assert.Same(t, f, app.settingsView)
			assert.Same(t, oldSettings, app.Settings)
			assert.NoFileExists(t, app.SettingsPath)
		})
	}
}
