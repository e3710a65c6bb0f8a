package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/tartampluch/go-celebrations/internal/engine"
	"github.com/tartampluch/go-celebrations/internal/locale"
	"github.com/tartampluch/go-celebrations/internal/server"
	"github.com/tartampluch/go-celebrations/internal/worker"
)

//go:embed Icon.png
var appIconData []byte

// CelebrationsApp encapsulates the tray state, the settings and the
// background synchronization.
type CelebrationsApp struct {
	App      fyne.App
	Ctx      context.Context
	Settings *config.Settings
	Locale   *locale.Localizer

	// SettingsPath is where the settings window saves. Empty disables saving.
	SettingsPath string

	Server  *server.FeedServer
	Fetcher engine.VCardFetcher
	API     engine.APIFetcher
	Clock   engine.Clock // Injected clock for testability (e.g. mocking time travel)

	// Secret resolves the keyring entry of a username.
	Secret func(user string) string

	Scheduler     *worker.Scheduler
	stopScheduler context.CancelFunc

	Tray desktop.App
	Menu *fyne.Menu

	TrayStatusItem   *fyne.MenuItem
	TrayContactsItem *fyne.MenuItem
	TrayRefreshItem  *fyne.MenuItem
	TraySettingsItem *fyne.MenuItem

	// Settings are replaced, never edited, once the scheduler runs.
	settingsMut sync.RWMutex

	// Last successful sync
	snapshotMut    sync.RWMutex
	snapshot       *engine.Snapshot
	upcomingWindow fyne.Window
	contacts       *contactsView
	settingsView   *settingsForm
}

// NewCelebrationsApp constructs the application and wires dependencies.
func NewCelebrationsApp(a fyne.App, ctx context.Context, settings *config.Settings, settingsPath string, srv *server.FeedServer, fetcher *engine.HTTPFetcher) *CelebrationsApp {
	a.SetIcon(fyne.NewStaticResource(config.IconFile, appIconData))

	return &CelebrationsApp{
		App:          a,
		Ctx:          ctx,
		Settings:     settings,
		SettingsPath: settingsPath,
		Locale:       locale.New(settings.Language),
		Server:       srv,
		Fetcher:      fetcher,
		API:          fetcher,
		Clock:        engine.RealClock{},
		Secret:       config.LookupSecret,
	}
}

// Run launches the application services and the main UI loop.
func (app *CelebrationsApp) Run() error {
	go func() {
		if err := app.Server.Start(app.Ctx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)

			app.App.SendNotification(fyne.NewNotification(
				config.TitleStartupError,
				fmt.Sprintf(config.MsgPortBusy, app.Server.Port)))
		}
	}()

	if desk, ok := app.App.(desktop.App); ok {
		app.Tray = desk
		app.Tray.SetSystemTrayIcon(app.App.Icon())
		app.setupTrayMenu()
	} else {
		slog.Warn(config.ErrTrayNotSupported,
			config.LogKeyComponent, config.CompUI)
	}

	if err := app.startScheduler(); err != nil {
		return err
	}

	go func() {
		<-app.Ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompUI)
		fyne.Do(app.App.Quit)
	}()

	app.App.Run()
	return nil
}

// startScheduler stops the running refresh worker, if any, and starts a new
// one from the current settings. The new worker syncs immediately.
func (app *CelebrationsApp) startScheduler() error {
	s := app.currentSettings()
	loc, err := s.Location()
	if err != nil {
		return err
	}

	if app.stopScheduler != nil {
		app.stopScheduler()
	}
	ctx, cancel := context.WithCancel(app.Ctx)
	sched := worker.New(s.Refresh, loc, app.performSync)
	app.Scheduler = sched
	app.stopScheduler = cancel

	go func() {
		if err := sched.Run(ctx); err != nil {
			slog.Error(config.ErrScheduleSpec,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)
			app.updateTrayStatus(-1)
		}
	}()
	return nil
}

// setupTrayMenu constructs the system tray menu.
func (app *CelebrationsApp) setupTrayMenu() {
	// The status item opens the upcoming window.
	app.TrayStatusItem = fyne.NewMenuItem(config.FallbackTrayLabel, func() {
		app.ShowUpcomingWindow()
	})

	app.TrayContactsItem = fyne.NewMenuItem(app.Locale.GetMsg(config.TKeyMenuContacts), func() {
		app.ShowContactsWindow()
	})

	app.TrayRefreshItem = fyne.NewMenuItem(app.Locale.GetMsg(config.TKeyMenuRefresh), func() {
		app.requestRefresh()
	})

	app.TraySettingsItem = fyne.NewMenuItem(app.Locale.GetMsg(config.TKeyMenuSettings), func() {
		app.ShowSettingsWindow()
	})

	app.Menu = fyne.NewMenu(config.AppName,
		app.TrayStatusItem,
		fyne.NewMenuItemSeparator(),
		app.TrayContactsItem,
		app.TrayRefreshItem,
		fyne.NewMenuItemSeparator(),
		app.TraySettingsItem,
	)

	if app.Tray != nil {
		app.Tray.SetSystemTrayMenu(app.Menu)
	}
}

// refreshTrayMenu relabels the tray menu after a language change.
func (app *CelebrationsApp) refreshTrayMenu() {
	if app.Menu == nil {
		return
	}
	app.TrayContactsItem.Label = app.Locale.GetMsg(config.TKeyMenuContacts)
	app.TrayRefreshItem.Label = app.Locale.GetMsg(config.TKeyMenuRefresh)
	app.TraySettingsItem.Label = app.Locale.GetMsg(config.TKeyMenuSettings)
	app.Menu.Refresh()
}

// requestRefresh asks the scheduler for a manual run, or runs one directly
// when the scheduler is not running yet.
func (app *CelebrationsApp) requestRefresh() {
	if app.Scheduler != nil {
		app.Scheduler.Trigger()
		return
	}
	go func() { _ = app.performSync(app.Ctx, true) }()
}

// performSync executes the pipeline and publishes its result to the server
// and the tray. It is the scheduler's job.
func (app *CelebrationsApp) performSync(ctx context.Context, manual bool) error {
	slog.Info(config.MsgSyncReq,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyManual, manual)

	if manual {
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.Locale.GetMsg(config.TKeyNotifStart)))
	}

	snap, err := app.sync(ctx)
	if err != nil {
		if manual {
			app.App.SendNotification(fyne.NewNotification(config.TitleSyncError, app.Locale.GetMsg(config.TKeyNotifError)))
		}
		app.updateTrayStatus(-1)
		return err
	}

	app.snapshotMut.Lock()
	app.snapshot = snap
	app.snapshotMut.Unlock()

	app.updateTrayStatus(snap.Stats.Today)

	if manual {
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.Locale.GetMsg(config.TKeyNotifSuccess)))
	}
	return nil
}

func (app *CelebrationsApp) sync(ctx context.Context) (*engine.Snapshot, error) {
	cfg, err := app.loadSyncConfig()
	if err != nil {
		return nil, err
	}

	gen := &engine.Generator{
		Clock:         app.Clock,
		Fetcher:       app.Fetcher,
		API:           app.API,
		FormatSummary: app.Locale.Summary,
	}

	snap, err := gen.RunSync(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := app.Server.Update(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Snapshot returns the result of the last successful sync, or nil.
func (app *CelebrationsApp) Snapshot() *engine.Snapshot {
	app.snapshotMut.RLock()
	defer app.snapshotMut.RUnlock()
	return app.snapshot
}

// updateTrayStatus shows how many celebrations fall today. A negative count
// reports a sync error.
func (app *CelebrationsApp) updateTrayStatus(count int) {
	if app.Menu == nil || app.TrayStatusItem == nil {
		return
	}

	label := config.FallbackTrayError
	if count >= 0 {
		label = app.Locale.TrayStatus(count)
	}

	fyne.Do(func() {
		app.TrayStatusItem.Label = label
		app.Menu.Refresh()
	})
}

// currentSettings returns the active settings.
func (app *CelebrationsApp) currentSettings() *config.Settings {
	app.settingsMut.RLock()
	defer app.settingsMut.RUnlock()
	return app.Settings
}

func (app *CelebrationsApp) setSettings(s *config.Settings) {
	app.settingsMut.Lock()
	app.Settings = s
	app.settingsMut.Unlock()
}

// loadSyncConfig assembles the engine configuration from settings and keyring.
func (app *CelebrationsApp) loadSyncConfig() (engine.SyncConfig, error) {
	s := app.currentSettings()
	secret := ""
	if app.Secret != nil {
		secret = app.Secret(s.Source.Username)
	}
	return engine.SyncConfigFromSettings(s, secret)
}

// today returns the reference day of the configured timezone.
func (app *CelebrationsApp) today() time.Time {
	gen := &engine.Generator{Clock: app.Clock}
	cfg := engine.SyncConfig{}
	if loc, err := app.currentSettings().Location(); err == nil {
		cfg.Location = loc
	}
	return gen.Today(cfg)
}
