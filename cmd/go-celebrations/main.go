package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/tartampluch/go-celebrations/internal/engine"
	"github.com/tartampluch/go-celebrations/internal/locale"
	"github.com/tartampluch/go-celebrations/internal/server"
	"github.com/tartampluch/go-celebrations/internal/ui"
	"github.com/tartampluch/go-celebrations/internal/worker"
	"golang.org/x/sync/errgroup"
)

// main delegates to runMain so that deferred calls (closing the log file)
// run before os.Exit.
func main() {
	os.Exit(runMain())
}

// runMain parses flags, sets up logging and dispatches to the selected mode.
func runMain() int {
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	configPath := flag.String(config.FlagConfig, "", config.FlagDescConfig)
	headless := flag.Bool(config.FlagHeadless, false, config.FlagDescHeadless)
	storeSecret := flag.Bool(config.FlagStoreSecret, false, config.FlagDescStoreSecret)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	logCloser := setupLogging(*debugMode)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close()
		}()
	}

	settings, settingsPath, err := loadSettings(*configPath)
	if err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err)
		return config.ExitCodeError
	}

	if *storeSecret {
		if err := storeSecretFromStdin(os.Stdin, settings.Source.Username); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return config.ExitCodeError
		}
		fmt.Printf(config.MsgSecretStored, settings.Source.Username)
		return config.ExitCodeSuccess
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	run := func(ctx context.Context, s *config.Settings) error {
		return runTray(ctx, s, settingsPath)
	}
	if *headless {
		run = runHeadless
	}
	if err := run(ctx, settings); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// loadSettings reads the settings file and returns it with its resolved path.
func loadSettings(path string) (*config.Settings, string, error) {
	if path == "" {
		p, err := config.DefaultSettingsPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}

	settings, err := config.LoadSettings(path)
	if err != nil && settings == nil {
		return nil, "", err
	}
	if err != nil {
		slog.Warn(config.ErrSettingsWrite,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err)
	}
	if err := settings.ValidatePort(); err != nil {
		return nil, "", err
	}
	return settings, path, nil
}

// runTray starts the Fyne tray application. It blocks until the app quits.
func runTray(ctx context.Context, settings *config.Settings, settingsPath string) error {
	a := app.NewWithID(config.AppID)

	srv := server.NewFeedServer(settings.Port)
	gui := ui.NewCelebrationsApp(a, ctx, settings, settingsPath, srv, engine.NewHTTPFetcher())

	return gui.Run()
}

// runHeadless serves the feed and refreshes it on schedule until ctx ends.
func runHeadless(ctx context.Context, settings *config.Settings) error {
	slog.Info(config.MsgHeadless,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyPort, settings.Port)

	loc, err := settings.Location()
	if err != nil {
		return err
	}

	srv := server.NewFeedServer(settings.Port)
	fetcher := engine.NewHTTPFetcher()
	gen := &engine.Generator{
		Clock:         engine.RealClock{},
		Fetcher:       fetcher,
		API:           fetcher,
		FormatSummary: locale.New(settings.Language).Summary,
	}

	sched := worker.New(settings.Refresh, loc, func(ctx context.Context, manual bool) error {
		cfg, err := engine.SyncConfigFromSettings(settings, config.LookupSecret(settings.Source.Username))
		if err != nil {
			return err
		}
		snap, err := gen.RunSync(ctx, cfg)
		if err != nil {
			return err
		}
		return srv.Update(snap)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	return g.Wait()
}

// storeSecretFromStdin reads the first line of r and saves it in the keyring.
func storeSecretFromStdin(r io.Reader, user string) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return config.StoreSecret(user, line)
}

func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyDate, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging writes JSON logs to stdout and, when possible, to a file in
// the user cache directory (truncated on each start).
func setupLogging(debugMode bool) io.Closer {
	writers := []io.Writer{os.Stdout}
	var logFile *os.File

	if logPath, err := getLogFilePath(); err == nil {
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
