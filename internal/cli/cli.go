// Package cli implements the celebrate command line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/tartampluch/go-celebrations/internal/engine"
	"github.com/tartampluch/go-celebrations/internal/locale"
)

// Deps are the collaborators of the commands. Zero values are replaced by the
// production implementations.
type Deps struct {
	Fetcher engine.VCardFetcher
	API     engine.APIFetcher
	Clock   engine.Clock

	// Secret resolves the keyring entry of a username.
	Secret func(user string) string

	// LogOutput receives the structured logs. Defaults to stderr.
	LogOutput io.Writer
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	mode       string
	path       string
	url        string
	user       string
	today      string
	lang       string
	debug      bool
}

// NewRootCommand builds the celebrate command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	if deps.Fetcher == nil || deps.API == nil {
		f := engine.NewHTTPFetcher()
		if deps.Fetcher == nil {
			deps.Fetcher = f
		}
		if deps.API == nil {
			deps.API = f
		}
	}
	if deps.Clock == nil {
		deps.Clock = engine.RealClock{}
	}
	if deps.Secret == nil {
		deps.Secret = config.LookupSecret
	}
	if deps.LogOutput == nil {
		deps.LogOutput = os.Stderr
	}

	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           config.CLIName,
		Short:         config.CmdShortRoot,
		Long:          config.CmdLongRoot,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(deps.LogOutput, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, config.FlagConfig, "", config.FlagDescConfig)
	pf.StringVar(&opts.mode, config.FlagMode, "", config.FlagDescMode)
	pf.StringVar(&opts.path, config.FlagPath, "", config.FlagDescPath)
	pf.StringVar(&opts.url, config.FlagURL, "", config.FlagDescURL)
	pf.StringVar(&opts.user, config.FlagUser, "", config.FlagDescUser)
	pf.StringVar(&opts.today, config.FlagToday, "", config.FlagDescToday)
	pf.StringVar(&opts.lang, config.FlagLang, "", config.FlagDescLang)
	pf.BoolVar(&opts.debug, config.FlagDebug, false, config.FlagDescDebug)

	root.AddCommand(
		newUpcomingCommand(opts, deps),
		newDashboardCommand(opts, deps),
		newContactsCommand(opts, deps),
		newFeedCommand(opts, deps),
	)
	return root
}

// session is what a subcommand needs once flags and settings are merged.
type session struct {
	cfg    engine.SyncConfig
	gen    *engine.Generator
	locale *locale.Localizer
	styles Styles
}

// open loads the settings, applies the flag overrides and builds the engine.
func (o *globalOptions) open(deps Deps) (*session, error) {
	path := o.configPath
	if path == "" {
		p, err := config.DefaultSettingsPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	settings, err := config.LoadSettings(path)
	if err != nil {
		if settings == nil {
			return nil, err
		}
		// Defaults are usable even when the first-run file could not be written.
		slog.Warn(config.ErrSettingsWrite,
			config.LogKeyComponent, config.CompCLI,
			config.LogKeyError, err)
	}

	if o.mode != "" {
		settings.Source.Mode = o.mode
	}
	if o.path != "" {
		settings.Source.Path = o.path
		if o.mode == "" {
			settings.Source.Mode = config.SourceModeLocal
		}
	}
	if o.url != "" {
		settings.Source.URL = o.url
	}
	if o.user != "" {
		settings.Source.Username = o.user
	}
	if o.lang != "" {
		settings.Language = o.lang
	}

	cfg, err := engine.SyncConfigFromSettings(settings, deps.Secret(settings.Source.Username))
	if err != nil {
		return nil, err
	}

	clock := deps.Clock
	if o.today != "" {
		loc := cfg.Location
		if loc == nil {
			loc = time.Local
		}
		ref, err := time.ParseInLocation(config.DateFormatReference, o.today, loc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrReferenceDate, err)
		}
		clock = engine.FixedClock(ref)
	}

	loc := locale.New(settings.Language)

	slog.Debug(config.MsgSettingsLoaded,
		config.LogKeyComponent, config.CompCLI,
		config.LogKeyMode, cfg.Mode,
		config.LogKeyWindow, cfg.WindowDays,
		config.LogKeyLang, loc.Language())

	return &session{
		cfg: cfg,
		gen: &engine.Generator{
			Clock:         clock,
			Fetcher:       deps.Fetcher,
			API:           deps.API,
			FormatSummary: loc.Summary,
		},
		locale: loc,
		styles: DefaultStyles(),
	}, nil
}

func newUpcomingCommand(opts *globalOptions, deps Deps) *cobra.Command {
	var window int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   config.CmdUseUpcoming,
		Short: config.CmdShortUpcoming,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(deps)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(config.FlagWindow) {
				s.cfg.WindowDays = window
			}

			snap, err := s.gen.RunSync(cmd.Context(), s.cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, snap.Report())
			}
			if len(snap.Upcoming) == 0 {
				_, err := fmt.Fprintln(out, s.locale.GetMsg(config.TKeyNoUpcoming))
				return err
			}
			_, err = io.WriteString(out, s.upcomingTable(s.locale.GetMsg(config.TKeyWinUpcoming), snap.Upcoming))
			return err
		},
	}

	cmd.Flags().IntVar(&window, config.FlagWindow, config.DefaultWindowDays, config.FlagDescWindow)
	cmd.Flags().BoolVar(&asJSON, config.FlagJSON, false, config.FlagDescJSON)
	return cmd
}

func newDashboardCommand(opts *globalOptions, deps Deps) *cobra.Command {
	var window int

	cmd := &cobra.Command{
		Use:   config.CmdUseDashboard,
		Short: config.CmdShortDashboard,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(deps)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(config.FlagWindow) {
				s.cfg.WindowDays = window
			}

			snap, err := s.gen.RunSync(cmd.Context(), s.cfg)
			if err != nil {
				return err
			}

			var sb strings.Builder
			sb.WriteString(s.styles.Title.Render(config.AppName))
			sb.WriteString("\n")
			sb.WriteString(s.statsLine(snap.Stats))
			sb.WriteString("\n\n")
			if len(snap.Stats.Upcoming) == 0 {
				sb.WriteString(s.styles.Muted.Render(s.locale.GetMsg(config.TKeyNoUpcoming)))
				sb.WriteString("\n")
			} else {
				sb.WriteString(s.upcomingTable(s.locale.GetMsg(config.TKeyStatsUpcoming), snap.Stats.Upcoming))
			}

			_, err = io.WriteString(cmd.OutOrStdout(), sb.String())
			return err
		},
	}

	cmd.Flags().IntVar(&window, config.FlagWindow, config.DefaultWindowDays, config.FlagDescWindow)
	return cmd
}

func newContactsCommand(opts *globalOptions, deps Deps) *cobra.Command {
	var search, filter, sortKey string

	cmd := &cobra.Command{
		Use:   config.CmdUseContacts,
		Short: config.CmdShortContacts,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(deps)
			if err != nil {
				return err
			}

			contacts, err := s.gen.LoadContacts(cmd.Context(), s.cfg)
			if err != nil {
				return err
			}

			view, err := engine.ApplyQuery(contacts, engine.Query{
				Search:    search,
				Filter:    engine.Filter(filter),
				Sort:      engine.SortKey(sortKey),
				Reference: s.gen.Today(s.cfg),
			})
			if err != nil {
				return err
			}

			t := newTable("",
				s.locale.GetMsg(config.TKeyColName),
				s.locale.GetMsg(config.TKeyColEmail),
				s.locale.GetMsg(config.TKeyEvtBirthday),
				s.locale.GetMsg(config.TKeyEvtAnniversary),
				s.locale.GetMsg(config.TKeyColWhen),
			)
			today := s.gen.Today(s.cfg)
			for _, c := range view {
				when := config.CLIEmptyCell
				next, ok := engine.NextEvent(c, today)
				if ok {
					when = s.locale.DaysUntil(next.DaysUntil)
				}
				t.addRow(ok && next.DaysUntil == 0,
					c.Name, orEmpty(c.Email), monthDayCell(c.Birthday), monthDayCell(c.Anniversary), when)
			}

			_, err = io.WriteString(cmd.OutOrStdout(), t.render(s.styles))
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&search, config.FlagSearch, "", config.FlagDescSearch)
	f.StringVar(&filter, config.FlagFilter, string(engine.FilterAll), config.FlagDescFilter)
	f.StringVar(&sortKey, config.FlagSort, string(engine.SortName), config.FlagDescSort)
	return cmd
}

func newFeedCommand(opts *globalOptions, deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdUseFeed,
		Short: config.CmdShortFeed,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(deps)
			if err != nil {
				return err
			}
			snap, err := s.gen.RunSync(cmd.Context(), s.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(snap.ICS)
			return err
		},
	}
}

func (s *session) upcomingTable(title string, events []engine.UpcomingEvent) string {
	t := newTable(title,
		s.locale.GetMsg(config.TKeyColName),
		s.locale.GetMsg(config.TKeyColEvent),
		s.locale.GetMsg(config.TKeyColDate),
		s.locale.GetMsg(config.TKeyColWhen),
	)
	for _, e := range events {
		t.addRow(e.DaysUntil == 0,
			e.ContactName,
			s.locale.EventType(e.EventType),
			e.OccurrenceDate.Format(s.locale.DateFormat()),
			s.locale.DaysUntil(e.DaysUntil),
		)
	}
	return t.render(s.styles)
}

func (s *session) statsLine(st engine.Stats) string {
	parts := []string{
		fmt.Sprintf("%s: %d", s.locale.GetMsg(config.TKeyStatsContacts), st.TotalContacts),
		fmt.Sprintf("%s: %d", s.locale.GetMsg(config.TKeyStatsWithDates), st.WithDates),
		fmt.Sprintf("%s: %d", s.locale.GetMsg(config.TKeyStatsToday), st.Today),
	}
	return strings.Join(parts, "  |  ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", config.CLIJSONIndent)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%s: %w", config.ErrEncodeResp, err)
	}
	return nil
}

func monthDayCell(md *engine.MonthDay) string {
	if md == nil {
		return config.CLIEmptyCell
	}
	return md.String()
}

func orEmpty(s string) string {
	if s == "" {
		return config.CLIEmptyCell
	}
	return s
}
