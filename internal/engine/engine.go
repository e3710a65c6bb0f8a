package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tartampluch/go-celebrations/internal/config"
)

// ErrSourceUnsupported is returned for an unknown contact source mode.
var ErrSourceUnsupported = errors.New(config.ErrModeUnsupport)

// SyncConfig contains all parameters required to perform a synchronization.
type SyncConfig struct {
	Mode      string // config.SourceModeLocal, config.SourceModeWeb or config.SourceModeAPI
	LocalPath string // Path to the .vcf file
	WebURL    string // CardDAV/WebDAV URL or contacts API URL
	WebUser   string // HTTP Basic Auth username (web mode)
	WebPass   string // HTTP Basic Auth password (web) or bearer token (api)

	WindowDays      int
	DashboardLimit  int
	ReminderTrigger string // ISO8601 duration string (e.g., "-P1D")

	// Location is the zone "today" is taken in. Nil keeps the clock's zone.
	Location *time.Location
}

// SyncConfigFromSettings maps persisted settings and a keyring secret.
func SyncConfigFromSettings(s *config.Settings, secret string) (SyncConfig, error) {
	loc, err := s.Location()
	if err != nil {
		return SyncConfig{}, err
	}
	return SyncConfig{
		Mode:            s.Source.Mode,
		LocalPath:       s.Source.Path,
		WebURL:          s.Source.URL,
		WebUser:         s.Source.Username,
		WebPass:         secret,
		WindowDays:      s.WindowDays,
		DashboardLimit:  s.DashboardLimit,
		ReminderTrigger: s.ReminderTrigger(),
		Location:        loc,
	}, nil
}

// Snapshot is the complete result of one synchronization.
type Snapshot struct {
	GeneratedAt time.Time
	WindowDays  int
	Contacts    []Contact
	Upcoming    []UpcomingEvent
	Stats       Stats
	ICS         []byte
}

// Generator is the core service: it acquires contacts, resolves upcoming
// events and renders the calendar feed.
type Generator struct {
	Clock   Clock        // Interface for time mocking.
	Fetcher VCardFetcher // CardDAV/WebDAV access.
	API     APIFetcher   // Contacts collaborator access.

	// FormatSummary lets the presentation layer inject localized summaries.
	FormatSummary func(t EventType, name string) string
}

// Today returns midnight of the current day in the configured location.
func (g *Generator) Today(cfg SyncConfig) time.Time {
	return startOfDay(g.now(cfg))
}

// now reads the clock in the configured location.
func (g *Generator) now(cfg SyncConfig) time.Time {
	now := g.Clock.Now()
	if cfg.Location != nil {
		now = now.In(cfg.Location)
	}
	return now
}

// RunSync executes the acquisition, resolution and generation pipeline.
func (g *Generator) RunSync(ctx context.Context, cfg SyncConfig) (*Snapshot, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Mode,
	)
	log.InfoContext(ctx, config.MsgSyncStarted)

	contacts, err := g.LoadContacts(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := g.now(cfg)
	today := startOfDay(now)

	upcoming, err := ResolveUpcoming(contacts, today, cfg.WindowDays)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrResolve, err)
	}

	for _, e := range upcoming {
		if e.DaysUntil != 0 {
			break
		}
		log.Info(config.MsgEventToday,
			config.LogKeyName, e.ContactName,
			config.LogKeyEvent, e.EventType)
	}

	ics, err := g.generateCalendar(contacts, now, cfg.ReminderTrigger)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		GeneratedAt: now,
		WindowDays:  cfg.WindowDays,
		Contacts:    contacts,
		Upcoming:    upcoming,
		Stats:       BuildStats(contacts, upcoming, cfg.DashboardLimit),
		ICS:         ics,
	}

	log.Info(config.MsgGenSuccess,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyContacts, snap.Stats.TotalContacts),
			slog.Int(config.LogKeyWithDates, snap.Stats.WithDates),
			slog.Int(config.LogKeyUpcoming, len(upcoming)),
			slog.Int(config.LogKeyToday, snap.Stats.Today),
		),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return snap, nil
}

// LoadContacts acquires and decodes the contacts of the configured source.
func (g *Generator) LoadContacts(ctx context.Context, cfg SyncConfig) ([]Contact, error) {
	reader, err := g.acquireStream(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrSourceUnsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", config.ErrContactSource, err)
	}
	// Best effort close. Errors in Close() for read-only streams are rarely actionable here.
	defer func() { _ = reader.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var contacts []Contact
	if cfg.Mode == config.SourceModeAPI {
		contacts, err = decodeAPIContacts(reader)
	} else {
		contacts, err = decodeVCards(ctx, reader)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	slog.Debug(config.MsgContactsLoaded,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Mode,
		config.LogKeyCount, len(contacts))
	return contacts, nil
}

// acquireStream opens the appropriate data source based on configuration.
func (g *Generator) acquireStream(ctx context.Context, cfg SyncConfig) (io.ReadCloser, error) {
	switch cfg.Mode {
	case config.SourceModeLocal:
		if cfg.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(cfg.LocalPath)
	case config.SourceModeWeb:
		if cfg.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if g.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return g.Fetcher.Fetch(ctx, cfg.WebURL, cfg.WebUser, cfg.WebPass)
	case config.SourceModeAPI:
		if cfg.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if g.API == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return g.API.FetchContacts(ctx, cfg.WebURL, cfg.WebPass)
	default:
		return nil, fmt.Errorf("%w: %q", ErrSourceUnsupported, cfg.Mode)
	}
}
