// Package worker runs the contact synchronization on a cron schedule.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tartampluch/go-celebrations/internal/config"
)

// Job performs one synchronization. manual is true for user-requested runs.
type Job func(ctx context.Context, manual bool) error

// Scheduler runs a Job once at start, then on Spec and at every local
// midnight, so that day counts roll over even with a long refresh interval.
// Runs never overlap: requests arriving during a run are coalesced into one.
type Scheduler struct {
	Spec     string
	Location *time.Location
	Job      Job

	mu            sync.Mutex
	pendingManual bool
	wakeOnce      sync.Once
	wake          chan struct{}
}

// New creates a scheduler. A nil location means time.Local. A struct literal
// works as well.
func New(spec string, loc *time.Location, job Job) *Scheduler {
	return &Scheduler{
		Spec:     spec,
		Location: loc,
		Job:      job,
	}
}

func (s *Scheduler) wakeCh() chan struct{} {
	s.wakeOnce.Do(func() {
		s.wake = make(chan struct{}, config.ChannelBufferSize)
	})
	return s.wake
}

// Trigger requests an immediate manual run. It never blocks.
func (s *Scheduler) Trigger() {
	slog.Info(config.MsgWorkerTrigger, config.LogKeyComponent, config.CompWorker)
	s.request(true)
}

func (s *Scheduler) request(manual bool) {
	s.mu.Lock()
	s.pendingManual = s.pendingManual || manual
	s.mu.Unlock()

	select {
	case s.wakeCh() <- struct{}{}:
	default:
		// A run is already pending.
	}
}

// ValidateSpec checks a refresh schedule without starting anything. It
// accepts the same syntax as Run.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%s %q: %w", config.ErrScheduleSpec, spec, err)
	}
	return nil
}

// Run blocks until ctx is cancelled. Job errors are logged and do not stop
// the schedule. An invalid Spec is returned before anything runs.
func (s *Scheduler) Run(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompWorker)
	wake := s.wakeCh()

	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{log: log}),
	)
	for _, spec := range []string{s.Spec, config.RolloverSpec} {
		if _, err := c.AddFunc(spec, func() { s.request(false) }); err != nil {
			return fmt.Errorf("%s %q: %w", config.ErrScheduleSpec, spec, err)
		}
	}

	s.run(ctx, log, false)

	c.Start()
	defer func() { <-c.Stop().Done() }()

	log.Info(config.MsgWorkerStart,
		config.LogKeySpec, s.Spec,
		config.LogKeyLocation, loc.String())

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return nil
		case <-wake:
			s.mu.Lock()
			manual := s.pendingManual
			s.pendingManual = false
			s.mu.Unlock()

			s.run(ctx, log, manual)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, log *slog.Logger, manual bool) {
	if ctx.Err() != nil {
		return
	}
	if err := s.Job(ctx, manual); err != nil && ctx.Err() == nil {
		log.Error(config.MsgSyncFailed,
			config.LogKeyManual, manual,
			config.LogKeyError, err)
	}
}

// cronLogger routes cron's internal messages to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, config.LogKeyError, err)...)
}
