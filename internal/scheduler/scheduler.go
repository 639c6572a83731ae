package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron schedule. A run that is still going when the
// next tick arrives causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	entry  cron.EntryID
	logger zerolog.Logger
}

// New creates a scheduler evaluating schedules in loc. Jobs run with a
// context derived from parent: cancelling parent or calling Stop cancels
// the job in flight.
func New(parent context.Context, loc *time.Location) *Scheduler {
	logger := log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(parent)

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Start registers job under schedule (standard five-field syntax or
// descriptors such as @daily) and starts the scheduler.
func (s *Scheduler) Start(schedule string, job Job) error {
	id, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return err
	}
	s.entry = id
	s.cron.Start()

	s.logger.Info().
		Str("schedule", schedule).
		Time("next_run", s.Next()).
		Msg("Scheduler started")
	return nil
}

// Next returns the next planned run, zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunNow executes job once, synchronously.
func (s *Scheduler) RunNow(job Job) {
	s.logger.Info().Msg("Triggering immediate run")
	s.run(job)
}

// Stop cancels the context of a running job and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) run(job Job) {
	started := time.Now()
	if err := job(s.ctx); err != nil {
		s.logger.Error().Err(err).Dur("took", time.Since(started)).Msg("Scheduled run failed")
		return
	}
	s.logger.Info().Dur("took", time.Since(started)).Time("next_run", s.Next()).Msg("Scheduled run finished")
}

// LoadLocation resolves a time zone name, falling back to the local zone.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("tz", name).Msg("Unknown time zone, using local time")
		return time.Local
	}
	return loc
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
