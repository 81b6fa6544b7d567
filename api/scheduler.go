/*
scheduler.go - Periodic report archiving

PURPOSE:
  Archives the current report on a cron schedule so compliance staff can
  see how member risk evolved, and which ruleset version each report was
  built under, without anyone pressing a button.

DESIGN:
  - Scheduler wraps robfig/cron with second-level specs
  - Jobs implement Job (Run + Name); failures are logged, never fatal
  - SnapshotJob calls Handler.TakeSnapshot, the same path as
    POST /api/snapshots

CONFIGURATION:
  SNAPSHOT_SCHEDULE (default "@every 1h"); empty disables the job.

USAGE:
  sched := NewScheduler(log)
  sched.AddJob("@every 1h", NewSnapshotJob(handler))
  sched.Start()
  // ... later
  sched.Stop()

SEE ALSO:
  - handlers.go: TakeSnapshot, CreateSnapshot
*/
package api

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule.
// Schedule examples:
//   - "0 0 * * * *"   - Top of every hour
//   - "@daily"        - Midnight
//   - "@every 30m"    - Every 30 minutes
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Debug().Str("job", job.Name()).Msg("Running job")

		if err := job.Run(); err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Msg("Job failed")
		} else {
			s.log.Debug().Str("job", job.Name()).Msg("Job completed")
		}
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

// =============================================================================
// SNAPSHOT JOB
// =============================================================================

// SnapshotJob archives the current report.
type SnapshotJob struct {
	Handler *Handler
	Timeout time.Duration
}

// NewSnapshotJob creates the job with a one-minute timeout per run.
func NewSnapshotJob(h *Handler) *SnapshotJob {
	return &SnapshotJob{Handler: h, Timeout: time.Minute}
}

// Name implements Job.
func (j *SnapshotJob) Name() string { return "report-snapshot" }

// Run implements Job.
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	_, err := j.Handler.TakeSnapshot(ctx)
	return err
}
