package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/randomoranges/can-do/internal/domain"
	"github.com/randomoranges/can-do/internal/engine"
)

// Runner is the slice of the engine the cron loop needs.
type Runner interface {
	Run(ctx context.Context, job domain.JobType, userID string) ([]engine.Outcome, error)
}

// cronJobs are the job types a tick evaluates. Celebration is event-only and
// never scheduled.
var cronJobs = []domain.JobType{
	domain.JobMorning,
	domain.JobMidday,
	domain.JobEvening,
	domain.JobFriday,
	domain.JobSunday,
	domain.JobHourlyCheck,
}

// Scheduler periodically drives scheduled jobs through the engine. The
// temporal gate and the dedup ledger make ticks idempotent, so the interval
// only affects delivery latency, never duplicate sends.
type Scheduler struct {
	runner   Runner
	log      *zap.Logger
	interval time.Duration
}

// New creates a Scheduler. A non-positive interval falls back to 15 minutes.
func New(runner Runner, log *zap.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{runner: runner, log: log, interval: interval}
}

// Run starts the loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick performs one cycle: every scheduled job type over every opted-in user.
func (s *Scheduler) tick(ctx context.Context) {
	for _, job := range cronJobs {
		outcomes, err := s.runner.Run(ctx, job, "")
		if err != nil {
			s.log.Error("scheduled run failed", zap.String("job", string(job)), zap.Error(err))
			continue
		}

		var sent, failed int
		for _, o := range outcomes {
			switch o.Status {
			case engine.StatusSent:
				sent++
			case engine.StatusFailed:
				failed++
			}
		}
		if sent > 0 || failed > 0 {
			s.log.Info("scheduled run finished",
				zap.String("job", string(job)),
				zap.Int("sent", sent),
				zap.Int("failed", failed),
				zap.Int("evaluated", len(outcomes)),
			)
		}
	}
}
