package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/randomoranges/can-do/internal/domain"
	"github.com/randomoranges/can-do/internal/engine"
)

type fakeRunner struct {
	jobs    []domain.JobType
	failOn  domain.JobType
	results []engine.Outcome
}

func (f *fakeRunner) Run(_ context.Context, job domain.JobType, userID string) ([]engine.Outcome, error) {
	if userID != "" {
		return nil, errors.New("cron must never run event mode")
	}
	if job == f.failOn {
		return nil, errors.New("list users failed")
	}
	f.jobs = append(f.jobs, job)
	return f.results, nil
}

func TestTick_RunsEveryScheduledJobType(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, zap.NewNop(), 0)

	s.tick(context.Background())

	assert.Equal(t, cronJobs, r.jobs)
	assert.NotContains(t, r.jobs, domain.JobCelebration)
}

func TestTick_ContinuesPastFailedJob(t *testing.T) {
	r := &fakeRunner{failOn: domain.JobMorning}
	s := New(r, zap.NewNop(), 0)

	s.tick(context.Background())

	assert.NotContains(t, r.jobs, domain.JobMorning)
	assert.Contains(t, r.jobs, domain.JobHourlyCheck)
}
