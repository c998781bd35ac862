// Package engine orchestrates notification jobs: it decides which users get
// which job right now, builds their context, and runs the
// dedup → generate → send → record pipeline with per-user fault isolation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/randomoranges/can-do/internal/domain"
	"github.com/randomoranges/can-do/internal/llm"
	"github.com/randomoranges/can-do/internal/store"
)

// Send-window hours in the user's local timezone.
const (
	morningHour = 8
	middayHour  = 14
	eveningHour = 20
	fridayHour  = 18 // Friday only
	sundayHour  = 19 // Sunday only
)

// Generator produces a subject/body pair for one job instruction.
type Generator interface {
	Generate(ctx context.Context, instruction string, uc domain.UserContext) (llm.Message, error)
}

// Sender delivers one message. Any returned error means "not sent".
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Status classifies the result of one (user, job) evaluation.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome reports what happened to one candidate job for one user. Batch
// runs return one Outcome per evaluation instead of swallowing errors.
type Outcome struct {
	UserID string
	Job    domain.JobType
	Status Status
	Reason string // set for skips
	Err    error  // set for failures
}

// ErrEventJobUnsupported rejects event-mode invocations for job types that
// are not client-triggered.
var ErrEventJobUnsupported = errors.New("engine: only celebration can be event-triggered")

// Engine is stateless between invocations; all cross-invocation state lives
// in the store.
type Engine struct {
	repo      store.Repo
	gen       Generator
	mailer    Sender
	defaultTZ string
	log       *zap.Logger
	now       func() time.Time
}

// New wires the engine. defaultTZ substitutes for users with an empty
// timezone setting.
func New(repo store.Repo, gen Generator, mailer Sender, defaultTZ string, log *zap.Logger) *Engine {
	return &Engine{
		repo:      repo,
		gen:       gen,
		mailer:    mailer,
		defaultTZ: defaultTZ,
		log:       log,
		now:       time.Now,
	}
}

// Run dispatches one invocation. A non-empty userID selects event mode
// (celebration only); otherwise every opted-in user is evaluated against the
// requested job type. The returned error covers top-level failures only;
// per-user problems are reported through the outcomes.
func (e *Engine) Run(ctx context.Context, job domain.JobType, userID string) ([]Outcome, error) {
	if userID != "" {
		out, err := e.runEvent(ctx, job, userID)
		if err != nil {
			return nil, err
		}
		return []Outcome{out}, nil
	}
	return e.runScheduled(ctx, job)
}

func (e *Engine) runScheduled(ctx context.Context, job domain.JobType) ([]Outcome, error) {
	users, err := e.repo.ListEnabledSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled users: %w", err)
	}

	var outcomes []Outcome
	for i := range users {
		outcomes = append(outcomes, e.evalUser(ctx, job, &users[i])...)
	}
	return outcomes, nil
}

// evalUser evaluates one user against the invocation's job type. All errors
// stop at this user; the batch loop continues regardless.
func (e *Engine) evalUser(ctx context.Context, job domain.JobType, s *domain.Settings) []Outcome {
	now := e.now().UTC()
	tz := e.userTZ(s)
	e.warnBadTZ(s, tz)

	candidates := e.gatedJobs(job, tz, now)
	if len(candidates) == 0 {
		return []Outcome{{
			UserID: s.UserID,
			Job:    job,
			Status: StatusSkipped,
			Reason: "outside send window",
		}}
	}

	uc, err := e.buildContext(ctx, s, now)
	if err != nil {
		e.log.Error("build context failed",
			zap.String("user", s.UserID), zap.Error(err))
		out := make([]Outcome, 0, len(candidates))
		for _, j := range candidates {
			out = append(out, Outcome{UserID: s.UserID, Job: j, Status: StatusFailed, Err: err})
		}
		return out
	}

	out := make([]Outcome, 0, len(candidates))
	for _, j := range candidates {
		out = append(out, e.processJob(ctx, s, uc, j, now))
	}
	return out
}

// gatedJobs maps the invocation job type to the concrete jobs due at this
// local hour/weekday. hourly_check expands to its two checks with no hour
// gate; their selectors and the ledger keep them quiet most of the day.
func (e *Engine) gatedJobs(job domain.JobType, tz string, now time.Time) []domain.JobType {
	hour := domain.LocalHour(tz, now)
	day := domain.LocalWeekday(tz, now)

	switch job {
	case domain.JobMorning:
		if hour == morningHour {
			return []domain.JobType{domain.JobMorning}
		}
	case domain.JobMidday:
		if hour == middayHour {
			return []domain.JobType{domain.JobMidday}
		}
	case domain.JobEvening:
		if hour == eveningHour {
			return []domain.JobType{domain.JobEvening}
		}
	case domain.JobFriday:
		if day == 5 && hour == fridayHour {
			return []domain.JobType{domain.JobFriday}
		}
	case domain.JobSunday:
		if day == 0 && hour == sundayHour {
			return []domain.JobType{domain.JobSunday}
		}
	case domain.JobHourlyCheck:
		return []domain.JobType{domain.JobStaleTask, domain.JobInactivity}
	case domain.JobStaleTask:
		return []domain.JobType{domain.JobStaleTask}
	case domain.JobInactivity:
		return []domain.JobType{domain.JobInactivity}
	}
	return nil
}

func (e *Engine) runEvent(ctx context.Context, job domain.JobType, userID string) (Outcome, error) {
	if job != domain.JobCelebration {
		return Outcome{}, fmt.Errorf("%w: got %q", ErrEventJobUnsupported, job)
	}

	s, err := e.repo.GetSettings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Outcome{UserID: userID, Job: job, Status: StatusSkipped, Reason: "not opted in"}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("load settings: %w", err)
	}
	if !s.Enabled {
		return Outcome{UserID: userID, Job: job, Status: StatusSkipped, Reason: "notifications disabled"}, nil
	}

	e.warnBadTZ(s, e.userTZ(s))

	// Context is rebuilt here so the triggering change (the final completed
	// task) is visible.
	now := e.now().UTC()
	uc, err := e.buildContext(ctx, s, now)
	if err != nil {
		return Outcome{UserID: userID, Job: job, Status: StatusFailed, Err: err}, nil
	}
	return e.processJob(ctx, s, uc, job, now), nil
}

// buildContext assembles the per-invocation UserContext snapshot from the
// store. Ages and inactivity derive from the now passed in.
func (e *Engine) buildContext(ctx context.Context, s *domain.Settings, now time.Time) (domain.UserContext, error) {
	tasks, err := e.repo.ListTasks(ctx, s.UserID)
	if err != nil {
		return domain.UserContext{}, fmt.Errorf("list tasks: %w", err)
	}
	winsWeek, err := e.repo.CountWinsSince(ctx, s.UserID, now.Add(-7*24*time.Hour))
	if err != nil {
		return domain.UserContext{}, fmt.Errorf("count weekly wins: %w", err)
	}
	winsTotal, err := e.repo.CountWins(ctx, s.UserID)
	if err != nil {
		return domain.UserContext{}, fmt.Errorf("count wins: %w", err)
	}

	in := domain.ContextInput{
		Settings:     *s,
		Tasks:        tasks,
		WinsThisWeek: winsWeek,
		WinsTotal:    winsTotal,
		Now:          now,
	}
	in.Settings.TZ = e.userTZ(s)
	return domain.BuildUserContext(in), nil
}

// processJob runs the pipeline for one matched (user, job) pair:
// selector → dedup check → generate → send → ledger append. The check and
// the append are deliberately not atomic; a rare duplicate under two
// near-simultaneous identical invocations is accepted over distributed
// locking.
func (e *Engine) processJob(ctx context.Context, s *domain.Settings, uc domain.UserContext, job domain.JobType, now time.Time) Outcome {
	o := Outcome{UserID: s.UserID, Job: job}
	tz := e.userTZ(s)

	instruction, ok := domain.PromptFor(job, uc)
	if !ok {
		o.Status = StatusSkipped
		o.Reason = "selector declined"
		return o
	}

	sent, err := e.repo.WasSentSince(ctx, s.UserID, job, domain.StartOfLocalDay(tz, now))
	if err != nil {
		return e.fail(o, fmt.Errorf("dedup check: %w", err))
	}
	if sent {
		o.Status = StatusSkipped
		o.Reason = "already sent today"
		e.log.Debug("skipping, already sent today",
			zap.String("user", s.UserID), zap.String("job", string(job)))
		return o
	}

	msg, err := e.gen.Generate(ctx, instruction, uc)
	if err != nil {
		return e.fail(o, fmt.Errorf("generate: %w", err))
	}

	if err := e.mailer.Send(ctx, s.Email, msg.Subject, msg.Body); err != nil {
		return e.fail(o, fmt.Errorf("send: %w", err))
	}

	if err := e.repo.LogDelivery(ctx, s.UserID, job, msg.Subject, now); err != nil {
		// The message is out; a missing ledger row only risks one duplicate.
		e.log.Error("ledger append failed",
			zap.String("user", s.UserID), zap.String("job", string(job)), zap.Error(err))
	}

	e.log.Info("notification sent",
		zap.String("user", s.UserID),
		zap.String("job", string(job)),
		zap.String("subject", msg.Subject),
	)
	o.Status = StatusSent
	return o
}

func (e *Engine) fail(o Outcome, err error) Outcome {
	o.Status = StatusFailed
	o.Err = err
	e.log.Error("job failed",
		zap.String("user", o.UserID), zap.String("job", string(o.Job)), zap.Error(err))
	return o
}

func (e *Engine) userTZ(s *domain.Settings) string {
	if s.TZ == "" {
		return e.defaultTZ
	}
	return s.TZ
}

// warnBadTZ logs once per user evaluation when the timezone fell back to UTC.
func (e *Engine) warnBadTZ(s *domain.Settings, tz string) {
	if _, ok := domain.Location(tz); !ok {
		e.log.Warn("unrecognized timezone, using UTC",
			zap.String("user", s.UserID), zap.String("tz", tz))
	}
}
