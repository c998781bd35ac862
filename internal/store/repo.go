package store

import (
	"context"
	"errors"
	"time"

	"github.com/randomoranges/can-do/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for notification settings, tasks, wins and
// the delivery ledger. The engine only reads tasks and wins; the write
// helpers exist for the surrounding app and for tests.
type Repo interface {
	UpsertSettings(ctx context.Context, s *domain.Settings) error
	GetSettings(ctx context.Context, userID string) (*domain.Settings, error)
	ListEnabledSettings(ctx context.Context) ([]domain.Settings, error)
	SetEnabled(ctx context.Context, userID string, enabled bool) error
	TouchLastAppOpen(ctx context.Context, userID string, at time.Time) error

	AddTask(ctx context.Context, t *domain.Task) error
	SetTaskCompleted(ctx context.Context, taskID string, completed bool) error
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)

	AddWin(ctx context.Context, w *domain.Win) error
	CountWins(ctx context.Context, userID string) (int, error)
	CountWinsSince(ctx context.Context, userID string, since time.Time) (int, error)

	// WasSentSince reports whether a ledger entry exists for (user, job) at or
	// after the given instant. LogDelivery appends one; entries are never
	// updated or deleted.
	WasSentSince(ctx context.Context, userID string, job domain.JobType, since time.Time) (bool, error)
	LogDelivery(ctx context.Context, userID string, job domain.JobType, subject string, at time.Time) error

	Close() error
}
