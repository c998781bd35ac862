package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/randomoranges/can-do/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// UpsertSettings inserts or updates a user's notification settings.
// Existing rows keep their created_at; disabling never deletes.
func (r *SQLiteRepo) UpsertSettings(ctx context.Context, s *domain.Settings) error {
	if s == nil {
		return errors.New("nil settings")
	}

	created := s.CreatedAt.UTC().Unix()
	if s.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO happy_settings (
			user_id, enabled, name, email, tz, location, last_app_open, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			enabled       = excluded.enabled,
			name          = excluded.name,
			email         = excluded.email,
			tz            = excluded.tz,
			location      = excluded.location,
			last_app_open = excluded.last_app_open`,
		s.UserID, boolToInt(s.Enabled), s.Name, s.Email, s.TZ, s.Location,
		toNullInt64(s.LastAppOpen), created,
	)
	return err
}

// GetSettings returns a user's settings or ErrNotFound.
func (r *SQLiteRepo) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, enabled, name, email, tz, location, last_app_open, created_at
		FROM happy_settings
		WHERE user_id = ?`,
		userID,
	)
	s, err := scanSettings(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settings %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListEnabledSettings returns every user with notifications enabled.
func (r *SQLiteRepo) ListEnabledSettings(ctx context.Context) ([]domain.Settings, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, enabled, name, email, tz, location, last_app_open, created_at
		FROM happy_settings
		WHERE enabled = 1
		ORDER BY created_at ASC, user_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Settings
	for rows.Next() {
		s, err := scanSettings(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func scanSettings(scan func(dest ...any) error) (*domain.Settings, error) {
	var (
		userID     string
		enabledInt int
		name       string
		email      string
		tz         string
		location   string
		lastNS     sql.NullInt64
		createdAt  int64
	)
	if err := scan(&userID, &enabledInt, &name, &email, &tz, &location, &lastNS, &createdAt); err != nil {
		return nil, err
	}
	return &domain.Settings{
		UserID:      userID,
		Enabled:     enabledInt != 0,
		Name:        name,
		Email:       email,
		TZ:          tz,
		Location:    location,
		LastAppOpen: fromNullInt64(lastNS),
		CreatedAt:   time.Unix(createdAt, 0).UTC(),
	}, nil
}

// SetEnabled toggles the enabled flag for a user.
func (r *SQLiteRepo) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE happy_settings
		SET enabled = ?
		WHERE user_id = ?`,
		boolToInt(enabled), userID,
	)
	return err
}

// TouchLastAppOpen records the user's latest app-open instant.
func (r *SQLiteRepo) TouchLastAppOpen(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE happy_settings
		SET last_app_open = ?
		WHERE user_id = ?`,
		at.UTC().Unix(), userID,
	)
	return err
}

// AddTask inserts a task row.
func (r *SQLiteRepo) AddTask(ctx context.Context, t *domain.Task) error {
	if t == nil {
		return errors.New("nil task")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, section, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Section, boolToInt(t.Completed), t.CreatedAt.UTC().Unix(),
	)
	return err
}

// SetTaskCompleted flips a task's completion flag.
func (r *SQLiteRepo) SetTaskCompleted(ctx context.Context, taskID string, completed bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET completed = ?
		WHERE id = ?`,
		boolToInt(completed), taskID,
	)
	return err
}

// ListTasks returns all of a user's tasks across sections, oldest first.
func (r *SQLiteRepo) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, section, completed, created_at
		FROM tasks
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Task
	for rows.Next() {
		var (
			id           string
			uid          string
			title        string
			section      string
			completedInt int
			createdAt    int64
		)
		if err := rows.Scan(&id, &uid, &title, &section, &completedInt, &createdAt); err != nil {
			return nil, err
		}
		res = append(res, domain.Task{
			ID:        id,
			UserID:    uid,
			Title:     title,
			Section:   section,
			Completed: completedInt != 0,
			CreatedAt: time.Unix(createdAt, 0).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// AddWin inserts a win row.
func (r *SQLiteRepo) AddWin(ctx context.Context, w *domain.Win) error {
	if w == nil {
		return errors.New("nil win")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wins (id, user_id, title, completed_at)
		VALUES (?, ?, ?, ?)`,
		w.ID, w.UserID, w.Title, w.CompletedAt.UTC().Unix(),
	)
	return err
}

// CountWins returns a user's lifetime win count.
func (r *SQLiteRepo) CountWins(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM wins WHERE user_id = ?`,
		userID,
	).Scan(&n)
	return n, err
}

// CountWinsSince returns the number of wins at or after the given instant.
func (r *SQLiteRepo) CountWinsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM wins WHERE user_id = ? AND completed_at >= ?`,
		userID, since.UTC().Unix(),
	).Scan(&n)
	return n, err
}

// WasSentSince reports whether any ledger entry exists for (user, job) at or
// after the given instant.
func (r *SQLiteRepo) WasSentSince(ctx context.Context, userID string, job domain.JobType, since time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM happy_email_log
		WHERE user_id = ? AND job_type = ? AND sent_at >= ?`,
		userID, string(job), since.UTC().Unix(),
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LogDelivery appends one ledger entry. Entries are never updated.
func (r *SQLiteRepo) LogDelivery(ctx context.Context, userID string, job domain.JobType, subject string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO happy_email_log (user_id, job_type, subject, sent_at)
		VALUES (?, ?, ?, ?)`,
		userID, string(job), subject, at.UTC().Unix(),
	)
	return err
}
