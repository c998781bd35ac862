package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomoranges/can-do/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "happy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	s := &domain.Settings{
		UserID:  "u1",
		Enabled: true,
		Name:    "Sam",
		Email:   "sam@example.com",
		TZ:      "America/New_York",
	}
	require.NoError(t, repo.UpsertSettings(ctx, s))

	got, err := repo.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", got.Name)
	assert.Equal(t, "America/New_York", got.TZ)
	assert.True(t, got.Enabled)
	assert.Nil(t, got.LastAppOpen)

	// Edits update in place.
	s.Name = "Samantha"
	require.NoError(t, repo.UpsertSettings(ctx, s))
	got, err = repo.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Samantha", got.Name)
}

func TestGetSettings_NotFound(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.GetSettings(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetEnabled_DisableKeepsRow(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	require.NoError(t, repo.UpsertSettings(ctx, &domain.Settings{
		UserID: "u1", Enabled: true, Email: "sam@example.com", TZ: "UTC",
	}))
	require.NoError(t, repo.SetEnabled(ctx, "u1", false))

	got, err := repo.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	list, err := repo.ListEnabledSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListEnabledSettings(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	for _, u := range []struct {
		id      string
		enabled bool
	}{{"a", true}, {"b", false}, {"c", true}} {
		require.NoError(t, repo.UpsertSettings(ctx, &domain.Settings{
			UserID: u.id, Enabled: u.enabled, Email: u.id + "@example.com", TZ: "UTC",
		}))
	}

	list, err := repo.ListEnabledSettings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].UserID)
	assert.Equal(t, "c", list[1].UserID)
}

func TestTouchLastAppOpen(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	require.NoError(t, repo.UpsertSettings(ctx, &domain.Settings{
		UserID: "u1", Enabled: true, Email: "sam@example.com", TZ: "UTC",
	}))
	at := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastAppOpen(ctx, "u1", at))

	got, err := repo.GetSettings(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got.LastAppOpen)
	assert.True(t, got.LastAppOpen.Equal(at))
}

func TestTasksAndWins(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Now().UTC().Truncate(time.Second)

	first := &domain.Task{
		ID: uuid.NewString(), UserID: "u1", Title: "write report",
		Section: domain.SectionToday, CreatedAt: now.Add(-2 * time.Hour),
	}
	require.NoError(t, repo.AddTask(ctx, first))
	require.NoError(t, repo.AddTask(ctx, &domain.Task{
		ID: uuid.NewString(), UserID: "u1", Title: "call dentist",
		Section: domain.SectionTomorrow, CreatedAt: now,
	}))

	tasks, err := repo.ListTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "write report", tasks[0].Title) // oldest first
	assert.False(t, tasks[0].Completed)

	require.NoError(t, repo.SetTaskCompleted(ctx, first.ID, true))
	tasks, err = repo.ListTasks(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, tasks[0].Completed)

	require.NoError(t, repo.AddWin(ctx, &domain.Win{
		ID: uuid.NewString(), UserID: "u1", Title: "write report", CompletedAt: now,
	}))
	require.NoError(t, repo.AddWin(ctx, &domain.Win{
		ID: uuid.NewString(), UserID: "u1", Title: "old glory", CompletedAt: now.Add(-10 * 24 * time.Hour),
	}))

	total, err := repo.CountWins(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	week, err := repo.CountWinsSince(ctx, "u1", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, week)
}

func TestLedgerIdempotence(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	dayStart := time.Date(2025, time.June, 2, 4, 0, 0, 0, time.UTC) // local midnight in UTC
	sentAt := dayStart.Add(8 * time.Hour)

	// Nothing recorded yet.
	sent, err := repo.WasSentSince(ctx, "u1", domain.JobMorning, dayStart)
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, repo.LogDelivery(ctx, "u1", domain.JobMorning, "📋 lineup", sentAt))

	// Same user, job and day: true.
	sent, err = repo.WasSentSince(ctx, "u1", domain.JobMorning, dayStart)
	require.NoError(t, err)
	assert.True(t, sent)

	// Different job type: false.
	sent, err = repo.WasSentSince(ctx, "u1", domain.JobEvening, dayStart)
	require.NoError(t, err)
	assert.False(t, sent)

	// Different user: false.
	sent, err = repo.WasSentSince(ctx, "u2", domain.JobMorning, dayStart)
	require.NoError(t, err)
	assert.False(t, sent)

	// Next local day: false again.
	sent, err = repo.WasSentSince(ctx, "u1", domain.JobMorning, dayStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, sent)
}
