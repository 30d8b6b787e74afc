package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func runAt(command, cfg string, started time.Time) *Run {
	return &Run{
		Command:    command,
		ConfigPath: cfg,
		Purpose:    command,
		Status:     StatusSucceeded,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
	}
}

func TestOpenAppliesMigrations(t *testing.T) {
	s := openMemory(t)
	v, err := s.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)

	require.NoError(t, s.ApplyMigrations(context.Background()), "migrations are idempotent")
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), runAt("prep", "/exp/a.toml", time.Now())))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, path, reopened.Path())

	runs, err := reopened.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordAndGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	started := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

	run := runAt("train", "/exp/bird1.toml", started)
	run.OutputDir = "/exp/results/results_240502_093000"
	run.Artifacts = []string{"/exp/results/results_240502_093000/labelmap.json"}
	run.LogFile = "/exp/results/results_240502_093000/train-20240502-093000.log"
	require.NoError(t, s.Record(ctx, run))
	require.NotEmpty(t, run.ID)

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Command, got.Command)
	assert.Equal(t, run.OutputDir, got.OutputDir)
	assert.Equal(t, run.Artifacts, got.Artifacts)
	assert.Equal(t, run.LogFile, got.LogFile)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, 90*time.Second, got.Duration())

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRecordFailure(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	run := runAt("prep", "/exp/a.toml", time.Now())
	run.Status = StatusFailed
	run.Error = `not a directory in section [PREP], option "data_dir"`
	require.NoError(t, s.Record(ctx, run))

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, run.Error, got.Error)
	assert.Empty(t, got.Artifacts)
}

func TestList(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, runAt("prep", "/exp/a.toml", base)))
	require.NoError(t, s.Record(ctx, runAt("train", "/exp/a.toml", base.Add(time.Hour))))
	require.NoError(t, s.Record(ctx, runAt("eval", "/exp/b.toml", base.Add(2*time.Hour))))

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "eval", all[0].Command, "most recent first")
	assert.Equal(t, "prep", all[2].Command)

	forA, err := s.List(ctx, Filter{ConfigPath: "/exp/a.toml"})
	require.NoError(t, err)
	assert.Len(t, forA, 2)

	latest, err := s.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "eval", latest[0].Command)

	trains, err := s.List(ctx, Filter{Command: "train", ConfigPath: "/exp/a.toml"})
	require.NoError(t, err)
	assert.Len(t, trains, 1)
}

func TestPrune(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Record(ctx, runAt("prep", "/a.toml", now.AddDate(0, 0, -40))))
	require.NoError(t, s.Record(ctx, runAt("train", "/a.toml", now.AddDate(0, 0, -1))))

	n, err := s.Prune(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	runs, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "train", runs[0].Command)
}
