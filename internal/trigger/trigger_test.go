package trigger_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/building-energy-etl/internal/pipeline"
	"github.com/couchcryptid/building-energy-etl/internal/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	runs    atomic.Int32
	skipped bool
	err     error
}

func (r *countingRunner) Run(_ context.Context, _ pipeline.ProgressFunc) (pipeline.Report, error) {
	r.runs.Add(1)
	return pipeline.Report{RunID: "run", Skipped: r.skipped}, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	runner := &countingRunner{}
	s, err := trigger.NewScheduler("@every 1s", runner, discardLogger())
	require.NoError(t, err)

	s.Start()
	t.Cleanup(func() { s.Stop(context.Background()) })

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	_, err := trigger.NewScheduler("*/5 * * * *", &countingRunner{}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse schedule")
}

func TestScheduler_RunErrorsDoNotStopSchedule(t *testing.T) {
	runner := &countingRunner{err: errors.New("source down")}
	s, err := trigger.NewScheduler("@every 1s", runner, discardLogger())
	require.NoError(t, err)

	s.Start()
	t.Cleanup(func() { s.Stop(context.Background()) })

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
}

func startWatcher(t *testing.T, path string, runner trigger.Runner) {
	t.Helper()
	fw, err := trigger.NewFileWatcher(path, runner, discardLogger(), trigger.WithDebounce(100*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func TestFileWatcher_RunsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buildings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	runner := &countingRunner{}
	startWatcher(t, path, runner)

	require.NoError(t, os.WriteFile(path, []byte(`[{}]`), 0o600))

	assert.Eventually(t, func() bool { return runner.runs.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestFileWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buildings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	runner := &countingRunner{}
	startWatcher(t, path, runner)

	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte(`[{}]`), 0o600))
	}

	assert.Eventually(t, func() bool { return runner.runs.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buildings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	runner := &countingRunner{}
	startWatcher(t, path, runner)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	assert.Never(t, func() bool { return runner.runs.Load() > 0 }, 400*time.Millisecond, 20*time.Millisecond)
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	_, err := trigger.NewFileWatcher(filepath.Join(t.TempDir(), "nope", "buildings.json"), &countingRunner{}, discardLogger())
	require.Error(t, err)
}
