package progress

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, retention time.Duration) *Registry {
	t.Helper()
	r := NewRegistry(retention, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(r.Stop)
	return r
}

func TestStartAndGet(t *testing.T) {
	r := newTestRegistry(t, time.Hour)

	id := r.Start()
	_, err := uuid.Parse(id)
	require.NoError(t, err, "task IDs are UUIDs")

	task, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusProcessing, task.Status)
	assert.Zero(t, task.Progress)
	assert.False(t, task.StartedAt.IsZero())
	assert.True(t, task.FinishedAt.IsZero())
}

func TestGetUnknown(t *testing.T) {
	r := newTestRegistry(t, time.Hour)

	_, ok := r.Get("no-such-task")
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	id := r.Start()

	r.Update(id, StatusTranscoding, 37.5, "encoding 720p rendition")

	task, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusTranscoding, task.Status)
	assert.Equal(t, 37.5, task.Progress)
	assert.Equal(t, "encoding 720p rendition", task.Message)
}

func TestUpdateClampsProgress(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	id := r.Start()

	r.Update(id, StatusTranscoding, 130, "")
	task, _ := r.Get(id)
	assert.Equal(t, 100.0, task.Progress)

	id2 := r.Start()
	r.Update(id2, StatusTranscoding, -5, "")
	task2, _ := r.Get(id2)
	assert.Equal(t, 0.0, task2.Progress)
}

func TestComplete(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	id := r.Start()

	r.Complete(id, "done")

	task, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, 100.0, task.Progress)
	assert.False(t, task.FinishedAt.IsZero())
}

func TestFail(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	id := r.Start()

	r.Fail(id, fmt.Errorf("encode failed on 1080p rendition"))

	task, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Equal(t, "encode failed on 1080p rendition", task.Error)
	assert.False(t, task.FinishedAt.IsZero())
}

func TestTerminalTasksAreFrozen(t *testing.T) {
	r := newTestRegistry(t, time.Hour)
	id := r.Start()

	r.Complete(id, "done")
	r.Update(id, StatusTranscoding, 10, "late update")
	r.Fail(id, fmt.Errorf("late failure"))

	task, _ := r.Get(id)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, 100.0, task.Progress)
	assert.Empty(t, task.Error)
}

func TestEvictExpired(t *testing.T) {
	r := newTestRegistry(t, time.Hour)

	base := time.Now()
	r.now = func() time.Time { return base }

	finished := r.Start()
	r.Complete(finished, "done")
	failed := r.Start()
	r.Fail(failed, fmt.Errorf("boom"))
	running := r.Start()

	// Within retention: nothing goes.
	r.now = func() time.Time { return base.Add(30 * time.Minute) }
	assert.Zero(t, r.evictExpired())
	assert.Equal(t, 3, r.Len())

	// Past retention: terminal tasks go, running task stays.
	r.now = func() time.Time { return base.Add(2 * time.Hour) }
	assert.Equal(t, 2, r.evictExpired())

	_, ok := r.Get(finished)
	assert.False(t, ok)
	_, ok = r.Get(failed)
	assert.False(t, ok)
	_, ok = r.Get(running)
	assert.True(t, ok)
}

func TestStopIsIdempotent(t *testing.T) {
	r := NewRegistry(time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Stop()
	r.Stop()
}
