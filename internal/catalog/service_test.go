package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vodarr/vodarr/internal/config"
	"github.com/vodarr/vodarr/internal/database"
	"github.com/vodarr/vodarr/internal/ffmpeg"
	"github.com/vodarr/vodarr/internal/transcode"
)

// fakeTranscoder returns a canned pipeline result and drives the progress
// callback like the real orchestrator does.
type fakeTranscoder struct {
	result *transcode.Result
	err    error
	runs   []string // content hashes, in order
}

func (f *fakeTranscoder) Run(_ context.Context, _, contentHash string, onProgress ffmpeg.ProgressFunc) (*transcode.Result, error) {
	f.runs = append(f.runs, contentHash)
	if f.err != nil {
		return nil, f.err
	}
	if onProgress != nil {
		onProgress(50)
		onProgress(100)
	}
	return f.result, nil
}

type fakeCovers struct {
	hash  string
	err   error
	calls int
}

func (f *fakeCovers) Process(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.hash, nil
}

type fakeCleanupStore struct {
	mu       sync.Mutex
	prefixes []string
	err      error
}

func (f *fakeCleanupStore) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefix)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

// recordingReporter captures status transitions and progress values.
type recordingReporter struct {
	messages []string
	percents []float64
}

func (r *recordingReporter) Processing(message string)   { r.messages = append(r.messages, message) }
func (r *recordingReporter) Transcoding(percent float64) { r.percents = append(r.percents, percent) }

type serviceFixture struct {
	svc    *Service
	db     *database.DB
	trans  *fakeTranscoder
	covers *fakeCovers
	store  *fakeCleanupStore
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             ":memory:",
		MaxOpenConns:    1, // SQLite in-memory requires single connection
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		LogLevel:        "silent",
	}
	db, err := database.New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	trans := &fakeTranscoder{result: &transcode.Result{
		AvailableResolutions: []int{1080, 720, 480},
		AvailableSubtitles:   []string{"en", "forced-en"},
		Duration:             5400,
	}}
	covers := &fakeCovers{hash: "deadbeefcover"}
	store := &fakeCleanupStore{}

	storCfg := config.StorageConfig{
		TempDir:     t.TempDir(),
		VideoPrefix: "videos",
		CoverPrefix: "covers",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &serviceFixture{
		svc:    NewService(db, trans, covers, store, storCfg, logger),
		db:     db,
		trans:  trans,
		covers: covers,
		store:  store,
	}
}

// writeSource creates a throwaway local input file with unique content so
// each call yields a distinct content hash.
func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var sourceSeq int

// uniqueSource returns a source file whose content differs from every other
// call in the test binary.
func uniqueSource(t *testing.T, name string) string {
	t.Helper()
	sourceSeq++
	return writeSource(t, name, fmt.Sprintf("payload-%s-%d", name, sourceSeq))
}
