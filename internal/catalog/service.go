// Package catalog is the ingestion transaction coordinator. It owns the
// create, update and delete flows for movies, series and episodes: source
// file validation, content-hash dedup, the database transaction with audit
// context, the cover and transcode pipelines, and guaranteed cleanup of
// local temporary inputs.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"github.com/vodarr/vodarr/internal/config"
	"github.com/vodarr/vodarr/internal/database"
	"github.com/vodarr/vodarr/internal/ffmpeg"
	"github.com/vodarr/vodarr/internal/models"
	"github.com/vodarr/vodarr/internal/observability"
	"github.com/vodarr/vodarr/internal/repository"
	"github.com/vodarr/vodarr/internal/storage"
	"github.com/vodarr/vodarr/internal/transcode"
)

// Transcoder runs the full rendition pipeline for one source file.
type Transcoder interface {
	Run(ctx context.Context, sourcePath, contentHash string, onProgress ffmpeg.ProgressFunc) (*transcode.Result, error)
}

// CoverProcessor normalizes and uploads artwork, returning the cover hash.
type CoverProcessor interface {
	Process(ctx context.Context, sourcePath string) (string, error)
}

// ObjectStore is the cleanup surface the coordinator needs. Deletion is
// best-effort and never transactionally linked to the database.
type ObjectStore interface {
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// ProgressReporter receives lifecycle updates for one ingestion task.
// Terminal transitions (completed, failed) are the caller's responsibility;
// the coordinator reports only the states it moves through.
type ProgressReporter interface {
	Processing(message string)
	Transcoding(percent float64)
}

// NopReporter discards all updates.
type NopReporter struct{}

func (NopReporter) Processing(string)   {}
func (NopReporter) Transcoding(float64) {}

// Service coordinates catalog ingestion flows.
type Service struct {
	db      *database.DB
	trans   Transcoder
	covers  CoverProcessor
	store   ObjectStore
	storCfg config.StorageConfig
	logger  *slog.Logger
}

// NewService builds the coordinator.
func NewService(db *database.DB, trans Transcoder, covers CoverProcessor, store ObjectStore, storCfg config.StorageConfig, logger *slog.Logger) *Service {
	return &Service{
		db:      db,
		trans:   trans,
		covers:  covers,
		store:   store,
		storCfg: storCfg,
		logger:  observability.WithComponent(logger, "catalog"),
	}
}

// requireSource returns ErrSourceFileNotFound when the local path does not
// point at a regular file. Runs before any side effect.
func requireSource(kind, path string) error {
	if !storage.FileExists(path) {
		return fmt.Errorf("%s file %s: %w", kind, path, models.ErrSourceFileNotFound)
	}
	return nil
}

// requireCategory rejects a non-zero category reference that does not exist.
// A zero ID means uncategorized and passes.
func (s *Service) requireCategory(ctx context.Context, id models.ULID) error {
	if id.IsZero() {
		return nil
	}
	category, err := repository.NewCategoryRepository(s.db.DB).GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading category: %w", err)
	}
	if category == nil {
		return fmt.Errorf("category %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListCategories returns every category ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return repository.NewCategoryRepository(s.db.DB).GetAll(ctx)
}

// hashAndCheckDuplicate computes the content hash of the source file and
// rejects it when a Video with that hash already exists. Runs before the
// transaction opens so no encode work is wasted on duplicates.
func (s *Service) hashAndCheckDuplicate(ctx context.Context, videoPath string) (string, error) {
	contentHash, err := storage.HashFile(videoPath)
	if err != nil {
		return "", fmt.Errorf("hashing source video: %w", err)
	}

	existing, err := repository.NewVideoRepository(s.db.DB).GetByContentHash(ctx, contentHash)
	if err != nil {
		return "", fmt.Errorf("checking for duplicate content: %w", err)
	}
	if existing != nil {
		return "", fmt.Errorf("content hash %s: %w", contentHash, models.ErrDuplicateContent)
	}
	return contentHash, nil
}

// removeSources deletes the local temporary inputs of an ingestion. Always
// runs, success or failure; failures are logged, never returned.
func (s *Service) removeSources(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove source file", "path", path, "error", err)
		}
	}
}

// cleanupRemote is the best-effort object store sweep after a committed
// delete. Partial failures are logged and do not fail the operation.
func (s *Service) cleanupRemote(ctx context.Context, prefixes ...string) {
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if _, err := s.store.DeleteByPrefix(ctx, prefix); err != nil {
			s.logger.Warn("partial remote cleanup", "prefix", prefix, "error", err)
		}
	}
}

// runPipeline executes the transcode pipeline inside the transaction and
// inserts the Video row. A unique-index violation on content_hash means a
// concurrent ingestion won the race and surfaces as ErrDuplicateContent.
func (s *Service) runPipeline(ctx context.Context, tx *gorm.DB, videoPath, contentHash string, reporter ProgressReporter) (_ *models.Video, err error) {
	done := observability.TimedOperationWithError(ctx, s.logger, "transcode_pipeline", &err)
	defer done()

	result, err := s.trans.Run(ctx, videoPath, contentHash, reporter.Transcoding)
	if err != nil {
		return nil, fmt.Errorf("transcoding source: %w", err)
	}

	video := &models.Video{
		ContentHash:          contentHash,
		AvailableResolutions: result.AvailableResolutions,
		AvailableSubtitles:   result.AvailableSubtitles,
		Duration:             result.Duration,
	}
	if err := repository.NewVideoRepository(tx).Create(ctx, video); err != nil {
		return nil, fmt.Errorf("inserting video row: %w", err)
	}
	return video, nil
}
