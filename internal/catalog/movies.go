package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/vodarr/vodarr/internal/database"
	"github.com/vodarr/vodarr/internal/models"
	"github.com/vodarr/vodarr/internal/repository"
)

// MovieUpload describes one movie ingestion request. VideoPath and CoverPath
// are local temporary files owned by the coordinator from this point on.
type MovieUpload struct {
	Title       string
	Description string
	ReleaseYear int
	CategoryID  models.ULID
	VideoPath   string
	CoverPath   string
	Audit       database.AuditContext
}

// MovieUpdate carries the mutable movie columns. CoverPath is optional; when
// set the old cover object is removed and the new image processed in place.
type MovieUpdate struct {
	Title       string
	ReleaseYear int
	Description string
	CoverPath   string
	Audit       database.AuditContext
}

// CreateMovie runs the full movie ingestion flow: precondition checks,
// dedup by content hash, cover and transcode pipelines, then the videos and
// movies rows inside one transaction. Local source files are removed whether
// or not ingestion succeeds.
func (s *Service) CreateMovie(ctx context.Context, up MovieUpload, reporter ProgressReporter) (movie *models.Movie, err error) {
	if reporter == nil {
		reporter = NopReporter{}
	}
	defer s.removeSources(up.VideoPath, up.CoverPath)

	if err := requireSource("video", up.VideoPath); err != nil {
		return nil, err
	}
	if err := requireSource("cover", up.CoverPath); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, up.CategoryID); err != nil {
		return nil, err
	}

	reporter.Processing("validating source files")

	contentHash, err := s.hashAndCheckDuplicate(ctx, up.VideoPath)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(slog.String("title", up.Title), slog.String("content_hash", contentHash))
	log.Info("starting movie ingestion")

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.db.SetAuditContext(tx, up.Audit); err != nil {
			return fmt.Errorf("setting audit context: %w", err)
		}

		movies := repository.NewMovieRepository(tx)
		existing, err := movies.FindByTitleYear(ctx, up.Title, up.ReleaseYear)
		if err != nil {
			return fmt.Errorf("checking catalog uniqueness: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("movie %q (%d): %w", up.Title, up.ReleaseYear, models.ErrAlreadyExists)
		}

		coverHash, err := s.covers.Process(ctx, up.CoverPath)
		if err != nil {
			return fmt.Errorf("processing cover: %w", err)
		}

		video, err := s.runPipeline(ctx, tx, up.VideoPath, contentHash, reporter)
		if err != nil {
			return err
		}

		movie = &models.Movie{
			Title:       up.Title,
			Description: up.Description,
			ReleaseYear: up.ReleaseYear,
			CategoryID:  up.CategoryID,
			CoverHash:   coverHash,
			VideoID:     video.ID,
		}
		if err := movies.Create(ctx, movie); err != nil {
			return fmt.Errorf("inserting movie row: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Warn("movie ingestion failed", "error", err)
		return nil, err
	}

	log.Info("movie ingestion committed", slog.String("movie_id", movie.ID.String()))
	return movie, nil
}

// UpdateMovie applies a partial update. When a new cover is supplied the old
// cover objects are removed by prefix before the replacement is uploaded.
func (s *Service) UpdateMovie(ctx context.Context, id models.ULID, upd MovieUpdate) (updated *models.Movie, err error) {
	defer s.removeSources(upd.CoverPath)

	if upd.CoverPath != "" {
		if err := requireSource("cover", upd.CoverPath); err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.db.SetAuditContext(tx, upd.Audit); err != nil {
			return fmt.Errorf("setting audit context: %w", err)
		}

		movies := repository.NewMovieRepository(tx)
		movie, err := movies.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading movie: %w", err)
		}
		if movie == nil {
			return fmt.Errorf("movie %s: %w", id, models.ErrNotFound)
		}

		fields := map[string]any{}
		if upd.Title != "" {
			fields["title"] = upd.Title
		}
		if upd.ReleaseYear != 0 {
			fields["release_year"] = upd.ReleaseYear
		}
		if upd.Description != "" {
			fields["description"] = upd.Description
		}

		if upd.CoverPath != "" {
			if movie.CoverHash != "" {
				s.cleanupRemote(ctx, s.storCfg.CoverPrefixFor(movie.CoverHash))
			}
			coverHash, err := s.covers.Process(ctx, upd.CoverPath)
			if err != nil {
				return fmt.Errorf("processing replacement cover: %w", err)
			}
			fields["cover_hash"] = coverHash
		}

		if len(fields) > 0 {
			if err := movies.UpdateFields(ctx, id, fields); err != nil {
				return fmt.Errorf("updating movie: %w", err)
			}
		}

		updated, err = movies.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reloading movie: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMovie removes the movie and its video row in one transaction, then
// best-effort deletes the remote rendition and cover objects.
func (s *Service) DeleteMovie(ctx context.Context, id models.ULID, audit database.AuditContext) error {
	var (
		contentHash string
		coverHash   string
	)

	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.db.SetAuditContext(tx, audit); err != nil {
			return fmt.Errorf("setting audit context: %w", err)
		}

		movies := repository.NewMovieRepository(tx)
		movie, err := movies.GetByIDWithVideo(ctx, id)
		if err != nil {
			return fmt.Errorf("loading movie: %w", err)
		}
		if movie == nil {
			return fmt.Errorf("movie %s: %w", id, models.ErrNotFound)
		}
		if movie.Video == nil {
			return fmt.Errorf("movie %s video: %w", id, models.ErrNotFound)
		}
		contentHash = movie.Video.ContentHash
		coverHash = movie.CoverHash

		if err := movies.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting movie row: %w", err)
		}
		if err := repository.NewVideoRepository(tx).Delete(ctx, movie.VideoID); err != nil {
			return fmt.Errorf("deleting video row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	prefixes := []string{s.storCfg.VideoPrefixFor(contentHash)}
	if coverHash != "" {
		prefixes = append(prefixes, s.storCfg.CoverPrefixFor(coverHash))
	}
	s.cleanupRemote(ctx, prefixes...)

	s.logger.Info("movie deleted",
		slog.String("movie_id", id.String()),
		slog.String("content_hash", contentHash))
	return nil
}
