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

// SeriesCreate describes a new series. A series carries no video of its own;
// episodes are ingested separately against it.
type SeriesCreate struct {
	Title       string
	Description string
	ReleaseYear int
	CategoryID  models.ULID
	CoverPath   string
	Audit       database.AuditContext
}

// SeriesUpdate carries the mutable series columns, same shape as MovieUpdate.
type SeriesUpdate struct {
	Title       string
	ReleaseYear int
	Description string
	CoverPath   string
	Audit       database.AuditContext
}

// SeriesDeleteStats summarizes what a series delete removed.
type SeriesDeleteStats struct {
	Title        string
	EpisodeCount int
	VideoHashes  []string
}

// CreateSeries validates the cover, checks catalog uniqueness, runs the
// cover pipeline and inserts the series row. The cover source file is
// removed whether or not creation succeeds.
func (s *Service) CreateSeries(ctx context.Context, create SeriesCreate) (series *models.Series, err error) {
	defer s.removeSources(create.CoverPath)

	if err := requireSource("cover", create.CoverPath); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, create.CategoryID); err != nil {
		return nil, err
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.db.SetAuditContext(tx, create.Audit); err != nil {
			return fmt.Errorf("setting audit context: %w", err)
		}

		seriesRepo := repository.NewSeriesRepository(tx)
		existing, err := seriesRepo.FindByTitleYear(ctx, create.Title, create.ReleaseYear)
		if err != nil {
			return fmt.Errorf("checking catalog uniqueness: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("series %q (%d): %w", create.Title, create.ReleaseYear, models.ErrAlreadyExists)
		}

		coverHash, err := s.covers.Process(ctx, create.CoverPath)
		if err != nil {
			return fmt.Errorf("processing cover: %w", err)
		}

		series = &models.Series{
			Title:       create.Title,
			Description: create.Description,
			ReleaseYear: create.ReleaseYear,
			CategoryID:  create.CategoryID,
			CoverHash:   coverHash,
		}
		if err := seriesRepo.Create(ctx, series); err != nil {
			return fmt.Errorf("inserting series row: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("series created",
		slog.String("series_id", series.ID.String()),
		slog.String("title", series.Title))
	return series, nil
}

// UpdateSeries applies a partial update with optional cover replacement.
func (s *Service) UpdateSeries(ctx context.Context, id models.ULID, upd SeriesUpdate) (updated *models.Series, err error) {
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

		seriesRepo := repository.NewSeriesRepository(tx)
		series, err := seriesRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading series: %w", err)
		}
		if series == nil {
			return fmt.Errorf("series %s: %w", id, models.ErrNotFound)
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
			if series.CoverHash != "" {
				s.cleanupRemote(ctx, s.storCfg.CoverPrefixFor(series.CoverHash))
			}
			coverHash, err := s.covers.Process(ctx, upd.CoverPath)
			if err != nil {
				return fmt.Errorf("processing replacement cover: %w", err)
			}
			fields["cover_hash"] = coverHash
		}

		if len(fields) > 0 {
			if err := seriesRepo.UpdateFields(ctx, id, fields); err != nil {
				return fmt.Errorf("updating series: %w", err)
			}
		}

		updated, err = seriesRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reloading series: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSeries removes a series, its episodes and their video rows. Episode
// video hashes are gathered before the delete so the remote objects can be
// swept afterwards; episode row removal is delegated to the database's
// cascade rules.
func (s *Service) DeleteSeries(ctx context.Context, id models.ULID, audit database.AuditContext) (*SeriesDeleteStats, error) {
	stats := &SeriesDeleteStats{}
	var coverHash string

	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.db.SetAuditContext(tx, audit); err != nil {
			return fmt.Errorf("setting audit context: %w", err)
		}

		seriesRepo := repository.NewSeriesRepository(tx)
		series, err := seriesRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading series: %w", err)
		}
		if series == nil {
			return fmt.Errorf("series %s: %w", id, models.ErrNotFound)
		}
		stats.Title = series.Title
		coverHash = series.CoverHash

		episodes, err := repository.NewEpisodeRepository(tx).ListBySeriesWithVideo(ctx, id)
		if err != nil {
			return fmt.Errorf("listing episodes: %w", err)
		}
		stats.EpisodeCount = len(episodes)

		videos := repository.NewVideoRepository(tx)
		for _, ep := range episodes {
			if ep.Video != nil {
				stats.VideoHashes = append(stats.VideoHashes, ep.Video.ContentHash)
			}
			if err := videos.Delete(ctx, ep.VideoID); err != nil {
				return fmt.Errorf("deleting episode video row: %w", err)
			}
		}

		if err := seriesRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting series row: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prefixes := make([]string, 0, len(stats.VideoHashes)+1)
	for _, hash := range stats.VideoHashes {
		prefixes = append(prefixes, s.storCfg.VideoPrefixFor(hash))
	}
	if coverHash != "" {
		prefixes = append(prefixes, s.storCfg.CoverPrefixFor(coverHash))
	}
	s.cleanupRemote(ctx, prefixes...)

	s.logger.Info("series deleted",
		slog.String("series_id", id.String()),
		slog.String("title", stats.Title),
		slog.Int("episodes", stats.EpisodeCount))
	return stats, nil
}
