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

// EpisodeUpload describes one episode ingestion request against an existing
// series.
type EpisodeUpload struct {
	SeriesID      models.ULID
	SeasonNumber  int
	EpisodeNumber int
	Title         string
	Description   string
	VideoPath     string
	Audit         database.AuditContext
}

// CreateEpisode ingests one episode: series existence and source checks,
// dedup by content hash, the transcode pipeline, then the videos and
// episodes rows inside one transaction. The (series, season, episode)
// triple is guarded by an explicit pre-check backed by a unique index.
func (s *Service) CreateEpisode(ctx context.Context, up EpisodeUpload, reporter ProgressReporter) (episode *models.Episode, err error) {
	if reporter == nil {
		reporter = NopReporter{}
	}
	defer s.removeSources(up.VideoPath)

	if err := requireSource("video", up.VideoPath); err != nil {
		return nil, err
	}

	series, err := repository.NewSeriesRepository(s.db.DB).GetByID(ctx, up.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("loading series: %w", err)
	}
	if series == nil {
		return nil, fmt.Errorf("series %s: %w", up.SeriesID, models.ErrNotFound)
	}

	reporter.Processing("validating source files")

	contentHash, err := s.hashAndCheckDuplicate(ctx, up.VideoPath)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(
		slog.String("series_id", up.SeriesID.String()),
		slog.Int("season", up.SeasonNumber),
		slog.Int("episode", up.EpisodeNumber),
		slog.String("content_hash", contentHash))
	log.Info("starting episode ingestion")

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.db.SetAuditContext(tx, up.Audit); err != nil {
			return fmt.Errorf("setting audit context: %w", err)
		}

		episodes := repository.NewEpisodeRepository(tx)
		existing, err := episodes.Find(ctx, up.SeriesID, up.SeasonNumber, up.EpisodeNumber)
		if err != nil {
			return fmt.Errorf("checking episode uniqueness: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("episode s%02de%02d of series %s: %w",
				up.SeasonNumber, up.EpisodeNumber, up.SeriesID, models.ErrAlreadyExists)
		}

		video, err := s.runPipeline(ctx, tx, up.VideoPath, contentHash, reporter)
		if err != nil {
			return err
		}

		episode = &models.Episode{
			SeriesID:      up.SeriesID,
			SeasonNumber:  up.SeasonNumber,
			EpisodeNumber: up.EpisodeNumber,
			Title:         up.Title,
			Description:   up.Description,
			VideoID:       video.ID,
		}
		if err := episodes.Create(ctx, episode); err != nil {
			return fmt.Errorf("inserting episode row: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Warn("episode ingestion failed", "error", err)
		return nil, err
	}

	log.Info("episode ingestion committed", slog.String("episode_id", episode.ID.String()))
	return episode, nil
}

// EpisodeUpdate carries the mutable episode columns. Zero season or episode
// numbers leave the current numbering in place.
type EpisodeUpdate struct {
	Title         string
	Description   string
	SeasonNumber  int
	EpisodeNumber int
	Audit         database.AuditContext
}

// UpdateEpisode applies a partial update. Renumbering resolves the target
// (season, episode) triple against the current row and rejects it when
// another episode of the series already holds it.
func (s *Service) UpdateEpisode(ctx context.Context, id models.ULID, upd EpisodeUpdate) (updated *models.Episode, err error) {
	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.db.SetAuditContext(tx, upd.Audit); err != nil {
			return fmt.Errorf("setting audit context: %w", err)
		}

		episodes := repository.NewEpisodeRepository(tx)
		episode, err := episodes.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading episode: %w", err)
		}
		if episode == nil {
			return fmt.Errorf("episode %s: %w", id, models.ErrNotFound)
		}

		fields := map[string]any{}
		if upd.Title != "" {
			fields["title"] = upd.Title
		}
		if upd.Description != "" {
			fields["description"] = upd.Description
		}

		season, number := episode.SeasonNumber, episode.EpisodeNumber
		if upd.SeasonNumber != 0 {
			season = upd.SeasonNumber
			fields["season_number"] = season
		}
		if upd.EpisodeNumber != 0 {
			number = upd.EpisodeNumber
			fields["episode_number"] = number
		}

		if season != episode.SeasonNumber || number != episode.EpisodeNumber {
			existing, err := episodes.Find(ctx, episode.SeriesID, season, number)
			if err != nil {
				return fmt.Errorf("checking episode uniqueness: %w", err)
			}
			if existing != nil && existing.ID != id {
				return fmt.Errorf("episode s%02de%02d of series %s: %w",
					season, number, episode.SeriesID, models.ErrAlreadyExists)
			}
		}

		if len(fields) > 0 {
			if err := episodes.UpdateFields(ctx, id, fields); err != nil {
				return fmt.Errorf("updating episode: %w", err)
			}
		}

		updated, err = episodes.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reloading episode: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEpisode removes one episode and its video row, then best-effort
// deletes the remote objects under the video prefix.
func (s *Service) DeleteEpisode(ctx context.Context, id models.ULID, audit database.AuditContext) error {
	var contentHash string

	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.db.SetAuditContext(tx, audit); err != nil {
			return fmt.Errorf("setting audit context: %w", err)
		}

		episodes := repository.NewEpisodeRepository(tx)
		episode, err := episodes.GetByIDWithVideo(ctx, id)
		if err != nil {
			return fmt.Errorf("loading episode: %w", err)
		}
		if episode == nil {
			return fmt.Errorf("episode %s: %w", id, models.ErrNotFound)
		}
		if episode.Video == nil {
			return fmt.Errorf("episode %s video: %w", id, models.ErrNotFound)
		}
		contentHash = episode.Video.ContentHash

		if err := episodes.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting episode row: %w", err)
		}
		if err := repository.NewVideoRepository(tx).Delete(ctx, episode.VideoID); err != nil {
			return fmt.Errorf("deleting video row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cleanupRemote(ctx, s.storCfg.VideoPrefixFor(contentHash))

	s.logger.Info("episode deleted",
		slog.String("episode_id", id.String()),
		slog.String("content_hash", contentHash))
	return nil
}
