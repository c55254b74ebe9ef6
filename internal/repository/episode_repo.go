package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vodarr/vodarr/internal/models"
)

// episodeRepo implements EpisodeRepository using GORM.
type episodeRepo struct {
	db *gorm.DB
}

// NewEpisodeRepository creates a new EpisodeRepository.
func NewEpisodeRepository(db *gorm.DB) *episodeRepo {
	return &episodeRepo{db: db}
}

// Create creates a new episode.
func (r *episodeRepo) Create(ctx context.Context, episode *models.Episode) error {
	if err := r.db.WithContext(ctx).Create(episode).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating episode s%02de%02d: %w",
				episode.SeasonNumber, episode.EpisodeNumber, models.ErrAlreadyExists)
		}
		return fmt.Errorf("creating episode: %w", err)
	}
	return nil
}

// GetByID retrieves an episode by ID.
func (r *episodeRepo) GetByID(ctx context.Context, id models.ULID) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&episode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting episode by ID: %w", err)
	}
	return &episode, nil
}

// GetByIDWithVideo retrieves an episode by ID with its Video preloaded.
func (r *episodeRepo) GetByIDWithVideo(ctx context.Context, id models.ULID) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).Preload("Video").Where("id = ?", id).First(&episode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting episode with video: %w", err)
	}
	return &episode, nil
}

// Find retrieves an episode by its series/season/episode triple.
func (r *episodeRepo) Find(ctx context.Context, seriesID models.ULID, season, episode int) (*models.Episode, error) {
	var ep models.Episode
	err := r.db.WithContext(ctx).
		Where("series_id = ? AND season_number = ? AND episode_number = ?", seriesID, season, episode).
		First(&ep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding episode: %w", err)
	}
	return &ep, nil
}

// ListBySeriesWithVideo retrieves all episodes of a series with Videos preloaded.
func (r *episodeRepo) ListBySeriesWithVideo(ctx context.Context, seriesID models.ULID) ([]*models.Episode, error) {
	var episodes []*models.Episode
	err := r.db.WithContext(ctx).
		Preload("Video").
		Where("series_id = ?", seriesID).
		Order("season_number ASC, episode_number ASC").
		Find(&episodes).Error
	if err != nil {
		return nil, fmt.Errorf("listing episodes for series: %w", err)
	}
	return episodes, nil
}

// UpdateFields applies a partial column update to an episode.
func (r *episodeRepo) UpdateFields(ctx context.Context, id models.ULID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&models.Episode{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("updating episode: %w", models.ErrAlreadyExists)
		}
		return fmt.Errorf("updating episode: %w", err)
	}
	return nil
}

// Delete deletes an episode by ID.
func (r *episodeRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Episode{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting episode: %w", err)
	}
	return nil
}
