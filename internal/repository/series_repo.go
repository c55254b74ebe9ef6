package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vodarr/vodarr/internal/models"
)

// seriesRepo implements SeriesRepository using GORM.
type seriesRepo struct {
	db *gorm.DB
}

// NewSeriesRepository creates a new SeriesRepository.
func NewSeriesRepository(db *gorm.DB) *seriesRepo {
	return &seriesRepo{db: db}
}

// Create creates a new series.
func (r *seriesRepo) Create(ctx context.Context, series *models.Series) error {
	if err := r.db.WithContext(ctx).Create(series).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating series %q (%d): %w", series.Title, series.ReleaseYear, models.ErrAlreadyExists)
		}
		return fmt.Errorf("creating series: %w", err)
	}
	return nil
}

// GetByID retrieves a series by ID.
func (r *seriesRepo) GetByID(ctx context.Context, id models.ULID) (*models.Series, error) {
	var series models.Series
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&series).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting series by ID: %w", err)
	}
	return &series, nil
}

// FindByTitleYear retrieves a series by normalized title and release year.
func (r *seriesRepo) FindByTitleYear(ctx context.Context, title string, year int) (*models.Series, error) {
	var series models.Series
	err := r.db.WithContext(ctx).
		Where("title_normalized = ? AND release_year = ?", models.NormalizeTitle(title), year).
		First(&series).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding series by title and year: %w", err)
	}
	return &series, nil
}

// UpdateFields applies a partial column update to a series.
func (r *seriesRepo) UpdateFields(ctx context.Context, id models.ULID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if title, ok := fields["title"].(string); ok {
		fields["title_normalized"] = models.NormalizeTitle(title)
	}
	if err := r.db.WithContext(ctx).Model(&models.Series{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("updating series: %w", models.ErrAlreadyExists)
		}
		return fmt.Errorf("updating series: %w", err)
	}
	return nil
}

// Delete deletes a series by ID. Dependent episodes are removed by the
// database's ON DELETE CASCADE, not by this method.
func (r *seriesRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Series{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting series: %w", err)
	}
	return nil
}
