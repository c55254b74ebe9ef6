package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vodarr/vodarr/internal/models"
)

// movieRepo implements MovieRepository using GORM.
type movieRepo struct {
	db *gorm.DB
}

// NewMovieRepository creates a new MovieRepository.
func NewMovieRepository(db *gorm.DB) *movieRepo {
	return &movieRepo{db: db}
}

// Create creates a new movie.
func (r *movieRepo) Create(ctx context.Context, movie *models.Movie) error {
	if err := r.db.WithContext(ctx).Create(movie).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating movie %q (%d): %w", movie.Title, movie.ReleaseYear, models.ErrAlreadyExists)
		}
		return fmt.Errorf("creating movie: %w", err)
	}
	return nil
}

// GetByID retrieves a movie by ID.
func (r *movieRepo) GetByID(ctx context.Context, id models.ULID) (*models.Movie, error) {
	var movie models.Movie
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&movie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting movie by ID: %w", err)
	}
	return &movie, nil
}

// GetByIDWithVideo retrieves a movie by ID with its Video preloaded.
func (r *movieRepo) GetByIDWithVideo(ctx context.Context, id models.ULID) (*models.Movie, error) {
	var movie models.Movie
	if err := r.db.WithContext(ctx).Preload("Video").Where("id = ?", id).First(&movie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting movie with video: %w", err)
	}
	return &movie, nil
}

// FindByTitleYear retrieves a movie by normalized title and release year.
func (r *movieRepo) FindByTitleYear(ctx context.Context, title string, year int) (*models.Movie, error) {
	var movie models.Movie
	err := r.db.WithContext(ctx).
		Where("title_normalized = ? AND release_year = ?", models.NormalizeTitle(title), year).
		First(&movie).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding movie by title and year: %w", err)
	}
	return &movie, nil
}

// UpdateFields applies a partial column update to a movie.
func (r *movieRepo) UpdateFields(ctx context.Context, id models.ULID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if title, ok := fields["title"].(string); ok {
		fields["title_normalized"] = models.NormalizeTitle(title)
	}
	if err := r.db.WithContext(ctx).Model(&models.Movie{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("updating movie: %w", models.ErrAlreadyExists)
		}
		return fmt.Errorf("updating movie: %w", err)
	}
	return nil
}

// Delete deletes a movie by ID.
func (r *movieRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Movie{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting movie: %w", err)
	}
	return nil
}
