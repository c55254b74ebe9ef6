// Package repository defines data access interfaces for vodarr catalog
// entities. All database access goes through these interfaces, enabling easy
// testing and database backend switching.
//
// Repositories are thin wrappers over a *gorm.DB handle; the ingestion
// coordinator constructs them over its transaction handle so every statement
// in one ingestion shares that transaction.
package repository

import (
	"context"

	"github.com/vodarr/vodarr/internal/models"
)

// VideoRepository defines operations for processed video asset persistence.
type VideoRepository interface {
	// Create creates a new video. A unique-index violation on content_hash
	// is returned as models.ErrDuplicateContent.
	Create(ctx context.Context, video *models.Video) error
	// GetByID retrieves a video by ID, nil if not found.
	GetByID(ctx context.Context, id models.ULID) (*models.Video, error)
	// GetByContentHash retrieves a video by content hash, nil if not found.
	GetByContentHash(ctx context.Context, hash string) (*models.Video, error)
	// Delete deletes a video by ID.
	Delete(ctx context.Context, id models.ULID) error
}

// MovieRepository defines operations for movie catalog entries.
type MovieRepository interface {
	// Create creates a new movie.
	Create(ctx context.Context, movie *models.Movie) error
	// GetByID retrieves a movie by ID, nil if not found.
	GetByID(ctx context.Context, id models.ULID) (*models.Movie, error)
	// GetByIDWithVideo retrieves a movie with its Video preloaded, nil if not found.
	GetByIDWithVideo(ctx context.Context, id models.ULID) (*models.Movie, error)
	// FindByTitleYear retrieves a movie by normalized title and release
	// year, nil if not found. Used as the catalog uniqueness pre-check.
	FindByTitleYear(ctx context.Context, title string, year int) (*models.Movie, error)
	// UpdateFields applies a partial column update to a movie.
	UpdateFields(ctx context.Context, id models.ULID, fields map[string]any) error
	// Delete deletes a movie by ID.
	Delete(ctx context.Context, id models.ULID) error
}

// SeriesRepository defines operations for series catalog entries.
type SeriesRepository interface {
	// Create creates a new series.
	Create(ctx context.Context, series *models.Series) error
	// GetByID retrieves a series by ID, nil if not found.
	GetByID(ctx context.Context, id models.ULID) (*models.Series, error)
	// FindByTitleYear retrieves a series by normalized title and release
	// year, nil if not found. Used as the catalog uniqueness pre-check.
	FindByTitleYear(ctx context.Context, title string, year int) (*models.Series, error)
	// UpdateFields applies a partial column update to a series.
	UpdateFields(ctx context.Context, id models.ULID, fields map[string]any) error
	// Delete deletes a series by ID. Episodes cascade at the database level.
	Delete(ctx context.Context, id models.ULID) error
}

// EpisodeRepository defines operations for episode catalog entries.
type EpisodeRepository interface {
	// Create creates a new episode.
	Create(ctx context.Context, episode *models.Episode) error
	// GetByID retrieves an episode by ID, nil if not found.
	GetByID(ctx context.Context, id models.ULID) (*models.Episode, error)
	// GetByIDWithVideo retrieves an episode with its Video preloaded, nil if not found.
	GetByIDWithVideo(ctx context.Context, id models.ULID) (*models.Episode, error)
	// Find retrieves an episode by its series/season/episode triple, nil
	// if not found. Used as the catalog uniqueness pre-check.
	Find(ctx context.Context, seriesID models.ULID, season, episode int) (*models.Episode, error)
	// ListBySeriesWithVideo retrieves all episodes of a series with their
	// Videos preloaded, ordered by season and episode number.
	ListBySeriesWithVideo(ctx context.Context, seriesID models.ULID) ([]*models.Episode, error)
	// UpdateFields applies a partial column update to an episode.
	UpdateFields(ctx context.Context, id models.ULID, fields map[string]any) error
	// Delete deletes an episode by ID.
	Delete(ctx context.Context, id models.ULID) error
}

// CategoryRepository defines operations for catalog categories.
type CategoryRepository interface {
	// Create creates a new category.
	Create(ctx context.Context, category *models.Category) error
	// GetByID retrieves a category by ID, nil if not found.
	GetByID(ctx context.Context, id models.ULID) (*models.Category, error)
	// GetByName retrieves a category by name, nil if not found.
	GetByName(ctx context.Context, name string) (*models.Category, error)
	// GetAll retrieves all categories ordered by name.
	GetAll(ctx context.Context) ([]*models.Category, error)
}
