package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/vodarr/vodarr/internal/models"
)

// videoRepo implements VideoRepository using GORM.
type videoRepo struct {
	db *gorm.DB
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(db *gorm.DB) *videoRepo {
	return &videoRepo{db: db}
}

// isUniqueViolation reports whether err is a unique index violation.
// Covers the sqlite and postgres driver error texts plus GORM's translated
// sentinel.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// Create creates a new video. Two concurrent ingests of identical content can
// both pass the coordinator's pre-check; the unique index on content_hash
// makes the loser fail here with models.ErrDuplicateContent.
func (r *videoRepo) Create(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating video %s: %w", video.ContentHash, models.ErrDuplicateContent)
		}
		return fmt.Errorf("creating video: %w", err)
	}
	return nil
}

// GetByID retrieves a video by ID.
func (r *videoRepo) GetByID(ctx context.Context, id models.ULID) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting video by ID: %w", err)
	}
	return &video, nil
}

// GetByContentHash retrieves a video by content hash.
func (r *videoRepo) GetByContentHash(ctx context.Context, hash string) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).Where("content_hash = ?", hash).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting video by content hash: %w", err)
	}
	return &video, nil
}

// Delete deletes a video by ID.
func (r *videoRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Video{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting video: %w", err)
	}
	return nil
}
