package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vodarr/vodarr/internal/models"
)

// categoryRepo implements CategoryRepository using GORM.
type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *gorm.DB) *categoryRepo {
	return &categoryRepo{db: db}
}

// Create creates a new category.
func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating category %q: %w", category.Name, models.ErrAlreadyExists)
		}
		return fmt.Errorf("creating category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by ID.
func (r *categoryRepo) GetByID(ctx context.Context, id models.ULID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting category by ID: %w", err)
	}
	return &category, nil
}

// GetByName retrieves a category by name.
func (r *categoryRepo) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting category by name: %w", err)
	}
	return &category, nil
}

// GetAll retrieves all categories ordered by name.
func (r *categoryRepo) GetAll(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("getting categories: %w", err)
	}
	return categories, nil
}
