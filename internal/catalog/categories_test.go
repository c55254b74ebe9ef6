package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodarr/vodarr/internal/models"
	"github.com/vodarr/vodarr/internal/repository"
)

func createTestCategory(t *testing.T, fx *serviceFixture, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, repository.NewCategoryRepository(fx.db.DB).Create(context.Background(), category))
	return category
}

func TestCreateMovieWithCategory(t *testing.T) {
	fx := newFixture(t)
	category := createTestCategory(t, fx, "Sci-Fi")

	up := movieUpload(t, "Arrival")
	up.CategoryID = category.ID

	movie, err := fx.svc.CreateMovie(context.Background(), up, nil)
	require.NoError(t, err)
	assert.Equal(t, category.ID, movie.CategoryID)
}

func TestCreateMovieUnknownCategory(t *testing.T) {
	fx := newFixture(t)

	up := movieUpload(t, "Arrival")
	up.CategoryID = models.NewULID()

	_, err := fx.svc.CreateMovie(context.Background(), up, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, fx.trans.runs)
}

func TestCreateSeriesUnknownCategory(t *testing.T) {
	fx := newFixture(t)

	create := seriesCreate(t, "Foundation")
	create.CategoryID = models.NewULID()

	_, err := fx.svc.CreateSeries(context.Background(), create)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, fx.covers.calls)
}

func TestListCategories(t *testing.T) {
	fx := newFixture(t)
	createTestCategory(t, fx, "Drama")
	createTestCategory(t, fx, "Action")

	categories, err := fx.svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Action", categories[0].Name)
	assert.Equal(t, "Drama", categories[1].Name)
}
