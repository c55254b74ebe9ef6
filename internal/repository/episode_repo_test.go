package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vodarr/vodarr/internal/models"
)

// createTestSeries creates a Series for use as a foreign key in episode tests.
func createTestSeries(t *testing.T, db *gorm.DB, title string) *models.Series {
	t.Helper()
	series := &models.Series{Title: title, ReleaseYear: 2020}
	require.NoError(t, db.Create(series).Error)
	return series
}

func TestEpisodeRepo_Create(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewEpisodeRepository(db)
	ctx := context.Background()

	series := createTestSeries(t, db, "Show A")
	video := createTestVideo(t, db, "ep-hash")

	episode := &models.Episode{
		SeriesID:      series.ID,
		SeasonNumber:  1,
		EpisodeNumber: 1,
		Title:         "Pilot",
		VideoID:       video.ID,
	}

	require.NoError(t, repo.Create(ctx, episode))
	assert.False(t, episode.ID.IsZero())
}

func TestEpisodeRepo_Create_UniqueTriple(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewEpisodeRepository(db)
	ctx := context.Background()

	series := createTestSeries(t, db, "Show B")
	v1 := createTestVideo(t, db, "ep-hash-1")
	v2 := createTestVideo(t, db, "ep-hash-2")

	require.NoError(t, repo.Create(ctx, &models.Episode{
		SeriesID: series.ID, SeasonNumber: 1, EpisodeNumber: 1, VideoID: v1.ID,
	}))

	err := repo.Create(ctx, &models.Episode{
		SeriesID: series.ID, SeasonNumber: 1, EpisodeNumber: 1, VideoID: v2.ID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	// Same numbers under a different series are fine
	other := createTestSeries(t, db, "Show C")
	assert.NoError(t, repo.Create(ctx, &models.Episode{
		SeriesID: other.ID, SeasonNumber: 1, EpisodeNumber: 1, VideoID: v2.ID,
	}))
}

func TestEpisodeRepo_Find(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewEpisodeRepository(db)
	ctx := context.Background()

	series := createTestSeries(t, db, "Show D")
	video := createTestVideo(t, db, "ep-hash-f")
	require.NoError(t, repo.Create(ctx, &models.Episode{
		SeriesID: series.ID, SeasonNumber: 2, EpisodeNumber: 5, VideoID: video.ID,
	}))

	got, err := repo.Find(ctx, series.ID, 2, 5)
	require.NoError(t, err)
	require.NotNil(t, got)

	missing, err := repo.Find(ctx, series.ID, 2, 6)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEpisodeRepo_ListBySeriesWithVideo(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewEpisodeRepository(db)
	ctx := context.Background()

	series := createTestSeries(t, db, "Show E")
	v1 := createTestVideo(t, db, "lh-1")
	v2 := createTestVideo(t, db, "lh-2")
	v3 := createTestVideo(t, db, "lh-3")

	// Inserted out of order, expect season/episode ordering back
	require.NoError(t, repo.Create(ctx, &models.Episode{SeriesID: series.ID, SeasonNumber: 2, EpisodeNumber: 1, VideoID: v3.ID}))
	require.NoError(t, repo.Create(ctx, &models.Episode{SeriesID: series.ID, SeasonNumber: 1, EpisodeNumber: 2, VideoID: v2.ID}))
	require.NoError(t, repo.Create(ctx, &models.Episode{SeriesID: series.ID, SeasonNumber: 1, EpisodeNumber: 1, VideoID: v1.ID}))

	episodes, err := repo.ListBySeriesWithVideo(ctx, series.ID)
	require.NoError(t, err)
	require.Len(t, episodes, 3)

	assert.Equal(t, "lh-1", episodes[0].Video.ContentHash)
	assert.Equal(t, "lh-2", episodes[1].Video.ContentHash)
	assert.Equal(t, "lh-3", episodes[2].Video.ContentHash)
}

func TestEpisodeRepo_Delete(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewEpisodeRepository(db)
	ctx := context.Background()

	series := createTestSeries(t, db, "Show F")
	video := createTestVideo(t, db, "ep-hash-d")
	episode := &models.Episode{SeriesID: series.ID, SeasonNumber: 1, EpisodeNumber: 1, VideoID: video.ID}
	require.NoError(t, repo.Create(ctx, episode))

	require.NoError(t, repo.Delete(ctx, episode.ID))

	got, err := repo.GetByID(ctx, episode.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
