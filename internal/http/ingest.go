package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vodarr/vodarr/internal/catalog"
	"github.com/vodarr/vodarr/internal/database"
	"github.com/vodarr/vodarr/internal/models"
	"github.com/vodarr/vodarr/internal/observability"
	"github.com/vodarr/vodarr/internal/service/progress"
)

// Coordinator is the catalog surface the ingestion API drives. Source files
// are staged on a shared volume by the gateway in front of this service;
// requests reference them by local path.
type Coordinator interface {
	CreateMovie(ctx context.Context, up catalog.MovieUpload, reporter catalog.ProgressReporter) (*models.Movie, error)
	UpdateMovie(ctx context.Context, id models.ULID, upd catalog.MovieUpdate) (*models.Movie, error)
	DeleteMovie(ctx context.Context, id models.ULID, audit database.AuditContext) error
	CreateSeries(ctx context.Context, create catalog.SeriesCreate) (*models.Series, error)
	UpdateSeries(ctx context.Context, id models.ULID, upd catalog.SeriesUpdate) (*models.Series, error)
	DeleteSeries(ctx context.Context, id models.ULID, audit database.AuditContext) (*catalog.SeriesDeleteStats, error)
	CreateEpisode(ctx context.Context, up catalog.EpisodeUpload, reporter catalog.ProgressReporter) (*models.Episode, error)
	UpdateEpisode(ctx context.Context, id models.ULID, upd catalog.EpisodeUpdate) (*models.Episode, error)
	DeleteEpisode(ctx context.Context, id models.ULID, audit database.AuditContext) error
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

// TaskRegistry is the write side of the progress registry used by the
// ingestion handlers.
type TaskRegistry interface {
	TaskStore
	Start() string
	Update(id string, status progress.Status, percent float64, message string)
	Complete(id string, message string)
	Fail(id string, err error)
}

// taskReporter adapts the registry to the coordinator's reporter contract
// for one task.
type taskReporter struct {
	registry TaskRegistry
	id       string
}

func (r taskReporter) Processing(message string) {
	r.registry.Update(r.id, progress.StatusProcessing, 0, message)
}

func (r taskReporter) Transcoding(percent float64) {
	r.registry.Update(r.id, progress.StatusTranscoding, percent, "transcoding")
}

type movieCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ReleaseYear int    `json:"release_year"`
	CategoryID  string `json:"category_id,omitempty"`
	VideoPath   string `json:"video_path"`
	CoverPath   string `json:"cover_path"`
	UserID      string `json:"user_id"`
}

type movieUpdateRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ReleaseYear int    `json:"release_year,omitempty"`
	CoverPath   string `json:"cover_path,omitempty"`
	UserID      string `json:"user_id"`
}

type seriesCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ReleaseYear int    `json:"release_year"`
	CategoryID  string `json:"category_id,omitempty"`
	CoverPath   string `json:"cover_path"`
	UserID      string `json:"user_id"`
}

type episodeCreateRequest struct {
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	VideoPath     string `json:"video_path"`
	UserID        string `json:"user_id"`
}

type episodeUpdateRequest struct {
	SeasonNumber  int    `json:"season_number,omitempty"`
	EpisodeNumber int    `json:"episode_number,omitempty"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	UserID        string `json:"user_id"`
}

type taskAcceptedResponse struct {
	TaskID string `json:"task_id"`
}

func (s *Server) ingestRoutes(r chi.Router) {
	r.Post("/movies", s.handleCreateMovie)
	r.Patch("/movies/{id}", s.handleUpdateMovie)
	r.Delete("/movies/{id}", s.handleDeleteMovie)
	r.Post("/series", s.handleCreateSeries)
	r.Patch("/series/{id}", s.handleUpdateSeries)
	r.Delete("/series/{id}", s.handleDeleteSeries)
	r.Post("/series/{id}/episodes", s.handleCreateEpisode)
	r.Patch("/episodes/{id}", s.handleUpdateEpisode)
	r.Delete("/episodes/{id}", s.handleDeleteEpisode)
	r.Get("/categories", s.handleListCategories)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func urlID(w http.ResponseWriter, r *http.Request) (models.ULID, bool) {
	id, err := models.ParseULID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return models.ULID{}, false
	}
	return id, true
}

func parseCategoryID(w http.ResponseWriter, raw string) (models.ULID, bool) {
	if raw == "" {
		return models.ULID{}, true
	}
	id, err := models.ParseULID(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
		return models.ULID{}, false
	}
	return id, true
}

// writeCatalogError maps coordinator error taxonomy to HTTP statuses.
func writeCatalogError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrSourceFileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyExists), errors.Is(err, models.ErrDuplicateContent):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) audit(r *http.Request, userID string) database.AuditContext {
	return database.AuditContext{UserID: userID, ClientIP: r.RemoteAddr}
}

// handleCreateMovie accepts the descriptor, registers a task and runs the
// ingestion in the background. The caller polls /tasks/{id} for progress.
func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	categoryID, ok := parseCategoryID(w, req.CategoryID)
	if !ok {
		return
	}

	up := catalog.MovieUpload{
		Title:       req.Title,
		Description: req.Description,
		ReleaseYear: req.ReleaseYear,
		CategoryID:  categoryID,
		VideoPath:   req.VideoPath,
		CoverPath:   req.CoverPath,
		Audit:       s.audit(r, req.UserID),
	}

	taskID := s.registry.Start()
	go func() {
		log := observability.WithTask(s.logger, taskID)
		reporter := taskReporter{registry: s.registry, id: taskID}
		if _, err := s.coordinator.CreateMovie(context.Background(), up, reporter); err != nil {
			observability.WithError(log, err).Error("movie ingestion task failed")
			s.registry.Fail(taskID, err)
			return
		}
		log.Info("movie ingestion task completed")
		s.registry.Complete(taskID, "movie ingested")
	}()

	writeJSON(w, http.StatusAccepted, taskAcceptedResponse{TaskID: taskID})
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req movieUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	movie, err := s.coordinator.UpdateMovie(r.Context(), id, catalog.MovieUpdate{
		Title:       req.Title,
		Description: req.Description,
		ReleaseYear: req.ReleaseYear,
		CoverPath:   req.CoverPath,
		Audit:       s.audit(r, req.UserID),
	})
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := s.coordinator.DeleteMovie(r.Context(), id, s.audit(r, r.URL.Query().Get("user_id"))); err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

func (s *Server) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var req seriesCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	categoryID, ok := parseCategoryID(w, req.CategoryID)
	if !ok {
		return
	}

	series, err := s.coordinator.CreateSeries(r.Context(), catalog.SeriesCreate{
		Title:       req.Title,
		Description: req.Description,
		ReleaseYear: req.ReleaseYear,
		CategoryID:  categoryID,
		CoverPath:   req.CoverPath,
		Audit:       s.audit(r, req.UserID),
	})
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, series)
}

func (s *Server) handleUpdateSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req movieUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	series, err := s.coordinator.UpdateSeries(r.Context(), id, catalog.SeriesUpdate{
		Title:       req.Title,
		Description: req.Description,
		ReleaseYear: req.ReleaseYear,
		CoverPath:   req.CoverPath,
		Audit:       s.audit(r, req.UserID),
	})
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	stats, err := s.coordinator.DeleteSeries(r.Context(), id, s.audit(r, r.URL.Query().Get("user_id")))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCreateEpisode(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := urlID(w, r)
	if !ok {
		return
	}
	var req episodeCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	up := catalog.EpisodeUpload{
		SeriesID:      seriesID,
		SeasonNumber:  req.SeasonNumber,
		EpisodeNumber: req.EpisodeNumber,
		Title:         req.Title,
		Description:   req.Description,
		VideoPath:     req.VideoPath,
		Audit:         s.audit(r, req.UserID),
	}

	taskID := s.registry.Start()
	go func() {
		log := observability.WithTask(s.logger, taskID)
		reporter := taskReporter{registry: s.registry, id: taskID}
		if _, err := s.coordinator.CreateEpisode(context.Background(), up, reporter); err != nil {
			observability.WithError(log, err).Error("episode ingestion task failed")
			s.registry.Fail(taskID, err)
			return
		}
		log.Info("episode ingestion task completed")
		s.registry.Complete(taskID, "episode ingested")
	}()

	writeJSON(w, http.StatusAccepted, taskAcceptedResponse{TaskID: taskID})
}

func (s *Server) handleUpdateEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req episodeUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	episode, err := s.coordinator.UpdateEpisode(r.Context(), id, catalog.EpisodeUpdate{
		Title:         req.Title,
		Description:   req.Description,
		SeasonNumber:  req.SeasonNumber,
		EpisodeNumber: req.EpisodeNumber,
		Audit:         s.audit(r, req.UserID),
	})
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, episode)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.coordinator.ListCategories(r.Context())
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleDeleteEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := s.coordinator.DeleteEpisode(r.Context(), id, s.audit(r, r.URL.Query().Get("user_id"))); err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}
