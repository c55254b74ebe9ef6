package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common validation errors for models.
var (
	// ErrTitleRequired indicates a required title field is empty.
	ErrTitleRequired = errors.New("title is required")

	// ErrContentHashRequired indicates a required content hash field is empty.
	ErrContentHashRequired = errors.New("content_hash is required")

	// ErrSeriesIDRequired indicates a required series ID field is zero.
	ErrSeriesIDRequired = errors.New("series_id is required")

	// ErrVideoIDRequired indicates a required video ID field is zero.
	ErrVideoIDRequired = errors.New("video_id is required")

	// ErrInvalidSeasonNumber indicates a season number below one.
	ErrInvalidSeasonNumber = errors.New("season number must be positive")

	// ErrInvalidEpisodeNumber indicates an episode number below one.
	ErrInvalidEpisodeNumber = errors.New("episode number must be positive")

	// ErrNameRequired indicates a required name field is empty.
	ErrNameRequired = errors.New("name is required")
)

// Ingestion pipeline errors surfaced by the coordinator and its collaborators.
var (
	// ErrSourceFileNotFound indicates a local source file (video, subtitle
	// or cover image) is missing before any side effect has happened.
	ErrSourceFileNotFound = errors.New("source file not found")

	// ErrNoPrimaryVideoStream indicates the probed source has no usable
	// video track.
	ErrNoPrimaryVideoStream = errors.New("no primary video stream found")

	// ErrDuplicateContent indicates a video with the same content hash has
	// already been ingested.
	ErrDuplicateContent = errors.New("content already ingested")

	// ErrAlreadyExists indicates a catalog uniqueness conflict: same
	// normalized title and year, or same series/season/episode triple.
	ErrAlreadyExists = errors.New("catalog entry already exists")

	// ErrEncodeFailure indicates the external encoder failed for a rung,
	// aborting the whole ingestion.
	ErrEncodeFailure = errors.New("encode failed")

	// ErrUploadFailure indicates an upload completed without the expected
	// integrity markers, or failed in transport.
	ErrUploadFailure = errors.New("upload failed")

	// ErrNotFound indicates a catalog entity lookup found no row.
	ErrNotFound = errors.New("not found")
)
