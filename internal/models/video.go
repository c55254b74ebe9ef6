package models

import (
	"gorm.io/gorm"
)

// Video represents one processed content asset: the set of renditions and
// subtitle tracks produced from a single source file, addressed by its
// content hash. A Video is never mutated after creation; replacement is
// delete plus recreate.
type Video struct {
	BaseModel

	// ContentHash is the lowercase hex SHA-256 of the source file. It is
	// both the deduplication key and the remote storage path segment. The
	// unique index turns a concurrent double-ingest into a constraint
	// violation instead of a silent duplicate.
	ContentHash string `gorm:"size:64;not null;uniqueIndex" json:"content_hash"`

	// AvailableResolutions lists rung heights in ascending quality order,
	// e.g. [480, 720, 1080].
	AvailableResolutions IntList `gorm:"type:text;serializer:json" json:"available_resolutions"`

	// AvailableSubtitles lists subtitle identifiers (filenames without
	// extension, e.g. "en", "forced-en", "en_2") in extraction order.
	AvailableSubtitles StringList `gorm:"type:text;serializer:json" json:"available_subtitles"`

	// Duration is the source duration in seconds.
	Duration float64 `gorm:"default:0" json:"duration"`
}

// TableName returns the table name for Video.
func (Video) TableName() string {
	return "videos"
}

// Validate performs basic validation on the video.
func (v *Video) Validate() error {
	if v.ContentHash == "" {
		return ErrContentHashRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the video and generates its ULID.
func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if err := v.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return v.Validate()
}
