package models

import (
	"gorm.io/gorm"
)

// Episode is a catalog entry inside a series, identified by its season and
// episode numbers, referencing exactly one processed Video.
type Episode struct {
	BaseModel

	SeriesID ULID    `gorm:"type:varchar(26);not null;index:idx_episodes_unique,unique" json:"series_id"`
	Series   *Series `gorm:"foreignKey:SeriesID" json:"series,omitempty"`

	SeasonNumber  int `gorm:"not null;index:idx_episodes_unique,unique" json:"season_number"`
	EpisodeNumber int `gorm:"not null;index:idx_episodes_unique,unique" json:"episode_number"`

	Title       string `gorm:"size:512" json:"title,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	VideoID ULID   `gorm:"type:varchar(26);not null;index" json:"video_id"`
	Video   *Video `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"video,omitempty"`
}

// TableName returns the table name for Episode.
func (Episode) TableName() string {
	return "episodes"
}

// Validate performs basic validation on the episode.
func (e *Episode) Validate() error {
	if e.SeriesID.IsZero() {
		return ErrSeriesIDRequired
	}
	if e.SeasonNumber < 1 {
		return ErrInvalidSeasonNumber
	}
	if e.EpisodeNumber < 1 {
		return ErrInvalidEpisodeNumber
	}
	if e.VideoID.IsZero() {
		return ErrVideoIDRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the episode and generates its ULID.
func (e *Episode) BeforeCreate(tx *gorm.DB) error {
	if err := e.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return e.Validate()
}
