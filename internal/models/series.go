package models

import (
	"gorm.io/gorm"
)

// Series is a catalog entry that owns episodes. It carries no Video of its
// own; videos belong to the episodes.
type Series struct {
	BaseModel

	Title string `gorm:"size:512;not null" json:"title"`

	// TitleNormalized is derived from Title on save. Together with
	// ReleaseYear it forms the catalog uniqueness key for series.
	TitleNormalized string `gorm:"size:512;not null;index:idx_series_title_year,unique" json:"title_normalized"`
	ReleaseYear     int    `gorm:"not null;index:idx_series_title_year,unique" json:"release_year"`

	Description string `gorm:"type:text" json:"description,omitempty"`

	CategoryID ULID      `gorm:"type:varchar(26);index" json:"category_id,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	CoverHash string `gorm:"size:64" json:"cover_hash,omitempty"`

	// Episodes cascade-delete with the series at the database level.
	Episodes []Episode `gorm:"foreignKey:SeriesID;constraint:OnDelete:CASCADE" json:"episodes,omitempty"`
}

// TableName returns the table name for Series.
func (Series) TableName() string {
	return "series"
}

// Validate performs basic validation on the series.
func (s *Series) Validate() error {
	if s.Title == "" {
		return ErrTitleRequired
	}
	return nil
}

// BeforeSave is a GORM hook that keeps TitleNormalized in sync with Title.
func (s *Series) BeforeSave(tx *gorm.DB) error {
	if s.Title != "" {
		s.TitleNormalized = NormalizeTitle(s.Title)
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the series and generates its ULID.
func (s *Series) BeforeCreate(tx *gorm.DB) error {
	if err := s.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return s.Validate()
}
