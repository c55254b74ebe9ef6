package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var titleLower = cases.Lower(language.Und)

// NormalizeTitle produces the canonical form of a title used for uniqueness
// checks: lowercased with whitespace collapsed to single spaces.
func NormalizeTitle(title string) string {
	return titleLower.String(strings.Join(strings.Fields(title), " "))
}

// Movie is a catalog entry referencing exactly one processed Video.
type Movie struct {
	BaseModel

	Title string `gorm:"size:512;not null" json:"title"`

	// TitleNormalized is derived from Title on save. Together with
	// ReleaseYear it forms the catalog uniqueness key for movies.
	TitleNormalized string `gorm:"size:512;not null;index:idx_movies_title_year,unique" json:"title_normalized"`
	ReleaseYear     int    `gorm:"not null;index:idx_movies_title_year,unique" json:"release_year"`

	Description string `gorm:"type:text" json:"description,omitempty"`

	CategoryID ULID      `gorm:"type:varchar(26);index" json:"category_id,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	// CoverHash addresses the processed cover image under the cover prefix.
	CoverHash string `gorm:"size:64" json:"cover_hash,omitempty"`

	VideoID ULID   `gorm:"type:varchar(26);not null;index" json:"video_id"`
	Video   *Video `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"video,omitempty"`
}

// TableName returns the table name for Movie.
func (Movie) TableName() string {
	return "movies"
}

// Validate performs basic validation on the movie.
func (m *Movie) Validate() error {
	if m.Title == "" {
		return ErrTitleRequired
	}
	if m.VideoID.IsZero() {
		return ErrVideoIDRequired
	}
	return nil
}

// BeforeSave is a GORM hook that keeps TitleNormalized in sync with Title.
func (m *Movie) BeforeSave(tx *gorm.DB) error {
	if m.Title != "" {
		m.TitleNormalized = NormalizeTitle(m.Title)
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the movie and generates its ULID.
func (m *Movie) BeforeCreate(tx *gorm.DB) error {
	if err := m.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return m.Validate()
}
