package models

import (
	"gorm.io/gorm"
)

// Category is a catalog grouping referenced by movies and series.
type Category struct {
	BaseModel

	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

// TableName returns the table name for Category.
func (Category) TableName() string {
	return "categories"
}

// Validate performs basic validation on the category.
func (c *Category) Validate() error {
	if c.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the category and generates its ULID.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if err := c.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return c.Validate()
}
