package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is a named grouping of products.
type Category struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=2,max=100"`
	Slug        string `json:"slug" gorm:"uniqueIndex;type:varchar(120)" validate:"omitempty,max=120"`
	Description string `json:"description" validate:"omitempty,max=500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
