package models

import (
	"time"

	"gorm.io/gorm"
)

// Product conditions accepted by the catalog.
const (
	ConditionNew         = "new"
	ConditionUsed        = "used"
	ConditionRefurbished = "refurbished"
)

// Product represents a catalog item in the store.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Slug        string  `json:"slug" gorm:"uniqueIndex;type:varchar(150)" validate:"omitempty,max=150"`
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=2000"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Condition   string  `json:"condition" validate:"required,oneof=new used refurbished"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	CategoryID  string  `json:"category_id" gorm:"index;type:varchar(36)" validate:"required,uuid"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
