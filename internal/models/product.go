package models

import (
	"time"

	"gorm.io/gorm"
)

// Product catalog product table
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CategoryID  uint           `gorm:"not null;index" json:"category_id"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
	Images      StringArray    `gorm:"type:json" json:"images"`
	Tags        StringArray    `gorm:"type:json" json:"tags"`
	IsActive    bool           `gorm:"not null;index" json:"is_active"` // no column default: gorm would skip false on insert; callers set it explicitly
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}
