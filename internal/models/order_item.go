package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem order line table. Name and price are snapshots taken at
// checkout; later catalog edits never touch existing orders.
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	OrderID     uint           `gorm:"index;not null" json:"order_id"`
	ProductID   uint           `gorm:"index;not null" json:"product_id"`
	ProductName string         `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	Quantity    int            `gorm:"not null" json:"quantity"`
	LineTotal   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"line_total"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (OrderItem) TableName() string {
	return "order_items"
}
