package models

import (
	"time"

	"gorm.io/gorm"
)

// Order order table
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`
	UserID          uint           `gorm:"index;not null" json:"user_id"`
	Status          string         `gorm:"index;not null" json:"status"`
	PaymentStatus   string         `gorm:"index;not null" json:"payment_status"`
	PaymentMethod   string         `gorm:"not null" json:"payment_method"`
	Currency        string         `gorm:"not null" json:"currency"`
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // frozen at checkout
	AuthorizationID string         `gorm:"index" json:"authorization_id,omitempty"`                   // card processor reference
	ClientSecret    string         `gorm:"type:varchar(255)" json:"client_secret,omitempty"`
	PaymentMeta     JSON           `gorm:"type:json" json:"payment_meta,omitempty"`
	ShippingName    string         `gorm:"type:varchar(120)" json:"shipping_name,omitempty"`
	ShippingAddress string         `gorm:"type:varchar(500)" json:"shipping_address,omitempty"`
	ClientIP        string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`
	CanceledAt      *time.Time     `gorm:"index" json:"canceled_at"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "orders"
}
