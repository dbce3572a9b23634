package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is a value snapshot of a product at add-to-cart time. Later
// product edits do not propagate into existing line items.
type CartItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name           string          `gorm:"column:name;not null"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity       int             `gorm:"column:quantity;not null;default:0"`
	ImageID        *uuid.UUID      `gorm:"column:image_id;type:uuid"`
	ImageURL       *string         `gorm:"column:image_url"`
	ProductAddedAt time.Time       `gorm:"column:product_added_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
