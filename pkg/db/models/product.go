package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog listing. ImageID names the stored object; ImageURL is
// the derived public address.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null"`
	Summary     string          `gorm:"column:summary;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	IsAvailable bool            `gorm:"column:is_available;not null;default:true"`
	Quantity    int             `gorm:"column:quantity;not null;default:0"`
	ImageID     *uuid.UUID      `gorm:"column:image_id;type:uuid"`
	ImageURL    *string         `gorm:"column:image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
