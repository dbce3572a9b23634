package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a simple reference entity. Name uniqueness is case-insensitive,
// enforced by a functional unique index on LOWER(name) in the migration.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
