package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. Emails are stored lowercase
// and guarded by a unique index.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName    string     `gorm:"column:first_name;not null"`
	LastName     string     `gorm:"column:last_name;not null"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Phone        *string    `gorm:"column:phone"`
	DateOfBirth  *time.Time `gorm:"column:date_of_birth"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
