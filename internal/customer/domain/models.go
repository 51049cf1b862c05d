package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Customer struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"not null;uniqueIndex" json:"name"`
	Email         string       `gorm:"not null;uniqueIndex" json:"email"`
	SoftDeletedAt *time.Time   `gorm:"column:soft_deleted_at" json:"soft_deleted_at,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Active reports whether the customer has not been soft deleted.
func (c Customer) Active() bool {
	return c.SoftDeletedAt == nil
}
