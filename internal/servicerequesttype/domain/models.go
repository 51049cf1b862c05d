package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ServiceRequestType is a catalog entry carrying the hourly fee used
// when billing service requests of that type.
type ServiceRequestType struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"not null;uniqueIndex" json:"name"`
	Description   string       `json:"description,omitempty"`
	HourlyFee     float64      `gorm:"not null" json:"hourly_fee"`
	SoftDeletedAt *time.Time   `gorm:"column:soft_deleted_at" json:"soft_deleted_at,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (t ServiceRequestType) Active() bool {
	return t.SoftDeletedAt == nil
}
