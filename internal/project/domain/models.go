package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Project is a unit of work contracted by a customer. Its name is
// unique within the customer.
type Project struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID    snowflake.ID `gorm:"not null;index;uniqueIndex:idx_projects_customer_name" json:"customer_id"`
	Name          string       `gorm:"not null;uniqueIndex:idx_projects_customer_name" json:"name"`
	Description   string       `json:"description,omitempty"`
	SoftDeletedAt *time.Time   `gorm:"column:soft_deleted_at" json:"soft_deleted_at,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (p Project) Active() bool {
	return p.SoftDeletedAt == nil
}
