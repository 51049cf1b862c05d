package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/period"
)

type State string

const (
	StateProvisional State = "PROVISIONAL"
	StateAccepted    State = "ACCEPTED"
	StateInCourse    State = "IN_COURSE"
	StateFinished    State = "FINISHED"
)

// BillableStates are the agreement states whose service requests are
// picked up by the billing run.
var BillableStates = []State{StateInCourse, StateFinished}

type Agreement struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID     snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	ProjectID      snowflake.ID  `gorm:"not null;index" json:"project_id"`
	StartingPeriod period.Period `gorm:"not null;type:varchar(7)" json:"starting_period"`
	EndingPeriod   period.Period `gorm:"not null;type:varchar(7)" json:"ending_period"`
	AcceptedAt     *time.Time    `json:"accepted_at,omitempty"`
	State          State         `gorm:"not null;type:varchar(20)" json:"state"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
