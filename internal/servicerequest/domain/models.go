package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type State string

const (
	StateToDo       State = "TO_DO"
	StateInProgress State = "IN_PROGRESS"
	StateDone       State = "DONE"
)

// BillableStates are the service request states picked up by the
// billing run.
var BillableStates = []State{StateDone}

type ServiceRequest struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	AgreementID  snowflake.ID `gorm:"not null;index" json:"agreement_id"`
	TypeID       snowflake.ID `gorm:"not null;index" json:"type_id"`
	Description  string       `gorm:"not null" json:"description"`
	State        State        `gorm:"not null;type:varchar(20)" json:"state"`
	RegisteredAt *time.Time   `json:"registered_at,omitempty"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// BillableRow is one finished service request joined with the fee data
// the bill calculator needs. Hours come from the registered/finished
// interval, truncated to whole minutes.
type BillableRow struct {
	ID           snowflake.ID `json:"id"`
	AgreementID  snowflake.ID `json:"agreement_id"`
	TypeID       snowflake.ID `json:"type_id"`
	TypeName     string       `json:"type_name"`
	HourlyFee    float64      `json:"hourly_fee"`
	RegisteredAt *time.Time   `json:"registered_at,omitempty"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
}

// Hours returns the billable hours for the row. Rows missing either
// timestamp contribute zero.
func (r BillableRow) Hours() float64 {
	if r.RegisteredAt == nil || r.FinishedAt == nil {
		return 0
	}
	minutes := int64(r.FinishedAt.Sub(*r.RegisteredAt) / time.Minute)
	return float64(minutes) / 60.0
}
