package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/period"
)

type State string

const (
	StateRegistered State = "REGISTERED"
	StateInProgress State = "IN_PROGRESS"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
)

type CustomerState string

const (
	CustomerStatePendingApproval CustomerState = "PENDING_APPROVAL"
)

// BillingProcess is the monthly billing aggregate. One row per period,
// guarded by the unique period index. TotalAmount is kept current as
// customer chunks are appended.
type BillingProcess struct {
	ID           snowflake.ID             `gorm:"primaryKey" json:"id"`
	Period       period.Period            `gorm:"not null;uniqueIndex;type:varchar(7)" json:"period"`
	RegisteredAt time.Time                `gorm:"not null" json:"registered_at"`
	State        State                    `gorm:"not null;type:varchar(20)" json:"state"`
	TotalAmount  float64                  `gorm:"not null" json:"total_amount"`
	Customers    []BillingProcessCustomer `gorm:"foreignKey:BillingProcessID" json:"customers,omitempty"`
	CreatedAt    time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// BillingProcessCustomer is one customer's bill inside a billing
// process, awaiting approval.
type BillingProcessCustomer struct {
	ID               snowflake.ID               `gorm:"primaryKey" json:"id"`
	BillingProcessID snowflake.ID               `gorm:"not null;index" json:"billing_process_id"`
	CustomerID       snowflake.ID               `gorm:"not null;index" json:"customer_id"`
	State            CustomerState              `gorm:"not null;type:varchar(20)" json:"state"`
	TotalAmount      float64                    `gorm:"not null" json:"total_amount"`
	Simulations      []BillingProcessSimulation `gorm:"foreignKey:BillingProcessCustomerID" json:"simulations,omitempty"`
	CreatedAt        time.Time                  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BillingProcessSimulation is one computed bill for a customer. Kept as
// a list so a re-simulation can sit next to the original.
type BillingProcessSimulation struct {
	ID                       snowflake.ID              `gorm:"primaryKey" json:"id"`
	BillingProcessCustomerID snowflake.ID              `gorm:"index" json:"billing_process_customer_id"`
	SimulatedAt              time.Time                 `gorm:"not null" json:"simulated_at"`
	TotalAmount              float64                   `gorm:"not null" json:"total_amount"`
	Agreements               []BillingProcessAgreement `gorm:"foreignKey:SimulationID" json:"agreements,omitempty"`
}

type BillingProcessAgreement struct {
	ID                  snowflake.ID                       `gorm:"primaryKey" json:"id"`
	SimulationID        snowflake.ID                       `gorm:"not null;index" json:"simulation_id"`
	AgreementID         snowflake.ID                       `gorm:"not null" json:"agreement_id"`
	TotalAmount         float64                            `gorm:"not null" json:"total_amount"`
	ServiceRequestTypes []BillingProcessServiceRequestType `gorm:"foreignKey:AgreementLineID" json:"service_request_types,omitempty"`
}

// BillingProcessServiceRequestType is the per-type line of an agreement
// bill. HourlyFee is a snapshot of the catalog fee at simulation time.
type BillingProcessServiceRequestType struct {
	ID                   snowflake.ID                      `gorm:"primaryKey" json:"id"`
	AgreementLineID      snowflake.ID                      `gorm:"not null;index" json:"agreement_line_id"`
	ServiceRequestTypeID snowflake.ID                      `gorm:"not null" json:"service_request_type_id"`
	TotalHours           float64                           `gorm:"not null" json:"total_hours"`
	HourlyFee            float64                           `gorm:"not null" json:"hourly_fee"`
	TotalAmount          float64                           `gorm:"not null" json:"total_amount"`
	ServiceRequests      []BillingProcessServiceRequestRef `gorm:"foreignKey:TypeLineID" json:"service_requests,omitempty"`
}

// BillingProcessServiceRequestRef records which service requests were
// counted into a type line.
type BillingProcessServiceRequestRef struct {
	TypeLineID       snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"type_line_id"`
	ServiceRequestID snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"service_request_id"`
}

func (BillingProcessServiceRequestRef) TableName() string {
	return "billing_process_service_request_refs"
}
