package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/period"
	"github.com/opsbill/tarifa/pkg/db/pagination"
)

type CreateServiceRequestRequest struct {
	AgreementID string
	TypeID      string
	Description string
}

type GetServiceRequestRequest struct {
	ID string
}

type ListServiceRequestRequest struct {
	pagination.Pagination

	// Filter matches against customer or project name.
	Filter string
}

type ListServiceRequestResponse struct {
	pagination.PageInfo
	ServiceRequests []ServiceRequest `json:"service_requests"`
}

type Service interface {
	Create(context.Context, CreateServiceRequestRequest) (ServiceRequest, error)
	Start(context.Context, GetServiceRequestRequest) (ServiceRequest, error)
	Finish(context.Context, GetServiceRequestRequest) (ServiceRequest, error)
	Delete(context.Context, GetServiceRequestRequest) error
	GetByID(context.Context, GetServiceRequestRequest) (ServiceRequest, error)
	List(context.Context, ListServiceRequestRequest) (ListServiceRequestResponse, error)

	// FindBillable is the query the bill calculator consumes.
	FindBillable(ctx context.Context, customerID snowflake.ID, p period.Period, serviceStates []State) ([]BillableRow, error)
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidDescription    = errors.New("invalid_description")
	ErrNotFound              = errors.New("not_found")
	ErrAgreementNotAvailable = errors.New("agreement_not_available")
	ErrTypeNotAvailable      = errors.New("type_not_available")
	ErrAlreadyStarted        = errors.New("already_started")
	ErrNotInProgress         = errors.New("not_in_progress")
)
