package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/period"
	"github.com/opsbill/tarifa/pkg/db/pagination"
)

type CreateAgreementRequest struct {
	ProjectID      string
	StartingPeriod period.Period
	EndingPeriod   period.Period
}

type UpdateAgreementRequest struct {
	ID             string
	StartingPeriod period.Period
	EndingPeriod   period.Period
}

type GetAgreementRequest struct {
	ID string
}

type ListAgreementRequest struct {
	pagination.Pagination
	CustomerID string
	ProjectID  string
	State      State
}

type ListAgreementFilter struct {
	CustomerID snowflake.ID
	ProjectID  snowflake.ID
	State      State
}

type ListAgreementResponse struct {
	pagination.PageInfo
	Agreements []Agreement `json:"agreements"`
}

type Service interface {
	Create(context.Context, CreateAgreementRequest) (Agreement, error)
	Update(context.Context, UpdateAgreementRequest) (Agreement, error)
	Delete(context.Context, GetAgreementRequest) error
	Accept(context.Context, GetAgreementRequest) (Agreement, error)
	Finish(context.Context, GetAgreementRequest) (Agreement, error)
	GetByID(context.Context, GetAgreementRequest) (Agreement, error)
	List(context.Context, ListAgreementRequest) (ListAgreementResponse, error)
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidPeriods  = errors.New("invalid_periods")
	ErrNotFound        = errors.New("not_found")
	ErrNotProvisional  = errors.New("not_provisional")
	ErrNotInCourse     = errors.New("not_in_course")
	ErrStartingPassed  = errors.New("starting_period_passed")
	ErrCustomerHasOpen = errors.New("customer_has_open_agreement")
)
