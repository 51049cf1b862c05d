package domain

import (
	"context"
	"errors"

	"github.com/opsbill/tarifa/pkg/db/pagination"
)

type CreateServiceRequestTypeRequest struct {
	Name        string
	Description string
	HourlyFee   float64
}

type UpdateServiceRequestTypeRequest struct {
	ID          string
	Name        string
	Description string
	HourlyFee   float64
}

type GetServiceRequestTypeRequest struct {
	ID string
}

type ListServiceRequestTypeRequest struct {
	pagination.Pagination
	ActiveOnly bool
}

type ListServiceRequestTypeResponse struct {
	pagination.PageInfo
	Types []ServiceRequestType `json:"types"`
}

type Service interface {
	Create(context.Context, CreateServiceRequestTypeRequest) (ServiceRequestType, error)
	Update(context.Context, UpdateServiceRequestTypeRequest) (ServiceRequestType, error)
	List(context.Context, ListServiceRequestTypeRequest) (ListServiceRequestTypeResponse, error)
	ListActive(context.Context) ([]ServiceRequestType, error)
	GetByID(context.Context, GetServiceRequestTypeRequest) (ServiceRequestType, error)
	DeleteOrRestore(context.Context, GetServiceRequestTypeRequest) (ServiceRequestType, error)
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidHourlyFee = errors.New("invalid_hourly_fee")
	ErrNotFound         = errors.New("not_found")
	ErrNameTaken        = errors.New("name_taken")
)
