package domain

import (
	"context"
	"errors"

	"github.com/opsbill/tarifa/pkg/db/pagination"
)

type ListCustomerRequest struct {
	pagination.Pagination
	Name       string
	Email      string
	ActiveOnly bool
}

type ListCustomerFilter struct {
	Name       string
	Email      string
	ActiveOnly bool
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name  string
	Email string
}

type UpdateCustomerRequest struct {
	ID    string
	Name  string
	Email string
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)

	// DeleteOrRestore toggles the soft delete mark on the customer.
	DeleteOrRestore(context.Context, GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
	ErrNameTaken    = errors.New("name_taken")
	ErrEmailTaken   = errors.New("email_taken")
)
