package domain

import (
	"context"
	"errors"

	"github.com/opsbill/tarifa/pkg/db/pagination"
)

type CreateProjectRequest struct {
	CustomerID  string
	Name        string
	Description string
}

type UpdateProjectRequest struct {
	ID          string
	Name        string
	Description string
}

type GetProjectRequest struct {
	ID string
}

type ListProjectRequest struct {
	pagination.Pagination
	CustomerID string
	ActiveOnly bool
}

type ListProjectResponse struct {
	pagination.PageInfo
	Projects []Project `json:"projects"`
}

type Service interface {
	Create(context.Context, CreateProjectRequest) (Project, error)
	Update(context.Context, UpdateProjectRequest) (Project, error)
	ListByCustomer(context.Context, ListProjectRequest) (ListProjectResponse, error)
	GetByID(context.Context, GetProjectRequest) (Project, error)
	DeleteOrRestore(context.Context, GetProjectRequest) (Project, error)

	// GetActiveByID returns the project only when neither the project
	// nor its customer is soft deleted.
	GetActiveByID(context.Context, GetProjectRequest) (Project, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidName       = errors.New("invalid_name")
	ErrNotFound          = errors.New("not_found")
	ErrNameTaken         = errors.New("name_taken")
	ErrCustomerNotFound  = errors.New("customer_not_found")
	ErrCustomerNotActive = errors.New("customer_not_active")
	ErrProjectNotActive  = errors.New("project_not_active")
)
