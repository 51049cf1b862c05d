package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/period"
	"github.com/opsbill/tarifa/pkg/db/pagination"
)

type ListBillingProcessRequest struct {
	pagination.Pagination
}

type ListBillingProcessResponse struct {
	pagination.PageInfo
	BillingProcesses []BillingProcess `json:"billing_processes"`
}

type Service interface {
	// CreateMonthlyIfNotExists returns the billing process for the
	// period, creating it in REGISTERED state when absent. Concurrent
	// callers converge on the same row.
	CreateMonthlyIfNotExists(ctx context.Context, p period.Period) (BillingProcess, error)

	// FindByID returns the aggregate header. ErrNotFound is fatal to a
	// running job.
	FindByID(ctx context.Context, id snowflake.ID) (BillingProcess, error)

	// GetWithTree returns the aggregate with the full owned tree loaded.
	GetWithTree(ctx context.Context, id snowflake.ID) (BillingProcess, error)

	List(context.Context, ListBillingProcessRequest) (ListBillingProcessResponse, error)

	// AppendCustomers atomically appends one chunk of customer bills to
	// the aggregate under a row lock, bumping the aggregate total.
	AppendCustomers(ctx context.Context, id snowflake.ID, customers []BillingProcessCustomer) error

	MarkInProgress(ctx context.Context, id snowflake.ID) error
	MarkCompleted(ctx context.Context, id snowflake.ID) error
	MarkFailed(ctx context.Context, id snowflake.ID) error
}

var (
	ErrNotFound          = errors.New("billing_process_not_found")
	ErrInvalidTransition = errors.New("invalid_billing_process_transition")
)
