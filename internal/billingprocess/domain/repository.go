package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/period"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bp *BillingProcess) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillingProcess, error)
	FindByIDWithTree(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillingProcess, error)
	FindByPeriod(ctx context.Context, db *gorm.DB, p period.Period) (*BillingProcess, error)
	List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*BillingProcess, int64, error)

	// LockByID loads the aggregate header under a FOR UPDATE row lock.
	// Must run inside a transaction.
	LockByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*BillingProcess, error)

	// AppendCustomers inserts the customer trees and bumps the aggregate
	// total by their sum.
	AppendCustomers(ctx context.Context, tx *gorm.DB, bp *BillingProcess, customers []BillingProcessCustomer, now time.Time) error

	// TransitionState moves the aggregate between run states with a
	// conditional update. Returns false when the row was not in the
	// expected state.
	TransitionState(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to State, now time.Time) (bool, error)
}
