package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, agreement *Agreement) error
	Update(ctx context.Context, db *gorm.DB, agreement *Agreement) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Agreement, error)
	List(ctx context.Context, db *gorm.DB, filter ListAgreementFilter, page pagination.Pagination) ([]*Agreement, int64, error)
	ExistsOpenByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (bool, error)

	// TransitionState moves the agreement from one state to another with a
	// conditional update. Returns false when the agreement was not in the
	// expected state.
	TransitionState(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to State, now time.Time) (bool, error)
}
