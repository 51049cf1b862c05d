package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/opsbill/tarifa/internal/agreement/domain"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sr *ServiceRequest) error
	Update(ctx context.Context, db *gorm.DB, sr *ServiceRequest) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceRequest, error)

	// List matches service requests whose customer or project name
	// contains the filter, case insensitively.
	List(ctx context.Context, db *gorm.DB, nameFilter string, page pagination.Pagination) ([]*ServiceRequest, int64, error)

	// FindBillable returns finished rows for the customer whose
	// finished_at falls inside [start, end], restricted to the given
	// service and agreement states.
	FindBillable(ctx context.Context, db *gorm.DB, customerID snowflake.ID, start, end time.Time, serviceStates []State, agreementStates []agreementdomain.State) ([]BillableRow, error)
}
