package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, project *Project) error
	Update(ctx context.Context, db *gorm.DB, project *Project) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, activeOnly bool, page pagination.Pagination) ([]*Project, int64, error)
	ExistsByCustomerAndName(ctx context.Context, db *gorm.DB, customerID snowflake.ID, name string) (bool, error)
}
