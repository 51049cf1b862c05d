package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, filter ListCustomerFilter, page pagination.Pagination) ([]*Customer, int64, error)

	// ListActive returns active customers with id greater than afterID,
	// ordered by id, at most limit rows. Pass 0 to start from the beginning.
	ListActive(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]*Customer, error)
}
