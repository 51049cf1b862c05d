package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, srt *ServiceRequestType) error
	Update(ctx context.Context, db *gorm.DB, srt *ServiceRequestType) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceRequestType, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool, page pagination.Pagination) ([]*ServiceRequestType, int64, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]*ServiceRequestType, error)
}
