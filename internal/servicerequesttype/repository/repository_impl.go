package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/servicerequesttype/domain"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, srt *domain.ServiceRequestType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_request_types (id, name, description, hourly_fee, soft_deleted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		srt.ID,
		srt.Name,
		srt.Description,
		srt.HourlyFee,
		srt.SoftDeletedAt,
		srt.CreatedAt,
		srt.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, srt *domain.ServiceRequestType) error {
	return db.WithContext(ctx).Exec(
		`UPDATE service_request_types
		 SET name = ?, description = ?, hourly_fee = ?, soft_deleted_at = ?, updated_at = ?
		 WHERE id = ?`,
		srt.Name,
		srt.Description,
		srt.HourlyFee,
		srt.SoftDeletedAt,
		srt.UpdatedAt,
		srt.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceRequestType, error) {
	var srt domain.ServiceRequestType
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, description, hourly_fee, soft_deleted_at, created_at, updated_at
		 FROM service_request_types WHERE id = ?`,
		id,
	).Scan(&srt).Error
	if err != nil {
		return nil, err
	}
	if srt.ID == 0 {
		return nil, nil
	}
	return &srt, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool, page pagination.Pagination) ([]*domain.ServiceRequestType, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.ServiceRequestType{})
	if activeOnly {
		stmt = stmt.Where("soft_deleted_at IS NULL")
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var types []*domain.ServiceRequestType
	err := stmt.
		Order("name asc, id asc").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&types).Error
	if err != nil {
		return nil, 0, err
	}
	return types, total, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.ServiceRequestType, error) {
	var types []*domain.ServiceRequestType
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, description, hourly_fee, soft_deleted_at, created_at, updated_at
		 FROM service_request_types
		 WHERE soft_deleted_at IS NULL
		 ORDER BY name`,
	).Scan(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}
