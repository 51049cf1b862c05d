package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/project/domain"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO projects (id, customer_id, name, description, soft_deleted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.CustomerID,
		project.Name,
		project.Description,
		project.SoftDeletedAt,
		project.CreatedAt,
		project.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Exec(
		`UPDATE projects SET name = ?, description = ?, soft_deleted_at = ?, updated_at = ? WHERE id = ?`,
		project.Name,
		project.Description,
		project.SoftDeletedAt,
		project.UpdatedAt,
		project.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	var project domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, name, description, soft_deleted_at, created_at, updated_at
		 FROM projects WHERE id = ?`,
		id,
	).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ID == 0 {
		return nil, nil
	}
	return &project, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, activeOnly bool, page pagination.Pagination) ([]*domain.Project, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("customer_id = ?", customerID)
	if activeOnly {
		stmt = stmt.Where("soft_deleted_at IS NULL")
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []*domain.Project
	err := stmt.
		Order("name asc, id asc").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *repo) ExistsByCustomerAndName(ctx context.Context, db *gorm.DB, customerID snowflake.ID, name string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("customer_id = ? AND name = ?", customerID, name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
