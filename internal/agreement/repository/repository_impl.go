package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/agreement/domain"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, agreement *domain.Agreement) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO agreements (id, customer_id, project_id, starting_period, ending_period, accepted_at, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agreement.ID,
		agreement.CustomerID,
		agreement.ProjectID,
		agreement.StartingPeriod,
		agreement.EndingPeriod,
		agreement.AcceptedAt,
		agreement.State,
		agreement.CreatedAt,
		agreement.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, agreement *domain.Agreement) error {
	return db.WithContext(ctx).Exec(
		`UPDATE agreements
		 SET starting_period = ?, ending_period = ?, accepted_at = ?, state = ?, updated_at = ?
		 WHERE id = ?`,
		agreement.StartingPeriod,
		agreement.EndingPeriod,
		agreement.AcceptedAt,
		agreement.State,
		agreement.UpdatedAt,
		agreement.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM agreements WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Agreement, error) {
	var agreement domain.Agreement
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, project_id, starting_period, ending_period, accepted_at, state, created_at, updated_at
		 FROM agreements WHERE id = ?`,
		id,
	).Scan(&agreement).Error
	if err != nil {
		return nil, err
	}
	if agreement.ID == 0 {
		return nil, nil
	}
	return &agreement, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListAgreementFilter, page pagination.Pagination) ([]*domain.Agreement, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.Agreement{})
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.ProjectID != 0 {
		stmt = stmt.Where("project_id = ?", filter.ProjectID)
	}
	if filter.State != "" {
		stmt = stmt.Where("state = ?", filter.State)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var agreements []*domain.Agreement
	err := stmt.
		Order("accepted_at desc, id desc").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&agreements).Error
	if err != nil {
		return nil, 0, err
	}
	return agreements, total, nil
}

func (r *repo) ExistsOpenByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Agreement{}).
		Where("customer_id = ? AND state <> ?", customerID, domain.StateFinished).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) TransitionState(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.State, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE agreements SET state = ?, updated_at = ? WHERE id = ? AND state = ?`,
		to, now, id, from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
