package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/billingprocess/domain"
	"github.com/opsbill/tarifa/internal/period"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bp *domain.BillingProcess) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO billing_processes (id, period, registered_at, state, total_amount, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bp.ID,
		bp.Period,
		bp.RegisteredAt,
		bp.State,
		bp.TotalAmount,
		bp.CreatedAt,
		bp.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BillingProcess, error) {
	var bp domain.BillingProcess
	err := db.WithContext(ctx).Raw(
		`SELECT id, period, registered_at, state, total_amount, created_at, updated_at
		 FROM billing_processes WHERE id = ?`,
		id,
	).Scan(&bp).Error
	if err != nil {
		return nil, err
	}
	if bp.ID == 0 {
		return nil, nil
	}
	return &bp, nil
}

func (r *repo) FindByIDWithTree(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BillingProcess, error) {
	var bp domain.BillingProcess
	err := db.WithContext(ctx).
		Preload("Customers").
		Preload("Customers.Simulations").
		Preload("Customers.Simulations.Agreements").
		Preload("Customers.Simulations.Agreements.ServiceRequestTypes").
		Preload("Customers.Simulations.Agreements.ServiceRequestTypes.ServiceRequests").
		First(&bp, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bp, nil
}

func (r *repo) FindByPeriod(ctx context.Context, db *gorm.DB, p period.Period) (*domain.BillingProcess, error) {
	var bp domain.BillingProcess
	err := db.WithContext(ctx).Raw(
		`SELECT id, period, registered_at, state, total_amount, created_at, updated_at
		 FROM billing_processes WHERE period = ?`,
		p,
	).Scan(&bp).Error
	if err != nil {
		return nil, err
	}
	if bp.ID == 0 {
		return nil, nil
	}
	return &bp, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*domain.BillingProcess, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.BillingProcess{})

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var processes []*domain.BillingProcess
	err := stmt.
		Order("period desc").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&processes).Error
	if err != nil {
		return nil, 0, err
	}
	return processes, total, nil
}

func (r *repo) LockByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.BillingProcess, error) {
	query := `SELECT id, period, registered_at, state, total_amount, created_at, updated_at
		 FROM billing_processes WHERE id = ?`
	// sqlite has no row locks; writes serialize on the database lock.
	if tx.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}

	var bp domain.BillingProcess
	err := tx.WithContext(ctx).Raw(query, id).Scan(&bp).Error
	if err != nil {
		return nil, err
	}
	if bp.ID == 0 {
		return nil, nil
	}
	return &bp, nil
}

func (r *repo) AppendCustomers(ctx context.Context, tx *gorm.DB, bp *domain.BillingProcess, customers []domain.BillingProcessCustomer, now time.Time) error {
	if len(customers) == 0 {
		return nil
	}

	var chunkTotal float64
	for i := range customers {
		customers[i].BillingProcessID = bp.ID
		chunkTotal += customers[i].TotalAmount
	}

	if err := tx.WithContext(ctx).Create(&customers).Error; err != nil {
		return err
	}

	bp.TotalAmount += chunkTotal
	bp.UpdatedAt = now
	return tx.WithContext(ctx).Exec(
		`UPDATE billing_processes SET total_amount = ?, updated_at = ? WHERE id = ?`,
		bp.TotalAmount,
		bp.UpdatedAt,
		bp.ID,
	).Error
}

func (r *repo) TransitionState(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.State, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE billing_processes SET state = ?, updated_at = ? WHERE id = ? AND state = ?`,
		to, now, id, from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
