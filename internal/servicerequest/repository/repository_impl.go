package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/opsbill/tarifa/internal/agreement/domain"
	"github.com/opsbill/tarifa/internal/servicerequest/domain"
	"github.com/opsbill/tarifa/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sr *domain.ServiceRequest) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_requests (id, agreement_id, type_id, description, state, registered_at, finished_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sr.ID,
		sr.AgreementID,
		sr.TypeID,
		sr.Description,
		sr.State,
		sr.RegisteredAt,
		sr.FinishedAt,
		sr.CreatedAt,
		sr.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, sr *domain.ServiceRequest) error {
	return db.WithContext(ctx).Exec(
		`UPDATE service_requests
		 SET description = ?, state = ?, registered_at = ?, finished_at = ?, updated_at = ?
		 WHERE id = ?`,
		sr.Description,
		sr.State,
		sr.RegisteredAt,
		sr.FinishedAt,
		sr.UpdatedAt,
		sr.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM service_requests WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceRequest, error) {
	var sr domain.ServiceRequest
	err := db.WithContext(ctx).Raw(
		`SELECT id, agreement_id, type_id, description, state, registered_at, finished_at, created_at, updated_at
		 FROM service_requests WHERE id = ?`,
		id,
	).Scan(&sr).Error
	if err != nil {
		return nil, err
	}
	if sr.ID == 0 {
		return nil, nil
	}
	return &sr, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, nameFilter string, page pagination.Pagination) ([]*domain.ServiceRequest, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.ServiceRequest{}).
		Joins("JOIN agreements a ON a.id = service_requests.agreement_id").
		Joins("JOIN customers c ON c.id = a.customer_id").
		Joins("JOIN projects p ON p.id = a.project_id")
	if nameFilter != "" {
		like := "%" + nameFilter + "%"
		stmt = stmt.Where("LOWER(c.name) LIKE LOWER(?) OR LOWER(p.name) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []*domain.ServiceRequest
	err := stmt.
		Select("service_requests.*").
		Order("service_requests.registered_at desc, service_requests.id desc").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *repo) FindBillable(ctx context.Context, db *gorm.DB, customerID snowflake.ID, start, end time.Time, serviceStates []domain.State, agreementStates []agreementdomain.State) ([]domain.BillableRow, error) {
	var rows []domain.BillableRow
	err := db.WithContext(ctx).Raw(
		`SELECT sr.id, sr.agreement_id, sr.type_id, t.name AS type_name, t.hourly_fee, sr.registered_at, sr.finished_at
		 FROM service_requests sr
		 JOIN agreements a ON a.id = sr.agreement_id
		 JOIN service_request_types t ON t.id = sr.type_id
		 WHERE a.customer_id = ?
		   AND a.state IN ?
		   AND sr.state IN ?
		   AND sr.finished_at IS NOT NULL
		   AND sr.finished_at >= ? AND sr.finished_at <= ?
		 ORDER BY sr.id`,
		customerID,
		agreementStates,
		serviceStates,
		start,
		end,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
