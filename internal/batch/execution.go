package batch

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/period"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExecutionState string

const (
	ExecutionRunning   ExecutionState = "RUNNING"
	ExecutionCompleted ExecutionState = "COMPLETED"
	ExecutionFailed    ExecutionState = "FAILED"
)

// JobExecution is the persisted record of one job launch.
type JobExecution struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	JobName          string            `gorm:"not null;index" json:"job_name"`
	Period           period.Period     `gorm:"not null;index;type:varchar(7)" json:"period"`
	BillingProcessID snowflake.ID      `gorm:"not null;index" json:"billing_process_id"`
	Timestamp        time.Time         `gorm:"not null" json:"timestamp"`
	Params           datatypes.JSONMap `gorm:"type:jsonb" json:"params"`
	State            ExecutionState    `gorm:"not null;type:varchar(20)" json:"state"`
	CustomersBilled  int               `gorm:"not null;default:0" json:"customers_billed"`
	Error            string            `json:"error,omitempty"`
	StartedAt        time.Time         `gorm:"not null" json:"started_at"`
	FinishedAt       *time.Time        `json:"finished_at,omitempty"`
}

func (JobExecution) TableName() string {
	return "billing_job_executions"
}

type ExecutionRepository interface {
	Insert(ctx context.Context, db *gorm.DB, exec *JobExecution) error
	Finish(ctx context.Context, db *gorm.DB, exec *JobExecution) error
	HasRunning(ctx context.Context, db *gorm.DB, jobName string, p period.Period, billingProcessID snowflake.ID) (bool, error)
	HasCompletedAt(ctx context.Context, db *gorm.DB, jobName string, p period.Period, billingProcessID snowflake.ID, ts time.Time) (bool, error)
	ListByPeriod(ctx context.Context, db *gorm.DB, p period.Period) ([]JobExecution, error)
}

type executionRepo struct{}

func ProvideExecutionRepository() ExecutionRepository {
	return &executionRepo{}
}

func (r *executionRepo) Insert(ctx context.Context, db *gorm.DB, exec *JobExecution) error {
	return db.WithContext(ctx).Create(exec).Error
}

func (r *executionRepo) Finish(ctx context.Context, db *gorm.DB, exec *JobExecution) error {
	return db.WithContext(ctx).Exec(
		`UPDATE billing_job_executions
		 SET state = ?, customers_billed = ?, error = ?, finished_at = ?
		 WHERE id = ?`,
		exec.State,
		exec.CustomersBilled,
		exec.Error,
		exec.FinishedAt,
		exec.ID,
	).Error
}

func (r *executionRepo) HasRunning(ctx context.Context, db *gorm.DB, jobName string, p period.Period, billingProcessID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&JobExecution{}).
		Where("job_name = ? AND period = ? AND billing_process_id = ? AND state = ?",
			jobName, p, billingProcessID, ExecutionRunning).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *executionRepo) HasCompletedAt(ctx context.Context, db *gorm.DB, jobName string, p period.Period, billingProcessID snowflake.ID, ts time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&JobExecution{}).
		Where("job_name = ? AND period = ? AND billing_process_id = ? AND timestamp = ? AND state = ?",
			jobName, p, billingProcessID, ts, ExecutionCompleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *executionRepo) ListByPeriod(ctx context.Context, db *gorm.DB, p period.Period) ([]JobExecution, error) {
	var executions []JobExecution
	err := db.WithContext(ctx).
		Where("period = ?", p).
		Order("started_at desc").
		Find(&executions).Error
	if err != nil {
		return nil, err
	}
	return executions, nil
}
