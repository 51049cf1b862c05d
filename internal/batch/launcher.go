package batch

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/billingprocess/calculator"
	bpdomain "github.com/opsbill/tarifa/internal/billingprocess/domain"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/config"
	customerdomain "github.com/opsbill/tarifa/internal/customer/domain"
	"github.com/opsbill/tarifa/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrJobAlreadyRunning   = errors.New("job_already_running")
	ErrJobAlreadyCompleted = errors.New("job_already_completed")
)

type LauncherParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Billing    *config.BillingConfigHolder
	Executions ExecutionRepository
	Customers  customerdomain.Repository
	Calculator calculator.Calculator
	Processes  bpdomain.Service
}

// Launcher runs the monthly billing job: it guards against duplicate
// launches, drives the aggregate state machine, and records the
// execution outcome.
type Launcher struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	billing    *config.BillingConfigHolder
	executions ExecutionRepository
	customers  customerdomain.Repository
	calc       calculator.Calculator
	processes  bpdomain.Service
}

func NewLauncher(p LauncherParams) *Launcher {
	return &Launcher{
		db:         p.DB,
		log:        p.Log.Named("batch.launcher"),
		clock:      p.Clock,
		genID:      p.GenID,
		billing:    p.Billing,
		executions: p.Executions,
		customers:  p.Customers,
		calc:       p.Calculator,
		processes:  p.Processes,
	}
}

// Launch runs the job synchronously and returns the finished execution
// record. A launch with the same period and billing process is rejected
// while another run is in flight, and a timestamp that already
// completed is not run again; a fresh timestamp relaunches the month.
func (l *Launcher) Launch(ctx context.Context, params JobParams) (JobExecution, error) {
	running, err := l.executions.HasRunning(ctx, l.db, JobNameMonthlyBilling, params.Period, params.BillingProcessID)
	if err != nil {
		return JobExecution{}, err
	}
	if running {
		return JobExecution{}, ErrJobAlreadyRunning
	}

	completed, err := l.executions.HasCompletedAt(ctx, l.db, JobNameMonthlyBilling, params.Period, params.BillingProcessID, params.Timestamp)
	if err != nil {
		return JobExecution{}, err
	}
	if completed {
		return JobExecution{}, ErrJobAlreadyCompleted
	}

	// The aggregate must exist before any chunk is written.
	if _, err := l.processes.FindByID(ctx, params.BillingProcessID); err != nil {
		return JobExecution{}, err
	}

	now := l.clock.Now()
	exec := JobExecution{
		ID:               l.genID.Generate(),
		JobName:          JobNameMonthlyBilling,
		Period:           params.Period,
		BillingProcessID: params.BillingProcessID,
		Timestamp:        params.Timestamp,
		Params: datatypes.JSONMap{
			"period":           params.Period.String(),
			"billingProcessId": params.BillingProcessID.String(),
			"timestamp":        params.Timestamp.UTC().Format(time.RFC3339Nano),
		},
		State:     ExecutionRunning,
		StartedAt: now,
	}
	if err := l.executions.Insert(ctx, l.db, &exec); err != nil {
		return JobExecution{}, err
	}

	metrics.Batch().IncJobRun(JobNameMonthlyBilling)
	l.log.Info("billing job started",
		zap.String("execution_id", exec.ID.String()),
		zap.String("period", params.Period.String()),
		zap.String("billing_process_id", params.BillingProcessID.String()),
	)

	billed, runErr := l.run(ctx, params)

	finishedAt := l.clock.Now()
	exec.FinishedAt = &finishedAt
	exec.CustomersBilled = billed
	metrics.Batch().ObserveJobDuration(JobNameMonthlyBilling, finishedAt.Sub(now))

	if runErr != nil {
		exec.State = ExecutionFailed
		exec.Error = runErr.Error()
		metrics.Batch().IncJobError(JobNameMonthlyBilling, runErr)

		// A cancelled run must still land the aggregate in FAILED.
		if err := l.processes.MarkFailed(liveContext(ctx), params.BillingProcessID); err != nil {
			l.log.Error("marking billing process failed",
				zap.String("billing_process_id", params.BillingProcessID.String()),
				zap.Error(err),
			)
		}
		if err := l.finishExecution(ctx, &exec); err != nil {
			l.log.Error("recording failed execution", zap.Error(err))
		}

		l.log.Error("billing job failed",
			zap.String("execution_id", exec.ID.String()),
			zap.Int("customers_billed", billed),
			zap.Error(runErr),
		)
		return exec, runErr
	}

	if err := l.processes.MarkCompleted(ctx, params.BillingProcessID); err != nil {
		return exec, err
	}

	exec.State = ExecutionCompleted
	if err := l.finishExecution(ctx, &exec); err != nil {
		return exec, err
	}

	l.log.Info("billing job completed",
		zap.String("execution_id", exec.ID.String()),
		zap.Int("customers_billed", billed),
	)
	return exec, nil
}

func (l *Launcher) run(ctx context.Context, params JobParams) (int, error) {
	cfg := l.billing.Current()

	if cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.JobTimeout)
		defer cancel()
	}

	if err := l.processes.MarkInProgress(ctx, params.BillingProcessID); err != nil {
		return 0, err
	}

	reader := NewCustomerReader(l.db, l.customers, cfg.PageSize)
	processor := NewItemProcessor(l.calc, l.genID, params.Period)
	writer := NewChunkWriter(l.processes, params.BillingProcessID)
	retry := RetryPolicy{MaxAttempts: cfg.MaxAttempts, Backoff: DefaultRetryPolicy().Backoff}

	step := NewStep(reader, processor, writer, cfg.ChunkSize, retry, cfg.ParallelItems, l.log)
	return step.Run(ctx)
}

// finishExecution persists the outcome with a live context so a
// cancelled job still records its result.
func (l *Launcher) finishExecution(ctx context.Context, exec *JobExecution) error {
	return l.executions.Finish(liveContext(ctx), l.db, exec)
}

// liveContext returns ctx, or a background context when ctx is already
// dead, so terminal bookkeeping still reaches the database.
func liveContext(ctx context.Context) context.Context {
	if ctx.Err() != nil {
		return context.Background()
	}
	return ctx
}
