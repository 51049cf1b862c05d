package scheduler

import (
	"context"
	"errors"

	"github.com/opsbill/tarifa/internal/batch"
	bpdomain "github.com/opsbill/tarifa/internal/billingprocess/domain"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/config"
	"github.com/opsbill/tarifa/internal/period"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Billing   *config.BillingConfigHolder
	Processes bpdomain.Service
	Launcher  *batch.Launcher
}

// Scheduler fires the monthly billing run. Each firing bills the month
// before the current one.
type Scheduler struct {
	log       *zap.Logger
	clock     clock.Clock
	billing   *config.BillingConfigHolder
	processes bpdomain.Service
	launcher  *batch.Launcher
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Billing == nil || p.Processes == nil || p.Launcher == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler"),
		clock:     p.Clock,
		billing:   p.Billing,
		processes: p.Processes,
		launcher:  p.Launcher,
	}, nil
}

// RunMonthlyBilling performs one trigger firing: make sure the
// aggregate for last month exists, then launch the job for it. Firing
// twice in the same month converges on the same aggregate; the second
// launch is rejected while the first still runs.
func (s *Scheduler) RunMonthlyBilling(ctx context.Context) (batch.JobExecution, error) {
	now := s.clock.Now()
	p := period.Of(now).Previous()

	bp, err := s.processes.CreateMonthlyIfNotExists(ctx, p)
	if err != nil {
		s.log.Error("ensuring billing process", zap.String("period", p.String()), zap.Error(err))
		return batch.JobExecution{}, err
	}

	exec, err := s.launcher.Launch(ctx, batch.JobParams{
		Period:           p,
		BillingProcessID: bp.ID,
		Timestamp:        now,
	})
	if err != nil {
		if errors.Is(err, batch.ErrJobAlreadyRunning) || errors.Is(err, batch.ErrJobAlreadyCompleted) {
			s.log.Warn("billing job launch skipped",
				zap.String("period", p.String()),
				zap.Error(err),
			)
			return batch.JobExecution{}, err
		}
		s.log.Error("billing job run failed",
			zap.String("period", p.String()),
			zap.Error(err),
		)
		return exec, err
	}

	return exec, nil
}
