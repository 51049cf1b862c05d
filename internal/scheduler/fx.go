package scheduler

import (
	"context"
	"time"

	"github.com/opsbill/tarifa/internal/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(StartCron),
)

// StartCron wires the scheduler into a cron runner for the configured
// monthly spec.
func StartCron(lc fx.Lifecycle, billing *config.BillingConfigHolder, log *zap.Logger, sched *Scheduler) error {
	spec := billing.Current().CronSpec

	runner := cron.New(cron.WithLocation(time.UTC))
	_, err := runner.AddFunc(spec, func() {
		ctx := context.Background()
		if _, err := sched.RunMonthlyBilling(ctx); err != nil {
			log.Error("scheduled billing run failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("billing cron started", zap.String("spec", spec))
			runner.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := runner.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}
