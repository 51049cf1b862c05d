package batch

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	bpdomain "github.com/opsbill/tarifa/internal/billingprocess/domain"
	bprepository "github.com/opsbill/tarifa/internal/billingprocess/repository"
	bpservice "github.com/opsbill/tarifa/internal/billingprocess/service"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/config"
	"github.com/opsbill/tarifa/internal/period"
	srdomain "github.com/opsbill/tarifa/internal/servicerequest/domain"
	dbpkg "github.com/opsbill/tarifa/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestLauncher(t *testing.T, customers *fakeCustomerRepo, processes *fakeProcesses, calc *fakeCalculator) (*Launcher, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("test db: %v", err)
	}
	if err := db.AutoMigrate(&JobExecution{}); err != nil {
		t.Fatalf("migrate executions: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	fc := clock.NewFakeClock(time.Date(2025, time.July, 1, 2, 0, 0, 0, time.UTC))

	launcher := NewLauncher(LauncherParams{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fc,
		GenID: node,
		Billing: config.StaticBillingConfig(config.BillingConfig{
			PageSize:    2,
			ChunkSize:   2,
			MaxAttempts: 1,
			JobTimeout:  time.Minute,
		}),
		Executions: ProvideExecutionRepository(),
		Customers:  customers,
		Calculator: calc,
		Processes:  processes,
	})
	return launcher, db, fc
}

func TestLaunchCompletesAndRecordsExecution(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	customers := &fakeCustomerRepo{customers: seedCustomers(t, node, 3)}
	processes := &fakeProcesses{}
	launcher, db, fc := newTestLauncher(t, customers, processes, &fakeCalculator{amount: 10.0})

	params := JobParams{
		Period:           period.Period{Year: 2025, Month: time.June},
		BillingProcessID: node.Generate(),
		Timestamp:        fc.Now(),
	}

	exec, err := launcher.Launch(context.Background(), params)
	assert.NoError(t, err)
	assert.Equal(t, ExecutionCompleted, exec.State)
	assert.Equal(t, 3, exec.CustomersBilled)
	assert.NotNil(t, exec.FinishedAt)
	assert.Equal(t, 1, processes.inProgress)
	assert.Equal(t, 1, processes.completed)
	assert.Equal(t, 0, processes.failed)

	var stored JobExecution
	assert.NoError(t, db.First(&stored, "id = ?", exec.ID).Error)
	assert.Equal(t, ExecutionCompleted, stored.State)
	assert.Equal(t, 3, stored.CustomersBilled)
	assert.Equal(t, params.Period.String(), stored.Params["period"])
}

func TestLaunchRejectsCompletedTimestamp(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	processes := &fakeProcesses{}
	launcher, _, fc := newTestLauncher(t, &fakeCustomerRepo{}, processes, &fakeCalculator{})

	params := JobParams{
		Period:           period.Period{Year: 2025, Month: time.June},
		BillingProcessID: node.Generate(),
		Timestamp:        fc.Now(),
	}

	_, err := launcher.Launch(context.Background(), params)
	assert.NoError(t, err)

	_, err = launcher.Launch(context.Background(), params)
	assert.ErrorIs(t, err, ErrJobAlreadyCompleted)

	// A fresh timestamp reruns the month.
	fc.Advance(time.Hour)
	params.Timestamp = fc.Now()
	exec, err := launcher.Launch(context.Background(), params)
	assert.NoError(t, err)
	assert.Equal(t, ExecutionCompleted, exec.State)
}

func TestLaunchRejectsConcurrentRun(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	launcher, db, fc := newTestLauncher(t, &fakeCustomerRepo{}, &fakeProcesses{}, &fakeCalculator{})

	params := JobParams{
		Period:           period.Period{Year: 2025, Month: time.June},
		BillingProcessID: node.Generate(),
		Timestamp:        fc.Now(),
	}

	running := JobExecution{
		ID:               node.Generate(),
		JobName:          JobNameMonthlyBilling,
		Period:           params.Period,
		BillingProcessID: params.BillingProcessID,
		Timestamp:        fc.Now().Add(-time.Hour),
		State:            ExecutionRunning,
		StartedAt:        fc.Now().Add(-time.Hour),
	}
	assert.NoError(t, db.Create(&running).Error)

	_, err := launcher.Launch(context.Background(), params)
	assert.ErrorIs(t, err, ErrJobAlreadyRunning)
}

func TestLaunchFailureMarksProcessFailed(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	customers := seedCustomers(t, node, 2)
	repo := &fakeCustomerRepo{customers: customers}
	processes := &fakeProcesses{}
	launcher, db, fc := newTestLauncher(t, repo, processes, &fakeCalculator{amount: 10.0, failFor: customers[0].ID})

	params := JobParams{
		Period:           period.Period{Year: 2025, Month: time.June},
		BillingProcessID: node.Generate(),
		Timestamp:        fc.Now(),
	}

	exec, err := launcher.Launch(context.Background(), params)
	assert.Error(t, err)
	assert.Equal(t, ExecutionFailed, exec.State)
	assert.Equal(t, 1, processes.failed)
	assert.Equal(t, 0, processes.completed)

	var stored JobExecution
	assert.NoError(t, db.First(&stored, "id = ?", exec.ID).Error)
	assert.Equal(t, ExecutionFailed, stored.State)
	assert.NotEmpty(t, stored.Error)

	// The failed timestamp did not complete, so the same params may run
	// again once the calculator behaves.
	launcher2, _, _ := newTestLauncherSharing(t, db, repo, &fakeProcesses{}, &fakeCalculator{amount: 10.0}, fc)
	exec2, err := launcher2.Launch(context.Background(), params)
	assert.NoError(t, err)
	assert.Equal(t, ExecutionCompleted, exec2.State)
	assert.Equal(t, 2, exec2.CustomersBilled)
}

func newTestLauncherSharing(t *testing.T, db *gorm.DB, customers *fakeCustomerRepo, processes *fakeProcesses, calc *fakeCalculator, fc *clock.FakeClock) (*Launcher, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	launcher := NewLauncher(LauncherParams{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fc,
		GenID: node,
		Billing: config.StaticBillingConfig(config.BillingConfig{
			PageSize:    2,
			ChunkSize:   2,
			MaxAttempts: 1,
			JobTimeout:  time.Minute,
		}),
		Executions: ProvideExecutionRepository(),
		Customers:  customers,
		Calculator: calc,
		Processes:  processes,
	})
	return launcher, db, fc
}

// cancellingCalculator cancels the run's context on first use and
// reports the cancellation, like a run torn down mid-chunk.
type cancellingCalculator struct {
	cancel context.CancelFunc
}

func (c *cancellingCalculator) Simulate(ctx context.Context, customerID snowflake.ID, p period.Period, serviceStates []srdomain.State) (bpdomain.BillingProcessSimulation, error) {
	c.cancel()
	<-ctx.Done()
	return bpdomain.BillingProcessSimulation{}, ctx.Err()
}

func TestLaunchCancelledRunMarksProcessFailed(t *testing.T) {
	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("test db: %v", err)
	}
	if err := db.AutoMigrate(&JobExecution{}, &bpdomain.BillingProcess{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	fc := clock.NewFakeClock(time.Date(2025, time.July, 1, 2, 0, 0, 0, time.UTC))
	processes := bpservice.New(bpservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fc,
		GenID: node,
		Repo:  bprepository.Provide(),
	})

	p := period.Period{Year: 2025, Month: time.June}
	bp, err := processes.CreateMonthlyIfNotExists(context.Background(), p)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	launcher := NewLauncher(LauncherParams{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fc,
		GenID: node,
		Billing: config.StaticBillingConfig(config.BillingConfig{
			PageSize:    2,
			ChunkSize:   2,
			MaxAttempts: 1,
			JobTimeout:  time.Minute,
		}),
		Executions: ProvideExecutionRepository(),
		Customers:  &fakeCustomerRepo{customers: seedCustomers(t, node, 2)},
		Calculator: &cancellingCalculator{cancel: cancel},
		Processes:  processes,
	})

	exec, err := launcher.Launch(ctx, JobParams{
		Period:           p,
		BillingProcessID: bp.ID,
		Timestamp:        fc.Now(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ExecutionFailed, exec.State)

	// The aggregate lands in FAILED even though the run's context died.
	got, err := processes.FindByID(context.Background(), bp.ID)
	assert.NoError(t, err)
	assert.Equal(t, bpdomain.StateFailed, got.State)

	var stored JobExecution
	assert.NoError(t, db.First(&stored, "id = ?", exec.ID).Error)
	assert.Equal(t, ExecutionFailed, stored.State)
}

func TestLaunchFailsWhenAggregateMissing(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	processes := &fakeProcesses{findErr: assert.AnError}
	launcher, _, fc := newTestLauncher(t, &fakeCustomerRepo{}, processes, &fakeCalculator{})

	params := JobParams{
		Period:           period.Period{Year: 2025, Month: time.June},
		BillingProcessID: node.Generate(),
		Timestamp:        fc.Now(),
	}

	_, err := launcher.Launch(context.Background(), params)
	assert.ErrorIs(t, err, assert.AnError)
}
