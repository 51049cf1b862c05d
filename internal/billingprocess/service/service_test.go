package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/billingprocess/domain"
	"github.com/opsbill/tarifa/internal/billingprocess/repository"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/period"
	dbpkg "github.com/opsbill/tarifa/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *clock.FakeClock) {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("test db: %v", err)
	}
	err = db.AutoMigrate(
		&domain.BillingProcess{},
		&domain.BillingProcessCustomer{},
		&domain.BillingProcessSimulation{},
		&domain.BillingProcessAgreement{},
		&domain.BillingProcessServiceRequestType{},
		&domain.BillingProcessServiceRequestRef{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	fc := clock.NewFakeClock(time.Date(2025, time.July, 1, 2, 0, 0, 0, time.UTC))
	return &Service{
		db:    db,
		log:   zap.NewNop(),
		clock: fc,
		genID: node,
		repo:  repository.Provide(),
	}, fc
}

func TestCreateMonthlyIfNotExistsIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := period.Period{Year: 2025, Month: time.June}

	first, err := svc.CreateMonthlyIfNotExists(ctx, p)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateRegistered, first.State)
	assert.Equal(t, p, first.Period)

	second, err := svc.CreateMonthlyIfNotExists(ctx, p)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAppendCustomersBumpsAggregateTotal(t *testing.T) {
	svc, fc := newTestService(t)
	ctx := context.Background()

	bp, err := svc.CreateMonthlyIfNotExists(ctx, period.Period{Year: 2025, Month: time.June})
	assert.NoError(t, err)

	customers := []domain.BillingProcessCustomer{
		newCustomerBill(svc, fc, 30.0),
		newCustomerBill(svc, fc, 12.5),
	}
	assert.NoError(t, svc.AppendCustomers(ctx, bp.ID, customers))
	assert.NoError(t, svc.AppendCustomers(ctx, bp.ID, []domain.BillingProcessCustomer{
		newCustomerBill(svc, fc, 7.5),
	}))

	loaded, err := svc.GetWithTree(ctx, bp.ID)
	assert.NoError(t, err)
	assert.Equal(t, 50.0, loaded.TotalAmount)
	assert.Len(t, loaded.Customers, 3)

	for _, customer := range loaded.Customers {
		assert.Equal(t, bp.ID, customer.BillingProcessID)
		assert.Equal(t, domain.CustomerStatePendingApproval, customer.State)
		assert.Len(t, customer.Simulations, 1)
	}
}

func TestAppendCustomersPersistsSimulationTree(t *testing.T) {
	svc, fc := newTestService(t)
	ctx := context.Background()

	bp, err := svc.CreateMonthlyIfNotExists(ctx, period.Period{Year: 2025, Month: time.June})
	assert.NoError(t, err)

	customerID := svc.genID.Generate()
	agreementID := svc.genID.Generate()
	typeID := svc.genID.Generate()
	requestID := svc.genID.Generate()

	billID := svc.genID.Generate()
	simulationID := svc.genID.Generate()
	lineID := svc.genID.Generate()
	typeLineID := svc.genID.Generate()

	bill := domain.BillingProcessCustomer{
		ID:          billID,
		CustomerID:  customerID,
		State:       domain.CustomerStatePendingApproval,
		TotalAmount: 40.0,
		Simulations: []domain.BillingProcessSimulation{{
			ID:                       simulationID,
			BillingProcessCustomerID: billID,
			SimulatedAt:              fc.Now(),
			TotalAmount:              40.0,
			Agreements: []domain.BillingProcessAgreement{{
				ID:           lineID,
				SimulationID: simulationID,
				AgreementID:  agreementID,
				TotalAmount:  40.0,
				ServiceRequestTypes: []domain.BillingProcessServiceRequestType{{
					ID:                   typeLineID,
					AgreementLineID:      lineID,
					ServiceRequestTypeID: typeID,
					TotalHours:           4.0,
					HourlyFee:            10.0,
					TotalAmount:          40.0,
					ServiceRequests: []domain.BillingProcessServiceRequestRef{{
						TypeLineID:       typeLineID,
						ServiceRequestID: requestID,
					}},
				}},
			}},
		}},
	}

	assert.NoError(t, svc.AppendCustomers(ctx, bp.ID, []domain.BillingProcessCustomer{bill}))

	loaded, err := svc.GetWithTree(ctx, bp.ID)
	assert.NoError(t, err)
	assert.Len(t, loaded.Customers, 1)

	simulation := loaded.Customers[0].Simulations[0]
	assert.Equal(t, 40.0, simulation.TotalAmount)
	assert.Len(t, simulation.Agreements, 1)

	line := simulation.Agreements[0]
	assert.Equal(t, agreementID, line.AgreementID)
	assert.Len(t, line.ServiceRequestTypes, 1)

	typeLine := line.ServiceRequestTypes[0]
	assert.Equal(t, 4.0, typeLine.TotalHours)
	assert.Equal(t, 10.0, typeLine.HourlyFee)
	assert.Len(t, typeLine.ServiceRequests, 1)
	assert.Equal(t, requestID, typeLine.ServiceRequests[0].ServiceRequestID)
}

func TestAppendCustomersUnknownProcess(t *testing.T) {
	svc, fc := newTestService(t)

	err := svc.AppendCustomers(context.Background(), svc.genID.Generate(), []domain.BillingProcessCustomer{
		newCustomerBill(svc, fc, 10.0),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStateTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bp, err := svc.CreateMonthlyIfNotExists(ctx, period.Period{Year: 2025, Month: time.June})
	assert.NoError(t, err)

	// Completed before started is rejected.
	err = svc.MarkCompleted(ctx, bp.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.NoError(t, svc.MarkInProgress(ctx, bp.ID))
	assert.NoError(t, svc.MarkFailed(ctx, bp.ID))

	// A failed month may be taken back in progress for a re-run.
	assert.NoError(t, svc.MarkInProgress(ctx, bp.ID))
	assert.NoError(t, svc.MarkCompleted(ctx, bp.ID))

	loaded, err := svc.FindByID(ctx, bp.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, loaded.State)

	err = svc.MarkInProgress(ctx, bp.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestFindByIDMissing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.FindByID(context.Background(), svc.genID.Generate())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetWithTree(context.Background(), svc.genID.Generate())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func newCustomerBill(svc *Service, fc *clock.FakeClock, amount float64) domain.BillingProcessCustomer {
	id := svc.genID.Generate()
	return domain.BillingProcessCustomer{
		ID:          id,
		CustomerID:  svc.genID.Generate(),
		State:       domain.CustomerStatePendingApproval,
		TotalAmount: amount,
		Simulations: []domain.BillingProcessSimulation{{
			ID:                       svc.genID.Generate(),
			BillingProcessCustomerID: id,
			SimulatedAt:              fc.Now(),
			TotalAmount:              amount,
		}},
	}
}
