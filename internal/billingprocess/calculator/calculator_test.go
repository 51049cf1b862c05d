package calculator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/period"
	srdomain "github.com/opsbill/tarifa/internal/servicerequest/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubServiceRequests struct {
	srdomain.Service

	rows []srdomain.BillableRow
	err  error
}

func (s *stubServiceRequests) FindBillable(ctx context.Context, customerID snowflake.ID, p period.Period, serviceStates []srdomain.State) ([]srdomain.BillableRow, error) {
	return s.rows, s.err
}

func newTestCalculator(t *testing.T, rows []srdomain.BillableRow, err error) *calculator {
	t.Helper()
	node, nerr := snowflake.NewNode(1)
	if nerr != nil {
		t.Fatalf("snowflake node: %v", nerr)
	}
	return &calculator{
		log:             zap.NewNop(),
		clock:           clock.NewFakeClock(time.Date(2025, time.July, 1, 2, 0, 0, 0, time.UTC)),
		genID:           node,
		serviceRequests: &stubServiceRequests{rows: rows, err: err},
	}
}

func timestamps(start time.Time, d time.Duration) (*time.Time, *time.Time) {
	end := start.Add(d)
	return &start, &end
}

func TestSimulateTwoFinishedRequests(t *testing.T) {
	node, _ := snowflake.NewNode(2)
	agreementID := node.Generate()
	typeID := node.Generate()

	base := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	reg1, fin1 := timestamps(base, 2*time.Hour)
	reg2, fin2 := timestamps(base.Add(24*time.Hour), 2*time.Hour)

	rows := []srdomain.BillableRow{
		{ID: node.Generate(), AgreementID: agreementID, TypeID: typeID, TypeName: "support", HourlyFee: 10.0, RegisteredAt: reg1, FinishedAt: fin1},
		{ID: node.Generate(), AgreementID: agreementID, TypeID: typeID, TypeName: "support", HourlyFee: 10.0, RegisteredAt: reg2, FinishedAt: fin2},
	}

	calc := newTestCalculator(t, rows, nil)
	simulation, err := calc.Simulate(context.Background(), node.Generate(), period.Period{Year: 2025, Month: time.June}, srdomain.BillableStates)
	assert.NoError(t, err)

	assert.Equal(t, 40.0, simulation.TotalAmount)
	assert.Len(t, simulation.Agreements, 1)

	line := simulation.Agreements[0]
	assert.Equal(t, agreementID, line.AgreementID)
	assert.Equal(t, 40.0, line.TotalAmount)
	assert.Len(t, line.ServiceRequestTypes, 1)

	typeLine := line.ServiceRequestTypes[0]
	assert.Equal(t, typeID, typeLine.ServiceRequestTypeID)
	assert.Equal(t, 4.0, typeLine.TotalHours)
	assert.Equal(t, 10.0, typeLine.HourlyFee)
	assert.Equal(t, 40.0, typeLine.TotalAmount)
	assert.Len(t, typeLine.ServiceRequests, 2)
}

func TestSimulateNoBillableWork(t *testing.T) {
	calc := newTestCalculator(t, nil, nil)

	simulation, err := calc.Simulate(context.Background(), 42, period.Period{Year: 2025, Month: time.June}, srdomain.BillableStates)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, simulation.TotalAmount)
	assert.Empty(t, simulation.Agreements)
	assert.NotZero(t, simulation.ID)
}

func TestSimulateTruncatesToWholeMinutes(t *testing.T) {
	node, _ := snowflake.NewNode(2)
	base := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	reg, fin := timestamps(base, 90*time.Minute+45*time.Second)

	rows := []srdomain.BillableRow{
		{ID: node.Generate(), AgreementID: node.Generate(), TypeID: node.Generate(), HourlyFee: 60.0, RegisteredAt: reg, FinishedAt: fin},
	}

	calc := newTestCalculator(t, rows, nil)
	simulation, err := calc.Simulate(context.Background(), node.Generate(), period.Period{Year: 2025, Month: time.June}, srdomain.BillableStates)
	assert.NoError(t, err)

	// 90 whole minutes, the 45 seconds are dropped.
	assert.Equal(t, 90.0, simulation.TotalAmount)
}

func TestSimulateRowWithoutTimestampsContributesZero(t *testing.T) {
	node, _ := snowflake.NewNode(2)
	agreementID := node.Generate()
	typeID := node.Generate()

	rows := []srdomain.BillableRow{
		{ID: node.Generate(), AgreementID: agreementID, TypeID: typeID, HourlyFee: 50.0},
	}

	calc := newTestCalculator(t, rows, nil)
	simulation, err := calc.Simulate(context.Background(), node.Generate(), period.Period{Year: 2025, Month: time.June}, srdomain.BillableStates)
	assert.NoError(t, err)

	assert.Equal(t, 0.0, simulation.TotalAmount)
	assert.Len(t, simulation.Agreements, 1)
	assert.Len(t, simulation.Agreements[0].ServiceRequestTypes[0].ServiceRequests, 1)
}

func TestSimulateGroupsByAgreementAndType(t *testing.T) {
	node, _ := snowflake.NewNode(2)
	agreementA := node.Generate()
	agreementB := node.Generate()
	typeA := node.Generate()
	typeB := node.Generate()

	base := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)
	reg1, fin1 := timestamps(base, time.Hour)
	reg2, fin2 := timestamps(base, 2*time.Hour)
	reg3, fin3 := timestamps(base, 3*time.Hour)

	rows := []srdomain.BillableRow{
		{ID: node.Generate(), AgreementID: agreementA, TypeID: typeA, HourlyFee: 10.0, RegisteredAt: reg1, FinishedAt: fin1},
		{ID: node.Generate(), AgreementID: agreementA, TypeID: typeB, HourlyFee: 20.0, RegisteredAt: reg2, FinishedAt: fin2},
		{ID: node.Generate(), AgreementID: agreementB, TypeID: typeA, HourlyFee: 10.0, RegisteredAt: reg3, FinishedAt: fin3},
	}

	calc := newTestCalculator(t, rows, nil)
	simulation, err := calc.Simulate(context.Background(), node.Generate(), period.Period{Year: 2025, Month: time.June}, srdomain.BillableStates)
	assert.NoError(t, err)

	// 1h*10 + 2h*20 + 3h*10 = 80
	assert.Equal(t, 80.0, simulation.TotalAmount)
	assert.Len(t, simulation.Agreements, 2)

	var lineTotals []float64
	for _, line := range simulation.Agreements {
		lineTotals = append(lineTotals, line.TotalAmount)
	}
	assert.ElementsMatch(t, []float64{50.0, 30.0}, lineTotals)
}

func TestSimulatePropagatesQueryError(t *testing.T) {
	boom := errors.New("boom")
	calc := newTestCalculator(t, nil, boom)

	_, err := calc.Simulate(context.Background(), 42, period.Period{Year: 2025, Month: time.June}, srdomain.BillableStates)
	assert.ErrorIs(t, err, boom)
}
