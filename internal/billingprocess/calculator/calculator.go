package calculator

import (
	"context"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/billingprocess/domain"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/period"
	srdomain "github.com/opsbill/tarifa/internal/servicerequest/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Calculator computes one customer's bill for a period.
type Calculator interface {
	Simulate(ctx context.Context, customerID snowflake.ID, p period.Period, serviceStates []srdomain.State) (domain.BillingProcessSimulation, error)
}

type Params struct {
	fx.In

	Log             *zap.Logger
	Clock           clock.Clock
	GenID           *snowflake.Node
	ServiceRequests srdomain.Service
}

type calculator struct {
	log             *zap.Logger
	clock           clock.Clock
	genID           *snowflake.Node
	serviceRequests srdomain.Service
}

func New(p Params) Calculator {
	return &calculator{
		log:             p.Log.Named("billingprocess.calculator"),
		clock:           p.Clock,
		genID:           p.GenID,
		serviceRequests: p.ServiceRequests,
	}
}

// Simulate groups the customer's billable rows by agreement, then by
// service request type, and rolls the totals up. A customer without
// billable work yields an empty zero-total simulation.
func (c *calculator) Simulate(ctx context.Context, customerID snowflake.ID, p period.Period, serviceStates []srdomain.State) (domain.BillingProcessSimulation, error) {
	rows, err := c.serviceRequests.FindBillable(ctx, customerID, p, serviceStates)
	if err != nil {
		return domain.BillingProcessSimulation{}, err
	}

	simulation := domain.BillingProcessSimulation{
		ID:          c.genID.Generate(),
		SimulatedAt: c.clock.Now(),
		Agreements:  []domain.BillingProcessAgreement{},
	}

	byAgreement := map[snowflake.ID][]srdomain.BillableRow{}
	for _, row := range rows {
		byAgreement[row.AgreementID] = append(byAgreement[row.AgreementID], row)
	}

	for _, agreementID := range sortedKeys(byAgreement) {
		line := c.agreementLine(simulation.ID, agreementID, byAgreement[agreementID])
		simulation.TotalAmount += line.TotalAmount
		simulation.Agreements = append(simulation.Agreements, line)
	}

	c.log.Debug("customer bill simulated",
		zap.String("customer_id", customerID.String()),
		zap.String("period", p.String()),
		zap.Int("billable_rows", len(rows)),
		zap.Float64("total_amount", simulation.TotalAmount),
	)
	return simulation, nil
}

func (c *calculator) agreementLine(simulationID, agreementID snowflake.ID, rows []srdomain.BillableRow) domain.BillingProcessAgreement {
	line := domain.BillingProcessAgreement{
		ID:           c.genID.Generate(),
		SimulationID: simulationID,
		AgreementID:  agreementID,
	}

	byType := map[snowflake.ID][]srdomain.BillableRow{}
	for _, row := range rows {
		byType[row.TypeID] = append(byType[row.TypeID], row)
	}

	for _, typeID := range sortedKeys(byType) {
		typeLine := c.typeLine(line.ID, typeID, byType[typeID])
		line.TotalAmount += typeLine.TotalAmount
		line.ServiceRequestTypes = append(line.ServiceRequestTypes, typeLine)
	}
	return line
}

func (c *calculator) typeLine(agreementLineID, typeID snowflake.ID, rows []srdomain.BillableRow) domain.BillingProcessServiceRequestType {
	typeLine := domain.BillingProcessServiceRequestType{
		ID:                   c.genID.Generate(),
		AgreementLineID:      agreementLineID,
		ServiceRequestTypeID: typeID,
	}

	for _, row := range rows {
		typeLine.HourlyFee = row.HourlyFee
		typeLine.TotalHours += row.Hours()
		typeLine.ServiceRequests = append(typeLine.ServiceRequests, domain.BillingProcessServiceRequestRef{
			TypeLineID:       typeLine.ID,
			ServiceRequestID: row.ID,
		})
	}

	typeLine.TotalAmount = typeLine.HourlyFee * typeLine.TotalHours
	return typeLine
}

func sortedKeys(m map[snowflake.ID][]srdomain.BillableRow) []snowflake.ID {
	keys := make([]snowflake.ID, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
