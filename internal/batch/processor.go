package batch

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/billingprocess/calculator"
	bpdomain "github.com/opsbill/tarifa/internal/billingprocess/domain"
	customerdomain "github.com/opsbill/tarifa/internal/customer/domain"
	"github.com/opsbill/tarifa/internal/period"
	srdomain "github.com/opsbill/tarifa/internal/servicerequest/domain"
)

// ItemProcessor turns one customer into a pending customer bill by
// simulating the period with the bill calculator.
type ItemProcessor struct {
	calc   calculator.Calculator
	genID  *snowflake.Node
	period period.Period
}

func NewItemProcessor(calc calculator.Calculator, genID *snowflake.Node, p period.Period) *ItemProcessor {
	return &ItemProcessor{
		calc:   calc,
		genID:  genID,
		period: p,
	}
}

func (p *ItemProcessor) Process(ctx context.Context, customer *customerdomain.Customer) (bpdomain.BillingProcessCustomer, error) {
	simulation, err := p.calc.Simulate(ctx, customer.ID, p.period, srdomain.BillableStates)
	if err != nil {
		return bpdomain.BillingProcessCustomer{}, err
	}

	item := bpdomain.BillingProcessCustomer{
		ID:          p.genID.Generate(),
		CustomerID:  customer.ID,
		State:       bpdomain.CustomerStatePendingApproval,
		TotalAmount: simulation.TotalAmount,
		Simulations: []bpdomain.BillingProcessSimulation{simulation},
	}
	item.Simulations[0].BillingProcessCustomerID = item.ID
	return item, nil
}
