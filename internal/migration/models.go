package migration

import (
	agreementdomain "github.com/opsbill/tarifa/internal/agreement/domain"
	"github.com/opsbill/tarifa/internal/batch"
	bpdomain "github.com/opsbill/tarifa/internal/billingprocess/domain"
	customerdomain "github.com/opsbill/tarifa/internal/customer/domain"
	projectdomain "github.com/opsbill/tarifa/internal/project/domain"
	srdomain "github.com/opsbill/tarifa/internal/servicerequest/domain"
	srtdomain "github.com/opsbill/tarifa/internal/servicerequesttype/domain"
)

// Models lists every persisted type, in dependency order.
func Models() []any {
	return []any{
		&customerdomain.Customer{},
		&projectdomain.Project{},
		&agreementdomain.Agreement{},
		&srtdomain.ServiceRequestType{},
		&srdomain.ServiceRequest{},
		&bpdomain.BillingProcess{},
		&bpdomain.BillingProcessCustomer{},
		&bpdomain.BillingProcessSimulation{},
		&bpdomain.BillingProcessAgreement{},
		&bpdomain.BillingProcessServiceRequestType{},
		&bpdomain.BillingProcessServiceRequestRef{},
		&batch.JobExecution{},
	}
}
