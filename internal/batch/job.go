package batch

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/period"
)

const JobNameMonthlyBilling = "monthly_billing"

// JobParams identify one launch of the monthly billing job. Period and
// BillingProcessID bind the run to its aggregate; Timestamp
// distinguishes re-runs of the same month.
type JobParams struct {
	Period           period.Period
	BillingProcessID snowflake.ID
	Timestamp        time.Time
}
