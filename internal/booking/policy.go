package booking

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/pricing"
)

// DefaultDepositAmountCents is the flat deposit charged when the policy
// predicate below requires one. A flat figure keeps webhook reconciliation
// simple until a tiered schedule is needed.
const DefaultDepositAmountCents int64 = 5000

// DecideDepositPolicy is the deposit predicate: a weekend slot or a
// deep-clean service type requires a deposit. Evaluated once at booking
// creation time; the result is stored on the booking so a later policy
// change never retroactively alters a booking already in flight.
func DecideDepositPolicy(lead *models.Lead, startsAt time.Time) DepositPolicy {
	weekend := startsAt.Weekday() == time.Saturday || startsAt.Weekday() == time.Sunday

	deepClean := false
	if lead != nil && len(lead.StructuredInputs) > 0 {
		var inputs pricing.Inputs
		if json.Unmarshal(lead.StructuredInputs, &inputs) == nil {
			deepClean = strings.EqualFold(inputs.ServiceType, "deep")
		}
	}

	if weekend || deepClean {
		return DepositPolicy{Required: true, AmountCents: DefaultDepositAmountCents}
	}
	return DepositPolicy{}
}
