package authz

import "github.com/cleanco/platform/pkg/apperrors"

// Quota is a plan's entitlement ceiling for one countable resource.
// Unlimited is represented as -1.
type Quota struct {
	MaxTeams          int
	MaxActiveBookings int
	MaxPhotoBytesOrg  int64
}

var planQuotas = map[string]Quota{
	"starter": {MaxTeams: 2, MaxActiveBookings: 200, MaxPhotoBytesOrg: 5 << 30},
	"growth":  {MaxTeams: 10, MaxActiveBookings: 2000, MaxPhotoBytesOrg: 50 << 30},
	"scale":   {MaxTeams: -1, MaxActiveBookings: -1, MaxPhotoBytesOrg: -1},
}

func QuotaForPlan(plan string) Quota {
	if q, ok := planQuotas[plan]; ok {
		return q
	}
	return planQuotas["starter"]
}

// CheckCount returns a PLAN_LIMIT error when current+1 would exceed limit.
// A limit of -1 means unlimited.
func CheckCount(limit int, current int, resource string) error {
	if limit < 0 {
		return nil
	}
	if current+1 > limit {
		return apperrors.PlanLimit("plan_limit_exceeded", resource+" limit reached for current plan")
	}
	return nil
}
