package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is an investment product from the platform catalog.
type Plan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	MinAmount    int64           `json:"min_amount"`
	MaxAmount    int64           `json:"max_amount"` // 0 means no upper bound
	DurationDays int             `json:"duration_days"`
	ROIPercent   decimal.Decimal `json:"roi_percent"`
}

var plans = []Plan{
	{ID: "starter", Name: "Starter", MinAmount: 5_000, MaxAmount: 99_999, DurationDays: 7, ROIPercent: decimal.NewFromInt(10)},
	{ID: "silver", Name: "Silver", MinAmount: 100_000, MaxAmount: 499_999, DurationDays: 14, ROIPercent: decimal.NewFromInt(25)},
	{ID: "gold", Name: "Gold", MinAmount: 500_000, MaxAmount: 1_999_999, DurationDays: 30, ROIPercent: decimal.NewFromInt(60)},
	{ID: "platinum", Name: "Platinum", MinAmount: 2_000_000, DurationDays: 60, ROIPercent: decimal.RequireFromString("150")},
}

// Plans returns a copy of the catalog ordered by entry amount.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanByID looks up a catalog plan.
func PlanByID(id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Accepts reports whether amount falls within the plan bounds. Open-ended
// plans are still capped at MaxAmount.
func (p Plan) Accepts(amount int64) bool {
	if amount < p.MinAmount || amount > MaxAmount {
		return false
	}
	return p.MaxAmount == 0 || amount <= p.MaxAmount
}

// ExpectedReturn is principal plus profit at maturity.
func (p Plan) ExpectedReturn(amount int64) int64 {
	return NewMoney(amount).ApplyPercent(p.ROIPercent).Amount
}

// Duration is the lock-in period.
func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}
