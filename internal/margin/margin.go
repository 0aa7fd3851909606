// Package margin implements the budget-tiered commission policy used to derive
// a payout from a client budget.
package margin

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeBudget is returned when a budget below zero is supplied.
var ErrNegativeBudget = errors.New("budget must be non-negative")

// Tier is one band of the margin table. A budget falls into the tier with the
// highest Floor it meets or exceeds.
type Tier struct {
	Floor      int64   `json:"floor"`
	Rate       float64 `json:"rate"`
	Documented bool    `json:"documented"`
}

// Percentage returns the tier rate as a whole percentage.
func (t Tier) Percentage() int {
	return int(math.Round(t.Rate * 100))
}

// tiers is kept sorted by Floor ascending.
var tiers = []Tier{
	{Floor: 0, Rate: 1.00, Documented: true},
	{Floor: 1_500, Rate: 0.50, Documented: true},
	{Floor: 30_000, Rate: 0.25, Documented: true},
	{Floor: 100_000, Rate: 0.20, Documented: true},
	// The published structure skips from 250k straight to "above 500k".
	// Budgets in that gap keep the 20% rate until the service says otherwise.
	{Floor: 250_000, Rate: 0.20, Documented: false},
	{Floor: 500_000, Rate: 0.10, Documented: true},
}

// Tiers returns a copy of the margin table in ascending order.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Result is the policy outcome for a single budget.
type Result struct {
	Budget           int64   `json:"budget"`
	Rate             float64 `json:"rate"`
	MarginPercentage int     `json:"margin_percentage"`
	MarginAmount     float64 `json:"margin_amount"`
	Payout           float64 `json:"payout"`
	Tier             Tier    `json:"tier"`
}

// TierFor returns the tier a budget belongs to.
func TierFor(budget int64) (Tier, error) {
	if budget < 0 {
		return Tier{}, fmt.Errorf("%w: %d", ErrNegativeBudget, budget)
	}
	selected := tiers[0]
	for _, t := range tiers {
		if budget >= t.Floor {
			selected = t
		}
	}
	return selected, nil
}

// Compute applies the margin table to budget.
func Compute(budget int64) (Result, error) {
	tier, err := TierFor(budget)
	if err != nil {
		return Result{}, err
	}
	amount := float64(budget) * tier.Rate
	return Result{
		Budget:           budget,
		Rate:             tier.Rate,
		MarginPercentage: tier.Percentage(),
		MarginAmount:     amount,
		Payout:           float64(budget) - amount,
		Tier:             tier,
	}, nil
}

// ClassifyProjectType returns the A/B/C label for a budget. The remote service
// owns classification; this is only used to flag disagreements.
func ClassifyProjectType(budget int64) string {
	switch {
	case budget > 100_000:
		return "A"
	case budget > 25_000:
		return "B"
	default:
		return "C"
	}
}
