package margin

import (
	"fmt"
	"math"
	"strings"
)

// payoutTolerance absorbs rounding the service applies to fractional payouts.
const payoutTolerance = 1.0

// Mismatch describes where reported figures disagree with policy. It is
// informational: the remote service is the authority on final numbers.
type Mismatch struct {
	Budget             int64
	ReportedPercentage float64
	ReportedPayout     int64
	Expected           Result
	PercentageDiffers  bool
	PayoutDiffers      bool
}

func (m *Mismatch) Error() string {
	var parts []string
	if m.PercentageDiffers {
		parts = append(parts, fmt.Sprintf("margin %g%% (policy %d%%)", m.ReportedPercentage, m.Expected.MarginPercentage))
	}
	if m.PayoutDiffers {
		parts = append(parts, fmt.Sprintf("payout %d (policy %.0f)", m.ReportedPayout, m.Expected.Payout))
	}
	return fmt.Sprintf("margin mismatch for budget %d: %s", m.Budget, strings.Join(parts, ", "))
}

// Check compares reported figures against the policy for budget. A nil
// figure was not supplied and is skipped; a reported zero is checked like any
// other value. It returns nil when everything agrees or the budget is invalid.
func Check(budget int64, reportedPercentage *float64, reportedPayout *int64) *Mismatch {
	expected, err := Compute(budget)
	if err != nil {
		return nil
	}
	m := &Mismatch{Budget: budget, Expected: expected}
	if reportedPercentage != nil {
		m.ReportedPercentage = *reportedPercentage
		m.PercentageDiffers = math.Abs(*reportedPercentage-float64(expected.MarginPercentage)) > 1e-9
	}
	if reportedPayout != nil {
		m.ReportedPayout = *reportedPayout
		m.PayoutDiffers = math.Abs(float64(*reportedPayout)-expected.Payout) > payoutTolerance
	}
	if !m.PercentageDiffers && !m.PayoutDiffers {
		return nil
	}
	return m
}
