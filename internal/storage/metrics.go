package storage

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TBD is shown for any metric the service has not supplied.
const TBD = "TBD"

// Metrics is the four-figure header shown above a conversation.
type Metrics struct {
	ProjectType string `json:"project_type"`
	Budget      string `json:"budget"`
	Payout      string `json:"payout"`
	Margin      string `json:"margin"`
}

var printer = message.NewPrinter(language.English)

// FormatCurrency renders an amount with thousands separators, e.g. $75,000.
func FormatCurrency(amount int64) string {
	return printer.Sprintf("$%d", amount)
}

// FormatPercentage renders a margin without trailing zeros, e.g. 25%.
func FormatPercentage(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}

// MetricsFor projects a strategy into display strings. Figures the service did
// not supply read as TBD; a supplied zero is shown as $0 or 0%.
func MetricsFor(p *ProjectStrategy) Metrics {
	m := Metrics{ProjectType: TBD, Budget: TBD, Payout: TBD, Margin: TBD}
	if p == nil {
		return m
	}
	if p.ProjectType != "" {
		m.ProjectType = p.ProjectType
	}
	if p.Budget != nil {
		m.Budget = FormatCurrency(*p.Budget)
	}
	if p.Payout != nil {
		m.Payout = FormatCurrency(*p.Payout)
	}
	if p.MarginPercentage != nil {
		m.Margin = FormatPercentage(*p.MarginPercentage)
	}
	return m
}
