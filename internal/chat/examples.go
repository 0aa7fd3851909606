package chat

import (
	"sort"
	"strings"
)

// Example is a canned brief for trying the assistant.
type Example struct {
	Name  string
	Title string
	Brief string
}

var examples = map[string]Example{
	"car": {
		Name:  "car",
		Title: "🚗 Car Commercial Brief",
		Brief: `Client: Mercedes-Benz
Project: New EV Campaign
Budget: $75,000

We need an upbeat, modern track that captures innovation and sustainability.
Think Billie Eilish meets Tame Impala - fresh and forward-thinking.

Deliverables:
- 30 second version
- 60 second version
- Social cutdowns (15s)

Timeline: Need options by Friday
Territory: Global excluding Japan
Term: 1 year`,
	},
	"sports": {
		Name:  "sports",
		Title: "🏃 Sports Brand Brief",
		Brief: `Client: Nike
Campaign: Just Do It 2024
Budget: $50,000

Looking for high-energy, motivational music for new running shoe launch.
Reference: Imagine Dragons, Kendrick Lamar
Avoid: Nothing too aggressive or dark

Media: TV, Online, Social
Territory: North America
Term: 6 months`,
	},
	"margin": {
		Name:  "margin",
		Title: "💰 Margin Calculator",
		Brief: "Show me the margin structure and calculate payouts for budgets of $10k, $50k, $100k, and $200k",
	},
}

// LookupExample returns the example called name.
func LookupExample(name string) (Example, bool) {
	ex, ok := examples[strings.ToLower(strings.TrimSpace(name))]
	return ex, ok
}

// ExampleNames returns the example names in sorted order.
func ExampleNames() []string {
	names := make([]string, 0, len(examples))
	for name := range examples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
