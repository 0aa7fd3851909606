package chat

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Command is a slash command understood by the chat loop.
type Command struct {
	Name  string
	Args  string
	Usage string
}

var commands = []Command{
	{Name: "/help", Usage: "Show this help message"},
	{Name: "/new", Usage: "Start a new session (clears messages and metrics)"},
	{Name: "/history", Usage: "Show conversation history"},
	{Name: "/metrics", Usage: "Show project type, budget, payout and margin"},
	{Name: "/margins", Usage: "Show the margin structure"},
	{Name: "/file", Args: "<path>", Usage: "Analyze a brief or budget file (txt, csv, pdf, docx, xlsx)"},
	{Name: "/example", Args: "<car|sports|margin>", Usage: "Send a sample brief"},
	{Name: "/session", Usage: "Show the current session"},
	{Name: "/exit", Usage: "Exit the chat session"},
}

var aliases = map[string]string{
	"/quit":  "/exit",
	"/clear": "/new",
	"/reset": "/new",
}

// parseCommand splits "/file brief.txt" into its name and argument and
// resolves aliases.
func parseCommand(input string) (name, arg string) {
	input = strings.TrimSpace(input)
	name, arg, _ = strings.Cut(input, " ")
	name = strings.ToLower(name)
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	return name, strings.TrimSpace(arg)
}

func commandNames() []string {
	names := make([]string, 0, len(commands)+len(aliases))
	for _, c := range commands {
		names = append(names, c.Name)
	}
	for alias := range aliases {
		names = append(names, alias)
	}
	return names
}

// suggestCommands returns the known commands closest to an unknown one,
// best first.
func suggestCommands(name string) []string {
	names := commandNames()

	ranks := fuzzy.RankFindNormalizedFold(name, names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		out := make([]string, 0, len(ranks))
		for _, r := range ranks {
			out = append(out, r.Target)
		}
		return dedupe(out)
	}

	// Fall back to edit distance for typos such as "/hlep".
	best, bestDistance := "", 3
	for _, n := range names {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), n); d < bestDistance {
			best, bestDistance = n, d
		}
	}
	if best == "" {
		return nil
	}
	return []string{best}
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if canonical, ok := aliases[n]; ok {
			n = canonical
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
