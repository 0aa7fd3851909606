// Package analysis turns a successful workflow reply into renderable
// sections and a validated project strategy.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tfmusic/workflow-assistant/internal/margin"
	"github.com/tfmusic/workflow-assistant/internal/storage"
	"github.com/tfmusic/workflow-assistant/internal/workflow"
)

var briefSections = []struct {
	key   string
	title string
}{
	{"client_info", "Client Information"},
	{"business_brief", "Business Requirements"},
	{"creative_brief", "Creative Direction"},
	{"technical_brief", "Technical Specifications"},
	{"deliverables", "Deliverables"},
}

// Interpretation is the projection of one reply.
type Interpretation struct {
	Sections []Section
	// Strategy is the strategy written to the session, or nil when the reply
	// carried none.
	Strategy *storage.ProjectStrategy
	// Mismatch is set when reported figures disagree with margin policy.
	Mismatch *margin.Mismatch
	Fallback bool
}

// Markdown renders the sections as transcript text.
func (i *Interpretation) Markdown() string {
	return Markdown(i.Sections)
}

// Interpreter validates replies and records strategies in the store.
type Interpreter struct {
	store    storage.Store
	validate *validator.Validate
	logger   *log.Logger
}

// NewInterpreter creates an Interpreter writing to store.
func NewInterpreter(store storage.Store, logger *log.Logger) *Interpreter {
	if logger == nil {
		logger = log.Default()
	}
	return &Interpreter{
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// Interpret validates reply in full and only then writes the strategy, if
// any, to session s. A *StructuralError leaves s untouched.
func (in *Interpreter) Interpret(s *storage.Session, reply *workflow.Success) (*Interpretation, error) {
	if reply == nil {
		return nil, structural("reply", "missing", nil)
	}

	out := &Interpretation{}

	if len(reply.BriefAnalysis) > 0 {
		sections, err := briefAnalysisSections(reply.BriefAnalysis)
		if err != nil {
			return nil, err
		}
		out.Sections = append(out.Sections, sections...)
	}

	var strategy *storage.ProjectStrategy
	if len(reply.ProjectStrategy) > 0 {
		fields, ok, err := objectFields(reply.ProjectStrategy)
		if err != nil {
			return nil, structural("project_strategy", "invalid JSON", err)
		}
		if !ok {
			return nil, structural("project_strategy", "expected an object", nil)
		}
		if len(fields) > 0 {
			rec, err := decodeStrategy(in.validate, fields)
			if err != nil {
				return nil, err
			}
			strategy = rec.toStrategy()
			out.Mismatch = in.checkPolicy(s, strategy)
			out.Sections = append(out.Sections, strategySection(strategy, out.Mismatch))
		}
	}

	if len(out.Sections) == 0 {
		out.Fallback = true
		out.Sections = []Section{{Kind: SectionFallback, Title: "Result", Text: FallbackText}}
		return out, nil
	}

	if strategy != nil {
		if err := in.store.SetStrategy(s, strategy); err != nil {
			return nil, fmt.Errorf("record strategy: %w", err)
		}
		out.Strategy = strategy.Clone()
	}
	return out, nil
}

func (in *Interpreter) checkPolicy(s *storage.Session, p *storage.ProjectStrategy) *margin.Mismatch {
	if p.Budget == nil {
		return nil
	}
	if p.ProjectType != "" {
		if want := margin.ClassifyProjectType(*p.Budget); want != p.ProjectType {
			in.logger.Warn("Project type disagrees with budget", "session", s.ID(), "reported", p.ProjectType, "expected", want, "budget", *p.Budget)
		}
	}

	m := margin.Check(*p.Budget, p.MarginPercentage, p.Payout)
	if m != nil {
		in.logger.Warn("Margin mismatch", "session", s.ID(), "budget", m.Budget,
			"reported_margin", m.ReportedPercentage, "policy_margin", m.Expected.MarginPercentage,
			"reported_payout", m.ReportedPayout, "policy_payout", m.Expected.Payout)
	}
	return m
}

func briefAnalysisSections(raw json.RawMessage) ([]Section, error) {
	fields, ok, err := objectFields(raw)
	if err != nil {
		return nil, structural("brief_analysis", "invalid JSON", err)
	}
	if !ok {
		return nil, structural("brief_analysis", "expected an object", nil)
	}

	byKey := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		byKey[f.key] = f.value
	}

	caser := cases.Title(language.English)
	var sections []Section
	for _, def := range briefSections {
		value, found := byKey[def.key]
		if !found {
			continue
		}
		section, err := briefSection(caser, def.key, def.title, value)
		if err != nil {
			return nil, err
		}
		if section != nil {
			sections = append(sections, *section)
		}
	}
	return sections, nil
}

// briefSection renders one sub-record, or returns nil when it has nothing to
// show.
func briefSection(caser cases.Caser, key, title string, raw json.RawMessage) (*Section, error) {
	name := "brief_analysis." + key

	sub, ok, err := objectFields(raw)
	if err != nil {
		return nil, structural(name, "invalid JSON", err)
	}
	section := &Section{Kind: SectionBrief, Key: key, Title: title}

	if ok {
		for _, f := range sub {
			v, err := decodeAny(f.value)
			if err != nil {
				return nil, structural(name+"."+f.key, "invalid JSON", err)
			}
			if isEmpty(v) {
				continue
			}
			section.Fields = append(section.Fields, Field{
				Label: caser.String(strings.ReplaceAll(f.key, "_", " ")),
				Value: formatValue(v),
			})
		}
		if len(section.Fields) == 0 {
			return nil, nil
		}
		return section, nil
	}

	v, err := decodeAny(raw)
	if err != nil {
		return nil, structural(name, "invalid JSON", err)
	}
	if isEmpty(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if !isEmpty(item) {
				section.Items = append(section.Items, formatValue(item))
			}
		}
		if len(section.Items) == 0 {
			return nil, nil
		}
	default:
		section.Text = formatValue(x)
	}
	return section, nil
}

func strategySection(p *storage.ProjectStrategy, mismatch *margin.Mismatch) Section {
	m := storage.MetricsFor(p)
	section := Section{
		Kind:  SectionStrategy,
		Key:   "project_strategy",
		Title: "Project Strategy",
		Fields: []Field{
			{Label: "Project Type", Value: m.ProjectType},
			{Label: "Budget", Value: m.Budget},
			{Label: "Payout", Value: m.Payout},
			{Label: "Margin", Value: m.Margin},
		},
		Text:  p.Approach,
		Items: append([]string(nil), p.KeyConsiderations...),
	}
	if mismatch != nil {
		section.Note = mismatchNote(mismatch)
	}
	return section
}

func mismatchNote(m *margin.Mismatch) string {
	note := fmt.Sprintf("Margin policy for a %s budget is %d%%, a payout of %s",
		storage.FormatCurrency(m.Budget), m.Expected.MarginPercentage, storage.FormatCurrency(int64(m.Expected.Payout+0.5)))
	if !m.Expected.Tier.Documented {
		note += " (undocumented band)"
	}
	return note + "."
}
