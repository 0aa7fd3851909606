package analysis

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfmusic/workflow-assistant/internal/storage"
	"github.com/tfmusic/workflow-assistant/internal/workflow"
)

func setup(t *testing.T) (*Interpreter, *storage.MemoryStore, *storage.Session) {
	t.Helper()
	store := storage.NewMemoryStore(0)
	return NewInterpreter(store, log.New(io.Discard)), store, store.CreateSession()
}

func success(briefAnalysis, projectStrategy string) *workflow.Success {
	s := &workflow.Success{}
	if briefAnalysis != "" {
		s.BriefAnalysis = json.RawMessage(briefAnalysis)
	}
	if projectStrategy != "" {
		s.ProjectStrategy = json.RawMessage(projectStrategy)
	}
	return s
}

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func existingStrategy() *storage.ProjectStrategy {
	return &storage.ProjectStrategy{ProjectType: "C", Budget: int64Ptr(10_000), Payout: int64Ptr(5_000), MarginPercentage: float64Ptr(50)}
}

func TestInterpret_CreativeBriefOnly(t *testing.T) {
	in, store, s := setup(t)
	require.NoError(t, store.SetStrategy(s, existingStrategy()))

	out, err := in.Interpret(s, success(`{"creative_brief":"x"}`, ""))
	require.NoError(t, err)

	require.Len(t, out.Sections, 1)
	assert.Equal(t, SectionBrief, out.Sections[0].Kind)
	assert.Equal(t, "Creative Direction", out.Sections[0].Title)
	assert.Equal(t, "x", out.Sections[0].Text)
	assert.Nil(t, out.Strategy)
	assert.False(t, out.Fallback)
	assert.Equal(t, existingStrategy(), s.Strategy())
}

func TestInterpret_ProjectStrategy(t *testing.T) {
	in, _, s := setup(t)

	out, err := in.Interpret(s, success("", `{"project_type":"A","budget":75000,"payout":56250,"margin_percentage":25}`))
	require.NoError(t, err)

	want := &storage.ProjectStrategy{
		ProjectType:      "A",
		Budget:           int64Ptr(75_000),
		Payout:           int64Ptr(56_250),
		MarginPercentage: float64Ptr(25),
	}
	assert.Equal(t, want, s.Strategy())
	assert.Equal(t, want, out.Strategy)
	assert.Nil(t, out.Mismatch)

	require.Len(t, out.Sections, 1)
	section := out.Sections[0]
	assert.Equal(t, SectionStrategy, section.Kind)
	assert.Equal(t, []Field{
		{Label: "Project Type", Value: "A"},
		{Label: "Budget", Value: "$75,000"},
		{Label: "Payout", Value: "$56,250"},
		{Label: "Margin", Value: "25%"},
	}, section.Fields)
	assert.Empty(t, section.Note)

	md := out.Markdown()
	for _, s := range []string{"### 💡 Project Strategy", "**Project Type**: A", "$75,000", "$56,250", "25%"} {
		assert.Contains(t, md, s)
	}
}

func TestInterpret_BriefMapping(t *testing.T) {
	in, _, s := setup(t)

	out, err := in.Interpret(s, success(`{
		"deliverables": ["30s edit", "", "60s edit"],
		"client_info": {"client_name": "Mercedes-Benz", "contact_email": "", "budget_range": "75k", "is_exclusive": true},
		"business_brief": {},
		"technical_brief": null
	}`, ""))
	require.NoError(t, err)

	require.Len(t, out.Sections, 2)
	info := out.Sections[0]
	assert.Equal(t, "Client Information", info.Title)
	assert.Equal(t, []Field{
		{Label: "Client Name", Value: "Mercedes-Benz"},
		{Label: "Budget Range", Value: "75k"},
		{Label: "Is Exclusive", Value: "yes"},
	}, info.Fields)

	deliverables := out.Sections[1]
	assert.Equal(t, "Deliverables", deliverables.Title)
	assert.Equal(t, []string{"30s edit", "60s edit"}, deliverables.Items)

	md := out.Markdown()
	assert.Equal(t, "### 📋 Brief Analysis\n\n**Client Information**\n- Client Name: Mercedes-Benz\n- Budget Range: 75k\n- Is Exclusive: yes\n\n**Deliverables**\n- 30s edit\n- 60s edit", md)
}

func TestInterpret_Fallback(t *testing.T) {
	tests := []struct {
		name     string
		analysis string
		strategy string
	}{
		{"nothing", "", ""},
		{"empty objects", `{}`, `{}`},
		{"only empty sub-records", `{"client_info":{"name":""},"creative_brief":"  "}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, store, s := setup(t)
			require.NoError(t, store.SetStrategy(s, existingStrategy()))

			out, err := in.Interpret(s, success(tt.analysis, tt.strategy))
			require.NoError(t, err)

			assert.True(t, out.Fallback)
			require.Len(t, out.Sections, 1)
			assert.Equal(t, FallbackText, out.Sections[0].Text)
			assert.Equal(t, FallbackText, out.Markdown())
			assert.Equal(t, existingStrategy(), s.Strategy())
		})
	}
}

func TestInterpret_StructuralErrors(t *testing.T) {
	tests := []struct {
		name     string
		analysis string
		strategy string
		field    string
	}{
		{"analysis not an object", `"free text"`, "", "brief_analysis"},
		{"strategy not an object", "", `["A"]`, "project_strategy"},
		{"budget as string", "", `{"budget":"75000"}`, "project_strategy.budget"},
		{"fractional payout", "", `{"budget":1000,"payout":10.5}`, "project_strategy.payout"},
		{"negative budget", "", `{"budget":-5}`, "project_strategy.budget"},
		{"unknown project type", "", `{"project_type":"D"}`, "project_strategy.project_type"},
		{"margin out of range", "", `{"margin_percentage":150}`, "project_strategy.margin_percentage"},
		{"considerations not strings", "", `{"key_considerations":["ok",3]}`, "project_strategy.key_considerations[1]"},
		{"valid analysis, bad strategy", `{"creative_brief":"x"}`, `{"approach":42}`, "project_strategy.approach"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, store, s := setup(t)
			require.NoError(t, store.SetStrategy(s, existingStrategy()))

			out, err := in.Interpret(s, success(tt.analysis, tt.strategy))
			require.Error(t, err)
			assert.Nil(t, out)

			var se *StructuralError
			require.True(t, errors.As(err, &se), "got %T", err)
			assert.Equal(t, tt.field, se.Field)
			assert.Equal(t, existingStrategy(), s.Strategy(), "strategy must be untouched")
		})
	}
}

func TestInterpret_ReplacesWholesale(t *testing.T) {
	in, store, s := setup(t)
	require.NoError(t, store.SetStrategy(s, &storage.ProjectStrategy{
		ProjectType: "B", Budget: int64Ptr(50_000), Payout: int64Ptr(37_500), Approach: "old",
	}))

	out, err := in.Interpret(s, success("", `{"project_type":"a","budget":150000.0}`))
	require.NoError(t, err)

	got := s.Strategy()
	assert.Equal(t, "A", got.ProjectType)
	assert.Equal(t, int64(150_000), *got.Budget)
	assert.Nil(t, got.Payout)
	assert.Nil(t, got.MarginPercentage)
	assert.Empty(t, got.Approach)

	fields := out.Sections[0].Fields
	assert.Equal(t, storage.TBD, fields[2].Value)
	assert.Equal(t, storage.TBD, fields[3].Value)
}

func TestInterpret_KeyConsiderationsKeepOrder(t *testing.T) {
	in, _, s := setup(t)

	out, err := in.Interpret(s, success("", `{
		"project_type": "B",
		"approach": "Custom composition",
		"key_considerations": ["Territory", "Term", "Territory"]
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Territory", "Term", "Territory"}, s.Strategy().KeyConsiderations)
	section := out.Sections[0]
	assert.Equal(t, "Custom composition", section.Text)

	md := out.Markdown()
	assert.Contains(t, md, "**Recommended Approach**: Custom composition")
	assert.Contains(t, md, "**Key Considerations**:\n- Territory\n- Term\n- Territory")
}

func TestInterpret_MarginMismatch(t *testing.T) {
	in, _, s := setup(t)

	out, err := in.Interpret(s, success("", `{"project_type":"B","budget":75000,"payout":60000,"margin_percentage":20}`))
	require.NoError(t, err)

	require.NotNil(t, out.Mismatch)
	assert.True(t, out.Mismatch.PercentageDiffers)
	assert.True(t, out.Mismatch.PayoutDiffers)
	assert.Equal(t, 25, out.Mismatch.Expected.MarginPercentage)

	// The reply is still authoritative.
	assert.Equal(t, int64(60_000), *s.Strategy().Payout)
	assert.Contains(t, out.Sections[0].Note, "$56,250")
	assert.Contains(t, out.Markdown(), "⚠️")
}

func TestInterpret_ZeroPayoutIsReported(t *testing.T) {
	in, _, s := setup(t)

	out, err := in.Interpret(s, success("", `{"project_type":"C","budget":1000,"payout":0,"margin_percentage":100}`))
	require.NoError(t, err)

	assert.Nil(t, out.Mismatch)
	fields := out.Sections[0].Fields
	assert.Equal(t, Field{Label: "Budget", Value: "$1,000"}, fields[1])
	assert.Equal(t, Field{Label: "Payout", Value: "$0"}, fields[2])
	assert.Equal(t, Field{Label: "Margin", Value: "100%"}, fields[3])
	assert.Contains(t, out.Markdown(), "- **Payout**: $0")

	require.NotNil(t, s.Strategy().Payout)
	assert.Equal(t, storage.Metrics{ProjectType: "C", Budget: "$1,000", Payout: "$0", Margin: "100%"}, s.Metrics())
}

func TestInterpret_ZeroFiguresContradictingPolicy(t *testing.T) {
	in, _, s := setup(t)

	out, err := in.Interpret(s, success("", `{"project_type":"B","budget":50000,"payout":0,"margin_percentage":0}`))
	require.NoError(t, err)

	require.NotNil(t, out.Mismatch)
	assert.True(t, out.Mismatch.PercentageDiffers)
	assert.True(t, out.Mismatch.PayoutDiffers)
	assert.Contains(t, out.Sections[0].Note, "25%")
	assert.Contains(t, out.Sections[0].Note, "$37,500")
	assert.Equal(t, "0%", s.Metrics().Margin)
}

func TestInterpret_ClosedSession(t *testing.T) {
	in, store, s := setup(t)
	store.Reset(s)

	_, err := in.Interpret(s, success("", `{"project_type":"C"}`))
	assert.ErrorIs(t, err, storage.ErrSessionClosed)
}
