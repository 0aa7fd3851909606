package analysis

import "strings"

// SectionKind tells the presentation layer what a Section describes.
type SectionKind int

const (
	SectionBrief SectionKind = iota
	SectionStrategy
	SectionFallback
)

// FallbackText is shown when a reply carried nothing renderable.
const FallbackText = "Brief processed, no structured data"

// Field is one labeled line of a Section.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section is one renderable block of an interpreted reply. Fields, Text and
// Items are each optional.
type Section struct {
	Kind   SectionKind `json:"kind"`
	Key    string      `json:"key,omitempty"`
	Title  string      `json:"title"`
	Fields []Field     `json:"fields,omitempty"`
	Text   string      `json:"text,omitempty"`
	Items  []string    `json:"items,omitempty"`
	Note   string      `json:"note,omitempty"`
}

// Markdown joins sections into the assistant transcript text.
func Markdown(sections []Section) string {
	var parts []string
	briefHeading := false

	for _, s := range sections {
		switch s.Kind {
		case SectionBrief:
			if !briefHeading {
				parts = append(parts, "### 📋 Brief Analysis")
				briefHeading = true
			}
			parts = append(parts, "\n**"+s.Title+"**")
			for _, f := range s.Fields {
				parts = append(parts, "- "+f.Label+": "+f.Value)
			}
			if s.Text != "" {
				parts = append(parts, s.Text)
			}
			for _, item := range s.Items {
				parts = append(parts, "- "+item)
			}

		case SectionStrategy:
			parts = append(parts, "\n### 💡 Project Strategy")
			for _, f := range s.Fields {
				parts = append(parts, "- **"+f.Label+"**: "+f.Value)
			}
			if s.Text != "" {
				parts = append(parts, "\n**Recommended Approach**: "+s.Text)
			}
			if len(s.Items) > 0 {
				parts = append(parts, "\n**Key Considerations**:")
				for _, item := range s.Items {
					parts = append(parts, "- "+item)
				}
			}
			if s.Note != "" {
				parts = append(parts, "\n> ⚠️ "+s.Note)
			}

		case SectionFallback:
			parts = append(parts, s.Text)
		}
	}

	return strings.TrimLeft(strings.Join(parts, "\n"), "\n")
}
