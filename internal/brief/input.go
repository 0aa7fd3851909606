// Package brief turns the different ways a client brief can arrive (typed
// text, a budget table, an uploaded document) into the single raw_brief string
// sent for analysis.
package brief

import "fmt"

// RawInput is one of Text, Table or Document.
type RawInput interface {
	kind() InputKind
}

// InputKind names a RawInput variant.
type InputKind string

const (
	KindText     InputKind = "text"
	KindTable    InputKind = "table"
	KindDocument InputKind = "document"
)

// Text is a brief typed or pasted by the user.
type Text struct {
	Body string `json:"body"`
}

// Table is tabular data such as a budget sheet. Every row must have exactly
// len(Columns) cells.
type Table struct {
	Source  string     `json:"source,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Document is the raw content of an uploaded file.
type Document struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     []byte `json:"content"`
}

func (Text) kind() InputKind     { return KindText }
func (Table) kind() InputKind    { return KindTable }
func (Document) kind() InputKind { return KindDocument }

// Kind reports which variant input is.
func Kind(input RawInput) InputKind {
	switch input.(type) {
	case Text, *Text:
		return KindText
	case Table, *Table:
		return KindTable
	case Document, *Document:
		return KindDocument
	default:
		return ""
	}
}

// Label returns the short transcript note shown for file-based inputs, or ""
// for typed text.
func Label(input RawInput) string {
	switch in := input.(type) {
	case *Table:
		if in == nil {
			return ""
		}
		return Label(*in)
	case *Document:
		if in == nil {
			return ""
		}
		return Label(*in)
	case Table:
		name := in.Source
		if name == "" {
			name = "table"
		}
		return fmt.Sprintf("📊 Processing budget file: %s", name)
	case Document:
		return fmt.Sprintf("📄 Processing: %s", in.Filename)
	default:
		return ""
	}
}
