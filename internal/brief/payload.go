package brief

import (
	"fmt"
	"strings"
)

const (
	// MaxDocumentChars is how much of an uploaded document is forwarded.
	MaxDocumentChars = 3000

	tablePrefix = "Please analyze this budget table:\n\n"
)

// Build normalizes input into the raw_brief payload.
func Build(input RawInput) (string, error) {
	switch in := input.(type) {
	case Text:
		return buildText(in)
	case *Text:
		if in == nil {
			return "", buildErr(KindText, "no input", nil)
		}
		return buildText(*in)
	case Table:
		return buildTable(in)
	case *Table:
		if in == nil {
			return "", buildErr(KindTable, "no input", nil)
		}
		return buildTable(*in)
	case Document:
		return buildDocument(in)
	case *Document:
		if in == nil {
			return "", buildErr(KindDocument, "no input", nil)
		}
		return buildDocument(*in)
	case nil:
		return "", buildErr("", "no input", nil)
	default:
		return "", buildErr(Kind(input), fmt.Sprintf("unsupported input %T", input), nil)
	}
}

func buildText(in Text) (string, error) {
	if strings.TrimSpace(in.Body) == "" {
		return "", buildErr(KindText, "brief is empty", nil)
	}
	return in.Body, nil
}

func buildTable(in Table) (string, error) {
	rendered, err := RenderTable(in)
	if err != nil {
		return "", err
	}
	return tablePrefix + rendered, nil
}

func buildDocument(in Document) (string, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return "", buildErr(KindDocument, "filename is required", nil)
	}

	// Undecodable bytes are dropped rather than failing the upload.
	text := strings.ToValidUTF8(string(in.Content), "")
	if strings.TrimSpace(text) == "" {
		return "", buildErr(KindDocument, fmt.Sprintf("%s has no readable text", in.Filename), nil)
	}

	runes := []rune(text)
	if len(runes) > MaxDocumentChars {
		runes = runes[:MaxDocumentChars]
	}
	return fmt.Sprintf("Please analyze this document (%s):\n\n%s...", in.Filename, string(runes)), nil
}
