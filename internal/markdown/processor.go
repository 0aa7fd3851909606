package markdown

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tfmusic/workflow-assistant/internal/storage"
)

var markdownPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6}\s+`),      // Headers
	regexp.MustCompile(`\*\*.+?\*\*`),         // Bold
	regexp.MustCompile("`[^`]+`"),             // Inline code
	regexp.MustCompile("```"),                 // Code blocks
	regexp.MustCompile(`(?m)^\s*[-*+]\s+`),    // Unordered lists
	regexp.MustCompile(`(?m)^\s*\d+\.\s+`),    // Ordered lists
	regexp.MustCompile(`(?m)^\s*>\s+`),        // Blockquotes
	regexp.MustCompile(`\[.+?\]\(.+?\)`),      // Links
	regexp.MustCompile(`(?m)^\s*\|.*\|\s*$`),  // Tables
}

// ContainsMarkdown reports whether content uses markdown syntax worth
// rendering.
func ContainsMarkdown(content string) bool {
	for _, p := range markdownPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// MessageSource returns the markdown to display for a transcript message.
// Raw payloads become an indented JSON code block; plain user text is fenced
// so tables and briefs keep their layout.
func MessageSource(msg storage.Message) string {
	if msg.Content.IsRaw() {
		var buf bytes.Buffer
		if err := json.Indent(&buf, msg.Content.Raw, "", "  "); err != nil {
			buf.Reset()
			buf.Write(msg.Content.Raw)
		}
		return "```json\n" + buf.String() + "\n```"
	}
	text := msg.Content.Text
	if msg.Role == storage.RoleUser && !ContainsMarkdown(text) && strings.Contains(text, "\n") {
		return "```\n" + text + "\n```"
	}
	return text
}

// RenderMessage renders a transcript message for the terminal.
func (r *Renderer) RenderMessage(msg storage.Message) string {
	return r.RenderOrPlain(MessageSource(msg))
}
