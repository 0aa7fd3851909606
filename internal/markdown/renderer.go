// Package markdown renders assistant transcript text for the terminal.
package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// RendererConfig holds configuration for markdown rendering
type RendererConfig struct {
	Width int
	// Style is "auto" or a glamour standard style name such as "dark",
	// "light" or "notty".
	Style string
}

// DefaultConfig returns a default renderer configuration
func DefaultConfig() *RendererConfig {
	return &RendererConfig{
		Width: 100,
		Style: "auto",
	}
}

// Renderer wraps glamour with chat-specific pre and post processing.
type Renderer struct {
	glamourRenderer *glamour.TermRenderer
	config          *RendererConfig
}

// NewRenderer creates a new markdown renderer with the given configuration
func NewRenderer(config *RendererConfig) (*Renderer, error) {
	if config == nil {
		config = DefaultConfig()
	}

	style := glamour.WithAutoStyle()
	if config.Style != "" && config.Style != "auto" {
		style = glamour.WithStandardStyle(config.Style)
	}

	glamourRenderer, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(config.Width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create glamour renderer: %w", err)
	}

	return &Renderer{
		glamourRenderer: glamourRenderer,
		config:          config,
	}, nil
}

// Render renders markdown content to styled terminal output
func (r *Renderer) Render(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}

	rendered, err := r.glamourRenderer.Render(preprocess(markdown))
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return postprocess(rendered), nil
}

// RenderOrPlain renders markdown, falling back to the input on error.
func (r *Renderer) RenderOrPlain(markdown string) string {
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

// preprocess trims trailing whitespace outside code fences.
func preprocess(markdown string) string {
	lines := strings.Split(markdown, "\n")
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if !inFence {
			lines[i] = strings.TrimRight(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// postprocess collapses runs of blank lines and trims the trailing ones.
func postprocess(rendered string) string {
	lines := strings.Split(rendered, "\n")
	result := make([]string, 0, len(lines))
	blankCount := 0

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blankCount++
			if blankCount <= 1 {
				result = append(result, "")
			}
			continue
		}
		blankCount = 0
		result = append(result, line)
	}

	return strings.TrimRight(strings.Join(result, "\n"), "\n")
}
