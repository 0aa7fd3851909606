package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Content is either markdown text or a raw structured payload kept for
// diagnostic display. Exactly one of Text or Raw is set.
type Content struct {
	Text string          `json:"text,omitempty"`
	Raw  json.RawMessage `json:"raw,omitempty"`
}

// TextContent wraps markdown text.
func TextContent(text string) Content {
	return Content{Text: text}
}

// RawContent wraps a structured payload.
func RawContent(raw json.RawMessage) Content {
	return Content{Raw: append(json.RawMessage(nil), raw...)}
}

// IsRaw reports whether the content is a structured payload.
func (c Content) IsRaw() bool {
	return len(c.Raw) > 0
}

func (c Content) validate() error {
	if c.IsRaw() && c.Text != "" {
		return fmt.Errorf("content cannot be both text and raw")
	}
	if c.IsRaw() && !json.Valid(c.Raw) {
		return fmt.Errorf("raw content is not valid JSON")
	}
	return nil
}

// Message is one entry of a conversation. Position is its index in the
// session's sequence and never changes.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   Content   `json:"content"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage is the caller-supplied part of a message.
type NewMessage struct {
	Role    Role
	Content Content
}

// ProjectStrategy is the commercial recommendation returned for a brief.
// Nil or empty fields were not supplied by the service and display as TBD.
type ProjectStrategy struct {
	ProjectType       string   `json:"project_type,omitempty"`
	Budget            *int64   `json:"budget,omitempty"`
	Payout            *int64   `json:"payout,omitempty"`
	MarginPercentage  *float64 `json:"margin_percentage,omitempty"`
	Approach          string   `json:"approach,omitempty"`
	KeyConsiderations []string `json:"key_considerations,omitempty"`
}

// Clone returns a deep copy.
func (p *ProjectStrategy) Clone() *ProjectStrategy {
	if p == nil {
		return nil
	}
	out := *p
	if p.Budget != nil {
		v := *p.Budget
		out.Budget = &v
	}
	if p.Payout != nil {
		v := *p.Payout
		out.Payout = &v
	}
	if p.MarginPercentage != nil {
		v := *p.MarginPercentage
		out.MarginPercentage = &v
	}
	if p.KeyConsiderations != nil {
		out.KeyConsiderations = append([]string(nil), p.KeyConsiderations...)
	}
	return &out
}

// SessionSummary provides a lightweight view of session data
type SessionSummary struct {
	ID           string      `json:"id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	MessageCount int         `json:"message_count"`
	State        FlightState `json:"state"`
	HasStrategy  bool        `json:"has_strategy"`
}
