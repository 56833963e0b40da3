package layout

import "time"

type LayoutComponent struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Variant string         `json:"variant"`
	Genre   string         `json:"genre"`
	Props   map[string]any `json:"props"`
}

type LayoutTokens struct {
	Theme        string `json:"theme"`
	BorderRadius string `json:"border_radius"`
	FontWeight   string `json:"font_weight"`
	Density      string `json:"density"`
	AccentColor  string `json:"accent_color"`
}

// LayoutSchema is the cacheable output of one pipeline run. A later run
// supersedes it; LayoutHash identifies the visible content so no-op updates
// can be detected.
type LayoutSchema struct {
	LayoutID   string            `json:"layout_id"`
	LayoutHash string            `json:"layout_hash"`
	SessionID  string            `json:"session_id"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []LayoutComponent `json:"components"`
	Tokens     LayoutTokens      `json:"tokens"`
	Metadata   map[string]any    `json:"metadata"`
}

// LayoutUpdate is what subscribers of a session receive.
type LayoutUpdate struct {
	SessionID   string            `json:"session_id"`
	LayoutID    string            `json:"layout_id"`
	LayoutHash  string            `json:"layout_hash"`
	SuggestedID *int              `json:"suggested_id,omitempty"`
	Components  []LayoutComponent `json:"components"`
	Tokens      LayoutTokens      `json:"tokens"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

func NewLayoutUpdate(schema LayoutSchema, suggestedID *int) LayoutUpdate {
	return LayoutUpdate{
		SessionID:   schema.SessionID,
		LayoutID:    schema.LayoutID,
		LayoutHash:  schema.LayoutHash,
		SuggestedID: suggestedID,
		Components:  schema.Components,
		Tokens:      schema.Tokens,
		Metadata:    schema.Metadata,
	}
}
