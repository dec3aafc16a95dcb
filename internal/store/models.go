// Package store defines the persistence interface, the storage-schema rows, and the single conversion
// boundary between the descriptive report shape and the storage shape.
package store

import "time"

// ReportRow is a row of the remote "reports" table (storage-oriented names).
type ReportRow struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Summary        *string     `json:"summary,omitempty"`
	FullTranscript *string     `json:"full_transcript,omitempty"`
	Categories     []string    `json:"categories"`
	Tags           []string    `json:"tags,omitempty"`
	Status         string      `json:"status"`
	Priority       *string     `json:"priority,omitempty"`
	ReportedBy     *string     `json:"reported_by,omitempty"`
	AssignedTo     *string     `json:"assigned_to,omitempty"`
	AudioURL       *string     `json:"audio_url,omitempty"`
	VapiCallID     *string     `json:"vapi_call_id,omitempty"`
	DateReported   *string     `json:"date_reported,omitempty"` // ISO date or RFC 3339
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Actions        []ActionRow `json:"actions,omitempty"`
}

// ActionRow is a row of the "report_actions" table.
type ActionRow struct {
	ActionType  string         `json:"action_type"` // created, assigned, status_changed, note, event
	Description string         `json:"description"`
	PerformedBy *string        `json:"performed_by,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Timestamp   *string        `json:"timestamp,omitempty"` // RFC 3339 when parseable
}

// ProfileRow is a row of the "profiles" table.
type ProfileRow struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Action types stored in report_actions.action_type.
const (
	ActionTypeCreated       = "created"
	ActionTypeAssigned      = "assigned"
	ActionTypeStatusChanged = "status_changed"
	ActionTypeNote          = "note"
	ActionTypeEvent         = "event"
)

// SlotKey is the fixed key of the local-first collection.
const SlotKey = "aegis_whistleblower_reports"
