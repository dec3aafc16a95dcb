// Package models provides the report, audit action, and user types shared by the Aegis HTTP API,
// the persistence adapters, and external tools. The JSON shape is the descriptive (camelCase) schema
// used by the local-first backend and by pkg/client.
package models

// Report is a single whistleblower submission and its case-management state.
type Report struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Summary        string         `json:"summary"`
	FullTranscript *string        `json:"fullTranscript,omitempty"`
	Date           string         `json:"date"`
	Time           *string        `json:"time,omitempty"`
	ReportedBy     *string        `json:"reportedBy,omitempty"`
	Categories     []string       `json:"categories"`
	Tags           []string       `json:"tags,omitempty"`
	Status         Status         `json:"status"`
	AssignedTo     *string        `json:"assignedTo,omitempty"`
	Priority       *Priority      `json:"priority,omitempty"`
	AudioURL       *string        `json:"audioUrl,omitempty"`
	Actions        []ReportAction `json:"actions,omitempty"`
}

// ReportAction is one append-only audit trail entry.
type ReportAction struct {
	Action    string  `json:"action"`
	Timestamp string  `json:"timestamp"`
	User      string  `json:"user"`
	Note      *string `json:"note,omitempty"`
}

// User is an authenticated actor (ethics officer, investigator, or admin).
type User struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  Role   `json:"role" yaml:"role"`
}

// Clone returns a deep copy so callers can modify the result without touching r.
func (r Report) Clone() Report {
	out := r
	out.FullTranscript = cloneString(r.FullTranscript)
	out.Time = cloneString(r.Time)
	out.ReportedBy = cloneString(r.ReportedBy)
	out.AssignedTo = cloneString(r.AssignedTo)
	out.AudioURL = cloneString(r.AudioURL)
	if r.Priority != nil {
		p := *r.Priority
		out.Priority = &p
	}
	if r.Categories != nil {
		out.Categories = append([]string(nil), r.Categories...)
	}
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	if r.Actions != nil {
		out.Actions = make([]ReportAction, len(r.Actions))
		for i, a := range r.Actions {
			a.Note = cloneString(a.Note)
			out.Actions[i] = a
		}
	}
	return out
}

// Reporter returns the reporter's name or the anonymity placeholder.
func (r Report) Reporter() string {
	if r.ReportedBy == nil || *r.ReportedBy == "" {
		return AnonymousReporter
	}
	return *r.ReportedBy
}

// EffectivePriority returns the priority, defaulting to Medium when unset.
func (r Report) EffectivePriority() Priority {
	if r.Priority == nil || *r.Priority == "" {
		return PriorityMedium
	}
	return *r.Priority
}

// CloneReports deep-copies a collection.
func CloneReports(in []Report) []Report {
	if in == nil {
		return nil
	}
	out := make([]Report, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Ptr returns a pointer to v; handy for optional fields.
func Ptr[T any](v T) *T {
	return &v
}

// StatusCounts is the /reports/counts API response.
type StatusCounts map[Status]int

// Notice is a transient user-facing notification (the dashboard's toast).
type Notice struct {
	Level    string `json:"level"`
	Message  string `json:"message"`
	ReportID string `json:"report_id,omitempty"`
}
