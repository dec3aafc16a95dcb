package models

import "strings"

// Status is a report's lifecycle state.
type Status string

// Report statuses. Any status is reachable from any other.
const (
	StatusNew         Status = "new"
	StatusUnderReview Status = "under_review"
	StatusEscalated   Status = "escalated"
	StatusResolved    Status = "resolved"
)

// StatusAll is the wildcard accepted by status filters.
const StatusAll = "all"

// Statuses lists every status in dashboard order.
var Statuses = []Status{StatusNew, StatusUnderReview, StatusEscalated, StatusResolved}

// Valid reports whether s is one of the four statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusUnderReview, StatusEscalated, StatusResolved:
		return true
	}
	return false
}

// Label is the human-readable form used in audit entries ("under review").
func (s Status) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Priority is a report's triage priority.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is Low, Medium, or High.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Role is a user's role.
type Role string

const (
	RoleEthicsOfficer Role = "ethics_officer"
	RoleInvestigator  Role = "investigator"
	RoleAdmin         Role = "admin"
)

// Actors and fixed action texts.
const (
	SystemActor       = "System"
	AnonymousReporter = "Anonymous Whistleblower"

	ActionReportCreated = "Report Created"
	ActionNoteAdded     = "Note added"
)

// Display layouts for the local-first schema.
const (
	DateLayout      = "Jan 2, 2006"
	TimeLayout      = "15:04:05"
	TimestampLayout = "Jan 2, 2006 15:04:05"
)

// Default limits.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultRecentLimit         = 5
	DefaultSSEChannelBuffer    = 256
)
