// Package lifecycle holds the pure report state transitions. Each operation locates a report by id,
// computes its next state, appends exactly one audit action, and returns the whole updated collection
// for the caller to persist. The input collection is never modified.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/aegiswhistle/aegis/pkg/models"
)

// Clock returns the time stamped on new actions.
type Clock func() time.Time

// Ops binds the operations to a clock. The zero value uses time.Now.
type Ops struct {
	Now Clock
}

func (o Ops) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Timestamp formats t the way audit actions display it.
func Timestamp(t time.Time) string {
	return t.Format(models.TimestampLayout)
}

// Created returns the initial audit action for a new report.
func Created(t time.Time) models.ReportAction {
	return models.ReportAction{Action: models.ActionReportCreated, Timestamp: Timestamp(t), User: models.SystemActor}
}

// Assign sets assignedTo and advances a new report to under_review. Escalated and resolved reports
// keep their status.
func (o Ops) Assign(c []models.Report, reportID, investigator string) []models.Report {
	return o.apply(c, reportID, func(r *models.Report, ts string) {
		r.AssignedTo = models.Ptr(investigator)
		if r.Status == models.StatusNew || r.Status == "" {
			r.Status = models.StatusUnderReview
		}
		r.Actions = append(r.Actions, models.ReportAction{
			Action:    fmt.Sprintf("Assigned to %s", investigator),
			Timestamp: ts,
			User:      models.SystemActor,
		})
	})
}

// ChangeStatus sets the status unconditionally; resolved reports can be reopened.
func (o Ops) ChangeStatus(c []models.Report, reportID string, status models.Status) []models.Report {
	return o.apply(c, reportID, func(r *models.Report, ts string) {
		r.Status = status
		r.Actions = append(r.Actions, models.ReportAction{
			Action:    fmt.Sprintf("Status changed to %s", status.Label()),
			Timestamp: ts,
			User:      models.SystemActor,
		})
	})
}

// AddNote appends a note authored by actor. Status and assignee are untouched.
func (o Ops) AddNote(c []models.Report, reportID, actor, note string) []models.Report {
	return o.apply(c, reportID, func(r *models.Report, ts string) {
		r.Actions = append(r.Actions, models.ReportAction{
			Action:    models.ActionNoteAdded,
			Timestamp: ts,
			User:      actor,
			Note:      models.Ptr(note),
		})
	})
}

// apply returns c itself when reportID is absent, otherwise a copy with the target rewritten.
func (o Ops) apply(c []models.Report, reportID string, mutate func(r *models.Report, ts string)) []models.Report {
	idx := Index(c, reportID)
	if idx < 0 {
		return c
	}
	out := make([]models.Report, len(c))
	copy(out, c)
	target := c[idx].Clone()
	mutate(&target, Timestamp(o.now()))
	out[idx] = target
	return out
}

// Index returns the position of reportID in c, or -1.
func Index(c []models.Report, reportID string) int {
	for i := range c {
		if c[i].ID == reportID {
			return i
		}
	}
	return -1
}

// Find returns the report with reportID.
func Find(c []models.Report, reportID string) (models.Report, bool) {
	if i := Index(c, reportID); i >= 0 {
		return c[i], true
	}
	return models.Report{}, false
}

var defaultOps Ops

// Assign applies Ops.Assign with the wall clock.
func Assign(c []models.Report, reportID, investigator string) []models.Report {
	return defaultOps.Assign(c, reportID, investigator)
}

// ChangeStatus applies Ops.ChangeStatus with the wall clock.
func ChangeStatus(c []models.Report, reportID string, status models.Status) []models.Report {
	return defaultOps.ChangeStatus(c, reportID, status)
}

// AddNote applies Ops.AddNote with the wall clock.
func AddNote(c []models.Report, reportID, actor, note string) []models.Report {
	return defaultOps.AddNote(c, reportID, actor, note)
}
