package store

import (
	"strings"
	"time"

	"github.com/aegiswhistle/aegis/pkg/models"
)

const isoDate = "2006-01-02"

// ToRow converts a report to the storage schema. Status and categories get their creation defaults.
func ToRow(r models.Report) ReportRow {
	row := ReportRow{
		ID:             r.ID,
		Title:          r.Title,
		Summary:        optional(r.Summary),
		FullTranscript: clone(r.FullTranscript),
		Categories:     append([]string{}, r.Categories...),
		Status:         string(r.Status),
		ReportedBy:     clone(r.ReportedBy),
		AssignedTo:     clone(r.AssignedTo),
		AudioURL:       clone(r.AudioURL),
		DateReported:   toISODate(r.Date, r.Time),
	}
	if r.Tags != nil {
		row.Tags = append([]string{}, r.Tags...)
	}
	if row.Status == "" {
		row.Status = string(models.StatusNew)
	}
	if r.Priority != nil {
		row.Priority = models.Ptr(string(*r.Priority))
	}
	for _, a := range r.Actions {
		row.Actions = append(row.Actions, toActionRow(a))
	}
	return row
}

// FromRow converts a storage row back to the descriptive report shape.
func FromRow(row ReportRow) models.Report {
	r := models.Report{
		ID:             row.ID,
		Title:          row.Title,
		FullTranscript: clone(row.FullTranscript),
		Categories:     append([]string{}, row.Categories...),
		Status:         models.Status(row.Status),
		ReportedBy:     clone(row.ReportedBy),
		AssignedTo:     clone(row.AssignedTo),
		AudioURL:       clone(row.AudioURL),
	}
	if row.Summary != nil {
		r.Summary = *row.Summary
	}
	if row.Tags != nil {
		r.Tags = append([]string{}, row.Tags...)
	}
	if !r.Status.Valid() {
		r.Status = models.StatusNew
	}
	if row.Priority != nil {
		r.Priority = models.Ptr(models.Priority(*row.Priority))
	}
	r.Date, r.Time = fromISODate(row.DateReported)
	for _, a := range row.Actions {
		r.Actions = append(r.Actions, fromActionRow(a))
	}
	return r
}

// NewRow prepares a row for insertion: ToRow plus the Medium priority default and timestamps.
func NewRow(r models.Report, now time.Time) ReportRow {
	row := ToRow(r)
	if row.Priority == nil {
		row.Priority = models.Ptr(string(models.PriorityMedium))
	}
	row.CreatedAt = now.UTC()
	row.UpdatedAt = now.UTC()
	return row
}

func toActionRow(a models.ReportAction) ActionRow {
	row := ActionRow{
		ActionType:  ActionType(a.Action),
		Description: a.Action,
		PerformedBy: optional(a.User),
	}
	if a.Timestamp != "" {
		ts := a.Timestamp
		if t, err := time.Parse(models.TimestampLayout, a.Timestamp); err == nil {
			ts = t.UTC().Format(time.RFC3339)
		}
		row.Timestamp = &ts
	}
	if a.Note != nil {
		row.Metadata = map[string]any{"note": *a.Note}
	}
	return row
}

func fromActionRow(row ActionRow) models.ReportAction {
	a := models.ReportAction{Action: row.Description}
	if row.PerformedBy != nil {
		a.User = *row.PerformedBy
	}
	if row.Timestamp != nil {
		a.Timestamp = *row.Timestamp
		if t, err := time.Parse(time.RFC3339, *row.Timestamp); err == nil {
			a.Timestamp = t.Format(models.TimestampLayout)
		}
	}
	if note, ok := row.Metadata["note"].(string); ok {
		a.Note = &note
	}
	return a
}

// ActionType classifies an audit action description.
func ActionType(description string) string {
	switch {
	case description == models.ActionReportCreated:
		return ActionTypeCreated
	case description == models.ActionNoteAdded:
		return ActionTypeNote
	case strings.HasPrefix(description, "Assigned to "):
		return ActionTypeAssigned
	case strings.HasPrefix(description, "Status changed to "):
		return ActionTypeStatusChanged
	default:
		return ActionTypeEvent
	}
}

// toISODate renders display date/time as ISO. Unparseable dates are carried verbatim.
func toISODate(date string, clock *string) *string {
	if date == "" {
		return nil
	}
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return models.Ptr(date)
	}
	if clock != nil {
		if c, err := time.Parse(models.TimeLayout, *clock); err == nil {
			ts := time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.UTC)
			return models.Ptr(ts.Format(time.RFC3339))
		}
	}
	return models.Ptr(d.Format(isoDate))
}

func fromISODate(v *string) (string, *string) {
	if v == nil {
		return "", nil
	}
	if t, err := time.Parse(time.RFC3339, *v); err == nil {
		return t.Format(models.DateLayout), models.Ptr(t.Format(models.TimeLayout))
	}
	if t, err := time.Parse(isoDate, *v); err == nil {
		return t.Format(models.DateLayout), nil
	}
	return *v, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clone(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
