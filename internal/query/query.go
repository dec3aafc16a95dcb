// Package query derives dashboard views and aggregates from a report collection without modifying it.
package query

import (
	"strings"

	"github.com/aegiswhistle/aegis/pkg/models"
)

// Filter returns reports matching status (or the "all" wildcard) and containing searchTerm,
// case-insensitively, in title, summary, or id. Input order is preserved.
func Filter(c []models.Report, searchTerm, status string) []models.Report {
	term := strings.ToLower(searchTerm)
	out := make([]models.Report, 0, len(c))
	for _, r := range c {
		if status != models.StatusAll && status != "" && string(r.Status) != status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(r.Title), term) &&
			!strings.Contains(strings.ToLower(r.Summary), term) &&
			!strings.Contains(strings.ToLower(r.ID), term) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CountByStatus counts reports per status. All four statuses are present, zero or not.
func CountByStatus(c []models.Report) models.StatusCounts {
	counts := make(models.StatusCounts, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, r := range c {
		st := r.Status
		if !st.Valid() {
			st = models.StatusNew
		}
		counts[st]++
	}
	return counts
}

// AssignedTo returns reports whose assignee is exactly userName.
func AssignedTo(c []models.Report, userName string) []models.Report {
	out := make([]models.Report, 0)
	for _, r := range c {
		if r.AssignedTo != nil && *r.AssignedTo == userName {
			out = append(out, r)
		}
	}
	return out
}

// Recent returns the first n reports (the dashboard's Recent tab). n <= 0 uses the default.
func Recent(c []models.Report, n int) []models.Report {
	if n <= 0 {
		n = models.DefaultRecentLimit
	}
	if n > len(c) {
		n = len(c)
	}
	out := make([]models.Report, n)
	copy(out, c[:n])
	return out
}
