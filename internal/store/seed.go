package store

import (
	"reflect"

	"github.com/aegiswhistle/aegis/pkg/models"
)

// Seeds returns a fresh copy of the demo reports merged into every local-first read.
func Seeds() []models.Report {
	return []models.Report{
		{
			ID:             "AW-2023-001",
			Title:          "Financial Reporting Discrepancy",
			Summary:        "AI-generated summary: Potential misstatement of quarterly earnings by ~$2.3M. Complainant provided evidence of irregular accounting practices in the Q3 reporting cycle.",
			FullTranscript: models.Ptr("I've been working in the accounting department for three years now, and I've noticed something concerning in our quarterly reports. For the past Q3 cycle, it appears that earnings have been overstated by approximately $2.3 million. I've observed irregular journal entries that don't follow standard accounting practices. Specifically, there are several transactions coded to deferred revenue that should be recognized in future periods according to GAAP principles. I've collected screenshots of these entries from our system and notes from meetings where these decisions were made. This appears to be deliberate to meet quarterly targets and not a simple oversight."),
			Date:           "May 15, 2025",
			Time:           models.Ptr("14:32:41"),
			ReportedBy:     models.Ptr(models.AnonymousReporter),
			Categories:     []string{"Fraud", "Financial", "Accounting"},
			Tags:           []string{"Q3 Reporting", "Revenue Recognition", "GAAP Violation"},
			Status:         models.StatusUnderReview,
			AssignedTo:     models.Ptr("Jennifer Martinez"),
			Priority:       models.Ptr(models.PriorityHigh),
			AudioURL:       models.Ptr("#"),
			Actions: []models.ReportAction{
				{Action: models.ActionReportCreated, Timestamp: "May 15, 2025 14:32:41", User: models.SystemActor},
				{Action: "Status changed to Under Review", Timestamp: "May 15, 2025 15:10:22", User: "Daniel Wong"},
				{Action: "Assigned to Jennifer Martinez", Timestamp: "May 16, 2025 09:15:33", User: "Daniel Wong"},
				{
					Action:    models.ActionNoteAdded,
					Timestamp: "May 16, 2025 11:42:15",
					User:      "Jennifer Martinez",
					Note:      models.Ptr("Requesting additional documentation from Finance department. Need to verify Q3 journal entries."),
				},
			},
		},
		{
			ID:         "AW-2023-002",
			Title:      "Workplace Harassment Complaint",
			Summary:    "AI-generated summary: Senior manager allegedly creating hostile work environment through inappropriate comments and favoritism. Multiple incidents reported over past 3 months.",
			Date:       "May 12, 2025",
			Categories: []string{"Harassment", "HR", "Management"},
			Status:     models.StatusEscalated,
		},
		{
			ID:         "AW-2023-003",
			Title:      "Data Privacy Breach Concern",
			Summary:    "AI-generated summary: Customer data potentially exposed due to inadequate security protocols. Whistleblower reports systematic bypassing of encryption requirements.",
			Date:       "May 10, 2025",
			Categories: []string{"Privacy", "Security", "Compliance"},
			Status:     models.StatusNew,
			Actions: []models.ReportAction{
				{Action: models.ActionReportCreated, Timestamp: "May 10, 2025 08:05:12", User: models.SystemActor},
			},
		},
		{
			ID:         "AW-2023-004",
			Title:      "Supply Chain Ethics Violation",
			Summary:    "AI-generated summary: Evidence of supplier using child labor in manufacturing facilities. Documentation includes photos and testimony from recent factory visit.",
			Date:       "May 8, 2025",
			Categories: []string{"Ethics", "Supply Chain", "Legal"},
			Status:     models.StatusResolved,
		},
	}
}

// IsSeedID reports whether id belongs to a seed report.
func IsSeedID(id string) bool {
	for _, s := range Seeds() {
		if s.ID == id {
			return true
		}
	}
	return false
}

// MergeSeeds returns seeds first, each replaced by its stored override when one exists, followed by
// the remaining stored reports in stored order.
func MergeSeeds(stored []models.Report) []models.Report {
	overrides := make(map[string]models.Report, len(stored))
	for _, r := range stored {
		overrides[r.ID] = r
	}
	seeds := Seeds()
	out := make([]models.Report, 0, len(seeds)+len(stored))
	seen := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seen[s.ID] = true
		if o, ok := overrides[s.ID]; ok {
			out = append(out, o)
			continue
		}
		out = append(out, s)
	}
	for _, r := range stored {
		if !seen[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

// StripSeeds drops unchanged seed reports so they are never written back.
func StripSeeds(c []models.Report) []models.Report {
	seeds := make(map[string]models.Report)
	for _, s := range Seeds() {
		seeds[s.ID] = s
	}
	out := make([]models.Report, 0, len(c))
	for _, r := range c {
		if s, ok := seeds[r.ID]; ok && reflect.DeepEqual(normalize(s), normalize(r)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// normalize maps empty slices to nil so JSON round-trips compare equal.
func normalize(r models.Report) models.Report {
	r = r.Clone()
	if len(r.Categories) == 0 {
		r.Categories = nil
	}
	if len(r.Tags) == 0 {
		r.Tags = nil
	}
	if len(r.Actions) == 0 {
		r.Actions = nil
	}
	return r
}
