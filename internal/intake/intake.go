// Package intake maps a completed voice session (or a manually entered report) into a new Report.
package intake

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aegiswhistle/aegis/pkg/models"
)

// Kind tags the payload variant.
type Kind string

const (
	// KindEndOfCall is the voice service's end-of-call report: summary, transcript, and recording.
	KindEndOfCall Kind = "end-of-call-report"
	// KindTranscript is a bare transcript with no generated summary.
	KindTranscript Kind = "transcript"
	// KindManual is a report typed in by an ethics officer.
	KindManual Kind = "manual"
)

// Payload is the intake submission. Required fields depend on Type:
//
//	end-of-call-report: summary, transcript, audio_url
//	transcript:         transcript
//	manual:             title, summary
type Payload struct {
	Type       Kind     `json:"type"`
	CallID     string   `json:"call_id,omitempty"`
	Title      string   `json:"title,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Transcript string   `json:"transcript,omitempty"`
	AudioURL   string   `json:"audio_url,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	ReportedBy string   `json:"reported_by,omitempty"`
}

// ErrInvalidPayload wraps every validation failure.
var ErrInvalidPayload = errors.New("invalid intake payload")

// summaryPrefix marks system-generated summaries, as the dashboard shows them.
const summaryPrefix = "AI-generated summary: "

// maxDerivedTitle bounds a title taken from the first sentence of a summary or transcript.
const maxDerivedTitle = 80

// Validate checks the fields required by the payload's kind.
func (p Payload) Validate() error {
	var missing []string
	need := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	switch p.Type {
	case KindEndOfCall:
		need("summary", p.Summary)
		need("transcript", p.Transcript)
		need("audio_url", p.AudioURL)
	case KindTranscript:
		need("transcript", p.Transcript)
	case KindManual:
		need("title", p.Title)
		need("summary", p.Summary)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPayload, p.Type)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s requires %s", ErrInvalidPayload, p.Type, strings.Join(missing, ", "))
	}
	if p.Priority != "" && !models.Priority(p.Priority).Valid() {
		return fmt.Errorf("%w: priority %q", ErrInvalidPayload, p.Priority)
	}
	return nil
}

// ToReport maps p into a new report with status new and a single "Report Created" action.
// id may be empty when the backend assigns identities. p must already be valid.
func ToReport(p Payload, id string, now time.Time) models.Report {
	r := models.Report{
		ID:         id,
		Title:      strings.TrimSpace(p.Title),
		Summary:    strings.TrimSpace(p.Summary),
		Date:       now.Format(models.DateLayout),
		Time:       models.Ptr(now.Format(models.TimeLayout)),
		Categories: cleanList(p.Categories),
		Tags:       cleanList(p.Tags),
		Status:     models.StatusNew,
		Actions: []models.ReportAction{
			{Action: models.ActionReportCreated, Timestamp: now.Format(models.TimestampLayout), User: models.SystemActor},
		},
	}
	if len(r.Tags) == 0 {
		r.Tags = nil
	}
	if t := strings.TrimSpace(p.Transcript); t != "" {
		r.FullTranscript = models.Ptr(t)
	}
	if p.AudioURL != "" {
		r.AudioURL = models.Ptr(p.AudioURL)
	}
	if p.Priority != "" {
		r.Priority = models.Ptr(models.Priority(p.Priority))
	}
	r.ReportedBy = models.Ptr(models.AnonymousReporter)
	if name := strings.TrimSpace(p.ReportedBy); name != "" {
		r.ReportedBy = models.Ptr(name)
	}

	if p.Type != KindManual && r.Summary != "" && !strings.HasPrefix(r.Summary, summaryPrefix) {
		r.Summary = summaryPrefix + r.Summary
	}
	if r.Summary == "" && r.FullTranscript != nil {
		r.Summary = summaryPrefix + firstSentence(*r.FullTranscript)
	}
	if r.Title == "" {
		r.Title = deriveTitle(r.Categories, p)
	}
	return r
}

// deriveTitle prefers the first category guess ("Fraud Report") and falls back to the opening
// sentence of the summary or transcript.
func deriveTitle(categories []string, p Payload) string {
	if len(categories) > 0 {
		return categories[0] + " Report"
	}
	src := p.Summary
	if strings.TrimSpace(src) == "" {
		src = p.Transcript
	}
	if t := firstSentence(src); t != "" {
		return t
	}
	return "Voice Report"
}

func firstSentence(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), summaryPrefix))
	if i := strings.IndexAny(s, ".!?\n"); i > 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > maxDerivedTitle {
		s = strings.TrimSpace(string(r[:maxDerivedTitle])) + "…"
	}
	return s
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
