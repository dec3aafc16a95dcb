package intake

import (
	"errors"
	"testing"
	"time"

	"github.com/aegiswhistle/aegis/pkg/models"
)

var now = time.Date(2026, 6, 1, 14, 32, 41, 0, time.UTC)

func TestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		p    Payload
		ok   bool
	}{
		{"end of call complete", Payload{Type: KindEndOfCall, Summary: "s", Transcript: "t", AudioURL: "https://a/1.wav"}, true},
		{"end of call missing audio", Payload{Type: KindEndOfCall, Summary: "s", Transcript: "t"}, false},
		{"transcript only", Payload{Type: KindTranscript, Transcript: "t"}, true},
		{"transcript blank", Payload{Type: KindTranscript, Transcript: "  "}, false},
		{"manual", Payload{Type: KindManual, Title: "x", Summary: "y"}, true},
		{"manual no title", Payload{Type: KindManual, Summary: "y"}, false},
		{"unknown type", Payload{Type: "sms"}, false},
		{"bad priority", Payload{Type: KindManual, Title: "x", Summary: "y", Priority: "Urgent"}, false},
	}
	for _, tc := range cases {
		err := tc.p.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("%s: got %v, want ErrInvalidPayload", tc.name, err)
		}
	}
}

func TestToReport_endOfCall(t *testing.T) {
	t.Parallel()
	p := Payload{
		Type:       KindEndOfCall,
		Summary:    "Vendor kickbacks in procurement.",
		Transcript: "I saw the purchasing lead take cash.",
		AudioURL:   "https://voice.example/rec/1.wav",
		Categories: []string{" Fraud ", "", "Procurement"},
	}
	r := ToReport(p, "AW-2026-001", now)
	if r.Status != models.StatusNew {
		t.Fatalf("status: got %q", r.Status)
	}
	if r.Title != "Fraud Report" {
		t.Fatalf("title: got %q", r.Title)
	}
	if r.Summary != "AI-generated summary: Vendor kickbacks in procurement." {
		t.Fatalf("summary: got %q", r.Summary)
	}
	if len(r.Categories) != 2 || r.Categories[0] != "Fraud" {
		t.Fatalf("categories: got %v", r.Categories)
	}
	if r.Date != "Jun 1, 2026" || r.Time == nil || *r.Time != "14:32:41" {
		t.Fatalf("date/time: got %q %v", r.Date, r.Time)
	}
	if r.Reporter() != models.AnonymousReporter {
		t.Fatalf("reporter: got %q", r.Reporter())
	}
	if r.AudioURL == nil || r.FullTranscript == nil {
		t.Fatal("audio and transcript must be carried")
	}
	if len(r.Actions) != 1 || r.Actions[0].Action != models.ActionReportCreated || r.Actions[0].User != models.SystemActor {
		t.Fatalf("actions: got %+v", r.Actions)
	}
}

func TestToReport_transcriptDerivesSummaryAndTitle(t *testing.T) {
	t.Parallel()
	r := ToReport(Payload{Type: KindTranscript, Transcript: "Safety checks are being skipped on line 3. It started in March."}, "", now)
	if r.Title != "Safety checks are being skipped on line 3" {
		t.Fatalf("title: got %q", r.Title)
	}
	if r.Summary != "AI-generated summary: Safety checks are being skipped on line 3" {
		t.Fatalf("summary: got %q", r.Summary)
	}
	if r.ID != "" {
		t.Fatalf("id should be left for the backend: got %q", r.ID)
	}
}

func TestToReport_manualKeepsSummary(t *testing.T) {
	t.Parallel()
	r := ToReport(Payload{Type: KindManual, Title: "Expense padding", Summary: "Typed by officer", Priority: "High", ReportedBy: "Walk-in"}, "AW-2026-002", now)
	if r.Summary != "Typed by officer" {
		t.Fatalf("manual summary should be verbatim: got %q", r.Summary)
	}
	if r.EffectivePriority() != models.PriorityHigh {
		t.Fatalf("priority: got %q", r.EffectivePriority())
	}
	if r.Reporter() != "Walk-in" {
		t.Fatalf("reporter: got %q", r.Reporter())
	}
	if r.Categories == nil {
		t.Fatal("categories must default to an empty list")
	}
}
