package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aegiswhistle/aegis/pkg/models"
)

func TestRowRoundTrip(t *testing.T) {
	t.Parallel()
	for _, r := range Seeds() {
		got := FromRow(ToRow(r))
		if !reflect.DeepEqual(normalize(got), normalize(r)) {
			t.Fatalf("round trip %s:\n got %+v\nwant %+v", r.ID, got, r)
		}
	}
}

func TestToRowDefaults(t *testing.T) {
	t.Parallel()
	row := ToRow(models.Report{ID: "AW-2026-001", Title: "x"})
	if row.Status != string(models.StatusNew) {
		t.Fatalf("status default: got %q", row.Status)
	}
	if row.Categories == nil || len(row.Categories) != 0 {
		t.Fatalf("categories default: got %#v", row.Categories)
	}
	if row.Priority != nil {
		t.Fatalf("ToRow must not invent a priority: got %v", *row.Priority)
	}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nrow := NewRow(models.Report{Title: "x"}, now)
	if nrow.Priority == nil || *nrow.Priority != string(models.PriorityMedium) {
		t.Fatalf("NewRow priority default: got %v", nrow.Priority)
	}
	if !nrow.CreatedAt.Equal(now) {
		t.Fatalf("NewRow created_at: got %v", nrow.CreatedAt)
	}
}

func TestDateConversion(t *testing.T) {
	t.Parallel()
	row := ToRow(models.Report{Date: "May 15, 2025", Time: models.Ptr("14:32:41")})
	if row.DateReported == nil || *row.DateReported != "2025-05-15T14:32:41Z" {
		t.Fatalf("date with time: got %v", row.DateReported)
	}
	row = ToRow(models.Report{Date: "May 12, 2025"})
	if row.DateReported == nil || *row.DateReported != "2025-05-12" {
		t.Fatalf("date only: got %v", row.DateReported)
	}
	row = ToRow(models.Report{Date: "sometime last spring"})
	if row.DateReported == nil || *row.DateReported != "sometime last spring" {
		t.Fatalf("unparseable date: got %v", row.DateReported)
	}
	r := FromRow(row)
	if r.Date != "sometime last spring" || r.Time != nil {
		t.Fatalf("unparseable date back: got %q %v", r.Date, r.Time)
	}
}

func TestFromRowInvalidStatus(t *testing.T) {
	t.Parallel()
	r := FromRow(ReportRow{ID: "AW-2026-009", Status: "archived"})
	if r.Status != models.StatusNew {
		t.Fatalf("invalid status: got %q", r.Status)
	}
}

func TestActionNoteInMetadata(t *testing.T) {
	t.Parallel()
	a := models.ReportAction{Action: models.ActionNoteAdded, Timestamp: "May 16, 2025 11:42:15", User: "Emma Johnson", Note: models.Ptr("follow up")}
	row := toActionRow(a)
	if row.ActionType != ActionTypeNote {
		t.Fatalf("action type: got %q", row.ActionType)
	}
	if row.Metadata["note"] != "follow up" {
		t.Fatalf("metadata: got %v", row.Metadata)
	}
	if row.Timestamp == nil || *row.Timestamp != "2025-05-16T11:42:15Z" {
		t.Fatalf("timestamp: got %v", row.Timestamp)
	}
	if got := fromActionRow(row); !reflect.DeepEqual(got, a) {
		t.Fatalf("action round trip: got %+v", got)
	}
}

func TestActionType(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Report Created":             ActionTypeCreated,
		"Note added":                 ActionTypeNote,
		"Assigned to David Lee":      ActionTypeAssigned,
		"Status changed to resolved": ActionTypeStatusChanged,
		"Escalated to legal":         ActionTypeEvent,
	}
	for desc, want := range cases {
		if got := ActionType(desc); got != want {
			t.Fatalf("ActionType(%q): got %q, want %q", desc, got, want)
		}
	}
}

func TestMergeSeeds(t *testing.T) {
	t.Parallel()
	if got := MergeSeeds(nil); len(got) != 4 || got[0].ID != "AW-2023-001" {
		t.Fatalf("MergeSeeds(nil): got %d reports", len(got))
	}
	override := Seeds()[2]
	override.Status = models.StatusResolved
	extra := models.Report{ID: "AW-2026-001", Title: "New"}
	got := MergeSeeds([]models.Report{extra, override})
	if len(got) != 5 {
		t.Fatalf("MergeSeeds: got %d reports, want 5", len(got))
	}
	if got[2].Status != models.StatusResolved {
		t.Fatalf("override not applied: %+v", got[2])
	}
	if got[4].ID != extra.ID {
		t.Fatalf("stored report should follow seeds: got %s", got[4].ID)
	}
}

func TestStripSeeds(t *testing.T) {
	t.Parallel()
	c := Seeds()
	c[1].AssignedTo = models.Ptr("David Lee")
	c = append(c, models.Report{ID: "AW-2026-001"})
	got := StripSeeds(c)
	if len(got) != 2 || got[0].ID != "AW-2023-002" || got[1].ID != "AW-2026-001" {
		t.Fatalf("StripSeeds: got %+v", got)
	}
}

func TestLocalSaveLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := NewMemory()
	all, err := l.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("empty slot should load seeds: got %d", len(all))
	}
	all[0].Status = models.StatusResolved
	if err := l.SaveAll(ctx, all); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	stored, err := l.Stored(ctx)
	if err != nil {
		t.Fatalf("Stored: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != "AW-2023-001" {
		t.Fatalf("only the changed seed should be stored: got %+v", stored)
	}
	again, err := l.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(again) != 4 || again[0].Status != models.StatusResolved {
		t.Fatalf("reload: got %+v", again[0])
	}
}

func TestLocalInsertOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := NewMemory()
	l.Now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	id, err := l.InsertOne(ctx, models.Report{Title: "first"})
	if err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	if id != "AW-2026-001" {
		t.Fatalf("first id: got %s", id)
	}
	id, err = l.InsertOne(ctx, models.Report{Title: "second"})
	if err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	if id != "AW-2026-002" {
		t.Fatalf("second id: got %s", id)
	}
	if _, err := l.InsertOne(ctx, models.Report{ID: "AW-2023-001"}); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLocalCorruptSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	slot := &MemorySlot{}
	if err := slot.Put(ctx, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	got, err := NewLocal("memory", slot).LoadAll(ctx)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if len(got) != 4 {
		t.Fatalf("corrupt slot should still yield seeds: got %d", len(got))
	}
}

func TestLocalSlotError(t *testing.T) {
	t.Parallel()
	boom := errors.New("disk gone")
	l := NewLocal("memory", &MemorySlot{Err: boom})
	if err := l.SaveAll(context.Background(), Seeds()); !errors.Is(err, boom) {
		t.Fatalf("SaveAll: got %v", err)
	}
}

func TestNextLocalID(t *testing.T) {
	t.Parallel()
	c := []models.Report{{ID: "AW-2026-007"}, {ID: "AW-2025-099"}, {ID: "AW-2026-003"}, {ID: "bogus"}}
	if got := NextLocalID(c, 2026); got != "AW-2026-008" {
		t.Fatalf("NextLocalID 2026: got %s", got)
	}
	if got := NextLocalID(c, 2027); got != "AW-2027-001" {
		t.Fatalf("NextLocalID 2027: got %s", got)
	}
}
