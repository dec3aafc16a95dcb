package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aegiswhistle/aegis/pkg/models"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping postgres test")
	}
	st, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpen_skipIfNoDatabaseURL(t *testing.T) {
	st := openTest(t)
	if !st.Remote() || st.Kind() != "postgres" {
		t.Fatalf("Kind/Remote: got %s/%v", st.Kind(), st.Remote())
	}
	if _, err := st.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
}

func TestInsertAndSave_skipIfNoDatabaseURL(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	id := fmt.Sprintf("AW-TEST-%d", time.Now().UnixNano())
	r := models.Report{
		ID:         id,
		Title:      "Kickback scheme",
		Summary:    "Vendor kickbacks.",
		Date:       "May 15, 2025",
		Time:       models.Ptr("14:32:45"),
		Categories: []string{"Fraud"},
		Status:     models.StatusNew,
		Actions: []models.ReportAction{
			{Action: models.ActionReportCreated, Timestamp: "May 15, 2025 14:32:45", User: models.SystemActor},
		},
	}
	got, err := st.InsertOne(ctx, r)
	if err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	if got != id {
		t.Fatalf("InsertOne id: got %s, want %s", got, id)
	}
	t.Cleanup(func() { _, _ = st.Pool.Exec(context.Background(), `DELETE FROM reports WHERE id = $1`, id) })

	r.Status = models.StatusUnderReview
	r.Actions = append(r.Actions, models.ReportAction{Action: models.ActionNoteAdded, Timestamp: "May 16, 2025 09:00:00", User: "Emma Johnson", Note: models.Ptr("called back")})
	if err := st.SaveAll(ctx, []models.Report{r}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	all, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	for _, rep := range all {
		if rep.ID != id {
			continue
		}
		if rep.Status != models.StatusUnderReview {
			t.Fatalf("status: got %s", rep.Status)
		}
		if rep.Priority == nil || *rep.Priority != models.PriorityMedium {
			t.Fatalf("priority default: got %v", rep.Priority)
		}
		if len(rep.Actions) != 2 || rep.Actions[1].Note == nil || *rep.Actions[1].Note != "called back" {
			t.Fatalf("actions: got %+v", rep.Actions)
		}
		if rep.Time == nil || *rep.Time != "14:32:45" {
			t.Fatalf("time: got %v", rep.Time)
		}
		return
	}
	t.Fatalf("report %s not found after save", id)
}
