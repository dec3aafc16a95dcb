package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aegiswhistle/aegis/internal/desk"
	"github.com/aegiswhistle/aegis/internal/identity"
	"github.com/aegiswhistle/aegis/internal/notify"
	"github.com/aegiswhistle/aegis/internal/store"
	"github.com/aegiswhistle/aegis/pkg/models"
)

func newTestApp(t *testing.T, apiKey string) *App {
	t.Helper()
	d := desk.New(store.NewMemory(), nil, identity.Demo(), &notify.Recorder{})
	d.Now = func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) }
	app, err := NewApp(context.Background(), ServerOptions{Home: t.TempDir(), Addr: "127.0.0.1:0", APIKey: apiKey, Desk: d})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

type apiCall struct {
	method, path, actor, body string
}

func do(t *testing.T, h http.Handler, c apiCall) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if c.body != "" {
		body = bytes.NewReader([]byte(c.body))
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.actor != "" {
		req.Header.Set(ActorHeader, c.actor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) models.Report {
	t.Helper()
	var r models.Report
	if err := json.NewDecoder(rec.Body).Decode(&r); err != nil {
		t.Fatalf("decode report: %v (%s)", err, rec.Body.String())
	}
	return r
}

func TestHandlers_statusCodes(t *testing.T) {
	t.Parallel()
	h := newTestApp(t, "").Server.Handler

	cases := []struct {
		name string
		call apiCall
		want int
	}{
		{"list", apiCall{method: "GET", path: "/reports"}, 200},
		{"list filtered", apiCall{method: "GET", path: "/reports?status=escalated&search=harass"}, 200},
		{"bad status filter", apiCall{method: "GET", path: "/reports?status=closed"}, 400},
		{"counts", apiCall{method: "GET", path: "/reports/counts"}, 200},
		{"recent", apiCall{method: "GET", path: "/reports/recent?limit=2"}, 200},
		{"recent bad limit", apiCall{method: "GET", path: "/reports/recent?limit=x"}, 400},
		{"get", apiCall{method: "GET", path: "/reports/AW-2023-001"}, 200},
		{"get missing", apiCall{method: "GET", path: "/reports/AW-1999-001"}, 404},
		{"delete not allowed", apiCall{method: "DELETE", path: "/reports/AW-2023-001"}, 405},
		{"unknown sub-route", apiCall{method: "POST", path: "/reports/AW-2023-001/archive", actor: "ethics-1", body: "{}"}, 404},
		{"assign anonymous", apiCall{method: "POST", path: "/reports/AW-2023-003/assign", body: `{"investigator_id":"inv-1"}`}, 401},
		{"assign none selected", apiCall{method: "POST", path: "/reports/AW-2023-003/assign", actor: "ethics-1", body: `{}`}, 400},
		{"assign officer", apiCall{method: "POST", path: "/reports/AW-2023-003/assign", actor: "ethics-1", body: `{"investigator_id":"ethics-1"}`}, 400},
		{"assign missing report", apiCall{method: "POST", path: "/reports/AW-1999-001/assign", actor: "ethics-1", body: `{"investigator_id":"inv-1"}`}, 404},
		{"status invalid", apiCall{method: "POST", path: "/reports/AW-2023-003/status", actor: "ethics-1", body: `{"status":"closed"}`}, 400},
		{"note empty", apiCall{method: "POST", path: "/reports/AW-2023-003/notes", actor: "ethics-1", body: `{"note":"   "}`}, 400},
		{"note bad json", apiCall{method: "POST", path: "/reports/AW-2023-003/notes", actor: "ethics-1", body: `{`}, 400},
		{"intake invalid", apiCall{method: "POST", path: "/reports", body: `{"type":"manual"}`}, 400},
		{"users", apiCall{method: "GET", path: "/users"}, 200},
		{"user reports", apiCall{method: "GET", path: "/users/inv-2/reports"}, 200},
		{"unknown user reports", apiCall{method: "GET", path: "/users/ghost/reports"}, 404},
		{"me anonymous", apiCall{method: "GET", path: "/me"}, 401},
		{"me", apiCall{method: "GET", path: "/me", actor: "inv-1"}, 200},
		{"sync local", apiCall{method: "POST", path: "/sync"}, 200},
		{"sync get", apiCall{method: "GET", path: "/sync"}, 405},
		{"config", apiCall{method: "GET", path: "/config"}, 200},
	}
	for _, tc := range cases {
		if rec := do(t, h, tc.call); rec.Code != tc.want {
			t.Errorf("%s: %s %s status=%d want %d body=%s", tc.name, tc.call.method, tc.call.path, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestHandlers_lifecycleFlow(t *testing.T) {
	t.Parallel()
	h := newTestApp(t, "").Server.Handler

	rec := do(t, h, apiCall{method: "POST", path: "/reports/AW-2023-003/assign", actor: "ethics-1", body: `{"investigator_id":"inv-1"}`})
	if rec.Code != 200 {
		t.Fatalf("assign: %d %s", rec.Code, rec.Body.String())
	}
	r := decodeReport(t, rec)
	if r.Status != models.StatusUnderReview || r.AssignedTo == nil || *r.AssignedTo != "David Lee" || len(r.Actions) != 2 {
		t.Fatalf("assign result: %+v", r)
	}

	rec = do(t, h, apiCall{method: "POST", path: "/reports/AW-2023-003/status", actor: "ethics-1", body: `{"status":"resolved"}`})
	if r = decodeReport(t, rec); r.Status != models.StatusResolved {
		t.Fatalf("resolve: %+v", r)
	}
	rec = do(t, h, apiCall{method: "POST", path: "/reports/AW-2023-003/status", actor: "ethics-1", body: `{"status":"new"}`})
	if r = decodeReport(t, rec); r.Status != models.StatusNew {
		t.Fatalf("reopen: %+v", r)
	}

	rec = do(t, h, apiCall{method: "POST", path: "/reports/AW-2023-003/notes", actor: "inv-1", body: `{"note":"Pulled access logs"}`})
	r = decodeReport(t, rec)
	last := r.Actions[len(r.Actions)-1]
	if last.Action != models.ActionNoteAdded || last.User != "David Lee" || last.Note == nil || *last.Note != "Pulled access logs" {
		t.Fatalf("note: %+v", last)
	}
	if len(r.Actions) != 5 {
		t.Fatalf("audit trail length: got %d, want 5", len(r.Actions))
	}

	rec = do(t, h, apiCall{method: "GET", path: "/users/inv-1/reports"})
	var mine []models.Report
	_ = json.NewDecoder(rec.Body).Decode(&mine)
	if len(mine) != 1 || mine[0].ID != "AW-2023-003" {
		t.Fatalf("assigned reports: %+v", mine)
	}

	rec = do(t, h, apiCall{method: "GET", path: "/reports/counts"})
	var counts map[string]int
	_ = json.NewDecoder(rec.Body).Decode(&counts)
	if counts["new"] != 1 || counts["under_review"] != 1 || counts["escalated"] != 1 || counts["resolved"] != 1 {
		t.Fatalf("counts: %v", counts)
	}
}

func TestHandlers_intake(t *testing.T) {
	t.Parallel()
	h := newTestApp(t, "").Server.Handler
	body := `{"type":"end-of-call-report","summary":"Safety logs falsified","transcript":"They sign off inspections nobody did.","audio_url":"https://voice.example/r/9.wav","categories":["Safety"]}`
	rec := do(t, h, apiCall{method: "POST", path: "/reports", body: body})
	if rec.Code != http.StatusCreated {
		t.Fatalf("intake: %d %s", rec.Code, rec.Body.String())
	}
	r := decodeReport(t, rec)
	if !strings.HasPrefix(r.ID, "AW-") || r.Status != models.StatusNew || r.Title != "Safety Report" {
		t.Fatalf("intake report: %+v", r)
	}
	rec = do(t, h, apiCall{method: "GET", path: "/reports?search=safety"})
	var found []models.Report
	_ = json.NewDecoder(rec.Body).Decode(&found)
	if len(found) != 1 || found[0].ID != r.ID {
		t.Fatalf("search after intake: %+v", found)
	}
}

func TestHandlers_investigatorFilter(t *testing.T) {
	t.Parallel()
	h := newTestApp(t, "").Server.Handler
	rec := do(t, h, apiCall{method: "GET", path: "/users?role=investigator"})
	var users []models.User
	if err := json.NewDecoder(rec.Body).Decode(&users); err != nil {
		t.Fatal(err)
	}
	for _, u := range users {
		if u.Role != models.RoleInvestigator {
			t.Fatalf("non-investigator in list: %+v", u)
		}
	}
	if len(users) == 0 {
		t.Fatal("expected investigators")
	}
}
