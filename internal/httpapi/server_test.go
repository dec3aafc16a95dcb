package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/aegiswhistle/aegis/pkg/models"
)

func TestServerSmoke(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	app, err := NewApp(context.Background(), ServerOptions{Home: home, Addr: "127.0.0.1:0", Config: config.Config{Backend: config.BackendSQLite}})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	ts := httptest.NewServer(app.Server.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = app.Server.Shutdown(context.Background()) })

	// health
	r1, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_ = r1.Body.Close()
	if r1.StatusCode != 200 {
		t.Fatalf("/health status=%d", r1.StatusCode)
	}
	if r1.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected generated X-Request-ID")
	}

	// seeds are listed
	r2, err := http.Get(ts.URL + "/reports")
	if err != nil {
		t.Fatalf("GET /reports: %v", err)
	}
	var reports []models.Report
	if err := json.NewDecoder(r2.Body).Decode(&reports); err != nil {
		t.Fatalf("decode /reports: %v", err)
	}
	_ = r2.Body.Close()
	if len(reports) != 4 {
		t.Fatalf("expected 4 seed reports, got %d", len(reports))
	}

	// fallback /metrics without otel
	r3, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	var sb strings.Builder
	sc := bufio.NewScanner(r3.Body)
	for sc.Scan() {
		sb.WriteString(sc.Text() + "\n")
	}
	_ = r3.Body.Close()
	if !strings.Contains(sb.String(), `aegis_reports{status="new"} 1`) {
		t.Fatalf("/metrics: %s", sb.String())
	}

	// SSE should produce initial connected event quickly.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/stream", nil)
	sseResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /stream: %v", err)
	}
	defer func() { _ = sseResp.Body.Close() }()

	sse := bufio.NewScanner(sseResp.Body)
	found := false
	for sse.Scan() {
		line := sse.Text()
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"type":"connected"`) {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("did not see connected event")
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, "secret")
	ts := httptest.NewServer(app.Server.Handler)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/reports")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing key: status=%d", resp.StatusCode)
	}
	resp, err = http.Get(ts.URL + "/reports?api_key=secret")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query key: status=%d", resp.StatusCode)
	}
	resp, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/health must bypass the key: status=%d", resp.StatusCode)
	}
}

func TestCORSDevMode(t *testing.T) {
	t.Parallel()
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/reports", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("OPTIONS: %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), ActorHeader) {
		t.Fatalf("allow headers: %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}
