package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aegiswhistle/aegis/pkg/models"
)

func TestFanout_RegisterGetNotify(t *testing.T) {
	f := NewFanout()
	a, b := &Recorder{}, &Recorder{}
	f.Register("a", a)
	f.Register("b", b)
	if f.Get("a") != a {
		t.Fatal("Get(a) returned wrong sink")
	}
	if f.Get("missing") != nil {
		t.Fatal("Get(missing) should be nil")
	}
	f.Notify(context.Background(), Info("hello", "AW-2023-001"))
	if len(a.All()) != 1 || len(b.All()) != 1 {
		t.Fatalf("fanout: a=%d b=%d", len(a.All()), len(b.All()))
	}
	// Re-registering replaces without duplicating.
	c := &Recorder{}
	f.Register("a", c)
	f.Notify(context.Background(), Info("again", ""))
	if len(a.All()) != 1 || len(c.All()) != 1 || len(b.All()) != 2 {
		t.Fatalf("replace: a=%d b=%d c=%d", len(a.All()), len(b.All()), len(c.All()))
	}
}

func TestSlackWebhook_Notify_mockHTTP(t *testing.T) {
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: %s", r.Method)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		texts = append(texts, body["text"].(string))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := SlackWebhook{WebhookURL: srv.URL}
	ctx := context.Background()
	s.Notify(ctx, Success("Note added", "AW-2023-001"))
	s.Notify(ctx, Success("Status changed to escalated", "AW-2023-002"))
	s.Notify(ctx, Error("remote store unavailable", ""))

	mu.Lock()
	defer mu.Unlock()
	if len(texts) != 2 {
		t.Fatalf("expected 2 slack posts, got %d: %v", len(texts), texts)
	}
	if !strings.Contains(texts[0], "AW-2023-002") || !strings.HasPrefix(texts[1], "[error]") {
		t.Fatalf("texts: %v", texts)
	}
}

func TestSlackWebhook_Post_emptyURL(t *testing.T) {
	if err := (SlackWebhook{}).Post(context.Background(), "msg"); err == nil {
		t.Fatal("expected error when webhook URL empty")
	}
}

func TestSlackWebhook_Post_non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	if err := (SlackWebhook{WebhookURL: srv.URL}).Post(context.Background(), "msg"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestLog_Notify(t *testing.T) {
	// Exercise every level mapping; slog.Default writes to stderr.
	l := Log{}
	for _, n := range []models.Notice{Info("i", ""), Warn("w", ""), Error("e", "AW-1")} {
		l.Notify(context.Background(), n)
	}
}

func TestNop(t *testing.T) {
	Nop.Notify(context.Background(), Info("dropped", ""))
}
