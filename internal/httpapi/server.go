package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/aegiswhistle/aegis/internal/desk"
	"github.com/aegiswhistle/aegis/internal/identity"
	"github.com/aegiswhistle/aegis/internal/intake"
	"github.com/aegiswhistle/aegis/internal/lifecycle"
	"github.com/aegiswhistle/aegis/internal/notify"
	"github.com/aegiswhistle/aegis/internal/otel"
	"github.com/aegiswhistle/aegis/internal/query"
	"github.com/aegiswhistle/aegis/internal/store/backend"
	"github.com/aegiswhistle/aegis/pkg/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ActorHeader names the header carrying the signed-in user's id.
const ActorHeader = "X-Actor-ID"

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more than maxBytes.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH to prevent OOM.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets CORS headers for dev mode (dashboard dev server on a different origin).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, "+ActorHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Home           string
	Addr           string
	Dev            bool
	APIKey         string        // if set, require X-API-Key header or query api_key
	Config         config.Config // backend selection when Desk is nil
	Desk           *desk.Desk    // optional; tests inject one over in-memory stores
	MetricsHandler http.Handler  // if set, used for /metrics (e.g. OTel Prometheus handler)
	UseOtelHTTP    bool          // if true, wrap handler with otelhttp for request metrics
}

// App holds the HTTP server, SSE hub, desk, and notifier fan-out.
type App struct {
	Server   *http.Server
	Hub      *SSEHub
	Desk     *desk.Desk
	Notifier *notify.Fanout
	Home     string
}

// NewApp creates the HTTP app and registers all routes. When opts.Desk is nil the configured
// backend and the user directory in opts.Home are opened; they are closed on server shutdown.
func NewApp(ctx context.Context, opts ServerOptions) (*App, error) {
	hub := NewSSEHub()
	fan := notify.NewFanout()
	fan.Register("log", notify.Log{})
	fan.Register("sse", hub)
	if opts.Config.SlackWebhookURL != "" {
		fan.Register("slack", notify.SlackWebhook{WebhookURL: opts.Config.SlackWebhookURL, Username: "Aegis"})
	}

	d := opts.Desk
	var stores backend.Stores
	if d == nil {
		var err error
		stores, err = backend.Open(ctx, opts.Home, opts.Config)
		if err != nil {
			return nil, err
		}
		dir, err := identity.Load(opts.Home)
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		d = desk.New(stores.Primary, stores.Fallback, dir, nil)
	} else if d.Notifier != nil {
		fan.Register("desk", d.Notifier)
	}
	d.Notifier = fan

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	} else {
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			counts := d.Counts(r.Context())
			_, _ = fmt.Fprintf(w, "# TYPE aegis_reports gauge\n")
			for _, s := range models.Statuses {
				_, _ = fmt.Fprintf(w, "aegis_reports{status=%q} %d\n", string(s), counts[s])
			}
		})
	}

	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		out := map[string]any{
			"backend": d.Primary.Kind(),
			"remote":  d.Primary.Remote(),
			"home":    opts.Home,
		}
		if d.Fallback != nil {
			out["fallback"] = d.Fallback.Kind()
		}
		writeJSON(w, out)
	})

	mux.HandleFunc("/stream", hub.Handler())

	// --- Reports ---
	mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			q := r.URL.Query()
			status := q.Get("status")
			if status == "" {
				status = models.StatusAll
			}
			if status != models.StatusAll && !models.Status(status).Valid() {
				writeJSONError(w, http.StatusBadRequest, "invalid status filter")
				return
			}
			writeJSON(w, d.Filter(r.Context(), q.Get("search"), status))
			return
		case http.MethodPost:
			var p intake.Payload
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			rep, err := d.Submit(r.Context(), p)
			if err != nil {
				writeDeskError(w, err)
				return
			}
			hub.PublishJSON(map[string]any{"type": "report_update", "report_id": rep.ID})
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(rep)
			return
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
	})

	// --- Report-scoped endpoints ---
	mux.HandleFunc("/reports/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/reports/")
		parts := strings.Split(rest, "/")
		if parts[0] == "" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}

		// /reports/counts and /reports/recent
		if len(parts) == 1 {
			switch parts[0] {
			case "counts":
				writeJSON(w, d.Counts(r.Context()))
				return
			case "recent":
				limit := models.DefaultRecentLimit
				if v := r.URL.Query().Get("limit"); v != "" {
					n, err := strconv.Atoi(v)
					if err != nil || n <= 0 {
						writeJSONError(w, http.StatusBadRequest, "invalid limit")
						return
					}
					limit = n
				}
				writeJSON(w, d.Recent(r.Context(), limit))
				return
			}
		}

		id := parts[0]
		// /reports/{id}
		if len(parts) == 1 || parts[1] == "" {
			if r.Method != http.MethodGet {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			rep, err := d.Report(r.Context(), id)
			if err != nil {
				writeDeskError(w, err)
				return
			}
			writeJSON(w, rep)
			return
		}

		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		session := sessionFrom(r, d.Directory)
		var (
			rep models.Report
			err error
		)
		switch parts[1] {
		case "assign":
			var body struct {
				InvestigatorID string `json:"investigator_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			rep, err = d.Assign(r.Context(), session, id, body.InvestigatorID)
		case "status":
			var body struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			rep, err = d.ChangeStatus(r.Context(), session, id, body.Status)
		case "notes":
			var body struct {
				Note string `json:"note"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			rep, err = d.AddNote(r.Context(), session, id, body.Note)
		default:
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			writeDeskError(w, err)
			return
		}
		hub.PublishJSON(map[string]any{"type": "report_update", "report_id": rep.ID, "status": rep.Status})
		writeJSON(w, rep)
	})

	// --- Users ---
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if r.URL.Query().Get("role") == string(models.RoleInvestigator) {
			writeJSON(w, d.Directory.Investigators())
			return
		}
		users := []models.User{}
		if d.Directory != nil {
			users = d.Directory.Users
		}
		writeJSON(w, users)
	})

	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/users/"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "reports" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		reps, err := d.AssignedTo(r.Context(), parts[0])
		if err != nil {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, reps)
	})

	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r, d.Directory)
		if s.Actor == nil {
			writeJSONError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		writeJSON(w, s.Actor)
	})

	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		res, err := d.Sync(r.Context())
		if err != nil {
			writeDeskError(w, err)
			return
		}
		if len(res.Inserted)+len(res.Updated) > 0 {
			hub.PublishJSON(map[string]any{"type": "report_update"})
		}
		writeJSON(w, res)
	})

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(models.DefaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "aegis")
	}
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		_ = stores.Close()
	})
	return &App{Server: srv, Hub: hub, Desk: d, Notifier: fan, Home: opts.Home}, nil
}

// StatusCounter adapts the app's desk for otel.InitMetricsWithStatusCount.
func (a *App) StatusCounter() otel.StatusCountFunc {
	return func(ctx context.Context) models.StatusCounts {
		return query.CountByStatus(a.Desk.Reports(ctx))
	}
}

// sessionFrom resolves the X-Actor-ID header against the directory.
func sessionFrom(r *http.Request, dir *identity.Directory) identity.Session {
	return dir.SessionFor(strings.TrimSpace(r.Header.Get(ActorHeader)))
}

// writeDeskError maps desk and validation errors to status codes.
func writeDeskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, desk.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrEmptyNote),
		errors.Is(err, lifecycle.ErrNoInvestigator),
		errors.Is(err, lifecycle.ErrNotInvestigator),
		errors.Is(err, lifecycle.ErrInvalidStatus),
		errors.Is(err, intake.ErrInvalidPayload):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, desk.ErrUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware echoes X-Request-ID, generating one when the client sent none.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		slog.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"request_id", req.Header.Get("X-Request-ID"),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
