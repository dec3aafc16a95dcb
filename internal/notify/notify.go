// Package notify delivers transient notices (the dashboard's toasts) to every registered sink.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aegiswhistle/aegis/pkg/models"
)

// Notice levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notifier receives notices. Delivery is best effort; Notify never blocks the caller on a slow sink
// longer than the sink itself takes.
type Notifier interface {
	Notify(ctx context.Context, n models.Notice)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n models.Notice)

func (f Func) Notify(ctx context.Context, n models.Notice) { f(ctx, n) }

// Nop drops every notice.
var Nop Notifier = Func(func(context.Context, models.Notice) {})

// Info, Success, Warn and Error build notices.
func Info(msg, reportID string) models.Notice {
	return models.Notice{Level: LevelInfo, Message: msg, ReportID: reportID}
}

func Success(msg, reportID string) models.Notice {
	return models.Notice{Level: LevelSuccess, Message: msg, ReportID: reportID}
}

func Warn(msg, reportID string) models.Notice {
	return models.Notice{Level: LevelWarning, Message: msg, ReportID: reportID}
}

func Error(msg, reportID string) models.Notice {
	return models.Notice{Level: LevelError, Message: msg, ReportID: reportID}
}

// Fanout holds named sinks and forwards each notice to all of them.
type Fanout struct {
	mu    sync.RWMutex
	sinks map[string]Notifier
	order []string
}

func NewFanout() *Fanout {
	return &Fanout{sinks: make(map[string]Notifier)}
}

// Register adds or replaces the sink under name.
func (f *Fanout) Register(name string, n Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sinks[name]; !ok {
		f.order = append(f.order, name)
	}
	f.sinks[name] = n
}

// Get returns the sink registered under name, or nil.
func (f *Fanout) Get(name string) Notifier {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sinks[name]
}

func (f *Fanout) Notify(ctx context.Context, n models.Notice) {
	f.mu.RLock()
	sinks := make([]Notifier, 0, len(f.order))
	for _, name := range f.order {
		sinks = append(sinks, f.sinks[name])
	}
	f.mu.RUnlock()
	for _, s := range sinks {
		s.Notify(ctx, n)
	}
}

// Log writes notices to slog.
type Log struct {
	Logger *slog.Logger // nil uses slog.Default()
}

func (l Log) Notify(ctx context.Context, n models.Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch n.Level {
	case LevelWarning:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}
	logger.Log(ctx, level, "notice", "message", n.Message, "report_id", n.ReportID)
}

// SlackWebhook posts warnings, errors, and escalations to a Slack channel via incoming webhook URL.
type SlackWebhook struct {
	WebhookURL string
	Channel    string // optional override
	Username   string // optional
	Client     *http.Client
}

// Relevant reports whether n is worth a Slack message.
func (s SlackWebhook) Relevant(n models.Notice) bool {
	if n.Level == LevelWarning || n.Level == LevelError {
		return true
	}
	return strings.Contains(strings.ToLower(n.Message), string(models.StatusEscalated))
}

func (s SlackWebhook) Notify(ctx context.Context, n models.Notice) {
	if !s.Relevant(n) {
		return
	}
	if err := s.Post(ctx, format(n)); err != nil {
		slog.Warn("slack notify failed", "err", err, "report_id", n.ReportID)
	}
}

// Post sends one message.
func (s SlackWebhook) Post(ctx context.Context, message string) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL not set")
	}
	payload := map[string]any{"text": message}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	if s.Username != "" {
		payload["username"] = s.Username
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}

func format(n models.Notice) string {
	if n.ReportID == "" {
		return fmt.Sprintf("[%s] %s", n.Level, n.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", n.Level, n.ReportID, n.Message)
}

// Recorder keeps every notice; used by tests and the CLI to print what happened.
type Recorder struct {
	mu      sync.Mutex
	Notices []models.Notice
}

func (r *Recorder) Notify(_ context.Context, n models.Notice) {
	r.mu.Lock()
	r.Notices = append(r.Notices, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notices.
func (r *Recorder) All() []models.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notice(nil), r.Notices...)
}
