package daemon

import (
	"time"

	"github.com/aegiswhistle/aegis/internal/config"
)

// StartOptions configures the daemon (home, listen address, backend config, sync loop, observability).
type StartOptions struct {
	Home         string
	ConfigPath   string        // passed to the background child; empty means <home>/config.yaml
	Config       config.Config // backend, addr, api key, slack webhook
	Dev          bool
	PprofAddr    string
	EnableOtel   bool          // enable OpenTelemetry metrics (Prometheus exporter + HTTP/SSE/report instrumentation)
	SyncInterval time.Duration // how often locally saved reports are pushed to the remote store; 0 disables
	LogJSON      bool          // structured JSON logs on stderr instead of text
}

// StatusInfo is the result of Status (running or not, PID, listen addr).
type StatusInfo struct {
	Running bool
	PID     int
	Addr    string
}
