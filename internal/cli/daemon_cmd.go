package cli

import (
	"time"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/aegiswhistle/aegis/internal/daemon"
	"github.com/spf13/cobra"
)

func newDaemonCmd() *cobra.Command {
	var (
		addr         string
		dev          bool
		pprofAddr    string
		enableOtel   bool
		syncInterval time.Duration
		logJSON      bool
	)

	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Internal: run daemon process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.ConfigFrom(cmd.Context())
			if addr != "" {
				cfg.Addr = addr
			}
			return daemon.StartForeground(cmd.Context(), daemon.StartOptions{
				Home:         config.MustHomeFrom(cmd.Context()),
				Config:       cfg,
				Dev:          dev,
				PprofAddr:    pprofAddr,
				EnableOtel:   enableOtel,
				SyncInterval: syncInterval,
				LogJSON:      logJSON,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode")
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	cmd.Flags().BoolVar(&enableOtel, "otel", false, "Enable OpenTelemetry metrics")
	cmd.Flags().DurationVar(&syncInterval, "sync-interval", 0, "Remote sync interval (0 disables)")

	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Write structured JSON logs")

	return cmd
}
