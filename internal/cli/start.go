package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/aegiswhistle/aegis/internal/daemon"
	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	var (
		addr         string
		foreground   bool
		dev          bool
		pprofAddr    string
		envFile      string
		enableOtel   bool
		syncInterval time.Duration
		logJSON      bool
	)

	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"serve"},
		Short:   "Start the Aegis API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			cfg := config.ConfigFrom(cmd.Context())
			if envFile != "" {
				if err := loadEnvFile(envFile); err != nil {
					return err
				}
				// Reload so DATABASE_URL, AEGIS_API_KEY etc. from the file take effect.
				var err error
				if cfg, err = config.Load(home, configPathFlag(cmd)); err != nil {
					return err
				}
			}
			if addr != "" {
				cfg.Addr = addr
			}

			opts := daemon.StartOptions{
				Home:         home,
				ConfigPath:   configPathFlag(cmd),
				Config:       cfg,
				Dev:          dev,
				PprofAddr:    pprofAddr,
				EnableOtel:   enableOtel,
				SyncInterval: syncInterval,
				LogJSON:      logJSON,
			}

			if foreground {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting Aegis in foreground on %s (backend %s)\n", daemon.BaseURL(cfg.Addr), cfg.Backend)
				return daemon.StartForeground(cmd.Context(), opts)
			}

			pid, err := daemon.StartBackground(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Aegis started (pid %d)\n", pid)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "API: %s\n", daemon.BaseURL(cfg.Addr))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, "+config.DefaultAddr+")")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground (do not daemonize)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode (CORS for a dashboard on another origin)")
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load env vars from file (KEY=VALUE per line) before starting")
	cmd.Flags().BoolVar(&enableOtel, "otel", true, "Enable OpenTelemetry metrics (Prometheus exporter, HTTP/SSE/report instrumentation)")
	cmd.Flags().DurationVar(&syncInterval, "sync-interval", time.Minute, "Push locally saved reports to the remote store this often (0 disables)")

	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Write structured JSON logs")

	return cmd
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		if key != "" {
			_ = os.Setenv(key, value)
		}
	}
	return sc.Err()
}
