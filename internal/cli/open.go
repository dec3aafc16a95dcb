package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/aegiswhistle/aegis/internal/desk"
	"github.com/aegiswhistle/aegis/internal/identity"
	"github.com/aegiswhistle/aegis/internal/notify"
	"github.com/aegiswhistle/aegis/internal/store/backend"
	"github.com/aegiswhistle/aegis/pkg/models"
	"github.com/spf13/cobra"
)

// openDesk opens the configured backend and user directory for a one-shot command.
// Notices are printed to stderr and, when configured, posted to Slack.
func openDesk(cmd *cobra.Command) (*desk.Desk, func(), error) {
	ctx := cmd.Context()
	home := config.MustHomeFrom(ctx)
	cfg := config.ConfigFrom(ctx)

	stores, err := backend.Open(ctx, home, cfg)
	if err != nil {
		return nil, nil, err
	}
	dir, err := identity.Load(home)
	if err != nil {
		_ = stores.Close()
		return nil, nil, err
	}
	fan := notify.NewFanout()
	fan.Register("cli", noticePrinter(cmd.ErrOrStderr()))
	if cfg.SlackWebhookURL != "" {
		fan.Register("slack", notify.SlackWebhook{WebhookURL: cfg.SlackWebhookURL, Username: "Aegis"})
	}
	d := desk.New(stores.Primary, stores.Fallback, dir, fan)
	return d, func() { _ = stores.Close() }, nil
}

func noticePrinter(w io.Writer) notify.Notifier {
	return notify.Func(func(_ context.Context, n models.Notice) {
		_, _ = fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
	})
}
