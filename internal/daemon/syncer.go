package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/aegiswhistle/aegis/internal/httpapi"
)

// runSyncer periodically pushes reports that were saved to the local fallback while the remote
// store was unreachable, and publishes a report_update event when anything moved.
func runSyncer(ctx context.Context, interval time.Duration, app *httpapi.App) {
	if interval <= 0 || app.Desk.Fallback == nil || !app.Desk.Primary.Remote() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncOnce(ctx, app)
		}
	}
}

func syncOnce(ctx context.Context, app *httpapi.App) {
	res, err := app.Desk.Sync(ctx)
	if err != nil {
		slog.Debug("sync skipped", "err", err)
		return
	}
	moved := len(res.Inserted) + len(res.Updated)
	if moved == 0 && len(res.Failed) == 0 {
		return
	}
	slog.Info("synced local reports", "inserted", len(res.Inserted), "updated", len(res.Updated), "failed", len(res.Failed))
	if moved > 0 {
		app.Hub.PublishJSON(map[string]any{"type": "report_update", "synced": moved})
	}
}
