package cli

import (
	"fmt"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/aegiswhistle/aegis/internal/daemon"
	"github.com/aegiswhistle/aegis/pkg/client"
	"github.com/aegiswhistle/aegis/pkg/models"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Aegis daemon status and report counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			st, err := daemon.Status(cmd.Context(), home)
			if err != nil {
				return err
			}
			if !st.Running {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aegis not running")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Aegis running (pid %d, addr %s)\n", st.PID, st.Addr)

			c := client.New(daemon.BaseURL(st.Addr), config.ConfigFrom(cmd.Context()).APIKey)
			info, err := c.Config(cmd.Context())
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "API unreachable: %v\n", err)
				return nil
			}
			backend := info.Backend
			if info.Fallback != "" {
				backend += " (fallback " + info.Fallback + ")"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s\n", backend)
			if counts, err := c.Counts(cmd.Context()); err == nil {
				for _, s := range models.Statuses {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %-13s %d\n", s.Label(), counts[s])
				}
			}
			return nil
		},
	}
	return cmd
}
