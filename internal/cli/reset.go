package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/aegiswhistle/aegis/internal/store"
	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard locally stored reports and seed overrides (remote reports are untouched)",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			local := d.Primary
			if d.Fallback != nil {
				local = d.Fallback
			}
			if local.Remote() {
				return fmt.Errorf("backend %s has no local store to reset", local.Kind())
			}

			if !yes {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "WARNING: this discards every report stored locally and restores the demo reports.")
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Store: %s in %s\n", local.Kind(), config.MustHomeFrom(cmd.Context()))
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), `Type "reset" to confirm:`)

				in := bufio.NewReader(cmd.InOrStdin())
				line, err := in.ReadString('\n')
				if err != nil && !strings.Contains(err.Error(), "EOF") {
					return err
				}
				if strings.TrimSpace(line) != "reset" {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if err := local.SaveAll(cmd.Context(), store.Seeds()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Reset.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip confirmation prompt")
	return cmd
}
