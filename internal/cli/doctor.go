package cli

import (
	"errors"
	"fmt"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/aegiswhistle/aegis/internal/identity"
	"github.com/aegiswhistle/aegis/internal/store/backend"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify configuration, user directory and backend connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			home := config.MustHomeFrom(ctx)
			cfg := config.ConfigFrom(ctx)

			var problems []string

			if _, err := identity.Load(home); err != nil {
				problems = append(problems, fmt.Sprintf("user directory: %v", err))
			}

			stores, err := backend.Open(ctx, home, cfg)
			if err != nil {
				problems = append(problems, fmt.Sprintf("backend %s: %v", cfg.Backend, err))
			} else {
				defer func() { _ = stores.Close() }()
				if _, err := stores.Primary.LoadAll(ctx); err != nil {
					problems = append(problems, fmt.Sprintf("backend %s: load reports: %v", stores.Primary.Kind(), err))
				}
				if stores.Fallback != nil {
					if _, err := stores.Fallback.LoadAll(ctx); err != nil {
						problems = append(problems, fmt.Sprintf("fallback %s: load reports: %v", stores.Fallback.Kind(), err))
					}
				}
			}

			if len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok (backend %s)\n", cfg.Backend)
			return nil
		},
	}
	return cmd
}
