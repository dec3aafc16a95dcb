package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/aegiswhistle/aegis/internal/identity"
	"github.com/aegiswhistle/aegis/internal/store/postgres"
	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the user directory (ethics officers, investigators, admins)",
	}
	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersInitCmd())
	cmd.AddCommand(newUsersReportsCmd())
	cmd.AddCommand(newUsersPushCmd())
	return cmd
}

func newUsersListCmd() *cobra.Command {
	var investigators bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users (users.yaml, or the built-in demo directory)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := identity.Load(config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			users := dir.Users
			if investigators {
				users = dir.Investigators()
			}
			for _, u := range users {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- %s  %s <%s> (%s)\n", u.ID, u.Name, u.Email, u.Role)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&investigators, "investigators", false, "Only users reports can be assigned to")
	return cmd
}

func newUsersInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the demo directory to <home>/users.yaml for editing",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			path := identity.Path(home)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists (use --force to overwrite)", path)
			}
			if err := identity.Save(home, identity.Demo()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing users.yaml")
	return cmd
}

func newUsersReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports <user-id>",
		Short: "List the reports assigned to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			reports, err := d.AssignedTo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No assigned reports.")
				return nil
			}
			for _, r := range reports {
				printReportLine(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	return cmd
}

func newUsersPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upsert the directory into the remote profiles table (postgres backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.ConfigFrom(ctx)
			if cfg.Backend != config.BackendPostgres {
				return errors.New("users push requires backend postgres")
			}
			dir, err := identity.Load(config.MustHomeFrom(ctx))
			if err != nil {
				return err
			}
			st, err := postgres.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			for _, u := range dir.Users {
				if err := st.UpsertProfile(ctx, u); err != nil {
					return fmt.Errorf("upsert %s: %w", u.ID, err)
				}
			}
			profiles, err := st.ListProfiles(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d users (%d profiles remote)\n", len(dir.Users), len(profiles))
			return nil
		},
	}
	return cmd
}
