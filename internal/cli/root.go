package cli

import (
	"os"

	"github.com/aegiswhistle/aegis/internal/config"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	var (
		homeOverride string
		configPath   string
	)

	cmd := &cobra.Command{
		Use:          "aegis",
		Short:        "Aegis: whistleblower report intake and case management",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			home, err := config.ResolveHome(homeOverride)
			if err != nil {
				return err
			}
			ctx := config.WithHome(cmd.Context(), home)
			if !skipsConfig(cmd) {
				cfg, err := config.Load(home, configPath)
				if err != nil {
					return err
				}
				ctx = config.WithConfig(ctx, cfg)
			}
			cmd.SetContext(ctx)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&homeOverride, "home", "", "Override Aegis home directory (default: ~/.aegis, env: AEGIS_HOME)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <home>/config.yaml)")

	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())

	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newUsersCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newApikeyCmd())

	// Hidden internal subcommand used by `aegis start` for background mode.
	cmd.AddCommand(newDaemonCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}

// skipsConfig is true for commands that must work with a broken or missing config.yaml.
func skipsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "apikey", "stop":
			return true
		}
	}
	return false
}

// configPathFlag returns the --config value (empty for the default location).
func configPathFlag(cmd *cobra.Command) string {
	if f := cmd.Flag("config"); f != nil {
		return f.Value.String()
	}
	return ""
}
