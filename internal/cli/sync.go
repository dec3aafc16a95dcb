package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push reports saved locally while the remote store was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if d.Fallback == nil || !d.Primary.Remote() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backend %s is local; nothing to sync.\n", d.Primary.Kind())
				return nil
			}
			res, err := d.Sync(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(res.Inserted))
			for local := range res.Inserted {
				ids = append(ids, local)
			}
			sort.Strings(ids)
			for _, local := range ids {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- %s -> %s\n", local, res.Inserted[local])
			}
			for _, id := range res.Updated {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- %s updated\n", id)
			}
			for _, id := range res.Failed {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "- %s failed\n", id)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Synced %d, failed %d\n", len(res.Inserted)+len(res.Updated), len(res.Failed))
			return nil
		},
	}
	return cmd
}
