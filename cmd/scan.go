package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/walletfeed/chainfeed/worker"
)

func scanCmd() *cobra.Command {
	var (
		from, to uint64
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List contract deployments in a range of tx blocks",
		Long: `
List contract deployments in a range of tx blocks.

Each deployment carries the owner derived from its init_admin_pubkey and the
deployed contract address. With --save the results are stored, which requires DB_DSN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to < from {
				return fmt.Errorf("--to (%d) must not be below --from (%d)", to, from)
			}

			rt, err := newRuntime(cmd.Context(), save)
			if err != nil {
				return err
			}
			defer rt.Close()

			if save && rt.db == nil {
				return fmt.Errorf("--save requires DB_DSN")
			}

			var store worker.DeploymentStore
			if rt.db != nil {
				store = rt.db
			}
			scanner := worker.NewDeploymentScanner(rt.cfg, rt.reader, store, to-from+1, rt.logger)

			deployments, err := scanner.ScanRange(cmd.Context(), from, to)
			if err != nil {
				return err
			}

			if save {
				if err := rt.db.InsertDeployments(cmd.Context(), worker.DeploymentRows(deployments)); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), deployments)
		},
	}

	cmd.Flags().Uint64Var(&from, "from", 0, "first tx block")
	cmd.Flags().Uint64Var(&to, "to", 0, "last tx block")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().BoolVar(&save, "save", false, "store deployments in the database")

	return cmd
}
