package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/walletfeed/chainfeed/worker"
)

func poolsCmd() *cobra.Command {
	var dexContract string

	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Print the non-empty pools of the DEX contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if dexContract == "" {
				dexContract = rt.cfg.GetChainConfig().DexContract
			}

			pools, err := rt.reader.Pools(cmd.Context(), dexContract)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), worker.PoolRows(pools, time.Now().UTC()))
		},
	}

	cmd.Flags().StringVar(&dexContract, "contract", "", "DEX contract address, defaults to DEX_CONTRACT")

	return cmd
}
