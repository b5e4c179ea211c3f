package cmd

import (
	"github.com/spf13/cobra"
)

func quoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote [token...]",
		Short: "Quote tokens against the reference asset",
		Long: `
Quote tokens against the reference asset.

Tokens are hex or bech32 addresses. Without arguments QUOTE_TOKENS is quoted.
Requires INFURA_API_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			tokens := args
			if len(tokens) == 0 {
				tokens = rt.cfg.GetQuoterConfig().Tokens
			}

			prices, err := rt.quoter.GetPrices(cmd.Context(), tokens)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), prices)
		},
	}
}
