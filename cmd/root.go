package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/walletfeed/chainfeed/config"
)

func SetVersion(version, commit string) {
	config.SetBuildInfo(version, commit)
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chainfeed",
		Short:         "Token prices and chain data for wallet backends",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(apiCmd())
	cmd.AddCommand(workerCmd())
	cmd.AddCommand(quoteCmd())
	cmd.AddCommand(addressCmd())
	cmd.AddCommand(poolsCmd())
	cmd.AddCommand(scanCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", config.Version, config.CommitHash)
		},
	}
}
