package cmd

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/util/address"
)

type convertedAddress struct {
	Input  string `json:"input"`
	Hex    string `json:"hex"`
	Bech32 string `json:"bech32"`
}

func addressCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "address <address...>",
		Short: "Convert addresses between hex and bech32",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := convertAddresses(prefix, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", config.DefaultAddressPrefix, "human-readable address prefix")

	return cmd
}

func convertAddresses(prefix string, inputs []string) ([]convertedAddress, error) {
	out := make([]convertedAddress, 0, len(inputs))
	for _, input := range inputs {
		addr, err := address.Parse(prefix, input)
		if err != nil {
			return nil, err
		}
		text, err := address.ToBech32(prefix, addr.Hex())
		if err != nil {
			return nil, err
		}
		out = append(out, convertedAddress{Input: input, Hex: hexutil.Encode(addr.Bytes()), Bech32: text})
	}
	return out, nil
}
