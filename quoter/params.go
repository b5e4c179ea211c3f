// Package quoter prices tokens against a reference asset by batching
// read-only calls to an on-chain quoter contract.
package quoter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/util/address"
)

const DefaultAddressPrefix = "zil"

type QuoteParams struct {
	Quoter         common.Address
	ReferenceAsset common.Address
	FeeTier        uint32
	AmountIn       *big.Int
	PriceLimit     *big.Int
	// TokenDecimals makes a token quote one whole unit, 10^decimals, instead
	// of AmountIn.
	TokenDecimals map[common.Address]uint8
	// AddressPrefix is accepted on text-form token addresses.
	AddressPrefix string
}

func DefaultQuoteParams() QuoteParams {
	amountIn, _ := new(big.Int).SetString(config.DefaultQuoteAmountIn, 10)
	return QuoteParams{
		Quoter:         common.HexToAddress(config.DefaultQuoterAddress),
		ReferenceAsset: common.HexToAddress(config.DefaultReferenceAssetAddress),
		FeeTier:        config.DefaultQuoteFeeTier,
		AmountIn:       amountIn,
		PriceLimit:     new(big.Int),
		TokenDecimals:  map[common.Address]uint8{},
		AddressPrefix:  DefaultAddressPrefix,
	}
}

// AmountFor returns the input amount quoted for token.
func (p QuoteParams) AmountFor(token common.Address) *big.Int {
	if decimals, ok := p.TokenDecimals[token]; ok {
		return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	}
	return p.AmountIn
}

func decimalsByAddress(decimals map[string]uint8, prefix string) (map[common.Address]uint8, error) {
	out := make(map[common.Address]uint8, len(decimals))
	for token, d := range decimals {
		addr, err := address.Parse(prefix, token)
		if err != nil {
			return nil, types.NewInvalidValueError("QUOTE_TOKENS", token, "must be a 20-byte address")
		}
		out[addr] = d
	}
	return out, nil
}

// ParamsFromConfig overrides the defaults with configured contract addresses,
// quote amounts and token decimals.
func ParamsFromConfig(qc *config.QuoterConfig, prefix string) (QuoteParams, error) {
	p := DefaultQuoteParams()
	if qc == nil {
		return p, nil
	}

	if !common.IsHexAddress(qc.QuoterAddress) {
		return p, types.NewInvalidValueError("QUOTER_ADDRESS", qc.QuoterAddress, "must be a hex address")
	}
	if !common.IsHexAddress(qc.ReferenceAssetAddress) {
		return p, types.NewInvalidValueError("REFERENCE_ASSET_ADDRESS", qc.ReferenceAssetAddress, "must be a hex address")
	}

	p.Quoter = common.HexToAddress(qc.QuoterAddress)
	p.ReferenceAsset = common.HexToAddress(qc.ReferenceAssetAddress)
	p.FeeTier = qc.FeeTier
	if qc.AmountIn != nil {
		p.AmountIn = new(big.Int).Set(qc.AmountIn)
	}
	if prefix != "" {
		p.AddressPrefix = prefix
	}

	configured, err := decimalsByAddress(qc.TokenDecimals, p.AddressPrefix)
	if err != nil {
		return p, err
	}
	for token, decimals := range configured {
		p.TokenDecimals[token] = decimals
	}
	return p, nil
}
