package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/walletfeed/chainfeed/types"
)

const (
	DefaultEvmRpcUrl              = "https://mainnet.infura.io/v3/"
	DefaultQuoterAddress          = "0xb27308f9F90D607463bb33eA1BeBb41C27CE5AB6"
	DefaultReferenceAssetAddress  = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	DefaultQuoteFeeTier           = 3000
	DefaultQuoteAmountIn          = "1000000000000000000"
	DefaultReferenceAssetDecimals = 18
	DefaultQuoteBatchSize         = 20
	MaxFeeTier                    = 1<<24 - 1

	// 10^77 is the largest power of ten that fits in uint256.
	MaxTokenDecimals = 77

	// WBTC, DAI, USDT, USDC as address:decimals
	DefaultQuoteTokens = "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599:8,0x6B175474E89094C44Da98b954EedeAC495271d0F:18,0xdAC17F958D2ee523a2206206994597C13D831ec7:6,0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48:6"

	EnvInfuraApiKey = "INFURA_API_KEY"
)

type QuoterConfig struct {
	RpcUrl                 string
	ApiKey                 string
	QuoterAddress          string
	ReferenceAssetAddress  string
	FeeTier                uint32
	AmountIn               *big.Int
	ReferenceAssetDecimals uint8
	BatchSize              int
	Tokens                 []string
	// TokenDecimals holds the decimals given in QUOTE_TOKENS, keyed by the
	// address as written there.
	TokenDecimals map[string]uint8
}

func setQuoterDefaults() {
	viper.SetDefault("EVM_RPC_URL", DefaultEvmRpcUrl)
	viper.SetDefault(EnvInfuraApiKey, "")
	viper.SetDefault("QUOTER_ADDRESS", DefaultQuoterAddress)
	viper.SetDefault("REFERENCE_ASSET_ADDRESS", DefaultReferenceAssetAddress)
	viper.SetDefault("QUOTE_FEE_TIER", DefaultQuoteFeeTier)
	viper.SetDefault("QUOTE_AMOUNT_IN", DefaultQuoteAmountIn)
	viper.SetDefault("REFERENCE_ASSET_DECIMALS", DefaultReferenceAssetDecimals)
	viper.SetDefault("QUOTE_BATCH_SIZE", DefaultQuoteBatchSize)
	viper.SetDefault("QUOTE_TOKENS", DefaultQuoteTokens)
}

func loadQuoterConfig() (*QuoterConfig, error) {
	rawAmount := viper.GetString("QUOTE_AMOUNT_IN")
	amountIn, ok := new(big.Int).SetString(rawAmount, 10)
	if !ok {
		return nil, types.NewInvalidValueError("QUOTE_AMOUNT_IN", rawAmount, "must be a decimal integer")
	}

	feeTier := viper.GetInt64("QUOTE_FEE_TIER")
	if feeTier < 0 || feeTier > MaxFeeTier {
		return nil, types.NewInvalidValueError("QUOTE_FEE_TIER", fmt.Sprintf("%d", feeTier), "must fit in uint24")
	}

	decimals := viper.GetInt("REFERENCE_ASSET_DECIMALS")
	if decimals < 0 || decimals > 255 {
		return nil, types.NewInvalidValueError("REFERENCE_ASSET_DECIMALS", fmt.Sprintf("%d", decimals), "must fit in uint8")
	}

	tokens, tokenDecimals, err := ParseQuoteTokens(viper.GetString("QUOTE_TOKENS"))
	if err != nil {
		return nil, err
	}

	return &QuoterConfig{
		RpcUrl:                 viper.GetString("EVM_RPC_URL"),
		ApiKey:                 viper.GetString(EnvInfuraApiKey),
		QuoterAddress:          viper.GetString("QUOTER_ADDRESS"),
		ReferenceAssetAddress:  viper.GetString("REFERENCE_ASSET_ADDRESS"),
		FeeTier:                uint32(feeTier),
		AmountIn:               amountIn,
		ReferenceAssetDecimals: uint8(decimals),
		BatchSize:              viper.GetInt("QUOTE_BATCH_SIZE"),
		Tokens:                 tokens,
		TokenDecimals:          tokenDecimals,
	}, nil
}

// ParseQuoteTokens splits a comma separated list of token addresses. An entry
// may carry the token's decimals as address:decimals.
func ParseQuoteTokens(raw string) ([]string, map[string]uint8, error) {
	entries := splitList(raw)
	tokens := make([]string, 0, len(entries))
	decimals := make(map[string]uint8)
	for _, entry := range entries {
		token, rawDecimals, ok := strings.Cut(entry, ":")
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, nil, types.NewInvalidValueError("QUOTE_TOKENS", entry, "missing token address")
		}
		tokens = append(tokens, token)
		if !ok {
			continue
		}

		d, err := strconv.ParseUint(strings.TrimSpace(rawDecimals), 10, 8)
		if err != nil || d > MaxTokenDecimals {
			return nil, nil, types.NewInvalidValueError("QUOTE_TOKENS", entry, fmt.Sprintf("decimals must be an integer from 0 to %d", MaxTokenDecimals))
		}
		decimals[token] = uint8(d)
	}
	return tokens, decimals, nil
}

// Endpoint returns the credentialed quote endpoint. The credential is checked
// here rather than at load time so commands that never quote still start.
func (qc QuoterConfig) Endpoint() (string, error) {
	if qc.RpcUrl == "" {
		return "", types.NewEnvVarError("EVM_RPC_URL")
	}
	if qc.ApiKey == "" {
		return "", types.NewEnvVarError(EnvInfuraApiKey)
	}
	return qc.RpcUrl + qc.ApiKey, nil
}

func (qc QuoterConfig) Validate() error {
	if qc.RpcUrl != "" {
		if err := validateHTTPURL("EVM_RPC_URL", qc.RpcUrl); err != nil {
			return err
		}
	}
	if qc.QuoterAddress == "" {
		return types.NewValidationError("QUOTER_ADDRESS", "is required")
	}
	if qc.ReferenceAssetAddress == "" {
		return types.NewValidationError("REFERENCE_ASSET_ADDRESS", "is required")
	}
	if qc.AmountIn == nil || qc.AmountIn.Sign() <= 0 {
		return types.NewValidationError("QUOTE_AMOUNT_IN", "must be positive")
	}
	if qc.BatchSize < 1 {
		return types.NewValidationError("QUOTE_BATCH_SIZE", "must be at least 1")
	}
	for token, decimals := range qc.TokenDecimals {
		if decimals > MaxTokenDecimals {
			return types.NewValidationError("QUOTE_TOKENS", fmt.Sprintf("%s has more than %d decimals", token, MaxTokenDecimals))
		}
	}
	return nil
}
