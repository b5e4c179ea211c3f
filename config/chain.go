package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/walletfeed/chainfeed/types"
)

const (
	DefaultZilliqaRpcUrls = "https://ssn.zilpay.io/api,https://zilliqa.avely.fi/api,https://api.zilliqa.com"
	DefaultChunkSize      = 2
	MaxChunkSize          = 1000
	DefaultAddressPrefix  = "zil"
	// ZilSwap exchange contract
	DefaultDexContract = "ba11eb7bcc0a02e947acf03cc651bfaf19c9ec00"
)

type ChainConfig struct {
	RpcUrls       []string
	ChunkSize     int
	StrictChunks  bool
	DexContract   string
	AddressPrefix string
	Environment   string
}

func setChainDefaults() {
	viper.SetDefault("ZILLIQA_RPC_URLS", DefaultZilliqaRpcUrls)
	viper.SetDefault("RPC_CHUNK_SIZE", DefaultChunkSize)
	viper.SetDefault("RPC_STRICT_CHUNKS", false)
	viper.SetDefault("DEX_CONTRACT", DefaultDexContract)
	viper.SetDefault("ADDRESS_PREFIX", DefaultAddressPrefix)
}

func loadChainConfig() *ChainConfig {
	return &ChainConfig{
		RpcUrls:       splitList(viper.GetString("ZILLIQA_RPC_URLS")),
		ChunkSize:     viper.GetInt("RPC_CHUNK_SIZE"),
		StrictChunks:  viper.GetBool("RPC_STRICT_CHUNKS"),
		DexContract:   viper.GetString("DEX_CONTRACT"),
		AddressPrefix: viper.GetString("ADDRESS_PREFIX"),
		Environment:   viper.GetString("ENVIRONMENT"),
	}
}

func (cc ChainConfig) Validate() error {
	if len(cc.RpcUrls) == 0 {
		return types.NewValidationError("ZILLIQA_RPC_URLS", "required field is missing")
	}
	for _, rpcUrl := range cc.RpcUrls {
		if err := validateHTTPURL("ZILLIQA_RPC_URLS", rpcUrl); err != nil {
			return err
		}
	}

	if cc.ChunkSize < 1 || cc.ChunkSize > MaxChunkSize {
		return types.NewInvalidValueError("RPC_CHUNK_SIZE", fmt.Sprintf("%d", cc.ChunkSize), fmt.Sprintf("must be between 1 and %d", MaxChunkSize))
	}

	if len(cc.DexContract) == 0 {
		return types.NewValidationError("DEX_CONTRACT", "is required")
	}

	if len(cc.AddressPrefix) == 0 {
		return types.NewValidationError("ADDRESS_PREFIX", "is required")
	}

	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return types.NewInvalidValueError(field, raw, fmt.Sprintf("invalid URL: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return types.NewInvalidValueError(field, raw, fmt.Sprintf("must use http or https scheme, got: %s", u.Scheme))
	}
	return nil
}

// splitList splits a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
