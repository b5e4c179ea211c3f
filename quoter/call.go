package quoter

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/util/address"
	"github.com/walletfeed/chainfeed/util/jsonrpc"
)

const (
	MethodEthCall = "eth_call"
	BlockLatest   = "latest"

	QuoteSignature = "quoteExactInputSingle(address,address,uint24,uint256,uint160)"

	// selector plus five 32-byte words
	CallDataLength = 4 + 5*32
)

var (
	QuoteSelector = crypto.Keccak256([]byte(QuoteSignature))[:4]

	maxUint24  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 24), big.NewInt(1))
	maxUint160 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	quoteArguments = mustArguments("address", "address", "uint24", "uint256", "uint160")
)

func mustArguments(typeNames ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(typeNames))
	for _, name := range typeNames {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}

// CallObject is the transaction object of an eth_call.
type CallObject struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// EncodeQuoteCall returns the call data quoting p.AmountFor(tokenIn) of
// tokenIn for the reference asset.
func EncodeQuoteCall(tokenIn common.Address, p QuoteParams) ([]byte, error) {
	fee := new(big.Int).SetUint64(uint64(p.FeeTier))
	if err := checkRange("fee tier", fee, maxUint24); err != nil {
		return nil, err
	}
	amountIn := p.AmountFor(tokenIn)
	if err := checkRange("amount in", amountIn, maxUint256); err != nil {
		return nil, err
	}
	limit := p.PriceLimit
	if limit == nil {
		limit = new(big.Int)
	}
	if err := checkRange("price limit", limit, maxUint160); err != nil {
		return nil, err
	}

	packed, err := quoteArguments.Pack(tokenIn, p.ReferenceAsset, fee, amountIn, limit)
	if err != nil {
		return nil, types.NewAbiEncodingError("arguments", err.Error())
	}

	data := make([]byte, 0, CallDataLength)
	data = append(data, QuoteSelector...)
	return append(data, packed...), nil
}

// BuildQuoteCall builds the eth_call request quoting tokenIn. tokenIn is a
// hex address with or without 0x, or a text address carrying p.AddressPrefix.
func BuildQuoteCall(id int, tokenIn string, p QuoteParams) (types.JSONRPCRequest, error) {
	prefix := p.AddressPrefix
	if prefix == "" {
		prefix = DefaultAddressPrefix
	}
	token, err := address.Parse(prefix, tokenIn)
	if err != nil {
		return types.JSONRPCRequest{}, types.NewInvalidInputError(fmt.Sprintf("token %q is not a 20-byte address: %v", tokenIn, err))
	}

	data, err := EncodeQuoteCall(token, p)
	if err != nil {
		return types.JSONRPCRequest{}, err
	}

	call := CallObject{
		To:   p.Quoter.Hex(),
		Data: hexutil.Encode(data),
	}
	return jsonrpc.NewRequest(id, MethodEthCall, call, BlockLatest), nil
}

// BuildBatch builds one quote call per token with ids 1..N in input order.
func BuildBatch(tokens []string, p QuoteParams) ([]types.JSONRPCRequest, error) {
	if len(tokens) == 0 {
		return nil, types.NewInvalidInputError("no tokens to quote")
	}

	requests := make([]types.JSONRPCRequest, 0, len(tokens))
	for i, token := range tokens {
		req, err := BuildQuoteCall(i+1, token, p)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func checkRange(field string, v, max *big.Int) error {
	if v == nil {
		return types.NewAbiEncodingError(field, "value is missing")
	}
	if v.Sign() < 0 {
		return types.NewAbiEncodingError(field, fmt.Sprintf("%s is negative", v))
	}
	if v.Cmp(max) > 0 {
		return types.NewAbiEncodingError(field, fmt.Sprintf("%s exceeds %d bits", v, max.BitLen()))
	}
	return nil
}
