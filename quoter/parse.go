package quoter

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/walletfeed/chainfeed/types"
)

const maxAmountBits = 256

type QuotedAmount struct {
	RequestID int
	Amount    *big.Int
}

// batchElement keeps every member raw so absent members stay distinguishable
// from zero values.
type batchElement struct {
	ID     json.RawMessage     `json:"id"`
	Result json.RawMessage     `json:"result"`
	Error  *types.JSONRPCError `json:"error"`
}

// ParseBatch validates a quote batch response against the expected number of
// requests (ids 1..expected) and returns the quoted amounts ordered by id.
// Elements may arrive in any order.
func ParseBatch(payload []byte, expected int) ([]QuotedAmount, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(payload, &elements); err != nil || elements == nil {
		return nil, types.NewNotAnArrayError()
	}
	if len(elements) != expected {
		return nil, types.NewMismatchedCountError(expected, len(elements))
	}

	amounts := make([]*big.Int, expected)
	for _, raw := range elements {
		var elem batchElement
		if err := json.Unmarshal(raw, &elem); err != nil {
			return nil, types.NewInvalidIDError(string(raw))
		}

		id, ok := parseID(elem.ID, expected)
		if !ok {
			return nil, types.NewInvalidIDError(string(elem.ID))
		}
		if amounts[id-1] != nil {
			return nil, types.NewDuplicateIDError(id)
		}
		if elem.Error != nil {
			return nil, types.NewRPCError(id, elem.Error.Code, elem.Error.Message)
		}

		var result string
		if len(elem.Result) == 0 || string(elem.Result) == "null" || json.Unmarshal(elem.Result, &result) != nil {
			return nil, types.NewMissingResultError(id)
		}

		amount, err := parseAmount(result)
		if err != nil {
			return nil, types.NewHexDecodeError(id, result, err)
		}
		amounts[id-1] = amount
	}

	var missing []int
	for i, amount := range amounts {
		if amount == nil {
			missing = append(missing, i+1)
		}
	}
	if len(missing) > 0 {
		return nil, types.NewIncompleteBatchError(missing)
	}

	out := make([]QuotedAmount, expected)
	for i, amount := range amounts {
		out[i] = QuotedAmount{RequestID: i + 1, Amount: amount}
	}
	return out, nil
}

// parseID accepts only a bare JSON integer in [1, expected].
func parseID(raw json.RawMessage, expected int) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || id < 1 || id > expected {
		return 0, false
	}
	return id, true
}

func parseAmount(result string) (*big.Int, error) {
	digits := result
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
	}
	if digits == "" {
		return nil, errEmptyHex
	}
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return nil, errNotHex
		}
	}

	amount, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, errNotHex
	}
	if amount.BitLen() > maxAmountBits {
		return nil, errTooWide
	}
	return amount, nil
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// ToPrice scales amount down by 10^decimals.
func ToPrice(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	price, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), scale).Float64()
	return price
}
