package address

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/walletfeed/chainfeed/types"
)

const AddressLength = common.AddressLength

// ZeroAddress is the recipient of contract deployment transactions.
const ZeroAddress = "0000000000000000000000000000000000000000"

// FromPublicKey derives the account address of a hex-encoded public key: the
// low 20 bytes of its SHA-256 digest, as 40 lower-case hex characters.
func FromPublicKey(pubKeyHex string) (string, error) {
	pubKey, err := decodeHex(pubKeyHex)
	if err != nil {
		return "", types.NewInvalidInputError(fmt.Sprintf("public key is not valid hex: %v", err))
	}
	if len(pubKey) == 0 {
		return "", types.NewInvalidInputError("public key is empty")
	}

	digest := sha256.Sum256(pubKey)
	return common.Bytes2Hex(digest[len(digest)-AddressLength:]), nil
}

// ToBech32 renders a 20-byte hex address (with or without 0x) as text with
// the given prefix.
func ToBech32(prefix, hexAddr string) (string, error) {
	raw, err := decodeHex(hexAddr)
	if err != nil || len(raw) != AddressLength {
		return "", types.NewInvalidInputError(fmt.Sprintf("%s is not a %d-byte hex address", hexAddr, AddressLength))
	}

	data, err := ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	return Encode(prefix, data)
}

// FromBech32 parses a text address carrying prefix and returns its 0x hex form.
func FromBech32(prefix, text string) (string, error) {
	raw, err := decodeBech32(prefix, text)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(raw), nil
}

// IsBech32 reports whether text is a valid address with the given prefix.
func IsBech32(prefix, text string) bool {
	_, err := decodeBech32(prefix, text)
	return err == nil
}

// Parse accepts either a hex address (with or without 0x) or a text address
// with the given prefix and returns the 20 raw bytes.
func Parse(prefix, s string) (common.Address, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	if strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix)+string(Separator)) {
		raw, err := decodeBech32(prefix, s)
		if err != nil {
			return common.Address{}, err
		}
		return common.BytesToAddress(raw), nil
	}
	return common.Address{}, types.NewInvalidInputError(fmt.Sprintf("%q is neither a hex nor a %s address", s, prefix))
}

func decodeBech32(prefix, text string) ([]byte, error) {
	gotPrefix, data, err := Decode(text)
	if err != nil {
		return nil, err
	}
	if gotPrefix != strings.ToLower(prefix) {
		return nil, types.NewInvalidFormatError(fmt.Sprintf("expected prefix %s, got %s", prefix, gotPrefix))
	}

	raw, err := ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, err
	}
	if len(raw) != AddressLength {
		return nil, types.NewInvalidFormatError(fmt.Sprintf("decoded %d bytes, expected %d", len(raw), AddressLength))
	}
	return raw, nil
}

func decodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}
