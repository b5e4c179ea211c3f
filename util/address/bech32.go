// Package address converts between checksummed text addresses and raw 20-byte
// account addresses, and derives account addresses from public keys.
package address

import (
	"fmt"
	"strings"

	"github.com/walletfeed/chainfeed/types"
)

const (
	Alphabet       = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	Separator      = '1'
	MaxLength      = 90
	ChecksumLength = 6
)

var generator = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

// alphabetIndex maps a character to its 5-bit value, -1 when not in Alphabet.
var alphabetIndex = func() [128]int8 {
	var idx [128]int8
	for i := range idx {
		idx[i] = -1
	}
	for i, c := range Alphabet {
		idx[c] = int8(i)
	}
	return idx
}()

// Polymod computes the BCH checksum register over values. Values are XOR-ed in
// as given, so symbols wider than 5 bits still affect the result.
func Polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i, g := range generator {
			if (top>>uint(i))&1 == 1 {
				chk ^= g
			}
		}
	}
	return chk
}

// ExpandPrefix returns the high 3 bits of each prefix character, a zero, then
// the low 5 bits of each character.
func ExpandPrefix(prefix string) []byte {
	out := make([]byte, 0, len(prefix)*2+1)
	for i := 0; i < len(prefix); i++ {
		out = append(out, prefix[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(prefix); i++ {
		out = append(out, prefix[i]&31)
	}
	return out
}

// Checksum returns the six 5-bit checksum symbols for prefix and data.
func Checksum(prefix string, data []byte) []byte {
	values := append(ExpandPrefix(prefix), data...)
	values = append(values, make([]byte, ChecksumLength)...)
	mod := Polymod(values) ^ 1

	out := make([]byte, ChecksumLength)
	for i := range out {
		out[i] = byte(mod>>uint(5*(5-i))) & 31
	}
	return out
}

func verifyChecksum(prefix string, data []byte) bool {
	return Polymod(append(ExpandPrefix(prefix), data...)) == 1
}

// Encode renders prefix, separator, data and checksum as text. Symbols that do
// not fit in 5 bits have no character and are left out of the text, though the
// checksum still covers them.
func Encode(prefix string, data []byte) (string, error) {
	if err := validatePrefix(prefix); err != nil {
		return "", err
	}
	prefix = strings.ToLower(prefix)

	var sb strings.Builder
	sb.Grow(len(prefix) + 1 + len(data) + ChecksumLength)
	sb.WriteString(prefix)
	sb.WriteByte(Separator)
	for _, v := range append(append([]byte{}, data...), Checksum(prefix, data)...) {
		if int(v) < len(Alphabet) {
			sb.WriteByte(Alphabet[v])
		}
	}

	if sb.Len() > MaxLength {
		return "", types.NewInvalidFormatError(fmt.Sprintf("encoded length %d exceeds %d", sb.Len(), MaxLength))
	}
	return sb.String(), nil
}

// Decode splits text into its lower-cased prefix and data symbols, verifying
// the checksum. Characters outside Alphabet are rejected.
func Decode(s string) (string, []byte, error) {
	if len(s) > MaxLength {
		return "", nil, types.NewInvalidFormatError(fmt.Sprintf("length %d exceeds %d", len(s), MaxLength))
	}

	lower := strings.ToLower(s)
	if lower != s && strings.ToUpper(s) != s {
		return "", nil, types.NewInvalidFormatError("mixed case")
	}
	for i := 0; i < len(lower); i++ {
		if lower[i] < 33 || lower[i] > 126 {
			return "", nil, types.NewInvalidFormatError(fmt.Sprintf("invalid character at position %d", i))
		}
	}

	pos := strings.LastIndexByte(lower, Separator)
	if pos < 1 || pos+ChecksumLength+1 > len(lower) {
		return "", nil, types.NewInvalidFormatError("missing or misplaced separator")
	}

	prefix := lower[:pos]
	data := make([]byte, 0, len(lower)-pos-1)
	for i := pos + 1; i < len(lower); i++ {
		v := alphabetIndex[lower[i]]
		if v < 0 {
			return "", nil, types.NewInvalidFormatError(fmt.Sprintf("character %q at position %d is not in the alphabet", lower[i], i))
		}
		data = append(data, byte(v))
	}

	if !verifyChecksum(prefix, data) {
		return "", nil, types.NewInvalidChecksumError(s)
	}

	return prefix, data[:len(data)-ChecksumLength], nil
}

// ConvertBits regroups a sequence of fromBits-wide values into toBits-wide
// values. Without pad, leftover bits must be fewer than fromBits and all zero.
func ConvertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	if fromBits < 1 || fromBits > 8 || toBits < 1 || toBits > 8 {
		return nil, types.NewBitPackingError(fmt.Sprintf("unsupported widths %d -> %d", fromBits, toBits))
	}

	var (
		acc  uint32
		bits uint
		out  = make([]byte, 0, len(data)*int(fromBits)/int(toBits)+1)
	)
	maxv := uint32(1)<<toBits - 1

	for i, v := range data {
		if uint32(v)>>fromBits != 0 {
			return nil, types.NewBitPackingError(fmt.Sprintf("value %d at position %d exceeds %d bits", v, i, fromBits))
		}
		acc = acc<<fromBits | uint32(v)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte(acc>>bits&maxv))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte(acc<<(toBits-bits)&maxv))
		}
	} else if bits >= fromBits {
		return nil, types.NewBitPackingError("excess padding")
	} else if acc<<(toBits-bits)&maxv != 0 {
		return nil, types.NewBitPackingError("non-zero padding")
	}

	return out, nil
}

func validatePrefix(prefix string) error {
	if len(prefix) == 0 {
		return types.NewInvalidFormatError("empty prefix")
	}
	for i := 0; i < len(prefix); i++ {
		if prefix[i] < 33 || prefix[i] > 126 {
			return types.NewInvalidFormatError(fmt.Sprintf("invalid prefix character at position %d", i))
		}
	}
	return nil
}
