package address

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/walletfeed/chainfeed/types"
)

func TestFromPublicKey(t *testing.T) {
	testcases := []struct {
		name     string
		pubKey   string
		expected string
	}{
		{
			name:     "compressed key",
			pubKey:   "0308518cf944ece57f0bedc155deb093e1fb8f73aadbd025687a0409cae9ed19b1",
			expected: "8885906da076a450138ff794796530a34b958b91",
		},
		{
			name:     "0x prefixed key",
			pubKey:   "0x0308518cf944ece57f0bedc155deb093e1fb8f73aadbd025687a0409cae9ed19b1",
			expected: "8885906da076a450138ff794796530a34b958b91",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := FromPublicKey(tc.pubKey)
			require.NoError(t, err)
			require.Equal(t, tc.expected, addr)
		})
	}
}

func TestFromPublicKeyErrors(t *testing.T) {
	for _, input := range []string{"", "0x", "zz", "030"} {
		_, err := FromPublicKey(input)
		require.True(t, types.IsErrorType(err, types.ErrTypeInvalidInput), "input %q", input)
	}
}

func TestBech32Conversions(t *testing.T) {
	text, err := ToBech32("zil", "8885906da076a450138ff794796530a34b958b91")
	require.NoError(t, err)
	require.Equal(t, "zil13zzeqmdqw6j9qyu07728jefs5d9etzu363sk2x", text)

	hexAddr, err := FromBech32("zil", "zil1w7f636xqn5vf6n2zrnjmckekw3jkckkpyrd6z8")
	require.NoError(t, err)
	require.Equal(t, "0x7793a8e8c09d189d4d421ce5bc5b3674656c5ac1", hexAddr)

	zero, err := ToBech32("zil", "0x"+ZeroAddress)
	require.NoError(t, err)
	require.Equal(t, "zil1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq9yf6pz", zero)

	require.True(t, IsBech32("zil", text))
	require.False(t, IsBech32("io", text))
	require.False(t, IsBech32("test", "test1qep0uve"))
}

func TestToBech32RejectsWrongLength(t *testing.T) {
	_, err := ToBech32("zil", "8885906d")
	require.True(t, types.IsErrorType(err, types.ErrTypeInvalidInput))
}

func TestParse(t *testing.T) {
	fromHex, err := Parse("zil", "0x7793a8e8c09d189d4d421ce5bc5b3674656c5ac1")
	require.NoError(t, err)

	fromText, err := Parse("zil", "zil1w7f636xqn5vf6n2zrnjmckekw3jkckkpyrd6z8")
	require.NoError(t, err)
	require.Equal(t, fromHex, fromText)

	_, err = Parse("zil", "zil1w7f636xqn5vf6n2zrnjmckekw3jkckkpyrd6z9")
	require.True(t, types.IsErrorType(err, types.ErrTypeInvalidChecksum))

	_, err = Parse("zil", "not-an-address")
	require.True(t, types.IsErrorType(err, types.ErrTypeInvalidInput))
}
