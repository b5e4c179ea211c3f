package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/types"
)

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.ElementsMatch(t, []string{"api", "worker", "quote", "address", "pools", "scan", "version"}, names)
}

func TestConvertAddresses(t *testing.T) {
	out, err := convertAddresses("zil", []string{
		"zil1w7f636xqn5vf6n2zrnjmckekw3jkckkpyrd6z8",
		"8885906da076a450138ff794796530a34b958b91",
	})
	require.NoError(t, err)
	require.Equal(t, []convertedAddress{
		{
			Input:  "zil1w7f636xqn5vf6n2zrnjmckekw3jkckkpyrd6z8",
			Hex:    "0x7793a8e8c09d189d4d421ce5bc5b3674656c5ac1",
			Bech32: "zil1w7f636xqn5vf6n2zrnjmckekw3jkckkpyrd6z8",
		},
		{
			Input:  "8885906da076a450138ff794796530a34b958b91",
			Hex:    "0x8885906da076a450138ff794796530a34b958b91",
			Bech32: "zil13zzeqmdqw6j9qyu07728jefs5d9etzu363sk2x",
		},
	}, out)

	_, err = convertAddresses("zil", []string{"zil1w7f636xqn5vf6n2zrnjmckekw3jkckkpyrd6z9"})
	require.True(t, types.IsErrorType(err, types.ErrTypeInvalidChecksum))
}

func TestAddressCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"address", "0x7793a8e8c09d189d4d421ce5bc5b3674656c5ac1"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), `"bech32": "zil1w7f636xqn5vf6n2zrnjmckekw3jkckkpyrd6z8"`)
}

func TestVersionCommand(t *testing.T) {
	SetVersion("v1.2.3", "abc123")
	t.Cleanup(func() { SetVersion("dev", "unknown") })

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Equal(t, "v1.2.3 (abc123)\n", out.String())
	require.Equal(t, "v1.2.3", config.Version)
}
