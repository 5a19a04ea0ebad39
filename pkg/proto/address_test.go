package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algonaut/goalgo/pkg/crypto"
)

const zeroAddress = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAY5HFKQ"

func TestZeroAddress(t *testing.T) {
	var a Address
	assert.True(t, a.IsZero())
	assert.Equal(t, zeroAddress, a.String())
	parsed, err := NewAddressFromString(zeroAddress)
	require.NoError(t, err)
	assert.True(t, parsed.IsZero())
}

func TestAddressRoundTrip(t *testing.T) {
	for _, s := range []string{
		"PNWOET7LLOWMBMLE4KOCELCX6X3D3Q4H2Q4QJASYIEOF7YIPPQBG3YQ5YI",
		"IDUTJEUIEVSMXTU4LGTJWZ2UE2E6TIODUKU6UW3FU3UKIQQ77RLUBBBFLA",
		"UPYAFLHSIPMJOHVXU2MPLQ46GXJKSDCEMZ6RLCQ7GWB5PRDKJUWKKXECXI",
	} {
		a, err := NewAddressFromString(s)
		require.NoError(t, err)
		assert.Equal(t, s, a.String())
		b, err := NewAddressFromBytes(a.Bytes())
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.False(t, a.IsZero())
	}
}

func TestAddressBadInput(t *testing.T) {
	_, err := NewAddressFromString("TOOSHORT")
	assert.Equal(t, ErrWrongAddressLength, err)

	// Same length but different leading byte fails the checksum.
	_, err = NewAddressFromString("QNWOET7LLOWMBMLE4KOCELCX6X3D3Q4H2Q4QJASYIEOF7YIPPQBG3YQ5YI")
	assert.Equal(t, ErrWrongChecksum, err)

	_, err = NewAddressFromBytes(make([]byte, 31))
	assert.Equal(t, ErrWrongAddressLength, err)
}

func TestAddressFromPublicKey(t *testing.T) {
	sk, err := crypto.NewSecretKeyFromSeed(make([]byte, crypto.SeedSize))
	require.NoError(t, err)
	a := NewAddressFromPublicKey(sk.PublicKey())
	assert.Equal(t, a.Bytes(), sk.PublicKey().Bytes())
	assert.Equal(t, sk.PublicKey(), a.PublicKey())
}

func TestAddressJSON(t *testing.T) {
	a := MustAddressFromString("PNWOET7LLOWMBMLE4KOCELCX6X3D3Q4H2Q4QJASYIEOF7YIPPQBG3YQ5YI")
	js, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"PNWOET7LLOWMBMLE4KOCELCX6X3D3Q4H2Q4QJASYIEOF7YIPPQBG3YQ5YI"`, string(js))

	var back Address
	require.NoError(t, json.Unmarshal(js, &back))
	assert.Equal(t, a, back)

	assert.Error(t, json.Unmarshal([]byte(`42`), &back))
}
