package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algonaut/goalgo/pkg/crypto"
	"github.com/algonaut/goalgo/pkg/proto"
)

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	assert.Equal(t, a.SecretKey.PublicKey(), a.PublicKey)
	assert.Equal(t, proto.NewAddressFromPublicKey(a.PublicKey), a.Address)

	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.Address, b.Address)
}

func TestFromSeed(t *testing.T) {
	seed := make([]byte, crypto.SeedSize)
	a, err := FromSeed(seed)
	require.NoError(t, err)
	sk, err := crypto.NewSecretKeyFromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, sk, a.SecretKey)
	assert.Equal(t, proto.NewAddressFromPublicKey(sk.PublicKey()), a.Address)

	again, err := FromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, a, again)

	_, err = FromSeed(seed[:16])
	assert.Error(t, err)
}

func TestFromSecretKey(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	restored, err := FromSecretKey(a.SecretKey)
	require.NoError(t, err)
	assert.Equal(t, a, restored)

	corrupt := a.SecretKey
	corrupt[crypto.SeedSize] ^= 0x01
	_, err = FromSecretKey(corrupt)
	assert.Equal(t, proto.ErrInvalidSecretKey, err)
}

func TestMnemonicRoundTrip(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	phrase, err := a.Mnemonic()
	require.NoError(t, err)
	restored, err := FromMnemonic(phrase)
	require.NoError(t, err)
	assert.Equal(t, a, restored)

	_, err = FromMnemonic("not a phrase")
	assert.Error(t, err)
}

func TestSignBytes(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	data := []byte("care about this payload")
	sig := a.SignBytes(data)
	assert.True(t, a.VerifyBytes(sig, data))
	assert.False(t, a.VerifyBytes(sig, []byte("care about that payload")))

	b, err := Generate()
	require.NoError(t, err)
	assert.False(t, b.VerifyBytes(sig, data))
}

func TestAlgosConversion(t *testing.T) {
	assert.Equal(t, 1.0, ToAlgos(1000000))
	assert.Equal(t, 0.5, ToAlgos(500000))
	assert.Equal(t, uint64(1000000), ToMicroAlgos(1))
	assert.Equal(t, uint64(123456), ToMicroAlgos(0.123456))
}
