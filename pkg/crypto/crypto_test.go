package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	// SHA-512/256 of 32 zero bytes.
	d := Sum(make([]byte, 32))
	assert.Equal(t, "af13c048991224a5e4c664446b688aaf48fb5456db3629601b00ec160c74e554", d.String())
}

func TestSecretKeyFromSeed(t *testing.T) {
	seed := make([]byte, SeedSize)
	sk, err := NewSecretKeyFromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, seed, sk.Bytes()[:SeedSize])
	// Ed25519 public key of the all-zero seed.
	assert.Equal(t, "3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29", sk.PublicKey().String())

	_, err = NewSecretKeyFromSeed(seed[:16])
	assert.Error(t, err)
}

func TestSignVerify(t *testing.T) {
	sk, err := GenerateSecretKey()
	require.NoError(t, err)
	pk := sk.PublicKey()

	msg := []byte("arbitrary message")
	sig := Sign(sk, msg)
	assert.True(t, Verify(pk, sig, msg))
	assert.False(t, Verify(pk, sig, []byte("another message")))

	sig[0] ^= 0xff
	assert.False(t, Verify(pk, sig, msg))
}

func TestFixedSizeConstructors(t *testing.T) {
	b, err := hex.DecodeString("af13c048991224a5e4c664446b688aaf48fb5456db3629601b00ec160c74e554")
	require.NoError(t, err)

	d, err := NewDigestFromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, b, d.Bytes())
	_, err = NewDigestFromBytes(b[:31])
	assert.Error(t, err)

	pk, err := NewPublicKeyFromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, b, pk.Bytes())
	_, err = NewPublicKeyFromBytes(append(b, 0))
	assert.Error(t, err)

	_, err = NewSignatureFromBytes(b)
	assert.Error(t, err)
	sig, err := NewSignatureFromBytes(append(b, b...))
	require.NoError(t, err)
	assert.Equal(t, append(b, b...), sig.Bytes())
}
