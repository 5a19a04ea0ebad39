package mnemonic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zeroKeyPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon invest"

func TestZeroKeyPhrase(t *testing.T) {
	phrase, err := FromKey(make([]byte, KeySize))
	require.NoError(t, err)
	assert.Equal(t, zeroKeyPhrase, phrase)

	key, err := ToKey(phrase)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, KeySize), key)
}

func TestRoundTrip(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i*7 + 3)
	}
	phrase, err := FromKey(key)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(phrase), 25)
	back, err := ToKey(phrase)
	require.NoError(t, err)
	assert.Equal(t, key, back)
}

func TestKnownPhraseKey(t *testing.T) {
	phrase := "advice pudding treat near rule blouse same whisper inner electric quit surface sunny dismiss leader blood seat clown cost exist hospital century reform able sponsor"
	sk, err := ToSecretKey(phrase)
	require.NoError(t, err)
	assert.Equal(t, "e7f0f84d06811df9f31c8d878b1155f4671d51a185c200908667f449587068a1", sk.PublicKey().String())

	// The phrase survives a key to words round trip.
	back, err := FromSecretKey(sk)
	require.NoError(t, err)
	assert.Equal(t, phrase, back)
}

func TestToKeyErrors(t *testing.T) {
	_, err := ToKey("abandon abandon")
	assert.Equal(t, ErrWrongWordCount, err)

	bad := strings.Replace(zeroKeyPhrase, "invest", "zzzzz", 1)
	_, err = ToKey(bad)
	assert.Equal(t, ErrUnknownWord, err)

	bad = strings.Replace(zeroKeyPhrase, "invest", "abandon", 1)
	_, err = ToKey(bad)
	assert.Equal(t, ErrWrongChecksum, err)
}

func TestFromKeyLength(t *testing.T) {
	_, err := FromKey(make([]byte, 16))
	assert.Equal(t, ErrWrongKeyLength, err)
}

func TestMasterDerivationKey(t *testing.T) {
	var mdk MasterDerivationKey
	for i := range mdk {
		mdk[i] = byte(255 - i)
	}
	phrase, err := FromMasterDerivationKey(mdk)
	require.NoError(t, err)
	back, err := ToMasterDerivationKey(phrase)
	require.NoError(t, err)
	assert.Equal(t, mdk, back)
}
