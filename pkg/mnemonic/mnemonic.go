// Package mnemonic converts 32-byte keys to and from 25-word phrases
// over the standard 2048-word English list. The first 24 words carry
// the key in little-endian 11-bit groups and the last word is a
// checksum.
package mnemonic

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39/wordlists"

	"github.com/algonaut/goalgo/pkg/crypto"
)

const (
	// KeySize is the raw key length a phrase encodes.
	KeySize     = 32
	phraseWords = 25
)

var (
	ErrWrongKeyLength  = errors.New("mnemonic: key must be 32 bytes")
	ErrWrongWordCount  = errors.New("mnemonic: phrase must be 25 words")
	ErrUnknownWord     = errors.New("mnemonic: word is not in the wordlist")
	ErrWrongChecksum   = errors.New("mnemonic: phrase checksum does not match")
	ErrWrongKeyPadding = errors.New("mnemonic: phrase does not decode to a 32-byte key")
)

var (
	wordIndexOnce sync.Once
	wordIndex     map[string]int
)

func indexOf(word string) (int, bool) {
	wordIndexOnce.Do(func() {
		wordIndex = make(map[string]int, len(wordlists.English))
		for i, w := range wordlists.English {
			wordIndex[w] = i
		}
	})
	i, ok := wordIndex[word]
	return i, ok
}

// toElevenBit regroups bytes into little-endian 11-bit values.
func toElevenBit(data []byte) []uint32 {
	var out []uint32
	var buf, bits uint32
	for _, b := range data {
		buf |= uint32(b) << bits
		bits += 8
		for bits >= 11 {
			out = append(out, buf&2047)
			buf >>= 11
			bits -= 11
		}
	}
	if bits > 0 {
		out = append(out, buf&2047)
	}
	return out
}

// fromElevenBit is the inverse of toElevenBit.
func fromElevenBit(nums []uint32) []byte {
	var out []byte
	var buf, bits uint32
	for _, n := range nums {
		buf |= n << bits
		bits += 11
		for bits >= 8 {
			out = append(out, byte(buf&0xff))
			buf >>= 8
			bits -= 8
		}
	}
	if bits > 0 {
		out = append(out, byte(buf&0xff))
	}
	return out
}

func checksumWord(key []byte) string {
	digest := crypto.Sum(key)
	return wordlists.English[toElevenBit(digest.Bytes()[:2])[0]]
}

// FromKey encodes a 32-byte key as a 25-word phrase.
func FromKey(key []byte) (string, error) {
	if len(key) != KeySize {
		return "", ErrWrongKeyLength
	}
	nums := toElevenBit(key)
	words := make([]string, 0, phraseWords)
	for _, n := range nums {
		words = append(words, wordlists.English[n])
	}
	words = append(words, checksumWord(key))
	return strings.Join(words, " "), nil
}

// ToKey decodes a 25-word phrase back into its 32-byte key, verifying
// the checksum word.
func ToKey(phrase string) ([]byte, error) {
	words := strings.Fields(phrase)
	if len(words) != phraseWords {
		return nil, ErrWrongWordCount
	}
	nums := make([]uint32, len(words)-1)
	for i, w := range words[:len(words)-1] {
		idx, ok := indexOf(w)
		if !ok {
			return nil, ErrUnknownWord
		}
		nums[i] = uint32(idx)
	}
	decoded := fromElevenBit(nums)
	// 24 groups carry 264 bits, so the 33rd byte must be the 8 spare
	// zero bits.
	if len(decoded) != KeySize+1 || decoded[KeySize] != 0 {
		return nil, ErrWrongKeyPadding
	}
	key := decoded[:KeySize]
	if _, ok := indexOf(words[len(words)-1]); !ok {
		return nil, ErrUnknownWord
	}
	if checksumWord(key) != words[len(words)-1] {
		return nil, ErrWrongChecksum
	}
	return key, nil
}

// FromSecretKey encodes the seed half of an Ed25519 secret key.
func FromSecretKey(sk crypto.SecretKey) (string, error) {
	seed := sk.Seed()
	return FromKey(seed[:])
}

// ToSecretKey rebuilds the Ed25519 secret key a phrase encodes.
func ToSecretKey(phrase string) (crypto.SecretKey, error) {
	seed, err := ToKey(phrase)
	if err != nil {
		return crypto.SecretKey{}, err
	}
	return crypto.NewSecretKeyFromSeed(seed)
}

// MasterDerivationKey is a key-management wallet's root key.
type MasterDerivationKey [KeySize]byte

// FromMasterDerivationKey encodes a wallet root key as a phrase.
func FromMasterDerivationKey(mdk MasterDerivationKey) (string, error) {
	return FromKey(mdk[:])
}

// ToMasterDerivationKey decodes a phrase into a wallet root key.
func ToMasterDerivationKey(phrase string) (MasterDerivationKey, error) {
	key, err := ToKey(phrase)
	if err != nil {
		return MasterDerivationKey{}, err
	}
	var mdk MasterDerivationKey
	copy(mdk[:], key)
	return mdk, nil
}
