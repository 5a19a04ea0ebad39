package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"

	"github.com/pkg/errors"
)

const (
	DigestSize    = 32
	PublicKeySize = 32
	SeedSize      = 32
	SecretKeySize = 64
	SignatureSize = 64
)

// Digest is a SHA-512/256 hash, the only hash function used by the protocol.
type Digest [DigestSize]byte

func (d Digest) Bytes() []byte {
	out := make([]byte, len(d))
	copy(out, d[:])
	return out
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func NewDigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if l := len(b); l != DigestSize {
		return d, errors.Errorf("invalid digest length %d, expected %d", l, DigestSize)
	}
	copy(d[:], b)
	return d, nil
}

// Sum computes the SHA-512/256 digest of data.
func Sum(data []byte) Digest {
	return Digest(sha512.Sum512_256(data))
}

// PublicKey is an Ed25519 public key.
type PublicKey [PublicKeySize]byte

func (pk PublicKey) Bytes() []byte {
	out := make([]byte, len(pk))
	copy(out, pk[:])
	return out
}

func (pk PublicKey) String() string {
	return hex.EncodeToString(pk[:])
}

func NewPublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if l := len(b); l != PublicKeySize {
		return pk, errors.Errorf("invalid public key length %d, expected %d", l, PublicKeySize)
	}
	copy(pk[:], b)
	return pk, nil
}

// SecretKey is an Ed25519 private key in the expanded 64-byte form,
// the 32-byte seed followed by the public key.
type SecretKey [SecretKeySize]byte

func (sk SecretKey) Bytes() []byte {
	out := make([]byte, len(sk))
	copy(out, sk[:])
	return out
}

func (sk SecretKey) Seed() [SeedSize]byte {
	var seed [SeedSize]byte
	copy(seed[:], sk[:SeedSize])
	return seed
}

func (sk SecretKey) PublicKey() PublicKey {
	var pk PublicKey
	copy(pk[:], sk[SeedSize:])
	return pk
}

func NewSecretKeyFromBytes(b []byte) (SecretKey, error) {
	var sk SecretKey
	if l := len(b); l != SecretKeySize {
		return sk, errors.Errorf("invalid secret key length %d, expected %d", l, SecretKeySize)
	}
	copy(sk[:], b)
	return sk, nil
}

// NewSecretKeyFromSeed expands a 32-byte seed into a secret key.
func NewSecretKeyFromSeed(seed []byte) (SecretKey, error) {
	var sk SecretKey
	if l := len(seed); l != SeedSize {
		return sk, errors.Errorf("invalid seed length %d, expected %d", l, SeedSize)
	}
	copy(sk[:], ed25519.NewKeyFromSeed(seed))
	return sk, nil
}

// GenerateSecretKey creates a secret key from a fresh random seed.
func GenerateSecretKey() (SecretKey, error) {
	var sk SecretKey
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return sk, errors.Wrap(err, "failed to generate random seed")
	}
	copy(sk[:], ed25519.NewKeyFromSeed(seed))
	return sk, nil
}

// Signature is a 64-byte Ed25519 signature.
type Signature [SignatureSize]byte

func (s Signature) Bytes() []byte {
	out := make([]byte, len(s))
	copy(out, s[:])
	return out
}

func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

func NewSignatureFromBytes(b []byte) (Signature, error) {
	var s Signature
	if l := len(b); l != SignatureSize {
		return s, errors.Errorf("invalid signature length %d, expected %d", l, SignatureSize)
	}
	copy(s[:], b)
	return s, nil
}

// Sign produces an Ed25519 signature over data. Domain separation
// prefixes are the caller's responsibility.
func Sign(sk SecretKey, data []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(sk[:], data))
	return sig
}

// Verify reports whether sig is a valid signature of data by the owner of pk.
func Verify(pk PublicKey, sig Signature, data []byte) bool {
	return ed25519.Verify(pk[:], data, sig[:])
}
