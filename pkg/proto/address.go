// Package proto defines the transaction types, identities and signing
// rules of the network protocol, together with the canonical wire
// encoding of every structure that is hashed or signed.
package proto

import (
	"bytes"
	"encoding/base32"
	"fmt"

	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/crypto"
)

const (
	// AddressSize is the raw size of an address, one Ed25519 public key.
	AddressSize = 32
	// addressChecksumSize is the length of the checksum suffix appended
	// before base32 encoding.
	addressChecksumSize = 4
	// encodedAddressLength is the length of the base32 form with padding
	// stripped: ceil((32+4)*8/5) = 58.
	encodedAddressLength = 58
)

var base32Codec = base32.StdEncoding.WithPadding(base32.NoPadding)

// Address is an account identity, the raw form of an Ed25519 public
// key. The zero value is the sentinel "zero address" and is never
// emitted on the wire.
type Address [AddressSize]byte

// NewAddressFromPublicKey converts a public key to its address.
func NewAddressFromPublicKey(pk crypto.PublicKey) Address {
	return Address(pk)
}

// NewAddressFromBytes creates an address from its 32 raw bytes.
func NewAddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, ErrWrongAddressLength
	}
	copy(a[:], b)
	return a, nil
}

// NewAddressFromString parses the 58-character base32 form and verifies
// its checksum.
func NewAddressFromString(s string) (Address, error) {
	var a Address
	if len(s) != encodedAddressLength {
		return a, ErrWrongAddressLength
	}
	// Re-pad to a multiple of 8 so the standard codec accepts it.
	padded := s + "======"
	decoded, err := base32.StdEncoding.DecodeString(padded)
	if err != nil {
		return a, errors.Wrap(err, "failed to decode address")
	}
	if len(decoded) != AddressSize+addressChecksumSize {
		return a, ErrWrongAddressLength
	}
	digest := crypto.Sum(decoded[:AddressSize])
	if !bytes.Equal(digest[crypto.DigestSize-addressChecksumSize:], decoded[AddressSize:]) {
		return a, ErrWrongChecksum
	}
	copy(a[:], decoded[:AddressSize])
	return a, nil
}

// MustAddressFromString parses an address and panics on failure. Only
// for use with known-good literals, typically in tests.
func MustAddressFromString(s string) Address {
	a, err := NewAddressFromString(s)
	if err != nil {
		panic(errors.Wrap(err, "failed to parse address"))
	}
	return a
}

func (a Address) String() string {
	digest := crypto.Sum(a[:])
	buf := make([]byte, 0, AddressSize+addressChecksumSize)
	buf = append(buf, a[:]...)
	buf = append(buf, digest[crypto.DigestSize-addressChecksumSize:]...)
	return base32Codec.EncodeToString(buf)
}

func (a Address) Bytes() []byte {
	out := make([]byte, AddressSize)
	copy(out, a[:])
	return out
}

// PublicKey returns the address reinterpreted as a verification key.
func (a Address) PublicKey() crypto.PublicKey {
	return crypto.PublicKey(a)
}

// IsZero reports whether a is the zero address sentinel.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%s\"", a.String())), nil
}

func (a *Address) UnmarshalJSON(value []byte) error {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return errors.New("failed to unmarshal address: not a string")
	}
	parsed, err := NewAddressFromString(string(value[1 : len(value)-1]))
	if err != nil {
		return errors.Wrap(err, "failed to unmarshal address")
	}
	*a = parsed
	return nil
}
