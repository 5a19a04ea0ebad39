// Package account bundles an Ed25519 key pair with its derived address
// and the mnemonic codec, the unit a wallet works with.
package account

import (
	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/crypto"
	"github.com/algonaut/goalgo/pkg/mnemonic"
	"github.com/algonaut/goalgo/pkg/proto"
)

// Account is a key pair together with the address it controls.
type Account struct {
	SecretKey crypto.SecretKey
	PublicKey crypto.PublicKey
	Address   proto.Address
}

func fromSecretKey(sk crypto.SecretKey) Account {
	pk := sk.PublicKey()
	return Account{SecretKey: sk, PublicKey: pk, Address: proto.NewAddressFromPublicKey(pk)}
}

// Generate creates a fresh account from the system entropy source.
func Generate() (Account, error) {
	sk, err := crypto.GenerateSecretKey()
	if err != nil {
		return Account{}, errors.Wrap(err, "failed to generate account")
	}
	return fromSecretKey(sk), nil
}

// FromSecretKey builds an account around an existing secret key. The
// key's embedded public half must match the one derived from its seed.
func FromSecretKey(sk crypto.SecretKey) (Account, error) {
	seed := sk.Seed()
	derived, err := crypto.NewSecretKeyFromSeed(seed[:])
	if err != nil {
		return Account{}, err
	}
	if derived != sk {
		return Account{}, proto.ErrInvalidSecretKey
	}
	return fromSecretKey(sk), nil
}

// FromSeed builds an account from a raw 32-byte seed.
func FromSeed(seed []byte) (Account, error) {
	sk, err := crypto.NewSecretKeyFromSeed(seed)
	if err != nil {
		return Account{}, err
	}
	return fromSecretKey(sk), nil
}

// FromMnemonic restores an account from its 25-word phrase.
func FromMnemonic(phrase string) (Account, error) {
	sk, err := mnemonic.ToSecretKey(phrase)
	if err != nil {
		return Account{}, err
	}
	return fromSecretKey(sk), nil
}

// Mnemonic returns the 25-word phrase backing the account's seed.
func (a *Account) Mnemonic() (string, error) {
	return mnemonic.FromSecretKey(a.SecretKey)
}

// SignBytes signs arbitrary data under the bytes domain prefix.
func (a *Account) SignBytes(data []byte) crypto.Signature {
	return proto.SignBytes(a.SecretKey, data)
}

// VerifyBytes checks a bytes-domain signature made by the account.
func (a *Account) VerifyBytes(sig crypto.Signature, data []byte) bool {
	return proto.VerifyBytes(a.PublicKey, sig, data)
}

// ToAlgos converts microalgos to algos.
func ToAlgos(microAlgos uint64) float64 {
	return float64(microAlgos) / proto.MicroAlgosToAlgosRatio
}

// ToMicroAlgos converts algos to microalgos, truncating below the
// microalgo.
func ToMicroAlgos(algos float64) uint64 {
	return uint64(algos * proto.MicroAlgosToAlgosRatio)
}
