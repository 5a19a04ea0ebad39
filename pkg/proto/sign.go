package proto

import (
	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/crypto"
	"github.com/algonaut/goalgo/pkg/encoding"
)

// SignedTransaction wraps a transaction body with a single Ed25519
// signature. AuthAddr is set when the signing key is not the sender's
// own key, after a rekey.
type SignedTransaction struct {
	Sig      crypto.Signature
	Txn      Transaction
	AuthAddr Address
}

// Sign authorizes tx with sk. When the signing key does not match the
// sender the signer's address is recorded as the authorizer, which is
// how transactions from rekeyed accounts are submitted.
func Sign(sk crypto.SecretKey, tx Transaction) (SignedTransaction, error) {
	sig, err := rawSignTransaction(sk, tx)
	if err != nil {
		return SignedTransaction{}, errors.Wrap(err, "failed to sign transaction")
	}
	stx := SignedTransaction{Sig: sig, Txn: tx}
	signer := NewAddressFromPublicKey(sk.PublicKey())
	if signer != tx.Head().Sender {
		stx.AuthAddr = signer
	}
	return stx, nil
}

func rawSignTransaction(sk crypto.SecretKey, tx Transaction) (crypto.Signature, error) {
	raw, err := rawTransactionBytes(tx)
	if err != nil {
		return crypto.Signature{}, err
	}
	return crypto.Sign(sk, raw), nil
}

// Verify checks the signature against the authorizer's key, which is
// AuthAddr when present and the sender otherwise.
func (stx *SignedTransaction) Verify() (bool, error) {
	raw, err := rawTransactionBytes(stx.Txn)
	if err != nil {
		return false, err
	}
	authorizer := stx.Txn.Head().Sender
	if !stx.AuthAddr.IsZero() {
		authorizer = stx.AuthAddr
	}
	return crypto.Verify(authorizer.PublicKey(), stx.Sig, raw), nil
}

// ID returns the wrapped transaction's id.
func (stx *SignedTransaction) ID() (string, error) {
	return TransactionID(stx.Txn)
}

func (stx *SignedTransaction) dictify() (encoding.Map, error) {
	txn, err := stx.Txn.Dictify()
	if err != nil {
		return nil, err
	}
	m := encoding.Map{
		{Key: "sig", Value: encoding.Bin(stx.Sig.Bytes())},
		{Key: "txn", Value: txn},
	}
	if !stx.AuthAddr.IsZero() {
		m = append(m, encoding.KV{Key: "sgnr", Value: encoding.Bin(stx.AuthAddr.Bytes())})
	}
	return m, nil
}

// MarshalSignedTransaction serializes stx into the form accepted by the
// network's raw transaction endpoint.
func MarshalSignedTransaction(stx SignedTransaction) ([]byte, error) {
	m, err := stx.dictify()
	if err != nil {
		return nil, err
	}
	return encoding.Encode(m)
}

func signedTransactionFromDict(m encoding.Map) (SignedTransaction, error) {
	var stx SignedTransaction
	sig, err := m.Bin("sig")
	if err != nil {
		return stx, err
	}
	if stx.Sig, err = crypto.NewSignatureFromBytes(sig); err != nil {
		return stx, err
	}
	txn, err := m.Map("txn")
	if err != nil {
		return stx, err
	}
	if txn == nil {
		return stx, errors.New("signed transaction carries no body")
	}
	if stx.Txn, err = transactionFromDict(txn); err != nil {
		return stx, err
	}
	sgnr, err := m.Bin("sgnr")
	if err != nil {
		return stx, err
	}
	if len(sgnr) > 0 {
		if stx.AuthAddr, err = NewAddressFromBytes(sgnr); err != nil {
			return stx, err
		}
	}
	return stx, nil
}

// SignBytes signs arbitrary data under the dedicated bytes prefix so
// the signature can never double as a transaction signature.
func SignBytes(sk crypto.SecretKey, data []byte) crypto.Signature {
	msg := append(append([]byte{}, bytesPrefix...), data...)
	return crypto.Sign(sk, msg)
}

// VerifyBytes checks a signature produced by SignBytes.
func VerifyBytes(pk crypto.PublicKey, sig crypto.Signature, data []byte) bool {
	msg := append(append([]byte{}, bytesPrefix...), data...)
	return crypto.Verify(pk, sig, msg)
}
