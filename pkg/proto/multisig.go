package proto

import (
	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/crypto"
	"github.com/algonaut/goalgo/pkg/encoding"
)

// multisigVersion is the only multisig scheme version in use.
const multisigVersion = 1

// Subsig is one slot of a multisig account: a fixed member key and, once
// that member has signed, their signature.
type Subsig struct {
	PublicKey crypto.PublicKey
	Sig       *crypto.Signature
}

// Multisig is a threshold account over an ordered list of member keys.
// The order is part of the account identity: permuting the members
// yields a different address.
type Multisig struct {
	Version   uint8
	Threshold uint8
	Subsigs   []Subsig
}

// NewMultisig creates a multisig account from its member addresses.
func NewMultisig(version, threshold uint8, members []Address) (Multisig, error) {
	m := Multisig{Version: version, Threshold: threshold}
	if len(members) > MultisigAccountLimit {
		return Multisig{}, ErrMultisigAccountSize
	}
	m.Subsigs = make([]Subsig, len(members))
	for i, a := range members {
		m.Subsigs[i] = Subsig{PublicKey: a.PublicKey()}
	}
	if err := m.Validate(); err != nil {
		return Multisig{}, err
	}
	return m, nil
}

// Validate checks the version and threshold invariants.
func (m *Multisig) Validate() error {
	if m.Version != multisigVersion {
		return ErrUnknownMsigVersion
	}
	if m.Threshold == 0 || int(m.Threshold) > len(m.Subsigs) {
		return ErrInvalidThreshold
	}
	return nil
}

// Address derives the account's address by hashing the version,
// threshold and member keys under the multisig domain prefix.
func (m *Multisig) Address() (Address, error) {
	if err := m.Validate(); err != nil {
		return Address{}, err
	}
	buf := make([]byte, 0, len(multisigAddrPrefix)+2+len(m.Subsigs)*crypto.PublicKeySize)
	buf = append(buf, multisigAddrPrefix...)
	buf = append(buf, m.Version, m.Threshold)
	for _, s := range m.Subsigs {
		buf = append(buf, s.PublicKey.Bytes()...)
	}
	return Address(crypto.Sum(buf)), nil
}

// Copy returns a deep copy of m.
func (m *Multisig) Copy() Multisig {
	out := Multisig{Version: m.Version, Threshold: m.Threshold, Subsigs: make([]Subsig, len(m.Subsigs))}
	for i, s := range m.Subsigs {
		out.Subsigs[i].PublicKey = s.PublicKey
		if s.Sig != nil {
			sig := *s.Sig
			out.Subsigs[i].Sig = &sig
		}
	}
	return out
}

// Blank returns a copy of m with every signature slot cleared.
func (m *Multisig) Blank() Multisig {
	out := m.Copy()
	for i := range out.Subsigs {
		out.Subsigs[i].Sig = nil
	}
	return out
}

// SignedCount returns the number of filled signature slots.
func (m *Multisig) SignedCount() int {
	n := 0
	for _, s := range m.Subsigs {
		if s.Sig != nil {
			n++
		}
	}
	return n
}

func (m *Multisig) dictify() encoding.Map {
	subsigs := make(encoding.Array, len(m.Subsigs))
	for i, s := range m.Subsigs {
		entry := encoding.Map{{Key: "pk", Value: encoding.Bin(s.PublicKey.Bytes())}}
		if s.Sig != nil {
			entry = append(entry, encoding.KV{Key: "s", Value: encoding.Bin(s.Sig.Bytes())})
		}
		subsigs[i] = entry
	}
	return encoding.Map{
		{Key: "subsig", Value: subsigs},
		{Key: "thr", Value: encoding.Uint(m.Threshold)},
		{Key: "v", Value: encoding.Uint(m.Version)},
	}
}

func multisigFromDict(d encoding.Map) (Multisig, error) {
	var m Multisig
	v, err := d.Uint("v")
	if err != nil {
		return m, err
	}
	thr, err := d.Uint("thr")
	if err != nil {
		return m, err
	}
	m.Version = uint8(v)
	m.Threshold = uint8(thr)
	subsigs, err := d.Array("subsig")
	if err != nil {
		return m, err
	}
	m.Subsigs = make([]Subsig, len(subsigs))
	for i, v := range subsigs {
		entry, ok := v.(encoding.Map)
		if !ok {
			return m, errors.New("multisig subsig is not a map")
		}
		pk, err := entry.Bin("pk")
		if err != nil {
			return m, err
		}
		if m.Subsigs[i].PublicKey, err = crypto.NewPublicKeyFromBytes(pk); err != nil {
			return m, err
		}
		s, err := entry.Bin("s")
		if err != nil {
			return m, err
		}
		if len(s) > 0 {
			sig, err := crypto.NewSignatureFromBytes(s)
			if err != nil {
				return m, err
			}
			m.Subsigs[i].Sig = &sig
		}
	}
	return m, nil
}

// MultisigTransaction is a transaction authorized by a multisig
// account. AuthAddr names the multisig account when the sender has been
// rekeyed to it.
type MultisigTransaction struct {
	Msig     Multisig
	Txn      Transaction
	AuthAddr Address
}

// NewMultisigTransaction wraps tx for signing by account. The sender
// must be the multisig address itself; senders rekeyed to the account
// go through NewRekeyedMultisigTransaction. Signature slots start out
// empty.
func NewMultisigTransaction(tx Transaction, account Multisig) (MultisigTransaction, error) {
	addr, err := account.Address()
	if err != nil {
		return MultisigTransaction{}, err
	}
	if tx.Head().Sender != addr {
		return MultisigTransaction{}, ErrBadTxnSender
	}
	return MultisigTransaction{Msig: account.Blank(), Txn: tx}, nil
}

// NewRekeyedMultisigTransaction wraps tx whose sender has been rekeyed
// to account. The multisig address is recorded as the authorizer.
func NewRekeyedMultisigTransaction(tx Transaction, account Multisig) (MultisigTransaction, error) {
	addr, err := account.Address()
	if err != nil {
		return MultisigTransaction{}, err
	}
	return MultisigTransaction{Msig: account.Blank(), Txn: tx, AuthAddr: addr}, nil
}

// SignMultisig fills sk's slot and returns a new value; mtx is not
// modified. Re-signing the same slot replaces its signature.
func SignMultisig(sk crypto.SecretKey, mtx MultisigTransaction) (MultisigTransaction, error) {
	if err := mtx.Msig.Validate(); err != nil {
		return MultisigTransaction{}, err
	}
	raw, err := rawTransactionBytes(mtx.Txn)
	if err != nil {
		return MultisigTransaction{}, errors.Wrap(err, "failed to sign multisig transaction")
	}
	pk := sk.PublicKey()
	out := MultisigTransaction{Msig: mtx.Msig.Copy(), Txn: mtx.Txn, AuthAddr: mtx.AuthAddr}
	for i := range out.Msig.Subsigs {
		if out.Msig.Subsigs[i].PublicKey == pk {
			sig := crypto.Sign(sk, raw)
			out.Msig.Subsigs[i].Sig = &sig
			return out, nil
		}
	}
	return MultisigTransaction{}, ErrKeyNotInMultisig
}

// MergeMultisig unions the signature slots of two or more partial
// signings of the same transaction by the same multisig account.
func MergeMultisig(parts ...MultisigTransaction) (MultisigTransaction, error) {
	if len(parts) < 2 {
		return MultisigTransaction{}, errors.New("merge requires at least two partial signings")
	}
	first := parts[0]
	firstAddr, err := first.Msig.Address()
	if err != nil {
		return MultisigTransaction{}, err
	}
	firstID, err := TransactionID(first.Txn)
	if err != nil {
		return MultisigTransaction{}, err
	}
	out := MultisigTransaction{Msig: first.Msig.Copy(), Txn: first.Txn, AuthAddr: first.AuthAddr}
	for _, part := range parts[1:] {
		addr, err := part.Msig.Address()
		if err != nil {
			return MultisigTransaction{}, err
		}
		if addr != firstAddr {
			return MultisigTransaction{}, ErrMergeKeysMismatch
		}
		if part.AuthAddr != first.AuthAddr {
			return MultisigTransaction{}, ErrMergeAuthAddrMismatch
		}
		id, err := TransactionID(part.Txn)
		if err != nil {
			return MultisigTransaction{}, err
		}
		if id != firstID {
			return MultisigTransaction{}, ErrMergeTxnMismatch
		}
		for i, s := range part.Msig.Subsigs {
			if s.Sig == nil {
				continue
			}
			have := out.Msig.Subsigs[i].Sig
			if have == nil {
				sig := *s.Sig
				out.Msig.Subsigs[i].Sig = &sig
				continue
			}
			if *have != *s.Sig {
				return MultisigTransaction{}, ErrDuplicateSigMismatch
			}
		}
	}
	return out, nil
}

// Verify reports whether the filled slots all verify and meet the
// threshold.
func (mtx *MultisigTransaction) Verify() (bool, error) {
	if err := mtx.Msig.Validate(); err != nil {
		return false, err
	}
	raw, err := rawTransactionBytes(mtx.Txn)
	if err != nil {
		return false, err
	}
	verified := 0
	for _, s := range mtx.Msig.Subsigs {
		if s.Sig == nil {
			continue
		}
		if !crypto.Verify(s.PublicKey, *s.Sig, raw) {
			return false, nil
		}
		verified++
	}
	return verified >= int(mtx.Msig.Threshold), nil
}

// ID returns the wrapped transaction's id.
func (mtx *MultisigTransaction) ID() (string, error) {
	return TransactionID(mtx.Txn)
}

func (mtx *MultisigTransaction) dictify() (encoding.Map, error) {
	txn, err := mtx.Txn.Dictify()
	if err != nil {
		return nil, err
	}
	m := encoding.Map{
		{Key: "msig", Value: mtx.Msig.dictify()},
		{Key: "txn", Value: txn},
	}
	if !mtx.AuthAddr.IsZero() {
		m = append(m, encoding.KV{Key: "sgnr", Value: encoding.Bin(mtx.AuthAddr.Bytes())})
	}
	return m, nil
}

// MarshalMultisigTransaction serializes mtx into the form accepted by
// the network's raw transaction endpoint.
func MarshalMultisigTransaction(mtx MultisigTransaction) ([]byte, error) {
	m, err := mtx.dictify()
	if err != nil {
		return nil, err
	}
	return encoding.Encode(m)
}

func multisigTransactionFromDict(m encoding.Map) (MultisigTransaction, error) {
	var mtx MultisigTransaction
	msig, err := m.Map("msig")
	if err != nil {
		return mtx, err
	}
	if mtx.Msig, err = multisigFromDict(msig); err != nil {
		return mtx, err
	}
	txn, err := m.Map("txn")
	if err != nil {
		return mtx, err
	}
	if txn == nil {
		return mtx, errors.New("multisig transaction carries no body")
	}
	if mtx.Txn, err = transactionFromDict(txn); err != nil {
		return mtx, err
	}
	sgnr, err := m.Bin("sgnr")
	if err != nil {
		return mtx, err
	}
	if len(sgnr) > 0 {
		if mtx.AuthAddr, err = NewAddressFromBytes(sgnr); err != nil {
			return mtx, err
		}
	}
	return mtx, nil
}
