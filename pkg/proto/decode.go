package proto

import (
	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/encoding"
)

// Decoded is the closed set of shapes Decode can return: a bare
// Transaction variant, SignedTransaction, MultisigTransaction,
// LogicSigTransaction, LogicSigAccount, LogicSig, Multisig, Bid,
// SignedBid, NoteField or TxGroup.
type Decoded interface {
	isDecoded()
}

func (*Payment) isDecoded()             {}
func (*KeyRegistration) isDecoded()     {}
func (*AssetConfig) isDecoded()         {}
func (*AssetTransfer) isDecoded()       {}
func (*AssetFreeze) isDecoded()         {}
func (*ApplicationCall) isDecoded()     {}
func (*StateProof) isDecoded()          {}
func (*SignedTransaction) isDecoded()   {}
func (*MultisigTransaction) isDecoded() {}
func (*LogicSigTransaction) isDecoded() {}
func (*LogicSigAccount) isDecoded()     {}
func (*LogicSig) isDecoded()            {}
func (*Multisig) isDecoded()            {}
func (*Bid) isDecoded()                 {}
func (*SignedBid) isDecoded()           {}
func (*NoteField) isDecoded()           {}
func (*TxGroup) isDecoded()             {}

// Decode parses one canonical record and reconstructs its typed form by
// looking for discriminating keys in a fixed priority order. The "bid"
// key is checked before "sig" so a signed bid, which carries both, is
// never mistaken for a signed transaction.
func Decode(data []byte) (Decoded, error) {
	v, err := encoding.Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode record")
	}
	m, ok := v.(encoding.Map)
	if !ok {
		return nil, errors.New("record is not a map")
	}
	return decodeDict(m)
}

func decodeDict(m encoding.Map) (Decoded, error) {
	switch {
	case m.Has("type"):
		tx, err := transactionFromDict(m)
		if err != nil {
			return nil, err
		}
		return tx.(Decoded), nil
	case m.Has("l"):
		l, err := logicSigFromDict(m)
		if err != nil {
			return nil, err
		}
		return &l, nil
	case m.Has("msig"):
		mtx, err := multisigTransactionFromDict(m)
		if err != nil {
			return nil, err
		}
		return &mtx, nil
	case m.Has("lsig"):
		if m.Has("txn") {
			ltx, err := logicSigTransactionFromDict(m)
			if err != nil {
				return nil, err
			}
			return &ltx, nil
		}
		a, err := logicSigAccountFromDict(m)
		if err != nil {
			return nil, err
		}
		return &a, nil
	case m.Has("bid"):
		sb, err := signedBidFromDict(m)
		if err != nil {
			return nil, err
		}
		return &sb, nil
	case m.Has("auc"):
		b, err := bidFromDict(m)
		if err != nil {
			return nil, err
		}
		return &b, nil
	case m.Has("sig"):
		stx, err := signedTransactionFromDict(m)
		if err != nil {
			return nil, err
		}
		return &stx, nil
	case m.Has("txn"):
		// A bare transaction persisted to a file is wrapped as {txn: ...}.
		txn, err := m.Map("txn")
		if err != nil {
			return nil, err
		}
		tx, err := transactionFromDict(txn)
		if err != nil {
			return nil, err
		}
		return tx.(Decoded), nil
	case m.Has("subsig"):
		ms, err := multisigFromDict(m)
		if err != nil {
			return nil, err
		}
		return &ms, nil
	case m.Has("txlist"):
		g, err := txGroupFromDict(m)
		if err != nil {
			return nil, err
		}
		return &g, nil
	case m.Has("t"):
		n, err := noteFieldFromDict(m)
		if err != nil {
			return nil, err
		}
		return &n, nil
	}
	return nil, errors.New("record carries no recognized discriminant key")
}
