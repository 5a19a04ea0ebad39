package proto

import (
	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/crypto"
	"github.com/algonaut/goalgo/pkg/encoding"
)

// TxGroup is the record hashed to derive a group id: the ordered
// digests of the member transactions.
type TxGroup struct {
	TxList []crypto.Digest
}

func (g *TxGroup) dictify() encoding.Map {
	digests := make(encoding.Array, len(g.TxList))
	for i, d := range g.TxList {
		digests[i] = encoding.Bin(d.Bytes())
	}
	return encoding.Map{{Key: "txlist", Value: digests}}
}

func txGroupFromDict(m encoding.Map) (TxGroup, error) {
	var g TxGroup
	arr, err := m.Array("txlist")
	if err != nil {
		return g, err
	}
	for _, v := range arr {
		b, ok := v.(encoding.Bin)
		if !ok {
			return g, errors.New("group entry is not a byte string")
		}
		d, err := crypto.NewDigestFromBytes(b)
		if err != nil {
			return g, err
		}
		g.TxList = append(g.TxList, d)
	}
	return g, nil
}

// CalculateGroupID derives the hash binding an ordered list of
// transactions into an atomic group. Any group field already present on
// a member is ignored, so the result only depends on the bodies and
// their order.
func CalculateGroupID(txns []Transaction) (crypto.Digest, error) {
	if len(txns) == 0 || len(txns) > MaxTxGroupSize {
		return crypto.Digest{}, ErrGroupSize
	}
	group := TxGroup{TxList: make([]crypto.Digest, len(txns))}
	for i, tx := range txns {
		m, err := tx.Dictify()
		if err != nil {
			return crypto.Digest{}, err
		}
		enc, err := encoding.Encode(m.Without("grp"))
		if err != nil {
			return crypto.Digest{}, err
		}
		group.TxList[i] = crypto.Sum(append(append([]byte{}, txIDPrefix...), enc...))
	}
	enc, err := encoding.Encode(group.dictify())
	if err != nil {
		return crypto.Digest{}, err
	}
	return crypto.Sum(append(append([]byte{}, txGroupPrefix...), enc...)), nil
}

// AssignGroupID computes the group id over txns and writes it into each
// member. When sender is non-zero, only that sender's transactions are
// returned, which is how one party of a grouped exchange picks out the
// transactions it needs to sign.
func AssignGroupID(txns []Transaction, sender Address) ([]Transaction, error) {
	gid, err := CalculateGroupID(txns)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(txns))
	for _, tx := range txns {
		tx.Head().Group = gid
		if sender.IsZero() || tx.Head().Sender == sender {
			out = append(out, tx)
		}
	}
	return out, nil
}
