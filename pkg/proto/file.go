package proto

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/encoding"
)

// marshalDecoded serializes any record shape. A bare transaction is
// wrapped as {txn: ...} so readers can tell it from a signed one.
func marshalDecoded(d Decoded) ([]byte, error) {
	switch t := d.(type) {
	case Transaction:
		m, err := t.Dictify()
		if err != nil {
			return nil, err
		}
		return encoding.Encode(encoding.Map{{Key: "txn", Value: m}})
	case *SignedTransaction:
		return MarshalSignedTransaction(*t)
	case *MultisigTransaction:
		return MarshalMultisigTransaction(*t)
	case *LogicSigTransaction:
		return MarshalLogicSigTransaction(*t)
	case *LogicSigAccount:
		return MarshalLogicSigAccount(*t)
	case *LogicSig:
		m, err := t.dictify()
		if err != nil {
			return nil, err
		}
		return encoding.Encode(m)
	case *Multisig:
		return encoding.Encode(t.dictify())
	case *Bid:
		return MarshalBid(*t)
	case *SignedBid:
		return MarshalSignedBid(*t)
	case *NoteField:
		return MarshalNoteField(*t)
	case *TxGroup:
		return encoding.Encode(t.dictify())
	}
	return nil, errors.Errorf("unsupported record type %T", d)
}

// WriteToFile persists records as a raw concatenation of canonical
// msgpack, with no framing between them.
func WriteToFile(path string, records ...Decoded) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to write records")
	}
	for _, r := range records {
		b, err := marshalDecoded(r)
		if err != nil {
			_ = f.Close()
			return errors.Wrap(err, "failed to write records")
		}
		if _, err := f.Write(b); err != nil {
			_ = f.Close()
			return errors.Wrap(err, "failed to write records")
		}
	}
	return errors.Wrap(f.Close(), "failed to write records")
}

// ReadFromFile stream-decodes every record in the file, dispatching
// each into its typed form.
func ReadFromFile(path string) ([]Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read records")
	}
	defer func() { _ = f.Close() }()
	var out []Decoded
	dec := encoding.NewDecoder(f)
	for {
		v, err := dec.Decode()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read records")
		}
		m, ok := v.(encoding.Map)
		if !ok {
			return nil, errors.New("failed to read records: record is not a map")
		}
		d, err := decodeDict(m)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read records")
		}
		out = append(out, d)
	}
}
