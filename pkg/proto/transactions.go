package proto

import (
	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/crypto"
	"github.com/algonaut/goalgo/pkg/encoding"
)

// TxType discriminates the transaction union on the wire.
type TxType string

const (
	PaymentTransaction         TxType = "pay"
	KeyRegistrationTransaction TxType = "keyreg"
	AssetConfigTransaction     TxType = "acfg"
	AssetTransferTransaction   TxType = "axfer"
	AssetFreezeTransaction     TxType = "afrz"
	ApplicationCallTransaction TxType = "appl"
	StateProofTransaction      TxType = "stpf"
)

const (
	// MinTxnFee is the network's minimum fee in microalgos.
	MinTxnFee = 1000
	// MaxTxGroupSize bounds the number of transactions in an atomic group.
	MaxTxGroupSize = 16
	// LeaseSize is the exact length of a transaction lease.
	LeaseSize = 32
	// MaxNoteLength bounds the free-form note field.
	MaxNoteLength = 1024
	// MultisigAccountLimit bounds the number of keys in a multisig account.
	MultisigAccountLimit = 255
	// MicroAlgosToAlgosRatio converts between the integer wire unit and
	// whole algos.
	MicroAlgosToAlgosRatio = 1e6

	// signedTxnOverhead is the canonical size of the signed wrapper
	// around a transaction body: a two-entry outer map, the "sig" and
	// "txn" keys, and a 64-byte signature in bin8 form. Fee estimation
	// adds it to the body size instead of re-encoding after the fee
	// field changes width.
	signedTxnOverhead = 75
)

// Domain separation prefixes. Each signed or hashed payload carries one
// so a signature valid in one context cannot be replayed in another.
var (
	txIDPrefix         = []byte("TX")
	txGroupPrefix      = []byte("TG")
	programPrefix      = []byte("Program")
	programDataPrefix  = []byte("ProgData")
	bytesPrefix        = []byte("MX")
	multisigAddrPrefix = []byte("MultisigAddr")
	appIDPrefix        = []byte("appID")
	bidPrefix          = []byte("aB")
)

// SuggestedParams carries the node-supplied parameters needed to build
// a transaction. Fee is a per-byte rate unless FlatFee is set, in which
// case it is used verbatim.
type SuggestedParams struct {
	Fee         uint64
	FlatFee     bool
	FirstValid  uint64
	LastValid   uint64
	GenesisID   string
	GenesisHash crypto.Digest
	MinFee      uint64
}

// Header holds the fields shared by every transaction type.
type Header struct {
	Sender      Address
	Fee         uint64
	FirstValid  uint64
	LastValid   uint64
	Note        []byte
	GenesisID   string
	GenesisHash crypto.Digest
	Group       crypto.Digest
	Lease       [LeaseSize]byte
	RekeyTo     Address
}

// Transaction is one member of the transaction union. Dictify produces
// the canonical record that is hashed and signed.
type Transaction interface {
	Type() TxType
	Head() *Header
	Dictify() (encoding.Map, error)
}

func newHeader(params SuggestedParams, sender Address, note []byte, lease []byte) (Header, error) {
	h := Header{
		Sender:      sender,
		Fee:         params.Fee,
		FirstValid:  params.FirstValid,
		LastValid:   params.LastValid,
		Note:        note,
		GenesisID:   params.GenesisID,
		GenesisHash: params.GenesisHash,
	}
	if h.FirstValid > h.LastValid {
		return Header{}, ErrInvalidRounds
	}
	if len(note) > MaxNoteLength {
		return Header{}, ErrWrongNoteLength
	}
	if len(lease) != 0 {
		if len(lease) != LeaseSize {
			return Header{}, ErrWrongLeaseLength
		}
		copy(h.Lease[:], lease)
	}
	return h, nil
}

// dictify emits the common fields plus the type tag. Variant-specific
// fields are appended by the caller; the encoder sorts and filters.
func (h *Header) dictify(t TxType) encoding.Map {
	m := encoding.Map{
		{Key: "fee", Value: encoding.Uint(h.Fee)},
		{Key: "fv", Value: encoding.Uint(h.FirstValid)},
		{Key: "lv", Value: encoding.Uint(h.LastValid)},
		{Key: "gen", Value: encoding.String(h.GenesisID)},
		{Key: "gh", Value: encoding.Bin(h.GenesisHash.Bytes())},
		{Key: "note", Value: encoding.Bin(h.Note)},
		{Key: "snd", Value: encoding.Bin(h.Sender.Bytes())},
		{Key: "type", Value: encoding.String(t)},
	}
	if h.Group != (crypto.Digest{}) {
		m = append(m, encoding.KV{Key: "grp", Value: encoding.Bin(h.Group.Bytes())})
	}
	if h.Lease != [LeaseSize]byte{} {
		lx := make([]byte, LeaseSize)
		copy(lx, h.Lease[:])
		m = append(m, encoding.KV{Key: "lx", Value: encoding.Bin(lx)})
	}
	if !h.RekeyTo.IsZero() {
		m = append(m, encoding.KV{Key: "rekey", Value: encoding.Bin(h.RekeyTo.Bytes())})
	}
	return m
}

func headerFromDict(m encoding.Map) (Header, error) {
	var h Header
	snd, err := m.Bin("snd")
	if err != nil {
		return h, err
	}
	if len(snd) > 0 {
		if h.Sender, err = NewAddressFromBytes(snd); err != nil {
			return h, err
		}
	}
	if h.Fee, err = m.Uint("fee"); err != nil {
		return h, err
	}
	if h.FirstValid, err = m.Uint("fv"); err != nil {
		return h, err
	}
	if h.LastValid, err = m.Uint("lv"); err != nil {
		return h, err
	}
	if h.Note, err = m.Bin("note"); err != nil {
		return h, err
	}
	if h.GenesisID, err = m.String("gen"); err != nil {
		return h, err
	}
	gh, err := m.Bin("gh")
	if err != nil {
		return h, err
	}
	if len(gh) > 0 {
		if h.GenesisHash, err = crypto.NewDigestFromBytes(gh); err != nil {
			return h, err
		}
	}
	grp, err := m.Bin("grp")
	if err != nil {
		return h, err
	}
	if len(grp) > 0 {
		if h.Group, err = crypto.NewDigestFromBytes(grp); err != nil {
			return h, err
		}
	}
	lx, err := m.Bin("lx")
	if err != nil {
		return h, err
	}
	if len(lx) > 0 {
		if len(lx) != LeaseSize {
			return h, ErrWrongLeaseLength
		}
		copy(h.Lease[:], lx)
	}
	rekey, err := m.Bin("rekey")
	if err != nil {
		return h, err
	}
	if len(rekey) > 0 {
		if h.RekeyTo, err = NewAddressFromBytes(rekey); err != nil {
			return h, err
		}
	}
	return h, nil
}

// finalizeFee turns the header's per-byte rate into the actual fee, or
// keeps it verbatim for flat-fee parameters. The size estimate is the
// canonical body size plus the fixed signed-wrapper overhead.
func finalizeFee(tx Transaction, params SuggestedParams) error {
	if params.FlatFee {
		tx.Head().Fee = params.Fee
		return nil
	}
	size, err := EstimateSize(tx)
	if err != nil {
		return err
	}
	minFee := uint64(MinTxnFee)
	if params.MinFee > 0 {
		minFee = params.MinFee
	}
	fee := params.Fee * size
	if fee < minFee {
		fee = minFee
	}
	tx.Head().Fee = fee
	return nil
}

// EstimateSize returns the expected canonical size of tx once wrapped
// in a single signature.
func EstimateSize(tx Transaction) (uint64, error) {
	b, err := MarshalTransaction(tx)
	if err != nil {
		return 0, err
	}
	return uint64(len(b) + signedTxnOverhead), nil
}

// MarshalTransaction serializes a bare transaction body canonically.
func MarshalTransaction(tx Transaction) ([]byte, error) {
	m, err := tx.Dictify()
	if err != nil {
		return nil, err
	}
	return encoding.Encode(m)
}

// rawTransactionBytes is the exact byte string hashed for the id and
// signed by every authorizer.
func rawTransactionBytes(tx Transaction) ([]byte, error) {
	b, err := MarshalTransaction(tx)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, txIDPrefix...), b...), nil
}

// TransactionDigest is the raw 32-byte transaction id.
func TransactionDigest(tx Transaction) (crypto.Digest, error) {
	raw, err := rawTransactionBytes(tx)
	if err != nil {
		return crypto.Digest{}, err
	}
	return crypto.Sum(raw), nil
}

// TransactionID is the transaction id in its human-readable base32
// form. It depends only on the transaction body and is the same no
// matter how the transaction is later authorized.
func TransactionID(tx Transaction) (string, error) {
	digest, err := TransactionDigest(tx)
	if err != nil {
		return "", err
	}
	return base32Codec.EncodeToString(digest.Bytes()), nil
}

// Payment moves microalgos from Sender to Receiver. A non-zero
// CloseRemainderTo sweeps the sender's remaining balance there and
// closes the account.
type Payment struct {
	Header
	Receiver         Address
	Amount           uint64
	CloseRemainderTo Address
}

// NewUnsignedPayment creates a payment and finalizes its fee from
// params. A zero receiver is allowed and is omitted from the canonical
// record.
func NewUnsignedPayment(params SuggestedParams, sender, receiver Address, amount uint64, closeRemainderTo Address, note []byte, lease []byte) (*Payment, error) {
	h, err := newHeader(params, sender, note, lease)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create payment transaction")
	}
	tx := &Payment{
		Header:           h,
		Receiver:         receiver,
		Amount:           amount,
		CloseRemainderTo: closeRemainderTo,
	}
	if err := finalizeFee(tx, params); err != nil {
		return nil, errors.Wrap(err, "failed to create payment transaction")
	}
	return tx, nil
}

func (tx *Payment) Type() TxType  { return PaymentTransaction }
func (tx *Payment) Head() *Header { return &tx.Header }

func (tx *Payment) Dictify() (encoding.Map, error) {
	m := tx.Header.dictify(PaymentTransaction)
	m = append(m, encoding.KV{Key: "amt", Value: encoding.Uint(tx.Amount)})
	if !tx.Receiver.IsZero() {
		m = append(m, encoding.KV{Key: "rcv", Value: encoding.Bin(tx.Receiver.Bytes())})
	}
	if !tx.CloseRemainderTo.IsZero() {
		m = append(m, encoding.KV{Key: "close", Value: encoding.Bin(tx.CloseRemainderTo.Bytes())})
	}
	return m, nil
}

func paymentFromDict(m encoding.Map) (*Payment, error) {
	h, err := headerFromDict(m)
	if err != nil {
		return nil, err
	}
	tx := &Payment{Header: h}
	if tx.Amount, err = m.Uint("amt"); err != nil {
		return nil, err
	}
	rcv, err := m.Bin("rcv")
	if err != nil {
		return nil, err
	}
	if len(rcv) > 0 {
		if tx.Receiver, err = NewAddressFromBytes(rcv); err != nil {
			return nil, err
		}
	}
	closeTo, err := m.Bin("close")
	if err != nil {
		return nil, err
	}
	if len(closeTo) > 0 {
		if tx.CloseRemainderTo, err = NewAddressFromBytes(closeTo); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// KeyRegistration announces or withdraws participation keys. A zero
// value in every participation field marks the account offline, and
// Nonparticipation permanently opts the account out of rewards.
type KeyRegistration struct {
	Header
	VotePK           [32]byte
	SelectionPK      [32]byte
	StateProofPK     [64]byte
	VoteFirst        uint64
	VoteLast         uint64
	VoteKeyDilution  uint64
	Nonparticipation bool
}

// KeyRegParticipation carries the participation key material for an
// online key registration.
type KeyRegParticipation struct {
	VotePK          [32]byte
	SelectionPK     [32]byte
	StateProofPK    [64]byte
	VoteFirst       uint64
	VoteLast        uint64
	VoteKeyDilution uint64
}

// NewUnsignedKeyRegistration creates an online key registration.
func NewUnsignedKeyRegistration(params SuggestedParams, sender Address, part KeyRegParticipation, note []byte, lease []byte) (*KeyRegistration, error) {
	h, err := newHeader(params, sender, note, lease)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create keyreg transaction")
	}
	tx := &KeyRegistration{
		Header:          h,
		VotePK:          part.VotePK,
		SelectionPK:     part.SelectionPK,
		StateProofPK:    part.StateProofPK,
		VoteFirst:       part.VoteFirst,
		VoteLast:        part.VoteLast,
		VoteKeyDilution: part.VoteKeyDilution,
	}
	if err := finalizeFee(tx, params); err != nil {
		return nil, errors.Wrap(err, "failed to create keyreg transaction")
	}
	return tx, nil
}

// NewUnsignedKeyRegistrationOffline creates a key registration that
// takes the account offline. With nonparticipation set the opt-out is
// permanent.
func NewUnsignedKeyRegistrationOffline(params SuggestedParams, sender Address, nonparticipation bool, note []byte, lease []byte) (*KeyRegistration, error) {
	h, err := newHeader(params, sender, note, lease)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create keyreg transaction")
	}
	tx := &KeyRegistration{Header: h, Nonparticipation: nonparticipation}
	if err := finalizeFee(tx, params); err != nil {
		return nil, errors.Wrap(err, "failed to create keyreg transaction")
	}
	return tx, nil
}

func (tx *KeyRegistration) Type() TxType  { return KeyRegistrationTransaction }
func (tx *KeyRegistration) Head() *Header { return &tx.Header }

func (tx *KeyRegistration) Dictify() (encoding.Map, error) {
	m := tx.Header.dictify(KeyRegistrationTransaction)
	if tx.VotePK != ([32]byte{}) {
		m = append(m, encoding.KV{Key: "votekey", Value: encoding.Bin(tx.VotePK[:])})
	}
	if tx.SelectionPK != ([32]byte{}) {
		m = append(m, encoding.KV{Key: "selkey", Value: encoding.Bin(tx.SelectionPK[:])})
	}
	if tx.StateProofPK != ([64]byte{}) {
		m = append(m, encoding.KV{Key: "sprfkey", Value: encoding.Bin(tx.StateProofPK[:])})
	}
	m = append(m,
		encoding.KV{Key: "votefst", Value: encoding.Uint(tx.VoteFirst)},
		encoding.KV{Key: "votelst", Value: encoding.Uint(tx.VoteLast)},
		encoding.KV{Key: "votekd", Value: encoding.Uint(tx.VoteKeyDilution)},
		encoding.KV{Key: "nonpart", Value: encoding.Bool(tx.Nonparticipation)},
	)
	return m, nil
}

func keyRegistrationFromDict(m encoding.Map) (*KeyRegistration, error) {
	h, err := headerFromDict(m)
	if err != nil {
		return nil, err
	}
	tx := &KeyRegistration{Header: h}
	votekey, err := m.Bin("votekey")
	if err != nil {
		return nil, err
	}
	if len(votekey) > 0 {
		if len(votekey) != len(tx.VotePK) {
			return nil, ErrWrongKeyLength
		}
		copy(tx.VotePK[:], votekey)
	}
	selkey, err := m.Bin("selkey")
	if err != nil {
		return nil, err
	}
	if len(selkey) > 0 {
		if len(selkey) != len(tx.SelectionPK) {
			return nil, ErrWrongKeyLength
		}
		copy(tx.SelectionPK[:], selkey)
	}
	sprfkey, err := m.Bin("sprfkey")
	if err != nil {
		return nil, err
	}
	if len(sprfkey) > 0 {
		if len(sprfkey) != len(tx.StateProofPK) {
			return nil, ErrWrongKeyLength
		}
		copy(tx.StateProofPK[:], sprfkey)
	}
	if tx.VoteFirst, err = m.Uint("votefst"); err != nil {
		return nil, err
	}
	if tx.VoteLast, err = m.Uint("votelst"); err != nil {
		return nil, err
	}
	if tx.VoteKeyDilution, err = m.Uint("votekd"); err != nil {
		return nil, err
	}
	if tx.Nonparticipation, err = m.Bool("nonpart"); err != nil {
		return nil, err
	}
	return tx, nil
}

// StateProof posts a compact certificate of ledger state. The proof and
// message bodies are node-produced records carried opaquely.
type StateProof struct {
	Header
	ProofType uint64
	Proof     encoding.Map
	Message   encoding.Map
}

func (tx *StateProof) Type() TxType  { return StateProofTransaction }
func (tx *StateProof) Head() *Header { return &tx.Header }

func (tx *StateProof) Dictify() (encoding.Map, error) {
	m := tx.Header.dictify(StateProofTransaction)
	m = append(m, encoding.KV{Key: "sptype", Value: encoding.Uint(tx.ProofType)})
	if tx.Proof != nil {
		m = append(m, encoding.KV{Key: "sp", Value: tx.Proof})
	}
	if tx.Message != nil {
		m = append(m, encoding.KV{Key: "spmsg", Value: tx.Message})
	}
	return m, nil
}

func stateProofFromDict(m encoding.Map) (*StateProof, error) {
	h, err := headerFromDict(m)
	if err != nil {
		return nil, err
	}
	tx := &StateProof{Header: h}
	if tx.ProofType, err = m.Uint("sptype"); err != nil {
		return nil, err
	}
	if tx.Proof, err = m.Map("sp"); err != nil {
		return nil, err
	}
	if tx.Message, err = m.Map("spmsg"); err != nil {
		return nil, err
	}
	return tx, nil
}

// transactionFromDict reconstructs the concrete variant from a decoded
// canonical record using the type tag.
func transactionFromDict(m encoding.Map) (Transaction, error) {
	t, err := m.String("type")
	if err != nil {
		return nil, err
	}
	switch TxType(t) {
	case PaymentTransaction:
		return paymentFromDict(m)
	case KeyRegistrationTransaction:
		return keyRegistrationFromDict(m)
	case AssetConfigTransaction:
		return assetConfigFromDict(m)
	case AssetTransferTransaction:
		return assetTransferFromDict(m)
	case AssetFreezeTransaction:
		return assetFreezeFromDict(m)
	case ApplicationCallTransaction:
		return applicationCallFromDict(m)
	case StateProofTransaction:
		return stateProofFromDict(m)
	}
	return nil, errors.Errorf("unknown transaction type '%s'", t)
}
