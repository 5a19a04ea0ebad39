package proto

import (
	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/crypto"
	"github.com/algonaut/goalgo/pkg/encoding"
)

// NoteFieldType tags the payload carried in a transaction note by the
// auction tooling.
type NoteFieldType string

const (
	NoteBid        NoteFieldType = "b"
	NoteDeposit    NoteFieldType = "d"
	NoteSettlement NoteFieldType = "s"
	NoteParams     NoteFieldType = "p"
)

// Bid is an offer in a currency auction.
type Bid struct {
	Bidder     Address
	AuctionKey Address
	AuctionID  uint64
	BidID      uint64
	Currency   uint64
	MaxPrice   uint64
}

func (b *Bid) dictify() encoding.Map {
	return encoding.Map{
		{Key: "aid", Value: encoding.Uint(b.AuctionID)},
		{Key: "auc", Value: encoding.Bin(b.AuctionKey.Bytes())},
		{Key: "bidder", Value: encoding.Bin(b.Bidder.Bytes())},
		{Key: "cur", Value: encoding.Uint(b.Currency)},
		{Key: "id", Value: encoding.Uint(b.BidID)},
		{Key: "price", Value: encoding.Uint(b.MaxPrice)},
	}
}

// MarshalBid serializes a bare bid canonically.
func MarshalBid(b Bid) ([]byte, error) {
	return encoding.Encode(b.dictify())
}

// SignBid signs the bid under the auction domain prefix.
func SignBid(sk crypto.SecretKey, b Bid) (SignedBid, error) {
	enc, err := MarshalBid(b)
	if err != nil {
		return SignedBid{}, errors.Wrap(err, "failed to sign bid")
	}
	msg := append(append([]byte{}, bidPrefix...), enc...)
	return SignedBid{Bid: b, Sig: crypto.Sign(sk, msg)}, nil
}

// Verify checks the signature against the bidder's key.
func (sb *SignedBid) Verify() (bool, error) {
	enc, err := MarshalBid(sb.Bid)
	if err != nil {
		return false, err
	}
	msg := append(append([]byte{}, bidPrefix...), enc...)
	return crypto.Verify(sb.Bid.Bidder.PublicKey(), sb.Sig, msg), nil
}

// SignedBid carries a bid and the bidder's signature over it.
type SignedBid struct {
	Bid Bid
	Sig crypto.Signature
}

func (sb *SignedBid) dictify() encoding.Map {
	return encoding.Map{
		{Key: "bid", Value: sb.Bid.dictify()},
		{Key: "sig", Value: encoding.Bin(sb.Sig.Bytes())},
	}
}

// MarshalSignedBid serializes a signed bid canonically.
func MarshalSignedBid(sb SignedBid) ([]byte, error) {
	return encoding.Encode(sb.dictify())
}

// NoteField wraps a signed bid for embedding in a transaction note.
type NoteField struct {
	Type      NoteFieldType
	SignedBid SignedBid
}

func (n *NoteField) dictify() encoding.Map {
	return encoding.Map{
		{Key: "b", Value: n.SignedBid.dictify()},
		{Key: "t", Value: encoding.String(n.Type)},
	}
}

// MarshalNoteField serializes a note field canonically, ready to be
// placed in a transaction note.
func MarshalNoteField(n NoteField) ([]byte, error) {
	return encoding.Encode(n.dictify())
}

func bidFromDict(m encoding.Map) (Bid, error) {
	var b Bid
	var err error
	if b.AuctionID, err = m.Uint("aid"); err != nil {
		return b, err
	}
	if b.BidID, err = m.Uint("id"); err != nil {
		return b, err
	}
	if b.Currency, err = m.Uint("cur"); err != nil {
		return b, err
	}
	if b.MaxPrice, err = m.Uint("price"); err != nil {
		return b, err
	}
	auc, err := m.Bin("auc")
	if err != nil {
		return b, err
	}
	if len(auc) > 0 {
		if b.AuctionKey, err = NewAddressFromBytes(auc); err != nil {
			return b, err
		}
	}
	bidder, err := m.Bin("bidder")
	if err != nil {
		return b, err
	}
	if len(bidder) > 0 {
		if b.Bidder, err = NewAddressFromBytes(bidder); err != nil {
			return b, err
		}
	}
	return b, nil
}

func signedBidFromDict(m encoding.Map) (SignedBid, error) {
	var sb SignedBid
	bid, err := m.Map("bid")
	if err != nil {
		return sb, err
	}
	if bid == nil {
		return sb, errors.New("signed bid carries no bid")
	}
	if sb.Bid, err = bidFromDict(bid); err != nil {
		return sb, err
	}
	sig, err := m.Bin("sig")
	if err != nil {
		return sb, err
	}
	if sb.Sig, err = crypto.NewSignatureFromBytes(sig); err != nil {
		return sb, err
	}
	return sb, nil
}

func noteFieldFromDict(m encoding.Map) (NoteField, error) {
	var n NoteField
	t, err := m.String("t")
	if err != nil {
		return n, err
	}
	n.Type = NoteFieldType(t)
	b, err := m.Map("b")
	if err != nil {
		return n, err
	}
	if b != nil {
		if n.SignedBid, err = signedBidFromDict(b); err != nil {
			return n, err
		}
	}
	return n, nil
}
