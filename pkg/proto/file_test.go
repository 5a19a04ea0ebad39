package proto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRoundTrip(t *testing.T) {
	sk := signerKey(t)
	sender := NewAddressFromPublicKey(sk.PublicKey())
	params := devnetParams(t)
	txn, err := NewUnsignedPayment(params, sender, ApplicationAddress(1), 5000, Address{}, nil, nil)
	require.NoError(t, err)
	stx, err := Sign(sk, txn)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "records.tx")
	require.NoError(t, WriteToFile(path, txn, &stx))

	records, err := ReadFromFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	got, ok := records[0].(*Payment)
	require.True(t, ok)
	assert.Equal(t, txn, got)

	gotSigned, ok := records[1].(*SignedTransaction)
	require.True(t, ok)
	assert.Equal(t, stx, *gotSigned)
	valid, err := gotSigned.Verify()
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestFileMixedRecords(t *testing.T) {
	sk := signerKey(t)
	bid := Bid{
		Bidder:     NewAddressFromPublicKey(sk.PublicKey()),
		AuctionKey: ApplicationAddress(3),
		AuctionID:  4,
		BidID:      9,
		Currency:   250,
		MaxPrice:   12,
	}
	sb, err := SignBid(sk, bid)
	require.NoError(t, err)
	msig := testMultisigAccount(t)
	lsig, err := NewLogicSig([]byte{0x01, 0x20, 0x01, 0x01, 0x22}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "mixed.tx")
	require.NoError(t, WriteToFile(path, &sb, &msig, &lsig))

	records, err := ReadFromFile(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.IsType(t, &SignedBid{}, records[0])
	assert.IsType(t, &Multisig{}, records[1])
	assert.IsType(t, &LogicSig{}, records[2])
	assert.Equal(t, msig, *records[1].(*Multisig))
}

func TestFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tx")
	require.NoError(t, WriteToFile(path))

	records, err := ReadFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileTruncatedRecord(t *testing.T) {
	sk := signerKey(t)
	sender := NewAddressFromPublicKey(sk.PublicKey())
	txn, err := NewUnsignedPayment(devnetParams(t), sender, sender, 1, Address{}, nil, nil)
	require.NoError(t, err)
	stx, err := Sign(sk, txn)
	require.NoError(t, err)
	enc, err := MarshalSignedTransaction(stx)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "short.tx")
	require.NoError(t, os.WriteFile(path, enc[:len(enc)-3], 0o644))

	_, err = ReadFromFile(path)
	assert.Error(t, err)
}

func TestFileMissing(t *testing.T) {
	_, err := ReadFromFile(filepath.Join(t.TempDir(), "absent.tx"))
	assert.Error(t, err)
}
