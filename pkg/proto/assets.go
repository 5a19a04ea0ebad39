package proto

import (
	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/encoding"
)

// AssetParams describes an asset's mutable and immutable configuration.
// Zero-valued fields are omitted from the canonical record; on an
// existing asset a zero management address gives that role up for good.
type AssetParams struct {
	Total         uint64
	Decimals      uint64
	DefaultFrozen bool
	UnitName      string
	AssetName     string
	URL           string
	MetadataHash  [32]byte
	Manager       Address
	Reserve       Address
	Freeze        Address
	Clawback      Address
}

func (p *AssetParams) isZero() bool {
	return *p == AssetParams{}
}

func (p *AssetParams) dictify() encoding.Map {
	m := encoding.Map{
		{Key: "t", Value: encoding.Uint(p.Total)},
		{Key: "dc", Value: encoding.Uint(p.Decimals)},
		{Key: "df", Value: encoding.Bool(p.DefaultFrozen)},
		{Key: "un", Value: encoding.String(p.UnitName)},
		{Key: "an", Value: encoding.String(p.AssetName)},
		{Key: "au", Value: encoding.String(p.URL)},
	}
	if p.MetadataHash != ([32]byte{}) {
		m = append(m, encoding.KV{Key: "am", Value: encoding.Bin(p.MetadataHash[:])})
	}
	if !p.Manager.IsZero() {
		m = append(m, encoding.KV{Key: "m", Value: encoding.Bin(p.Manager.Bytes())})
	}
	if !p.Reserve.IsZero() {
		m = append(m, encoding.KV{Key: "r", Value: encoding.Bin(p.Reserve.Bytes())})
	}
	if !p.Freeze.IsZero() {
		m = append(m, encoding.KV{Key: "f", Value: encoding.Bin(p.Freeze.Bytes())})
	}
	if !p.Clawback.IsZero() {
		m = append(m, encoding.KV{Key: "c", Value: encoding.Bin(p.Clawback.Bytes())})
	}
	return m
}

func assetParamsFromDict(m encoding.Map) (AssetParams, error) {
	var p AssetParams
	var err error
	if p.Total, err = m.Uint("t"); err != nil {
		return p, err
	}
	if p.Decimals, err = m.Uint("dc"); err != nil {
		return p, err
	}
	if p.DefaultFrozen, err = m.Bool("df"); err != nil {
		return p, err
	}
	if p.UnitName, err = m.String("un"); err != nil {
		return p, err
	}
	if p.AssetName, err = m.String("an"); err != nil {
		return p, err
	}
	if p.URL, err = m.String("au"); err != nil {
		return p, err
	}
	am, err := m.Bin("am")
	if err != nil {
		return p, err
	}
	if len(am) > 0 {
		if len(am) != len(p.MetadataHash) {
			return p, errors.New("asset metadata hash must be 32 bytes")
		}
		copy(p.MetadataHash[:], am)
	}
	for _, role := range []struct {
		key  string
		addr *Address
	}{
		{"m", &p.Manager}, {"r", &p.Reserve}, {"f", &p.Freeze}, {"c", &p.Clawback},
	} {
		b, err := m.Bin(role.key)
		if err != nil {
			return p, err
		}
		if len(b) > 0 {
			if *role.addr, err = NewAddressFromBytes(b); err != nil {
				return p, err
			}
		}
	}
	return p, nil
}

// AssetConfig creates, reconfigures or destroys an asset. ConfigAsset
// zero means creation; a non-zero ConfigAsset with zero Params destroys
// the asset.
type AssetConfig struct {
	Header
	ConfigAsset uint64
	Params      AssetParams
}

// NewUnsignedAssetConfig creates an asset configuration transaction and
// finalizes its fee from params.
func NewUnsignedAssetConfig(params SuggestedParams, sender Address, configAsset uint64, assetParams AssetParams, note []byte, lease []byte) (*AssetConfig, error) {
	h, err := newHeader(params, sender, note, lease)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create asset config transaction")
	}
	tx := &AssetConfig{Header: h, ConfigAsset: configAsset, Params: assetParams}
	if err := finalizeFee(tx, params); err != nil {
		return nil, errors.Wrap(err, "failed to create asset config transaction")
	}
	return tx, nil
}

func (tx *AssetConfig) Type() TxType  { return AssetConfigTransaction }
func (tx *AssetConfig) Head() *Header { return &tx.Header }

func (tx *AssetConfig) Dictify() (encoding.Map, error) {
	m := tx.Header.dictify(AssetConfigTransaction)
	m = append(m, encoding.KV{Key: "caid", Value: encoding.Uint(tx.ConfigAsset)})
	if !tx.Params.isZero() {
		m = append(m, encoding.KV{Key: "apar", Value: tx.Params.dictify()})
	}
	return m, nil
}

func assetConfigFromDict(m encoding.Map) (*AssetConfig, error) {
	h, err := headerFromDict(m)
	if err != nil {
		return nil, err
	}
	tx := &AssetConfig{Header: h}
	if tx.ConfigAsset, err = m.Uint("caid"); err != nil {
		return nil, err
	}
	apar, err := m.Map("apar")
	if err != nil {
		return nil, err
	}
	if apar != nil {
		if tx.Params, err = assetParamsFromDict(apar); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// AssetTransfer moves asset units. A transfer of zero units to oneself
// opts the sender in to the asset; a non-zero AssetSender is a clawback
// revocation by the asset's clawback address.
type AssetTransfer struct {
	Header
	XferAsset     uint64
	Amount        uint64
	Receiver      Address
	AssetSender   Address
	CloseAssetsTo Address
}

// NewUnsignedAssetTransfer creates an asset transfer and finalizes its
// fee from params.
func NewUnsignedAssetTransfer(params SuggestedParams, sender, receiver Address, amount, xferAsset uint64, closeAssetsTo Address, note []byte, lease []byte) (*AssetTransfer, error) {
	h, err := newHeader(params, sender, note, lease)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create asset transfer transaction")
	}
	tx := &AssetTransfer{
		Header:        h,
		XferAsset:     xferAsset,
		Amount:        amount,
		Receiver:      receiver,
		CloseAssetsTo: closeAssetsTo,
	}
	if err := finalizeFee(tx, params); err != nil {
		return nil, errors.Wrap(err, "failed to create asset transfer transaction")
	}
	return tx, nil
}

// NewUnsignedAssetRevocation creates a clawback transfer moving amount
// units of the asset out of target's holdings. Sender must be the
// asset's clawback address.
func NewUnsignedAssetRevocation(params SuggestedParams, sender, target, receiver Address, amount, xferAsset uint64, note []byte, lease []byte) (*AssetTransfer, error) {
	h, err := newHeader(params, sender, note, lease)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create asset revocation transaction")
	}
	// The fee must be finalized exactly once, with AssetSender already in
	// place, so the size estimate still sees the per-byte rate in the fee
	// field rather than a previously computed fee of a different width.
	tx := &AssetTransfer{
		Header:      h,
		XferAsset:   xferAsset,
		Amount:      amount,
		Receiver:    receiver,
		AssetSender: target,
	}
	if err := finalizeFee(tx, params); err != nil {
		return nil, errors.Wrap(err, "failed to create asset revocation transaction")
	}
	return tx, nil
}

func (tx *AssetTransfer) Type() TxType  { return AssetTransferTransaction }
func (tx *AssetTransfer) Head() *Header { return &tx.Header }

func (tx *AssetTransfer) Dictify() (encoding.Map, error) {
	m := tx.Header.dictify(AssetTransferTransaction)
	m = append(m,
		encoding.KV{Key: "xaid", Value: encoding.Uint(tx.XferAsset)},
		encoding.KV{Key: "aamt", Value: encoding.Uint(tx.Amount)},
	)
	if !tx.Receiver.IsZero() {
		m = append(m, encoding.KV{Key: "arcv", Value: encoding.Bin(tx.Receiver.Bytes())})
	}
	if !tx.AssetSender.IsZero() {
		m = append(m, encoding.KV{Key: "asnd", Value: encoding.Bin(tx.AssetSender.Bytes())})
	}
	if !tx.CloseAssetsTo.IsZero() {
		m = append(m, encoding.KV{Key: "aclose", Value: encoding.Bin(tx.CloseAssetsTo.Bytes())})
	}
	return m, nil
}

func assetTransferFromDict(m encoding.Map) (*AssetTransfer, error) {
	h, err := headerFromDict(m)
	if err != nil {
		return nil, err
	}
	tx := &AssetTransfer{Header: h}
	if tx.XferAsset, err = m.Uint("xaid"); err != nil {
		return nil, err
	}
	if tx.Amount, err = m.Uint("aamt"); err != nil {
		return nil, err
	}
	for _, role := range []struct {
		key  string
		addr *Address
	}{
		{"arcv", &tx.Receiver}, {"asnd", &tx.AssetSender}, {"aclose", &tx.CloseAssetsTo},
	} {
		b, err := m.Bin(role.key)
		if err != nil {
			return nil, err
		}
		if len(b) > 0 {
			if *role.addr, err = NewAddressFromBytes(b); err != nil {
				return nil, err
			}
		}
	}
	return tx, nil
}

// AssetFreeze toggles the frozen state of target's holdings of an
// asset. Sender must be the asset's freeze address.
type AssetFreeze struct {
	Header
	FreezeAsset    uint64
	FreezeAccount  Address
	NewFreezeState bool
}

// NewUnsignedAssetFreeze creates an asset freeze transaction and
// finalizes its fee from params.
func NewUnsignedAssetFreeze(params SuggestedParams, sender, target Address, freezeAsset uint64, newFreezeState bool, note []byte, lease []byte) (*AssetFreeze, error) {
	h, err := newHeader(params, sender, note, lease)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create asset freeze transaction")
	}
	tx := &AssetFreeze{
		Header:         h,
		FreezeAsset:    freezeAsset,
		FreezeAccount:  target,
		NewFreezeState: newFreezeState,
	}
	if err := finalizeFee(tx, params); err != nil {
		return nil, errors.Wrap(err, "failed to create asset freeze transaction")
	}
	return tx, nil
}

func (tx *AssetFreeze) Type() TxType  { return AssetFreezeTransaction }
func (tx *AssetFreeze) Head() *Header { return &tx.Header }

func (tx *AssetFreeze) Dictify() (encoding.Map, error) {
	m := tx.Header.dictify(AssetFreezeTransaction)
	m = append(m,
		encoding.KV{Key: "faid", Value: encoding.Uint(tx.FreezeAsset)},
		encoding.KV{Key: "afrz", Value: encoding.Bool(tx.NewFreezeState)},
	)
	if !tx.FreezeAccount.IsZero() {
		m = append(m, encoding.KV{Key: "fadd", Value: encoding.Bin(tx.FreezeAccount.Bytes())})
	}
	return m, nil
}

func assetFreezeFromDict(m encoding.Map) (*AssetFreeze, error) {
	h, err := headerFromDict(m)
	if err != nil {
		return nil, err
	}
	tx := &AssetFreeze{Header: h}
	if tx.FreezeAsset, err = m.Uint("faid"); err != nil {
		return nil, err
	}
	if tx.NewFreezeState, err = m.Bool("afrz"); err != nil {
		return nil, err
	}
	fadd, err := m.Bin("fadd")
	if err != nil {
		return nil, err
	}
	if len(fadd) > 0 {
		if tx.FreezeAccount, err = NewAddressFromBytes(fadd); err != nil {
			return nil, err
		}
	}
	return tx, nil
}
