package proto

import (
	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/encoding"
)

// OnComplete selects what happens to the caller's application state
// once the call succeeds.
type OnComplete uint64

const (
	NoOpOC OnComplete = iota
	OptInOC
	CloseOutOC
	ClearStateOC
	UpdateApplicationOC
	DeleteApplicationOC
)

// StateSchema declares how many values of each kind an application
// allocates in global or local state.
type StateSchema struct {
	NumUint      uint64
	NumByteSlice uint64
}

func (s StateSchema) isZero() bool {
	return s == StateSchema{}
}

func (s StateSchema) dictify() encoding.Map {
	return encoding.Map{
		{Key: "nui", Value: encoding.Uint(s.NumUint)},
		{Key: "nbs", Value: encoding.Uint(s.NumByteSlice)},
	}
}

func stateSchemaFromDict(m encoding.Map) (StateSchema, error) {
	var s StateSchema
	var err error
	if s.NumUint, err = m.Uint("nui"); err != nil {
		return s, err
	}
	if s.NumByteSlice, err = m.Uint("nbs"); err != nil {
		return s, err
	}
	return s, nil
}

// BoxReference names a box the call may read or write. AppID zero
// refers to the called application itself.
type BoxReference struct {
	AppID uint64
	Name  []byte
}

// ApplicationCall creates, calls or manages a smart contract
// application. ApplicationID zero together with the programs and
// schemas creates a new application.
type ApplicationCall struct {
	Header
	ApplicationID   uint64
	OnComplete      OnComplete
	ApprovalProgram []byte
	ClearProgram    []byte
	AppArgs         [][]byte
	Accounts        []Address
	ForeignApps     []uint64
	ForeignAssets   []uint64
	GlobalSchema    StateSchema
	LocalSchema     StateSchema
	ExtraPages      uint64
	Boxes           []BoxReference
}

// NewUnsignedApplicationCall creates an application call and finalizes
// its fee from params. The caller fills the optional reference slices
// on the returned value before signing when the call needs them.
func NewUnsignedApplicationCall(params SuggestedParams, sender Address, applicationID uint64, onComplete OnComplete, note []byte, lease []byte) (*ApplicationCall, error) {
	h, err := newHeader(params, sender, note, lease)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create application call transaction")
	}
	tx := &ApplicationCall{Header: h, ApplicationID: applicationID, OnComplete: onComplete}
	if err := finalizeFee(tx, params); err != nil {
		return nil, errors.Wrap(err, "failed to create application call transaction")
	}
	return tx, nil
}

func (tx *ApplicationCall) Type() TxType  { return ApplicationCallTransaction }
func (tx *ApplicationCall) Head() *Header { return &tx.Header }

// boxIndex resolves a box reference's application into its position in
// the foreign apps array, with 0 reserved for the called application.
func (tx *ApplicationCall) boxIndex(ref BoxReference) (uint64, error) {
	if ref.AppID == 0 || ref.AppID == tx.ApplicationID {
		return 0, nil
	}
	for i, app := range tx.ForeignApps {
		if app == ref.AppID {
			return uint64(i) + 1, nil
		}
	}
	return 0, errors.Errorf("box app %d is not among the foreign apps", ref.AppID)
}

func (tx *ApplicationCall) Dictify() (encoding.Map, error) {
	m := tx.Header.dictify(ApplicationCallTransaction)
	m = append(m,
		encoding.KV{Key: "apid", Value: encoding.Uint(tx.ApplicationID)},
		encoding.KV{Key: "apan", Value: encoding.Uint(tx.OnComplete)},
		encoding.KV{Key: "apap", Value: encoding.Bin(tx.ApprovalProgram)},
		encoding.KV{Key: "apsu", Value: encoding.Bin(tx.ClearProgram)},
		encoding.KV{Key: "apep", Value: encoding.Uint(tx.ExtraPages)},
	)
	if len(tx.AppArgs) > 0 {
		args := make(encoding.Array, len(tx.AppArgs))
		for i, a := range tx.AppArgs {
			args[i] = encoding.Bin(a)
		}
		m = append(m, encoding.KV{Key: "apaa", Value: args})
	}
	if len(tx.Accounts) > 0 {
		accounts := make(encoding.Array, len(tx.Accounts))
		for i, a := range tx.Accounts {
			accounts[i] = encoding.Bin(a.Bytes())
		}
		m = append(m, encoding.KV{Key: "apat", Value: accounts})
	}
	if len(tx.ForeignApps) > 0 {
		apps := make(encoding.Array, len(tx.ForeignApps))
		for i, a := range tx.ForeignApps {
			apps[i] = encoding.Uint(a)
		}
		m = append(m, encoding.KV{Key: "apfa", Value: apps})
	}
	if len(tx.ForeignAssets) > 0 {
		assets := make(encoding.Array, len(tx.ForeignAssets))
		for i, a := range tx.ForeignAssets {
			assets[i] = encoding.Uint(a)
		}
		m = append(m, encoding.KV{Key: "apas", Value: assets})
	}
	if !tx.GlobalSchema.isZero() {
		m = append(m, encoding.KV{Key: "apgs", Value: tx.GlobalSchema.dictify()})
	}
	if !tx.LocalSchema.isZero() {
		m = append(m, encoding.KV{Key: "apls", Value: tx.LocalSchema.dictify()})
	}
	if len(tx.Boxes) > 0 {
		boxes := make(encoding.Array, len(tx.Boxes))
		for i, ref := range tx.Boxes {
			idx, err := tx.boxIndex(ref)
			if err != nil {
				return nil, err
			}
			boxes[i] = encoding.Map{
				{Key: "i", Value: encoding.Uint(idx)},
				{Key: "n", Value: encoding.Bin(ref.Name)},
			}
		}
		m = append(m, encoding.KV{Key: "apbx", Value: boxes})
	}
	return m, nil
}

func applicationCallFromDict(m encoding.Map) (*ApplicationCall, error) {
	h, err := headerFromDict(m)
	if err != nil {
		return nil, err
	}
	tx := &ApplicationCall{Header: h}
	if tx.ApplicationID, err = m.Uint("apid"); err != nil {
		return nil, err
	}
	oc, err := m.Uint("apan")
	if err != nil {
		return nil, err
	}
	tx.OnComplete = OnComplete(oc)
	if tx.ApprovalProgram, err = m.Bin("apap"); err != nil {
		return nil, err
	}
	if tx.ClearProgram, err = m.Bin("apsu"); err != nil {
		return nil, err
	}
	if tx.ExtraPages, err = m.Uint("apep"); err != nil {
		return nil, err
	}
	args, err := m.Array("apaa")
	if err != nil {
		return nil, err
	}
	for _, v := range args {
		b, ok := v.(encoding.Bin)
		if !ok {
			return nil, errors.New("application argument is not a byte string")
		}
		tx.AppArgs = append(tx.AppArgs, []byte(b))
	}
	accounts, err := m.Array("apat")
	if err != nil {
		return nil, err
	}
	for _, v := range accounts {
		b, ok := v.(encoding.Bin)
		if !ok {
			return nil, errors.New("application account is not a byte string")
		}
		a, err := NewAddressFromBytes(b)
		if err != nil {
			return nil, err
		}
		tx.Accounts = append(tx.Accounts, a)
	}
	for _, ref := range []struct {
		key string
		dst *[]uint64
	}{
		{"apfa", &tx.ForeignApps}, {"apas", &tx.ForeignAssets},
	} {
		arr, err := m.Array(ref.key)
		if err != nil {
			return nil, err
		}
		for _, v := range arr {
			u, ok := v.(encoding.Uint)
			if !ok {
				return nil, errors.Errorf("'%s' entry is not an unsigned integer", ref.key)
			}
			*ref.dst = append(*ref.dst, uint64(u))
		}
	}
	apgs, err := m.Map("apgs")
	if err != nil {
		return nil, err
	}
	if apgs != nil {
		if tx.GlobalSchema, err = stateSchemaFromDict(apgs); err != nil {
			return nil, err
		}
	}
	apls, err := m.Map("apls")
	if err != nil {
		return nil, err
	}
	if apls != nil {
		if tx.LocalSchema, err = stateSchemaFromDict(apls); err != nil {
			return nil, err
		}
	}
	boxes, err := m.Array("apbx")
	if err != nil {
		return nil, err
	}
	for _, v := range boxes {
		bm, ok := v.(encoding.Map)
		if !ok {
			return nil, errors.New("box reference is not a map")
		}
		idx, err := bm.Uint("i")
		if err != nil {
			return nil, err
		}
		name, err := bm.Bin("n")
		if err != nil {
			return nil, err
		}
		ref := BoxReference{Name: name}
		if idx > 0 {
			if int(idx) > len(tx.ForeignApps) {
				return nil, errors.Errorf("box index %d outside the foreign apps", idx)
			}
			ref.AppID = tx.ForeignApps[idx-1]
		}
		tx.Boxes = append(tx.Boxes, ref)
	}
	return tx, nil
}
