package proto

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/crypto"
	"github.com/algonaut/goalgo/pkg/encoding"
)

// LogicSig authorizes a transaction with a compiled stateless program.
// Without a signature the program's own hash is the authorizing address
// (a contract account). With Sig or Msig set, an account has delegated
// its authority to the program. Args are handed to the program at
// execution time and are not covered by the delegation signature.
type LogicSig struct {
	Logic []byte
	Args  [][]byte
	Sig   *crypto.Signature
	Msig  *Multisig
}

// checkProgram rejects obviously unusable programs. Full validation is
// the node's job; here an empty program is the only hard error.
func checkProgram(program []byte) error {
	if len(program) == 0 {
		return ErrInvalidProgram
	}
	return nil
}

// NewLogicSig creates an unsigned logic signature for a contract
// account.
func NewLogicSig(program []byte, args [][]byte) (LogicSig, error) {
	if err := checkProgram(program); err != nil {
		return LogicSig{}, err
	}
	return LogicSig{Logic: program, Args: args}, nil
}

// programBytes is the domain-separated payload a delegating account
// signs.
func programBytes(program []byte) []byte {
	return append(append([]byte{}, programPrefix...), program...)
}

// SignLogicSig delegates the signer's authority to the program.
func SignLogicSig(sk crypto.SecretKey, program []byte, args [][]byte) (LogicSig, error) {
	lsig, err := NewLogicSig(program, args)
	if err != nil {
		return LogicSig{}, err
	}
	sig := crypto.Sign(sk, programBytes(program))
	lsig.Sig = &sig
	return lsig, nil
}

// SignLogicSigMultisig starts a multisig delegation of account to the
// program, filling sk's slot. Further members sign with
// AppendLogicSigMultisig.
func SignLogicSigMultisig(sk crypto.SecretKey, account Multisig, program []byte, args [][]byte) (LogicSig, error) {
	lsig, err := NewLogicSig(program, args)
	if err != nil {
		return LogicSig{}, err
	}
	msig := account.Blank()
	if err := fillProgramSlot(sk, &msig, program); err != nil {
		return LogicSig{}, err
	}
	lsig.Msig = &msig
	return lsig, nil
}

// AppendLogicSigMultisig fills sk's slot on an existing multisig
// delegation, returning a new value.
func AppendLogicSigMultisig(sk crypto.SecretKey, lsig LogicSig) (LogicSig, error) {
	if lsig.Msig == nil {
		return LogicSig{}, errors.New("logic signature carries no multisig delegation")
	}
	msig := lsig.Msig.Copy()
	if err := fillProgramSlot(sk, &msig, lsig.Logic); err != nil {
		return LogicSig{}, err
	}
	out := lsig
	out.Msig = &msig
	return out, nil
}

func fillProgramSlot(sk crypto.SecretKey, msig *Multisig, program []byte) error {
	if err := msig.Validate(); err != nil {
		return err
	}
	pk := sk.PublicKey()
	for i := range msig.Subsigs {
		if msig.Subsigs[i].PublicKey == pk {
			sig := crypto.Sign(sk, programBytes(program))
			msig.Subsigs[i].Sig = &sig
			return nil
		}
	}
	return ErrKeyNotInMultisig
}

// Address returns the program's contract-account address, the hash of
// the program under its domain prefix. It identifies the escrow no
// matter how the logic signature is used.
func (l *LogicSig) Address() (Address, error) {
	if err := checkProgram(l.Logic); err != nil {
		return Address{}, err
	}
	return Address(crypto.Sum(programBytes(l.Logic))), nil
}

// Verify checks the logic signature as an authorizer for sender: an
// undelegated lsig must be the sender's own escrow, a delegated one
// must carry a valid signature by sender or by the sender's multisig.
func (l *LogicSig) Verify(sender Address) bool {
	if checkProgram(l.Logic) != nil {
		return false
	}
	if l.Sig != nil && l.Msig != nil {
		return false
	}
	if l.Sig == nil && l.Msig == nil {
		escrow, err := l.Address()
		if err != nil {
			return false
		}
		return escrow == sender
	}
	msg := programBytes(l.Logic)
	if l.Sig != nil {
		return crypto.Verify(sender.PublicKey(), *l.Sig, msg)
	}
	addr, err := l.Msig.Address()
	if err != nil || addr != sender {
		return false
	}
	verified := 0
	for _, s := range l.Msig.Subsigs {
		if s.Sig == nil {
			continue
		}
		if !crypto.Verify(s.PublicKey, *s.Sig, msg) {
			return false
		}
		verified++
	}
	return verified >= int(l.Msig.Threshold)
}

func (l *LogicSig) dictify() (encoding.Map, error) {
	if l.Sig != nil && l.Msig != nil {
		return nil, ErrLogicSigOverspecified
	}
	m := encoding.Map{{Key: "l", Value: encoding.Bin(l.Logic)}}
	if len(l.Args) > 0 {
		args := make(encoding.Array, len(l.Args))
		for i, a := range l.Args {
			args[i] = encoding.Bin(a)
		}
		m = append(m, encoding.KV{Key: "arg", Value: args})
	}
	if l.Sig != nil {
		m = append(m, encoding.KV{Key: "sig", Value: encoding.Bin(l.Sig.Bytes())})
	}
	if l.Msig != nil {
		m = append(m, encoding.KV{Key: "msig", Value: l.Msig.dictify()})
	}
	return m, nil
}

func logicSigFromDict(m encoding.Map) (LogicSig, error) {
	var l LogicSig
	var err error
	if l.Logic, err = m.Bin("l"); err != nil {
		return l, err
	}
	args, err := m.Array("arg")
	if err != nil {
		return l, err
	}
	for _, v := range args {
		b, ok := v.(encoding.Bin)
		if !ok {
			return l, errors.New("logic signature argument is not a byte string")
		}
		l.Args = append(l.Args, []byte(b))
	}
	sig, err := m.Bin("sig")
	if err != nil {
		return l, err
	}
	if len(sig) > 0 {
		s, err := crypto.NewSignatureFromBytes(sig)
		if err != nil {
			return l, err
		}
		l.Sig = &s
	}
	msig, err := m.Map("msig")
	if err != nil {
		return l, err
	}
	if msig != nil {
		ms, err := multisigFromDict(msig)
		if err != nil {
			return l, err
		}
		l.Msig = &ms
	}
	if l.Sig != nil && l.Msig != nil {
		return l, ErrLogicSigOverspecified
	}
	return l, nil
}

// LogicSigAccount is a logic signature together with, for single-key
// delegation, the delegating account's public key. It resolves the
// address a logic-signed transaction is authorized for.
type LogicSigAccount struct {
	Lsig       LogicSig
	SigningKey crypto.PublicKey
}

// NewLogicSigAccountEscrow wraps an undelegated program as a contract
// account.
func NewLogicSigAccountEscrow(program []byte, args [][]byte) (LogicSigAccount, error) {
	lsig, err := NewLogicSig(program, args)
	if err != nil {
		return LogicSigAccount{}, err
	}
	return LogicSigAccount{Lsig: lsig}, nil
}

// NewLogicSigAccountDelegated delegates sk's account to the program.
func NewLogicSigAccountDelegated(sk crypto.SecretKey, program []byte, args [][]byte) (LogicSigAccount, error) {
	lsig, err := SignLogicSig(sk, program, args)
	if err != nil {
		return LogicSigAccount{}, err
	}
	return LogicSigAccount{Lsig: lsig, SigningKey: sk.PublicKey()}, nil
}

// IsDelegated reports whether the account's authority comes from a
// delegation rather than the program's own escrow address.
func (a *LogicSigAccount) IsDelegated() bool {
	return a.Lsig.Sig != nil || a.Lsig.Msig != nil
}

// Address resolves the authorized address: the delegating key's address
// for single-key delegation, the multisig address for multisig
// delegation, and the program escrow otherwise.
func (a *LogicSigAccount) Address() (Address, error) {
	if a.Lsig.Sig != nil && a.Lsig.Msig != nil {
		return Address{}, ErrLogicSigOverspecified
	}
	if a.Lsig.Sig != nil {
		return NewAddressFromPublicKey(a.SigningKey), nil
	}
	if a.Lsig.Msig != nil {
		return a.Lsig.Msig.Address()
	}
	return a.Lsig.Address()
}

func (a *LogicSigAccount) dictify() (encoding.Map, error) {
	lsig, err := a.Lsig.dictify()
	if err != nil {
		return nil, err
	}
	m := encoding.Map{{Key: "lsig", Value: lsig}}
	if a.SigningKey != (crypto.PublicKey{}) {
		m = append(m, encoding.KV{Key: "sigkey", Value: encoding.Bin(a.SigningKey.Bytes())})
	}
	return m, nil
}

// MarshalLogicSigAccount serializes the account for persistence.
func MarshalLogicSigAccount(a LogicSigAccount) ([]byte, error) {
	m, err := a.dictify()
	if err != nil {
		return nil, err
	}
	return encoding.Encode(m)
}

func logicSigAccountFromDict(m encoding.Map) (LogicSigAccount, error) {
	var a LogicSigAccount
	lsig, err := m.Map("lsig")
	if err != nil {
		return a, err
	}
	if a.Lsig, err = logicSigFromDict(lsig); err != nil {
		return a, err
	}
	sigkey, err := m.Bin("sigkey")
	if err != nil {
		return a, err
	}
	if len(sigkey) > 0 {
		if a.SigningKey, err = crypto.NewPublicKeyFromBytes(sigkey); err != nil {
			return a, err
		}
	}
	return a, nil
}

// LogicSigTransaction is a transaction authorized by a logic signature.
type LogicSigTransaction struct {
	Lsig     LogicSig
	Txn      Transaction
	AuthAddr Address
}

// NewLogicSigTransaction authorizes tx with account. When the resolved
// logic signature address differs from the sender it is recorded as the
// authorizer.
func NewLogicSigTransaction(account LogicSigAccount, tx Transaction) (LogicSigTransaction, error) {
	addr, err := account.Address()
	if err != nil {
		return LogicSigTransaction{}, err
	}
	ltx := LogicSigTransaction{Lsig: account.Lsig, Txn: tx}
	if tx.Head().Sender != addr {
		ltx.AuthAddr = addr
	}
	return ltx, nil
}

// ID returns the wrapped transaction's id.
func (ltx *LogicSigTransaction) ID() (string, error) {
	return TransactionID(ltx.Txn)
}

func (ltx *LogicSigTransaction) dictify() (encoding.Map, error) {
	lsig, err := ltx.Lsig.dictify()
	if err != nil {
		return nil, err
	}
	txn, err := ltx.Txn.Dictify()
	if err != nil {
		return nil, err
	}
	m := encoding.Map{
		{Key: "lsig", Value: lsig},
		{Key: "txn", Value: txn},
	}
	if !ltx.AuthAddr.IsZero() {
		m = append(m, encoding.KV{Key: "sgnr", Value: encoding.Bin(ltx.AuthAddr.Bytes())})
	}
	return m, nil
}

// MarshalLogicSigTransaction serializes ltx into the form accepted by
// the network's raw transaction endpoint.
func MarshalLogicSigTransaction(ltx LogicSigTransaction) ([]byte, error) {
	m, err := ltx.dictify()
	if err != nil {
		return nil, err
	}
	return encoding.Encode(m)
}

func logicSigTransactionFromDict(m encoding.Map) (LogicSigTransaction, error) {
	var ltx LogicSigTransaction
	lsig, err := m.Map("lsig")
	if err != nil {
		return ltx, err
	}
	if ltx.Lsig, err = logicSigFromDict(lsig); err != nil {
		return ltx, err
	}
	txn, err := m.Map("txn")
	if err != nil {
		return ltx, err
	}
	if txn == nil {
		return ltx, errors.New("logicsig transaction carries no body")
	}
	if ltx.Txn, err = transactionFromDict(txn); err != nil {
		return ltx, err
	}
	sgnr, err := m.Bin("sgnr")
	if err != nil {
		return ltx, err
	}
	if len(sgnr) > 0 {
		if ltx.AuthAddr, err = NewAddressFromBytes(sgnr); err != nil {
			return ltx, err
		}
	}
	return ltx, nil
}

// TealSign signs data for the ed25519verify opcode running inside the
// contract at contractAddress.
func TealSign(sk crypto.SecretKey, data []byte, contractAddress Address) crypto.Signature {
	msg := make([]byte, 0, len(programDataPrefix)+AddressSize+len(data))
	msg = append(msg, programDataPrefix...)
	msg = append(msg, contractAddress.Bytes()...)
	msg = append(msg, data...)
	return crypto.Sign(sk, msg)
}

// TealSignFromProgram is TealSign with the contract address derived
// from the program source.
func TealSignFromProgram(sk crypto.SecretKey, data []byte, program []byte) (crypto.Signature, error) {
	lsig, err := NewLogicSig(program, nil)
	if err != nil {
		return crypto.Signature{}, err
	}
	addr, err := lsig.Address()
	if err != nil {
		return crypto.Signature{}, err
	}
	return TealSign(sk, data, addr), nil
}

// TealVerify checks a signature produced by TealSign.
func TealVerify(pk crypto.PublicKey, sig crypto.Signature, data []byte, contractAddress Address) bool {
	msg := make([]byte, 0, len(programDataPrefix)+AddressSize+len(data))
	msg = append(msg, programDataPrefix...)
	msg = append(msg, contractAddress.Bytes()...)
	msg = append(msg, data...)
	return crypto.Verify(pk, sig, msg)
}

// ApplicationAddress derives the escrow address owned by an application.
func ApplicationAddress(appID uint64) Address {
	buf := make([]byte, 0, len(appIDPrefix)+8)
	buf = append(buf, appIDPrefix...)
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], appID)
	buf = append(buf, id[:]...)
	return Address(crypto.Sum(buf))
}
