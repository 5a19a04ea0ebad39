package proto

import "github.com/pkg/errors"

var (
	ErrWrongAddressLength = errors.New("proto: encoded address has wrong length")
	ErrWrongChecksum      = errors.New("proto: address checksum does not match")
	ErrWrongKeyLength     = errors.New("proto: participation key has wrong length")
	ErrWrongLeaseLength   = errors.New("proto: lease must be 32 bytes")
	ErrWrongNoteLength    = errors.New("proto: note exceeds 1024 bytes")
	ErrInvalidRounds      = errors.New("proto: first valid round is after last valid round")

	ErrInvalidSecretKey = errors.New("proto: secret key does not match transaction requirements")
	ErrBadTxnSender     = errors.New("proto: transaction sender does not match multisig identity")

	ErrInvalidThreshold      = errors.New("proto: invalid multisig threshold")
	ErrUnknownMsigVersion    = errors.New("proto: unknown multisig version, expected 1")
	ErrMultisigAccountSize   = errors.New("proto: multisig account has too many addresses")
	ErrKeyNotInMultisig      = errors.New("proto: key does not belong to the multisig account")
	ErrMergeKeysMismatch     = errors.New("proto: multisig accounts do not match")
	ErrMergeAuthAddrMismatch = errors.New("proto: mismatched authorizing addresses")
	ErrMergeTxnMismatch      = errors.New("proto: transactions do not match")
	ErrDuplicateSigMismatch  = errors.New("proto: slot carries two different signatures")

	ErrGroupSize = errors.New("proto: group size must be between 1 and 16 transactions")

	ErrInvalidProgram        = errors.New("proto: invalid program for logic signature")
	ErrLogicSigOverspecified = errors.New("proto: logic signature carries both sig and msig")
)
