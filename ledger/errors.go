package ledger

import "errors"

// Errors returned by ledger operations (engine/errors.go sentinel style).
var (
	ErrDuplicateNonce   = errors.New("ledger: duplicate (participant, nonce) pair")
	ErrNonceNotIncreasing = errors.New("ledger: nonce must strictly increase per participant")
	ErrEmptyLedger      = errors.New("ledger: ledger must contain at least a genesis block")
	ErrSealFailed       = errors.New("ledger: failed to find a nonce meeting the configured difficulty")
	ErrCorruptSnapshot  = errors.New("ledger: snapshot failed integrity replay")
)

// VerifyFailure describes why Verify/replay rejected the ledger —
// spec's (first_bad_index, reason) result.
type VerifyFailure struct {
	Index  uint64
	Reason string
}

func (f *VerifyFailure) Error() string {
	return f.Reason
}
