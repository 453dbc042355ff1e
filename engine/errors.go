package engine

import "errors"

// RejectReason enumerates the spec §7 Rejected() reasons: protocol
// misuse that leaves state unchanged, as opposed to Evidence (which
// terminates the session).
type RejectReason string

const (
	NotYourTurn           RejectReason = "NotYourTurn"
	CommitmentAlreadySet  RejectReason = "CommitmentAlreadySet"
	UnknownPeer           RejectReason = "UnknownPeer"
	PhaseWrong            RejectReason = "PhaseWrong"
	DuplicateNonceReason  RejectReason = "DuplicateNonce"
)

// Rejected wraps a RejectReason as an error, the result of a call that
// violated protocol ordering rather than cryptographic soundness.
type Rejected struct {
	Reason RejectReason
}

func (r *Rejected) Error() string {
	return "engine: rejected: " + string(r.Reason)
}

func reject(reason RejectReason) error {
	return &Rejected{Reason: reason}
}

// Sentinel errors for engine construction and options validation.
var (
	ErrInvalidOptions  = errors.New("engine: invalid options")
	ErrNoSelfIdentity  = errors.New("engine: identity is required")
	ErrNoSelfCommitment = errors.New("engine: self commitment must be set before starting the session")
)
