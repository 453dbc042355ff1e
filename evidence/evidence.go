package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

// Errors returned while recording or reporting evidence.
var (
	ErrDuplicateEvidence = errors.New("evidence: duplicate evidence for this violation")
	ErrAlreadyInvalidated = errors.New("evidence: participant already invalidated")
)

// Kind enumerates the closed seven-member cheat taxonomy. No eighth
// kind exists; a new violation class is a protocol change, not an
// extension point.
type Kind string

const (
	InvalidProof       Kind = "INVALID_PROOF"
	ForgedSignature    Kind = "FORGED_SIGNATURE"
	CommitmentMismatch Kind = "COMMITMENT_MISMATCH"
	LedgerTamper       Kind = "LEDGER_TAMPER"
	TimeoutStall       Kind = "TIMEOUT_STALL"
	DoubleMove         Kind = "DOUBLE_MOVE"
	InvalidMove        Kind = "INVALID_MOVE"
)

// CheatEvidence is a self-contained assertion that accused violated the
// protocol rule named by Kind. Witness carries whatever the accuser
// needs to re-derive the verdict independently: the offending
// transaction, proof, or block reference, opaque to this package.
type CheatEvidence struct {
	Kind     Kind   `json:"kind"`
	Accused  string `json:"accused"`
	Witness  any    `json:"witness"`
	At       int64  `json:"at"`
}

// key returns a stable dedup key for ev, hashing Witness so two
// evidence objects naming the same kind/accused/witness collide even
// if constructed independently (adapted from the teacher's
// evidenceKey, which hashes vote data for the same reason).
func (ev CheatEvidence) key() (string, error) {
	witnessBytes, err := canonicalWitness(ev.Witness)
	if err != nil {
		return "", fmt.Errorf("evidence: hashing witness: %w", err)
	}
	sum := sha256.Sum256(witnessBytes)
	return fmt.Sprintf("%s/%s/%s", ev.Kind, ev.Accused, hex.EncodeToString(sum[:8])), nil
}

// Log records every piece of evidence produced during a session and
// tracks which participants have been invalidated as a result. It is
// the local peer's running dispute record — not replicated, but
// reconstructible by any third party from the ledger's INVALIDATION
// transactions (adapted from the teacher's Pool: dedup-by-key pending
// list, generalized from one evidence kind to seven).
type Log struct {
	mu sync.RWMutex

	entries      []CheatEvidence
	seen         map[string]struct{}
	invalidated  map[string]CheatEvidence
}

// NewLog creates an empty dispute log.
func NewLog() *Log {
	return &Log{
		seen:        make(map[string]struct{}),
		invalidated: make(map[string]CheatEvidence),
	}
}

// Record adds ev to the log, rejecting an exact duplicate. It does not
// itself decide invalidation; callers call Invalidate once they have
// decided ev is actionable.
func (l *Log) Record(ev CheatEvidence) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key, err := ev.key()
	if err != nil {
		return err
	}
	if _, ok := l.seen[key]; ok {
		return ErrDuplicateEvidence
	}
	l.seen[key] = struct{}{}
	l.entries = append(l.entries, ev)
	return nil
}

// Invalidate marks ev's accused participant as invalidated. At most one
// invalidation is retained per participant; a second attempt is
// rejected rather than overwriting the first proof (spec property 5:
// at-most-one invalidation per session, generalized here per-accused).
func (l *Log) Invalidate(ev CheatEvidence) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.invalidated[ev.Accused]; ok {
		return ErrAlreadyInvalidated
	}
	l.invalidated[ev.Accused] = ev
	return nil
}

// IsInvalidated reports whether participantID has been invalidated, and
// the evidence that did it.
func (l *Log) IsInvalidated(participantID string) (CheatEvidence, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ev, ok := l.invalidated[participantID]
	return ev, ok
}

// Entries returns every piece of evidence recorded so far, in the order
// Record was called.
func (l *Log) Entries() []CheatEvidence {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]CheatEvidence, len(l.entries))
	copy(out, l.entries)
	return out
}

// Report is the shape of Log.Report()'s export: a comprehensive,
// shareable summary of every violation this peer observed, grounded on
// original_source/zerotrust/cheating.py's create_cheat_report.
type Report struct {
	DetectorID         string          `json:"detector_id"`
	TotalCheatsDetected int            `json:"total_cheats_detected"`
	Invalidated         []string       `json:"invalidated"`
	Cheats              []CheatEvidence `json:"cheats"`
}

// Report builds a Report describing every recorded CheatEvidence and
// every currently-invalidated participant, attributed to detectorID
// (this peer's own participant ID).
func (l *Log) Report(detectorID string) Report {
	l.mu.RLock()
	defer l.mu.RUnlock()

	invalidated := make([]string, 0, len(l.invalidated))
	for participantID := range l.invalidated {
		invalidated = append(invalidated, participantID)
	}

	cheats := make([]CheatEvidence, len(l.entries))
	copy(cheats, l.entries)

	return Report{
		DetectorID:          detectorID,
		TotalCheatsDetected: len(cheats),
		Invalidated:         invalidated,
		Cheats:              cheats,
	}
}

// canonicalWitness encodes an evidence witness deterministically enough
// for dedup hashing. It is intentionally permissive (unlike
// crypto.Canonical, which enforces the wire-signing rules) since a
// witness may itself hold already-canonical bytes, hex strings, or
// plain Go values constructed by the engine.
func canonicalWitness(v any) ([]byte, error) {
	return []byte(fmt.Sprintf("%#v", v)), nil
}
