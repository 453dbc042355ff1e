package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// snapshotForm is the JSON wire shape for a ledger, distinct from the
// internal Ledger struct so mutex/map bookkeeping never leaks onto the
// wire.
type snapshotForm struct {
	DifficultyBits       uint32        `json:"difficulty_bits"`
	ClockSkewToleranceMS int64         `json:"clock_skew_tolerance_ms"`
	Blocks               []Block       `json:"blocks"`
}

// Serialize encodes the ledger to JSON for persistence or transfer.
// This is a disk/wire format, not the canonical hash-signing encoding,
// so ordinary encoding/json is used rather than crypto.Canonical.
func (l *Ledger) Serialize() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	form := snapshotForm{
		DifficultyBits:       l.difficultyBits,
		ClockSkewToleranceMS: l.clockSkewToleranceMS,
		Blocks:               l.blocks,
	}
	out, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("ledger: serializing: %w", err)
	}
	return out, nil
}

// Deserialize rebuilds a Ledger from bytes produced by Serialize,
// replaying resolver-verified invariants I1-I4 before accepting the
// chain. A ledger that fails replay is never returned; ErrCorruptSnapshot
// is wrapped with the underlying VerifyFailure instead of being silently
// repaired.
func Deserialize(data []byte, resolver PublicKeyResolver) (*Ledger, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var form snapshotForm
	if err := dec.Decode(&form); err != nil {
		return nil, fmt.Errorf("ledger: deserializing: %w", err)
	}

	// dec.UseNumber() leaves every bare JSON number inside Data (a
	// map[string]any) as a json.Number rather than the default float64,
	// which crypto.Canonical rejects outright. Coerce them back to the
	// integer types they were signed as before replaying the chain, or
	// tx.Hash() won't reproduce the canonical encoding Sign() produced.
	for i := range form.Blocks {
		for j := range form.Blocks[i].Transactions {
			tx := &form.Blocks[i].Transactions[j]
			if tx.Data != nil {
				normalized, ok := normalizeJSONNumbers(tx.Data).(map[string]any)
				if !ok {
					return nil, fmt.Errorf("ledger: deserializing: block %d tx %d: Data is not an object", i, j)
				}
				tx.Data = normalized
			}
		}
	}

	if failure := verifyChain(form.Blocks, resolver, form.ClockSkewToleranceMS); failure != nil {
		return nil, fmt.Errorf("%w: block %d: %s", ErrCorruptSnapshot, failure.Index, failure.Reason)
	}

	l := &Ledger{
		difficultyBits:       form.DifficultyBits,
		clockSkewToleranceMS: form.ClockSkewToleranceMS,
		blocks:               form.Blocks,
		seenNonces:           make(map[string]uint64),
		seenPairs:            make(map[string]struct{}),
	}
	for _, b := range form.Blocks {
		for _, tx := range b.Transactions {
			pairKey := fmt.Sprintf("%s/%d", tx.ParticipantID, tx.Nonce)
			l.seenPairs[pairKey] = struct{}{}
			if last, ok := l.seenNonces[tx.ParticipantID]; !ok || tx.Nonce > last {
				l.seenNonces[tx.ParticipantID] = tx.Nonce
			}
		}
	}
	return l, nil
}

// normalizeJSONNumbers walks a value decoded by a json.Decoder with
// UseNumber() enabled, replacing every json.Number with the int64 it
// represents. A number that doesn't fit an int64 (fractional or
// overflowing) is left as a json.Number so the canonical encoder's own
// type check rejects it explicitly rather than this function silently
// reinterpreting it as a float.
func normalizeJSONNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		return val
	case map[string]any:
		for k, vv := range val {
			val[k] = normalizeJSONNumbers(vv)
		}
		return val
	case []any:
		for i, vv := range val {
			val[i] = normalizeJSONNumbers(vv)
		}
		return val
	default:
		return v
	}
}
