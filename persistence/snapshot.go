package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blockberries/zerotrust/ledger"
)

// SnapshotVersion is the on-disk format version. Bump and branch on this
// field if the shape ever changes.
const SnapshotVersion = 1

// ErrCorruptState is returned when a snapshot's embedded ledger fails
// replay, or the payload itself is not valid JSON. Callers must not
// attempt to repair a corrupt snapshot automatically (spec §4.8): the
// protocol treats an unreadable local state as a hard stop, surfaced to
// the application to decide whether to discard and restart the session.
var ErrCorruptState = errors.New("persistence: snapshot failed integrity check")

// Snapshot is the shape of a peer's saved protocol state: ledger,
// engine-owned protocol state, and the public half of its identity.
// Encoded with ordinary encoding/json rather than the canonical
// signing encoding (crypto.Canonical) — this is a disk/wire transport
// format, not a hash or signature input, so it is free to carry the
// indentation and field order that make a snapshot diffable on disk.
// Every hash and signature embedded inside the ledger it wraps was
// still produced under the canonical rules; only the outer envelope is
// ordinary JSON.
type Snapshot struct {
	Version          int             `json:"version"`
	IdentityPublic   string          `json:"identity_public"`
	Protocol         json.RawMessage `json:"protocol"`
	LedgerSerialized json.RawMessage `json:"ledger"`
}

// Encode builds the byte form of a snapshot without touching disk, for
// the engine's in-memory snapshot()/restore() API (spec §6).
func Encode(identityPublic string, protocolState any, l *ledger.Ledger) ([]byte, error) {
	protocolBytes, err := json.Marshal(protocolState)
	if err != nil {
		return nil, fmt.Errorf("persistence: marshaling protocol state: %w", err)
	}

	ledgerBytes, err := l.Serialize()
	if err != nil {
		return nil, fmt.Errorf("persistence: serializing ledger: %w", err)
	}

	snap := Snapshot{
		Version:          SnapshotVersion,
		IdentityPublic:   identityPublic,
		Protocol:         protocolBytes,
		LedgerSerialized: ledgerBytes,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("persistence: marshaling snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates a snapshot previously produced by Encode,
// replaying its embedded ledger with resolver. protocolState must be a
// pointer the caller supplies for unmarshaling the opaque protocol-state
// payload (the engine package's own persisted type). A snapshot that
// fails replay is rejected outright, never silently repaired.
func Decode(data []byte, resolver ledger.PublicKeyResolver, protocolState any) (*Snapshot, *ledger.Ledger, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, nil, fmt.Errorf("%w: unsupported snapshot version %d", ErrCorruptState, snap.Version)
	}

	l, err := ledger.Deserialize(snap.LedgerSerialized, resolver)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	if protocolState != nil {
		if err := json.Unmarshal(snap.Protocol, protocolState); err != nil {
			return nil, nil, fmt.Errorf("%w: decoding protocol state: %v", ErrCorruptState, err)
		}
	}

	return &snap, l, nil
}

// Save writes the encoded snapshot to path atomically: it is written to
// a temp file in the same directory and then renamed over the
// destination, so a crash mid-write can never leave a half-written
// snapshot behind (wal/file_wal.go's segment-rotation rename, adapted
// here to a single file instead of a log).
func Save(path string, identityPublic string, protocolState any, l *ledger.Ledger) error {
	data, err := Encode(identityPublic, protocolState, l)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("persistence: creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("persistence: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persistence: closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("persistence: setting snapshot permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("persistence: renaming into place: %w", err)
	}
	return nil
}

// Load reads and validates the snapshot at path, replaying its embedded
// ledger with resolver.
func Load(path string, resolver ledger.PublicKeyResolver, protocolState any) (*Snapshot, *ledger.Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("persistence: reading snapshot: %w", err)
	}
	return Decode(data, resolver, protocolState)
}

// Exists reports whether a snapshot file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
