package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blockberries/zerotrust/crypto"
	"github.com/blockberries/zerotrust/ledger"
)

type fakeProtocolState struct {
	Phase string `json:"phase"`
	Round int    `json:"round"`
}

func TestSaveLoadRoundTrip(t *testing.T) {
	alice, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity failed: %v", err)
	}

	l, err := ledger.NewLedger(1)
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}
	tx, err := ledger.NewTransaction(alice, ledger.MoveCommit, map[string]any{"root": "abc"}, 1, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("NewTransaction failed: %v", err)
	}
	if err := l.Append(*tx); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := l.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "session.snapshot")

	state := fakeProtocolState{Phase: "ACTIVE", Round: 3}
	if err := Save(path, alice.ParticipantID(), state, l); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	resolver := func(participantID string) (*crypto.PublicKey, error) {
		return alice.PublicKey(), nil
	}

	var restoredState fakeProtocolState
	snap, restoredLedger, err := Load(path, resolver, &restoredState)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.IdentityPublic != alice.ParticipantID() {
		t.Errorf("expected matching identity public, got %q", snap.IdentityPublic)
	}
	if restoredState.Phase != "ACTIVE" || restoredState.Round != 3 {
		t.Errorf("expected restored protocol state to round-trip, got %+v", restoredState)
	}
	if restoredLedger.Height() != l.Height() {
		t.Errorf("expected matching ledger height after round trip")
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.snapshot")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	_, _, err := Load(path, nil, nil)
	if err == nil {
		t.Fatal("expected Load to reject a corrupt snapshot file")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.snapshot")
	if Exists(path) {
		t.Error("expected Exists to be false before any write")
	}
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if !Exists(path) {
		t.Error("expected Exists to be true after write")
	}
}
