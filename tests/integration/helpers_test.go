package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/blockberries/zerotrust/crypto"
	"github.com/blockberries/zerotrust/engine"
	"github.com/blockberries/zerotrust/ledger"
)

// corruptSnapshotBlockHash edits block 1's timestamp directly inside an
// encoded snapshot's embedded ledger, breaking that block's own hash
// without touching anything else (spec S4: an attacker with disk
// access, not a protocol message).
func corruptSnapshotBlockHash(t *testing.T, data []byte) []byte {
	t.Helper()

	var snap map[string]json.RawMessage
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	var form map[string]json.RawMessage
	if err := json.Unmarshal(snap["ledger"], &form); err != nil {
		t.Fatalf("unmarshal ledger form: %v", err)
	}

	var blocks []map[string]json.RawMessage
	if err := json.Unmarshal(form["blocks"], &blocks); err != nil {
		t.Fatalf("unmarshal blocks: %v", err)
	}
	if len(blocks) < 2 {
		t.Fatalf("expected at least 2 sealed blocks to tamper with, got %d", len(blocks))
	}

	var ts int64
	if err := json.Unmarshal(blocks[1]["timestamp"], &ts); err != nil {
		t.Fatalf("unmarshal block timestamp: %v", err)
	}
	tsBytes, err := json.Marshal(ts + 10000)
	if err != nil {
		t.Fatalf("marshal tampered timestamp: %v", err)
	}
	blocks[1]["timestamp"] = tsBytes

	blocksBytes, err := json.Marshal(blocks)
	if err != nil {
		t.Fatalf("marshal blocks: %v", err)
	}
	form["blocks"] = blocksBytes

	formBytes, err := json.Marshal(form)
	if err != nil {
		t.Fatalf("marshal ledger form: %v", err)
	}
	snap["ledger"] = formBytes

	out, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return out
}

// runTimeoutStall arranges for mover's pending action (owed by waiter)
// to time out and reports whether the monitor terminated the session
// and invalidated waiter as a result.
func runTimeoutStall(t *testing.T, mover, waiter *engine.Engine) bool {
	t.Helper()

	if _, err := mover.RecordSelfAction("fire", map[string]any{}, 1); err != nil {
		t.Fatalf("RecordSelfAction: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	mover.StartEnforcement(ctx)
	defer mover.StopEnforcement()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mover.Phase() == engine.PhaseTerminated {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	_, invalidated := mover.EvidenceLog().IsInvalidated(waiter.SelfID())
	return mover.Phase() == engine.PhaseTerminated && invalidated
}

// signOutOfTurnAction builds a signed ACTION transaction for waiter's
// own identity, bypassing waiter's own turn check entirely, the way an
// adversarial client (rather than the honest Engine) would construct
// the wire message directly.
func signOutOfTurnAction(t *testing.T, waiter *engine.Engine) ledger.Transaction {
	t.Helper()

	priv := bobPriv()
	if waiter.SelfID() == participantIDFor(t, alicePriv()) {
		priv = alicePriv()
	}

	identity, err := crypto.IdentityFromPrivateKeyBytes(priv)
	if err != nil {
		t.Fatalf("IdentityFromPrivateKeyBytes: %v", err)
	}

	tx, err := ledger.NewTransaction(identity, ledger.MoveAction, map[string]any{"type": "fire", "data": map[string]any{}}, 999, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	return *tx
}

func participantIDFor(t *testing.T, priv []byte) string {
	t.Helper()
	identity, err := crypto.IdentityFromPrivateKeyBytes(priv)
	if err != nil {
		t.Fatalf("IdentityFromPrivateKeyBytes: %v", err)
	}
	return identity.ParticipantID()
}
