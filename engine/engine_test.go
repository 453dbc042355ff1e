package engine

import (
	"context"
	"testing"
	"time"

	"github.com/blockberries/zerotrust/commitment"
	"github.com/blockberries/zerotrust/crypto"
	"github.com/blockberries/zerotrust/evidence"
)

func newTestPeer(t *testing.T, marked []commitment.GridQuery, seed string) *Engine {
	t.Helper()
	identity, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	grid, err := commitment.NewGrid(4, marked, []byte(seed))
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	opts := DefaultOptions()
	opts.EnableEnforcement = false
	eng, err := NewEngine(identity, grid, opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

// commitBothWays drives alice and bob through SetSelfCommitment and
// SetPeerCommitment in both directions, leaving both in PhaseActive.
func commitBothWays(t *testing.T, alice, bob *Engine) {
	t.Helper()

	alicePub, err := alice.SetSelfCommitment()
	if err != nil {
		t.Fatalf("alice.SetSelfCommitment: %v", err)
	}
	aliceBlocks := alice.ledg.Blocks()
	aliceTx := aliceBlocks[len(aliceBlocks)-1].Transactions[0]

	bobPub, err := bob.SetSelfCommitment()
	if err != nil {
		t.Fatalf("bob.SetSelfCommitment: %v", err)
	}
	bobBlocks := bob.ledg.Blocks()
	bobTx := bobBlocks[len(bobBlocks)-1].Transactions[0]

	if ev, err := alice.SetPeerCommitment(*bobPub, bobTx); err != nil || ev != nil {
		t.Fatalf("alice.SetPeerCommitment: ev=%v err=%v", ev, err)
	}

	if ev, err := bob.SetPeerCommitment(*alicePub, aliceTx); err != nil || ev != nil {
		t.Fatalf("bob.SetPeerCommitment: ev=%v err=%v", ev, err)
	}
}

func TestEngineCommitSequenceReachesActive(t *testing.T) {
	alice := newTestPeer(t, []commitment.GridQuery{{X: 0, Y: 0}}, "alpha")
	bob := newTestPeer(t, []commitment.GridQuery{{X: 3, Y: 3}}, "beta")

	if alice.Phase() != PhaseInit {
		t.Fatalf("expected PhaseInit before any commitment, got %v", alice.Phase())
	}

	commitBothWays(t, alice, bob)

	if alice.Phase() != PhaseActive {
		t.Errorf("expected alice PhaseActive, got %v", alice.Phase())
	}
	if bob.Phase() != PhaseActive {
		t.Errorf("expected bob PhaseActive, got %v", bob.Phase())
	}
	if alice.turn != bob.turn {
		t.Errorf("expected both peers to agree on turn, alice=%q bob=%q", alice.turn, bob.turn)
	}
}

func TestEngineActionResponseProofRoundTrip(t *testing.T) {
	alice := newTestPeer(t, []commitment.GridQuery{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 3, Y: 3}}, "alpha")
	bob := newTestPeer(t, []commitment.GridQuery{{X: 3, Y: 3}}, "beta")
	commitBothWays(t, alice, bob)

	mover, waiter := alice, bob
	if alice.turn != alice.selfID {
		mover, waiter = bob, alice
	}

	query := commitment.GridQuery{X: 3, Y: 3}
	actionTx, err := mover.RecordSelfAction("fire", map[string]any{"query": map[string]any{"x": query.X, "y": query.Y}}, 5000)
	if err != nil {
		t.Fatalf("RecordSelfAction: %v", err)
	}

	if ev, err := waiter.VerifyPeerAction(*actionTx); err != nil || ev != nil {
		t.Fatalf("VerifyPeerAction: ev=%v err=%v", ev, err)
	}

	proof, proofTx, err := waiter.GenerateProof(query)
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}
	if ev, err := mover.VerifyPeerProof(proof, *proofTx, query, true); err != nil || ev != nil {
		t.Fatalf("VerifyPeerProof: ev=%v err=%v", ev, err)
	}

	responseTx, err := waiter.RecordSelfResponse(map[string]any{"hit": true}, proof)
	if err != nil {
		t.Fatalf("RecordSelfResponse: %v", err)
	}
	if ev, err := mover.VerifyPeerResponse(*responseTx, proof, query, true); err != nil || ev != nil {
		t.Fatalf("VerifyPeerResponse: ev=%v err=%v", ev, err)
	}

	if mover.pendingAction != nil {
		t.Error("expected pending action cleared on mover after verified response")
	}
}

func TestEngineRejectsActionOutOfTurn(t *testing.T) {
	alice := newTestPeer(t, nil, "alpha")
	bob := newTestPeer(t, nil, "beta")
	commitBothWays(t, alice, bob)

	notMover := alice
	if alice.turn == alice.selfID {
		notMover = bob
	}

	_, err := notMover.RecordSelfAction("fire", map[string]any{}, 1000)
	rej, ok := err.(*Rejected)
	if !ok || rej.Reason != NotYourTurn {
		t.Fatalf("expected Rejected(NotYourTurn), got %v", err)
	}
}

func TestEngineDetectsForgedPeerCommitSignature(t *testing.T) {
	alice := newTestPeer(t, nil, "alpha")
	bob := newTestPeer(t, nil, "beta")

	if _, err := alice.SetSelfCommitment(); err != nil {
		t.Fatalf("alice.SetSelfCommitment: %v", err)
	}
	bobPub, err := bob.SetSelfCommitment()
	if err != nil {
		t.Fatalf("bob.SetSelfCommitment: %v", err)
	}

	bobBlocks := bob.ledg.Blocks()
	bobTx := bobBlocks[len(bobBlocks)-1].Transactions[0]
	bobTx.Signature[0] ^= 0xFF

	ev, err := alice.SetPeerCommitment(*bobPub, bobTx)
	if err != nil {
		t.Fatalf("SetPeerCommitment returned error instead of evidence: %v", err)
	}
	if ev == nil || ev.Kind != evidence.ForgedSignature {
		t.Fatalf("expected ForgedSignature evidence, got %v", ev)
	}
	if alice.Phase() != PhaseTerminated {
		t.Errorf("expected PhaseTerminated after forged signature, got %v", alice.Phase())
	}
}

func TestEngineDetectsInvalidProof(t *testing.T) {
	alice := newTestPeer(t, []commitment.GridQuery{{X: 0, Y: 0}}, "alpha")
	bob := newTestPeer(t, []commitment.GridQuery{{X: 3, Y: 3}}, "beta")
	commitBothWays(t, alice, bob)

	proof, proofTx, err := bob.GenerateProof(commitment.GridQuery{X: 3, Y: 3})
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}

	// alice checks the proof against the wrong claimed fact.
	ev, err := alice.VerifyPeerProof(proof, *proofTx, commitment.GridQuery{X: 3, Y: 3}, false)
	if err != nil {
		t.Fatalf("VerifyPeerProof returned error instead of evidence: %v", err)
	}
	if ev == nil || ev.Kind != evidence.InvalidProof {
		t.Fatalf("expected InvalidProof evidence, got %v", ev)
	}
}

func TestEngineSnapshotRestoreRoundTrip(t *testing.T) {
	alice := newTestPeer(t, []commitment.GridQuery{{X: 0, Y: 0}}, "alpha")
	bob := newTestPeer(t, []commitment.GridQuery{{X: 3, Y: 3}}, "beta")
	commitBothWays(t, alice, bob)

	data, err := alice.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restored := &Engine{identity: alice.identity, selfID: alice.selfID, selfScheme: alice.selfScheme, opts: alice.opts}
	restored.monitor = NewMonitor(restored, alice.opts.MonitorTick)
	restored.evLog = evidence.NewLog()
	if err := restored.Restore(data); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if restored.Phase() != PhaseActive {
		t.Errorf("expected restored phase ACTIVE, got %v", restored.Phase())
	}
	if restored.peerID != alice.peerID {
		t.Errorf("expected restored peer id %q, got %q", alice.peerID, restored.peerID)
	}
}

func TestEngineReplayNoTamperReturnsNil(t *testing.T) {
	alice := newTestPeer(t, nil, "alpha")
	bob := newTestPeer(t, nil, "beta")
	commitBothWays(t, alice, bob)

	ev, err := alice.Replay()
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if ev != nil {
		t.Fatalf("expected no evidence from an untampered ledger, got %v", ev)
	}
}

// TestEngineMonitorIgnoresSelfOwedPendingAction guards against the
// responder's own monitor sweep misfiring a self-accusing TIMEOUT_STALL
// the instant it owes a reply (pending.OwedBy == its own selfID).
// TIMEOUT_STALL names only the peer (spec §4.6); enforcement running on
// both sides must not terminate an honest responder before it answers.
func TestEngineMonitorIgnoresSelfOwedPendingAction(t *testing.T) {
	alice := newTestPeer(t, nil, "alpha")
	bob := newTestPeer(t, nil, "beta")
	commitBothWays(t, alice, bob)

	mover, waiter := alice, bob
	if alice.turn != alice.selfID {
		mover, waiter = bob, alice
	}

	for _, eng := range []*Engine{mover, waiter} {
		eng.opts.EnableEnforcement = true
		eng.opts.MonitorTick = 10 * time.Millisecond
		eng.monitor = NewMonitor(eng, eng.opts.MonitorTick)
	}

	actionTx, err := mover.RecordSelfAction("fire", map[string]any{}, 5000)
	if err != nil {
		t.Fatalf("RecordSelfAction: %v", err)
	}
	if ev, err := waiter.VerifyPeerAction(*actionTx); err != nil || ev != nil {
		t.Fatalf("VerifyPeerAction: ev=%v err=%v", ev, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	waiter.StartEnforcement(ctx)
	defer waiter.StopEnforcement()

	time.Sleep(60 * time.Millisecond)

	if waiter.Phase() == PhaseTerminated {
		t.Fatalf("waiter self-terminated on its own pending (self-owed) action")
	}
}

func TestEngineRejectsCommitmentAlreadySet(t *testing.T) {
	alice := newTestPeer(t, nil, "alpha")
	if _, err := alice.SetSelfCommitment(); err != nil {
		t.Fatalf("first SetSelfCommitment: %v", err)
	}
	_, err := alice.SetSelfCommitment()
	rej, ok := err.(*Rejected)
	if !ok || rej.Reason != CommitmentAlreadySet {
		t.Fatalf("expected Rejected(CommitmentAlreadySet), got %v", err)
	}
}

func TestEngineMonitorDetectsTimeoutStall(t *testing.T) {
	alice := newTestPeer(t, nil, "alpha")
	bob := newTestPeer(t, nil, "beta")
	commitBothWays(t, alice, bob)

	mover, waiter := alice, bob
	if alice.turn != alice.selfID {
		mover, waiter = bob, alice
	}
	mover.opts.EnableEnforcement = true
	mover.opts.MonitorTick = 10 * time.Millisecond
	mover.monitor = NewMonitor(mover, mover.opts.MonitorTick)

	if _, err := mover.RecordSelfAction("fire", map[string]any{}, 1); err != nil {
		t.Fatalf("RecordSelfAction: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	mover.StartEnforcement(ctx)
	defer mover.StopEnforcement()

	time.Sleep(50 * time.Millisecond)

	if mover.Phase() != PhaseTerminated {
		t.Errorf("expected PhaseTerminated after timeout stall, got %v", mover.Phase())
	}
	if _, ok := mover.evLog.IsInvalidated(waiter.selfID); !ok {
		t.Error("expected the waiter to be invalidated for TIMEOUT_STALL")
	}
}
