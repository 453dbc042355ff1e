// Package engine implements the two-party zero-trust protocol state
// machine.
//
// An Engine coordinates a single session with one peer through four
// phases:
//
//	INIT → COMMITTED → ACTIVE → TERMINATED
//
// # Core Components
//
// Engine: per-session coordinator. Owns the protocol phase, the turn
// and pending-action bookkeeping, the commitment exchange, and the
// ledger and evidence log it drives.
//
// Monitor: periodic enforcement sweep for stalled responses, plus a
// synchronous check invoked when a peer action arrives, before it is
// appended, so
// a double move or a disallowed action type is caught immediately
// rather than waiting for the next tick.
//
// # Usage
//
//	identity, _ := crypto.GenerateIdentity()
//	grid, _ := commitment.NewGrid(4, marked, seed)
//	eng, _ := engine.NewEngine(identity, grid, engine.DefaultOptions())
//
//	pub, _ := eng.SetSelfCommitment()
//	// ... exchange pub and the signed COMMIT transaction with the peer ...
//	eng.SetPeerCommitment(peerPub, peerCommitTx)
//
//	eng.StartEnforcement(ctx)
//	defer eng.StopEnforcement()
//
// # Thread safety
//
// All exported Engine methods hold a single internal mutex; the
// Monitor's own goroutine reaches back into the engine only through
// PendingAction (read-only) and reportViolation, both of which take
// the same lock.
package engine
