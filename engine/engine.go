package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/blockberries/zerotrust/commitment"
	"github.com/blockberries/zerotrust/crypto"
	"github.com/blockberries/zerotrust/evidence"
	"github.com/blockberries/zerotrust/ledger"
	"github.com/blockberries/zerotrust/merkle"
	"github.com/blockberries/zerotrust/persistence"
)

// Phase is the coarse protocol state (spec §3 ProtocolState.phase).
type Phase string

const (
	PhaseInit       Phase = "INIT"
	PhaseCommitted  Phase = "COMMITTED"
	PhaseActive     Phase = "ACTIVE"
	PhaseTerminated Phase = "TERMINATED"
)

// PendingAction describes the single outstanding action awaiting a
// response, or nil if none. OwedBy names the participant who must
// produce the next RESPONSE; it always equals the session's current
// turn value while a pending action exists.
type PendingAction struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	StartedAt int64          `json:"started_at"`
	TimeoutMS int64          `json:"timeout_ms"`
	OwedBy    string         `json:"owed_by"`
}

// protocolState is the engine's persisted shape (spec §3 ProtocolState),
// the payload inside a persistence.Snapshot's Protocol field.
type protocolState struct {
	Phase         Phase              `json:"phase"`
	SelfID        string             `json:"self_id"`
	PeerID        string             `json:"peer_id,omitempty"`
	SelfCommit    *commitment.Public `json:"self_commit,omitempty"`
	PeerCommit    *commitment.Public `json:"peer_commit,omitempty"`
	Turn          string             `json:"turn,omitempty"`
	PendingAction *PendingAction     `json:"pending_action,omitempty"`
	NextNonce     uint64             `json:"next_nonce"`
	ActionSeq     uint64             `json:"action_seq"`
}

// Engine is the per-peer protocol state machine (spec C5), wrapping a
// ledger (C4), a commitment scheme (C3), and an evidence log (C7). All
// mutating operations are synchronous and hold a single mutex; the only
// other goroutine in play is the enforcement Monitor, which talks back
// to the engine solely through reportViolation and the read-only
// PendingAction accessor.
//
// Grounded on engine/state.go's ConsensusState: a mutex-guarded struct
// with explicit step-transition methods, generalized here from a
// height/round/step BFT round to a four-phase two-party session.
type Engine struct {
	mu sync.Mutex

	identity   *crypto.Identity
	selfID     string
	peerID     string
	selfScheme commitment.Scheme

	phase         Phase
	selfCommit    *commitment.Public
	peerCommit    *commitment.Public
	turn          string
	pendingAction *PendingAction

	nextNonce uint64
	actionSeq uint64

	ledg    *ledger.Ledger
	evLog   *evidence.Log
	monitor *Monitor
	opts    *Options
}

// NewEngine constructs an Engine bound to identity and selfScheme (the
// application's already-witnessed commitment instance). The session
// begins in PhaseInit; the caller must call SetSelfCommitment to
// advance it.
func NewEngine(identity *crypto.Identity, selfScheme commitment.Scheme, opts *Options) (*Engine, error) {
	if identity == nil {
		return nil, ErrNoSelfIdentity
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.ValidateBasic(); err != nil {
		return nil, err
	}

	ledg, err := ledger.NewLedger(opts.DifficultyBits)
	if err != nil {
		return nil, fmt.Errorf("engine: building ledger: %w", err)
	}
	ledg.SetClockSkewToleranceMS(opts.ClockSkewTolerance.Milliseconds())

	eng := &Engine{
		identity:   identity,
		selfID:     identity.ParticipantID(),
		selfScheme: selfScheme,
		phase:      PhaseInit,
		nextNonce:  1,
		ledg:       ledg,
		evLog:      evidence.NewLog(),
		opts:       opts,
	}
	eng.monitor = NewMonitor(eng, opts.MonitorTick)
	return eng, nil
}

// StartEnforcement launches the enforcement monitor if opts.EnableEnforcement
// is set. Safe to call even when enforcement is disabled (no-op).
func (e *Engine) StartEnforcement(ctx context.Context) {
	if !e.opts.EnableEnforcement {
		return
	}
	e.monitor.Start(ctx)
}

// StopEnforcement halts the enforcement monitor.
func (e *Engine) StopEnforcement() {
	e.monitor.Stop()
}

// SetAllowedActions forwards to the monitor (spec
// enforcement.set_allowed_actions).
func (e *Engine) SetAllowedActions(types []string) {
	e.monitor.SetAllowedActions(types)
}

// SelfID returns this peer's participant ID.
func (e *Engine) SelfID() string {
	return e.selfID
}

// Phase returns the current protocol phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Turn returns the participant ID currently holding the move, or the
// empty string before PhaseActive.
func (e *Engine) Turn() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turn
}

// LastTransaction returns the most recently sealed transaction this
// engine has appended to its own ledger, for handing to a peer over
// whatever transport carries the session (wire, test harness, or
// otherwise). Returns false if nothing has been appended yet.
func (e *Engine) LastTransaction() (ledger.Transaction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	blocks := e.ledg.Blocks()
	for i := len(blocks) - 1; i >= 0; i-- {
		if len(blocks[i].Transactions) > 0 {
			txs := blocks[i].Transactions
			return txs[len(txs)-1], true
		}
	}
	return ledger.Transaction{}, false
}

func (e *Engine) nonce() uint64 {
	n := e.nextNonce
	e.nextNonce++
	return n
}

func now() int64 {
	return time.Now().UnixMilli()
}

// SetSelfCommitment publishes this peer's commitment root, moving
// PhaseInit to PhaseCommitted. SetPeerCommitment is only accepted after
// this call, so it is the peer commitment that later moves the session
// to PhaseActive.
func (e *Engine) SetSelfCommitment() (*commitment.Public, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.selfCommit != nil {
		return nil, reject(CommitmentAlreadySet)
	}

	pub := e.selfScheme.Public()
	tx, err := ledger.NewTransaction(e.identity, ledger.MoveCommit, commitPublicData(pub), e.nonce(), now())
	if err != nil {
		return nil, fmt.Errorf("engine: building commit transaction: %w", err)
	}
	if err := e.ledg.Append(*tx); err != nil {
		return nil, fmt.Errorf("engine: appending commit transaction: %w", err)
	}
	if _, err := e.ledg.Seal(); err != nil {
		return nil, fmt.Errorf("engine: sealing commit transaction: %w", err)
	}

	e.selfCommit = &pub
	e.advancePhaseLocked()
	return &pub, nil
}

// GetSelfCommitment returns the published self commitment, or
// Rejected(PhaseWrong) if it has not been set yet.
func (e *Engine) GetSelfCommitment() (*commitment.Public, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selfCommit == nil {
		return nil, reject(PhaseWrong)
	}
	return e.selfCommit, nil
}

// SetPeerCommitment records the peer's published commitment, verifying
// the signed COMMIT transaction that carries it. Returns Evidence (not
// an error) when the signature is forged or the published root does
// not match the transaction's own data.
func (e *Engine) SetPeerCommitment(pub commitment.Public, signedCommitTx ledger.Transaction) (*evidence.CheatEvidence, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.selfCommit == nil {
		return nil, reject(PhaseWrong)
	}
	if e.peerCommit != nil {
		return nil, reject(CommitmentAlreadySet)
	}

	peerID := signedCommitTx.ParticipantID
	peerPub, err := crypto.PublicKeyFromParticipantID(peerID)
	if err != nil {
		return nil, reject(UnknownPeer)
	}

	if !signedCommitTx.VerifySignature(peerPub) {
		ev := evidence.CheatEvidence{Kind: evidence.ForgedSignature, Accused: peerID, Witness: signedCommitTx, At: now()}
		return e.invalidateLocked(ev)
	}

	if !commitDataMatches(signedCommitTx.Data, pub) {
		ev := evidence.CheatEvidence{Kind: evidence.CommitmentMismatch, Accused: peerID, Witness: signedCommitTx, At: now()}
		return e.invalidateLocked(ev)
	}

	if err := e.ledg.Append(signedCommitTx); err != nil {
		return nil, fmt.Errorf("engine: appending peer commit transaction: %w", err)
	}
	if _, err := e.ledg.Seal(); err != nil {
		return nil, fmt.Errorf("engine: sealing peer commit transaction: %w", err)
	}

	e.peerID = peerID
	e.peerCommit = &pub
	e.advancePhaseLocked()
	return nil, nil
}

// advancePhaseLocked moves COMMITTED to ACTIVE once both commitments
// are present, resolving the deterministic first mover (spec §9: no
// application override).
func (e *Engine) advancePhaseLocked() {
	switch e.phase {
	case PhaseInit:
		e.phase = PhaseCommitted
	case PhaseCommitted:
		if e.selfCommit != nil && e.peerCommit != nil {
			e.phase = PhaseActive
			e.turn = resolveFirstMover(e.selfID, e.peerID)
		}
	}
}

// resolveFirstMover deterministically picks whichever participant ID
// sorts lexicographically smaller, so two honest peers agree on the
// first mover without an extra round trip (spec §9 open question).
func resolveFirstMover(a, b string) string {
	if a < b {
		return a
	}
	return b
}

// RecordSelfAction builds, signs, and appends an ACTION transaction, as
// long as it is this peer's turn. Flips the turn to the peer.
func (e *Engine) RecordSelfAction(actionType string, data map[string]any, timeoutMS int64) (*ledger.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseActive {
		return nil, reject(PhaseWrong)
	}
	if e.turn != e.selfID {
		return nil, reject(NotYourTurn)
	}

	txData := map[string]any{"type": actionType, "data": data}
	tx, err := ledger.NewTransaction(e.identity, ledger.MoveAction, txData, e.nonce(), now())
	if err != nil {
		return nil, fmt.Errorf("engine: building action transaction: %w", err)
	}
	if err := e.ledg.Append(*tx); err != nil {
		return nil, fmt.Errorf("engine: appending action transaction: %w", err)
	}
	if _, err := e.ledg.Seal(); err != nil {
		return nil, fmt.Errorf("engine: sealing action transaction: %w", err)
	}

	e.turn = e.peerID
	e.actionSeq++
	e.pendingAction = &PendingAction{
		ID:        fmt.Sprintf("%s-%d", e.selfID, e.actionSeq),
		Type:      actionType,
		Data:      data,
		StartedAt: tx.Timestamp,
		TimeoutMS: timeoutMS,
		OwedBy:    e.peerID,
	}
	return tx, nil
}

// VerifyPeerAction checks and appends an ACTION transaction received
// from the peer. Returns Evidence (not an error) for a forged
// signature, a double move, or a disallowed action type; in every
// Evidence case the offending transaction is never appended.
func (e *Engine) VerifyPeerAction(tx ledger.Transaction) (*evidence.CheatEvidence, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseActive {
		return nil, reject(PhaseWrong)
	}
	if tx.ParticipantID != e.peerID {
		return nil, reject(UnknownPeer)
	}

	peerPub, err := crypto.PublicKeyFromParticipantID(e.peerID)
	if err != nil {
		return nil, reject(UnknownPeer)
	}
	if !tx.VerifySignature(peerPub) {
		ev := evidence.CheatEvidence{Kind: evidence.ForgedSignature, Accused: e.peerID, Witness: tx, At: now()}
		return e.invalidateLocked(ev)
	}

	wasPeersTurn := e.turn == e.peerID
	actionType, _ := tx.Data["type"].(string)
	if ev := e.monitor.checkAppendedAction(e.peerID, wasPeersTurn, actionType, tx, now()); ev != nil {
		return e.invalidateLocked(*ev)
	}

	if err := e.ledg.Append(tx); err != nil {
		return nil, reject(DuplicateNonceReason)
	}
	if _, err := e.ledg.Seal(); err != nil {
		return nil, fmt.Errorf("engine: sealing peer action transaction: %w", err)
	}

	e.turn = e.selfID
	actionData, _ := tx.Data["data"].(map[string]any)
	e.actionSeq++
	e.pendingAction = &PendingAction{
		ID:        fmt.Sprintf("%s-%d", e.peerID, e.actionSeq),
		Type:      actionType,
		Data:      actionData,
		StartedAt: tx.Timestamp,
		TimeoutMS: 0,
		OwedBy:    e.selfID,
	}
	return nil, nil
}

// RecordSelfResponse builds, signs, and appends a RESPONSE transaction
// answering the outstanding pending action owed by this peer. proof may
// be nil when the response carries no membership proof.
func (e *Engine) RecordSelfResponse(data map[string]any, proof *merkle.Proof) (*ledger.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseActive {
		return nil, reject(PhaseWrong)
	}
	if e.pendingAction == nil || e.pendingAction.OwedBy != e.selfID {
		return nil, reject(PhaseWrong)
	}

	txData := map[string]any{"data": data}
	if proof != nil {
		txData["proof"] = encodeProof(proof)
	}

	tx, err := ledger.NewTransaction(e.identity, ledger.MoveResponse, txData, e.nonce(), now())
	if err != nil {
		return nil, fmt.Errorf("engine: building response transaction: %w", err)
	}
	if err := e.ledg.Append(*tx); err != nil {
		return nil, fmt.Errorf("engine: appending response transaction: %w", err)
	}
	if _, err := e.ledg.Seal(); err != nil {
		return nil, fmt.Errorf("engine: sealing response transaction: %w", err)
	}

	e.pendingAction = nil
	return tx, nil
}

// VerifyPeerResponse checks and appends a RESPONSE transaction from the
// peer, answering the action this peer is owed. If proof is non-nil, it
// is verified against the peer's published commitment root for query
// and claimedMarked; a mismatch produces INVALID_PROOF evidence instead
// of appending.
func (e *Engine) VerifyPeerResponse(tx ledger.Transaction, proof *merkle.Proof, query commitment.GridQuery, claimedMarked bool) (*evidence.CheatEvidence, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseActive {
		return nil, reject(PhaseWrong)
	}
	if e.pendingAction == nil || e.pendingAction.OwedBy != e.peerID {
		return nil, reject(PhaseWrong)
	}
	if tx.ParticipantID != e.peerID {
		return nil, reject(UnknownPeer)
	}

	peerPub, err := crypto.PublicKeyFromParticipantID(e.peerID)
	if err != nil {
		return nil, reject(UnknownPeer)
	}
	if !tx.VerifySignature(peerPub) {
		ev := evidence.CheatEvidence{Kind: evidence.ForgedSignature, Accused: e.peerID, Witness: tx, At: now()}
		return e.invalidateLocked(ev)
	}

	if proof != nil {
		if e.peerCommit == nil || !commitment.Verify(*e.peerCommit, query, claimedMarked, proof) {
			ev := evidence.CheatEvidence{Kind: evidence.InvalidProof, Accused: e.peerID, Witness: tx, At: now()}
			return e.invalidateLocked(ev)
		}
	}

	if err := e.ledg.Append(tx); err != nil {
		return nil, reject(DuplicateNonceReason)
	}
	if _, err := e.ledg.Seal(); err != nil {
		return nil, fmt.Errorf("engine: sealing peer response transaction: %w", err)
	}

	e.pendingAction = nil
	return nil, nil
}

// GenerateProof builds a membership proof for query against this
// peer's own witnessed commitment and appends a signed PROOF
// transaction recording the reveal.
func (e *Engine) GenerateProof(query commitment.GridQuery) (*merkle.Proof, *ledger.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.selfCommit == nil {
		return nil, nil, reject(PhaseWrong)
	}

	proof, err := e.selfScheme.Prove(query)
	if err != nil {
		return nil, nil, fmt.Errorf("engine: generating proof: %w", err)
	}

	var leaf struct {
		Marked bool `json:"marked"`
	}
	_ = json.Unmarshal(proof.LeafValue, &leaf)

	txData := map[string]any{
		"query":  map[string]any{"x": query.X, "y": query.Y},
		"marked": leaf.Marked,
		"proof":  encodeProof(proof),
	}
	tx, err := ledger.NewTransaction(e.identity, ledger.MoveProof, txData, e.nonce(), now())
	if err != nil {
		return nil, nil, fmt.Errorf("engine: building proof transaction: %w", err)
	}
	if err := e.ledg.Append(*tx); err != nil {
		return nil, nil, fmt.Errorf("engine: appending proof transaction: %w", err)
	}
	if _, err := e.ledg.Seal(); err != nil {
		return nil, nil, fmt.Errorf("engine: sealing proof transaction: %w", err)
	}

	return proof, tx, nil
}

// VerifyPeerProof verifies a peer-generated membership proof against
// their published commitment root and appends the accompanying signed
// wrapper transaction. Returns INVALID_PROOF evidence on mismatch.
func (e *Engine) VerifyPeerProof(proof *merkle.Proof, wrapper ledger.Transaction, query commitment.GridQuery, claimedMarked bool) (*evidence.CheatEvidence, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if wrapper.ParticipantID != e.peerID {
		return nil, reject(UnknownPeer)
	}
	peerPub, err := crypto.PublicKeyFromParticipantID(e.peerID)
	if err != nil {
		return nil, reject(UnknownPeer)
	}
	if !wrapper.VerifySignature(peerPub) {
		ev := evidence.CheatEvidence{Kind: evidence.ForgedSignature, Accused: e.peerID, Witness: wrapper, At: now()}
		return e.invalidateLocked(ev)
	}

	if e.peerCommit == nil || !commitment.Verify(*e.peerCommit, query, claimedMarked, proof) {
		ev := evidence.CheatEvidence{Kind: evidence.InvalidProof, Accused: e.peerID, Witness: wrapper, At: now()}
		return e.invalidateLocked(ev)
	}

	if err := e.ledg.Append(wrapper); err != nil {
		return nil, reject(DuplicateNonceReason)
	}
	if _, err := e.ledg.Seal(); err != nil {
		return nil, fmt.Errorf("engine: sealing peer proof transaction: %w", err)
	}
	return nil, nil
}

// PendingAction returns the currently outstanding pending action, if
// any. Used by the Monitor's tick sweep.
func (e *Engine) PendingAction() (PendingAction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pendingAction == nil {
		return PendingAction{}, false
	}
	return *e.pendingAction, true
}

// reportViolation is called by the Monitor from its own goroutine to
// report a TIMEOUT_STALL it detected. It takes the same lock every
// engine operation does, so it never races a concurrent record/verify
// call.
func (e *Engine) reportViolation(ev evidence.CheatEvidence) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.invalidateLocked(ev)
	return err
}

// invalidateLocked records ev, appends an INVALIDATION transaction, and
// terminates the session. Caller must hold e.mu.
func (e *Engine) invalidateLocked(ev evidence.CheatEvidence) (*evidence.CheatEvidence, error) {
	if err := e.evLog.Record(ev); err != nil && err != evidence.ErrDuplicateEvidence {
		return nil, fmt.Errorf("engine: recording evidence: %w", err)
	}
	if err := e.evLog.Invalidate(ev); err != nil {
		// Already invalidated: the session is already TERMINATED. Still
		// return the new evidence, since the caller needs to know this
		// particular check failed.
		return &ev, nil
	}

	txData := map[string]any{"kind": string(ev.Kind), "accused": ev.Accused}
	tx, err := ledger.NewTransaction(e.identity, ledger.MoveInvalidation, txData, e.nonce(), now())
	if err == nil {
		if aerr := e.ledg.Append(*tx); aerr == nil {
			_, _ = e.ledg.Seal() // best-effort: termination proceeds regardless
		}
	}

	e.phase = PhaseTerminated
	return &ev, nil
}

// EvidenceLog exposes the dispute log for reporting.
func (e *Engine) EvidenceLog() *evidence.Log {
	return e.evLog
}

// VerifyLedger replays the ledger's I1-I4 invariants.
func (e *Engine) VerifyLedger() *ledger.VerifyFailure {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledg.Verify(crypto.PublicKeyFromParticipantID)
}

// Replay runs VerifyLedger and, on failure, produces LEDGER_TAMPER
// evidence and terminates the session.
func (e *Engine) Replay() (*evidence.CheatEvidence, error) {
	failure := e.VerifyLedger()
	if failure == nil {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	accused := e.accusedForTamperLocked(failure)
	ev := evidence.CheatEvidence{Kind: evidence.LedgerTamper, Accused: accused, Witness: failure, At: now()}
	return e.invalidateLocked(ev)
}

func (e *Engine) accusedForTamperLocked(failure *ledger.VerifyFailure) string {
	blocks := e.ledg.Blocks()
	if int(failure.Index) < len(blocks) {
		block := blocks[failure.Index]
		if len(block.Transactions) > 0 {
			return block.Transactions[0].ParticipantID
		}
	}
	return ""
}

// Snapshot encodes the engine's full state (ledger + protocol state +
// public identity) for persistence or transfer.
func (e *Engine) Snapshot() ([]byte, error) {
	e.mu.Lock()
	state := e.stateLocked()
	ledg := e.ledg
	selfID := e.selfID
	e.mu.Unlock()

	return persistence.Encode(selfID, state, ledg)
}

func (e *Engine) stateLocked() protocolState {
	return protocolState{
		Phase:         e.phase,
		SelfID:        e.selfID,
		PeerID:        e.peerID,
		SelfCommit:    e.selfCommit,
		PeerCommit:    e.peerCommit,
		Turn:          e.turn,
		PendingAction: e.pendingAction,
		NextNonce:     e.nextNonce,
		ActionSeq:     e.actionSeq,
	}
}

// Restore rebuilds the engine's ledger and protocol state from a
// snapshot produced by Snapshot, re-verifying the embedded ledger
// before accepting it. A failure surfaces as persistence.ErrCorruptState
// and leaves the engine untouched, never silently repaired.
func (e *Engine) Restore(data []byte) error {
	var state protocolState
	_, ledg, err := persistence.Decode(data, crypto.PublicKeyFromParticipantID, &state)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = state.Phase
	e.peerID = state.PeerID
	e.selfCommit = state.SelfCommit
	e.peerCommit = state.PeerCommit
	e.turn = state.Turn
	e.pendingAction = state.PendingAction
	e.nextNonce = state.NextNonce
	e.actionSeq = state.ActionSeq
	e.ledg = ledg
	return nil
}

// SaveSnapshot encodes and atomically writes the engine's state to path.
func (e *Engine) SaveSnapshot(path string) error {
	e.mu.Lock()
	state := e.stateLocked()
	ledg := e.ledg
	selfID := e.selfID
	e.mu.Unlock()

	return persistence.Save(path, selfID, state, ledg)
}

// LoadSnapshot reads and restores the engine's state from path.
func (e *Engine) LoadSnapshot(path string) error {
	var state protocolState
	_, ledg, err := persistence.Load(path, crypto.PublicKeyFromParticipantID, &state)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = state.Phase
	e.peerID = state.PeerID
	e.selfCommit = state.SelfCommit
	e.peerCommit = state.PeerCommit
	e.turn = state.Turn
	e.pendingAction = state.PendingAction
	e.nextNonce = state.NextNonce
	e.actionSeq = state.ActionSeq
	e.ledg = ledg
	return nil
}

// commitPublicData converts a commitment.Public into a Transaction
// Data map for the COMMIT transaction's canonical encoding.
func commitPublicData(pub commitment.Public) map[string]any {
	return map[string]any{
		"root":       pub.Root.String(),
		"scheme_tag": pub.SchemeTag,
		"params":     pub.Params,
	}
}

// commitDataMatches checks that a COMMIT transaction's Data agrees with
// the separately-published commitment.Public it is supposed to carry.
func commitDataMatches(data map[string]any, pub commitment.Public) bool {
	root, _ := data["root"].(string)
	tag, _ := data["scheme_tag"].(string)
	return root == pub.Root.String() && tag == pub.SchemeTag
}

// encodeProof converts a merkle.Proof into its wire shape: leaf_index,
// leaf_value as hex, siblings as [hex, "L"|"R"] pairs.
func encodeProof(proof *merkle.Proof) map[string]any {
	siblings := make([]any, len(proof.Siblings))
	for i, s := range proof.Siblings {
		siblings[i] = []any{s.Hash.String(), string(s.Side)}
	}
	return map[string]any{
		"leaf_index": proof.LeafIndex,
		"leaf_value": fmt.Sprintf("%x", proof.LeafValue),
		"siblings":   siblings,
	}
}
