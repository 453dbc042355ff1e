package reconnect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blockberries/zerotrust/ledger"
)

// Default timeouts for the reconnect handshake.
const (
	DefaultSyncTimeout    = 10 * time.Second
	DefaultMaxSuffixBlocks = 1000
)

// Errors returned by the reconnect flow.
var (
	// ErrUnresolvableFork means both sides' chains diverge at a block
	// neither side can prove the other forged — a genuine fork rather
	// than one side simply lagging. The caller must treat the session as
	// unrecoverable; it is never auto-merged.
	ErrUnresolvableFork = errors.New("reconnect: ledgers have diverged and cannot be reconciled")

	ErrSyncTimeout = errors.New("reconnect: peer did not respond within the sync timeout")
)

// PeerLink is the transport-level contract a reconnect session needs
// from its counterparty: the teacher's BlockProvider narrowed from an
// N-peer pool down to a single connection.
type PeerLink interface {
	// LatestHeight asks the peer for its current ledger height and the
	// hash of its latest block.
	LatestHeight(ctx context.Context) (height uint64, latestHash [32]byte, err error)
	// RequestSuffix asks the peer for every block after fromHeight
	// (exclusive), up to the peer's own height.
	RequestSuffix(ctx context.Context, fromHeight uint64) ([]ledger.Block, error)
}

// Outcome summarizes what a reconnect attempt did.
type Outcome struct {
	// BlocksApplied is the number of peer blocks appended locally to
	// catch up.
	BlocksApplied int
	// CaughtUp reports whether the local ledger's height now matches
	// the peer's as of the handshake.
	CaughtUp bool
}

// Session drives the reconnect handshake for one local ledger against
// one peer link.
type Session struct {
	link        PeerLink
	resolver    ledger.PublicKeyResolver
	syncTimeout time.Duration
	maxSuffix   uint64
}

// NewSession builds a reconnect session bound to link and a public-key
// resolver used to verify any replayed suffix.
func NewSession(link PeerLink, resolver ledger.PublicKeyResolver) *Session {
	return &Session{
		link:        link,
		resolver:    resolver,
		syncTimeout: DefaultSyncTimeout,
		maxSuffix:   DefaultMaxSuffixBlocks,
	}
}

// SetSyncTimeout overrides the default handshake timeout.
func (s *Session) SetSyncTimeout(d time.Duration) {
	s.syncTimeout = d
}

// Reconcile compares local's height against the peer's and, if local is
// behind, fetches and verifies the missing suffix before appending it.
// If local is ahead, nothing is fetched — the peer is expected to
// reconcile symmetrically on its own side. If the heights match but the
// latest hashes differ, the sessions have forked and ErrUnresolvableFork
// is returned.
func (s *Session) Reconcile(ctx context.Context, local *ledger.Ledger) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	peerHeight, peerHash, err := s.link.LatestHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyncTimeout, err)
	}

	localHeight := local.Height()
	localHash := local.LatestBlock().Hash

	if localHeight == peerHeight {
		if !localHash.Equal(peerHash) {
			return nil, ErrUnresolvableFork
		}
		return &Outcome{CaughtUp: true}, nil
	}

	if localHeight > peerHeight {
		// Peer is behind; it is responsible for catching up to us.
		return &Outcome{CaughtUp: false}, nil
	}

	if peerHeight-localHeight > s.maxSuffix {
		return nil, fmt.Errorf("reconnect: peer suffix of %d blocks exceeds maximum %d", peerHeight-localHeight, s.maxSuffix)
	}

	suffix, err := s.link.RequestSuffix(ctx, localHeight)
	if err != nil {
		return nil, fmt.Errorf("reconnect: requesting suffix: %w", err)
	}

	applied, err := applySuffix(local, localHeight, suffix, s.resolver)
	if err != nil {
		return nil, err
	}

	caughtUp := local.Height() == peerHeight && local.LatestBlock().Hash.Equal(peerHash)
	return &Outcome{BlocksApplied: applied, CaughtUp: caughtUp}, nil
}

// applySuffix verifies each block of the suffix chains correctly onto
// local's current tip and every transaction's signature checks out
// before appending any of it. A suffix that fails at block i is rejected
// in full — no partial application of a suspect chain.
func applySuffix(local *ledger.Ledger, fromHeight uint64, suffix []ledger.Block, resolver ledger.PublicKeyResolver) (int, error) {
	expectedPrevHash := local.LatestBlock().Hash
	expectedIndex := fromHeight + 1

	for i, block := range suffix {
		if block.Index != expectedIndex {
			return 0, fmt.Errorf("reconnect: suffix block %d has index %d, expected %d", i, block.Index, expectedIndex)
		}
		if !block.PrevHash.Equal(expectedPrevHash) {
			return 0, fmt.Errorf("%w: suffix block %d does not chain to our tip", ErrUnresolvableFork, i)
		}
		if !ledger.VerifyBlockHash(block) {
			return 0, fmt.Errorf("reconnect: suffix block %d hash does not match its contents", i)
		}
		for j, tx := range block.Transactions {
			if resolver == nil {
				continue
			}
			pub, err := resolver(tx.ParticipantID)
			if err != nil {
				return 0, fmt.Errorf("reconnect: suffix block %d transaction %d: %w", i, j, err)
			}
			if !tx.VerifySignature(pub) {
				return 0, fmt.Errorf("reconnect: suffix block %d transaction %d has an invalid signature", i, j)
			}
		}
		expectedPrevHash = block.Hash
		expectedIndex++
	}

	for _, block := range suffix {
		if err := local.AppendSealedBlock(block); err != nil {
			return 0, fmt.Errorf("reconnect: applying suffix block %d: %w", block.Index, err)
		}
	}

	return len(suffix), nil
}
