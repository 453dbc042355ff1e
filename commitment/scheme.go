package commitment

import (
	"github.com/blockberries/zerotrust/crypto"
	"github.com/blockberries/zerotrust/merkle"
)

// Public is the wire/storage form of a commitment: the root plus enough
// metadata to interpret it, but never the private witness.
type Public struct {
	Root      crypto.Digest  `json:"root"`
	SchemeTag string         `json:"scheme_tag"`
	Params    map[string]any `json:"params,omitempty"`
}

// Scheme is the abstract surface every commitment implementation
// provides. Binding and hiding are properties the implementation must
// guarantee; the interface only captures the operational contract.
type Scheme interface {
	// CommitRoot returns the (already computed, immutable) commitment
	// root.
	CommitRoot() crypto.Digest

	// Prove builds a membership proof for query against the witness.
	// query's shape is scheme-specific (e.g. (x, y) for a grid).
	Prove(query any) (*merkle.Proof, error)

	// VerifyMembership checks proof against an externally supplied root
	// and the fact the prover is claiming about query. It never has
	// access to the private witness — only what the proof carries.
	VerifyMembership(root crypto.Digest, query any, claimedFact any, proof *merkle.Proof) bool

	// SchemeTag identifies the scheme on the wire, so a verifier that
	// does not implement this particular scheme can at least recognize
	// it is being asked to trust an unfamiliar one.
	SchemeTag() string

	// Public returns the wire-safe CommitmentPublic for this scheme.
	Public() Public
}
