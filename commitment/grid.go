package commitment

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/blockberries/zerotrust/crypto"
	"github.com/blockberries/zerotrust/merkle"
)

// SchemeTagGrid identifies the grid membership commitment on the wire.
const SchemeTagGrid = "grid"

// GridQuery addresses a single cell of a grid commitment.
type GridQuery struct {
	X uint32
	Y uint32
}

// Grid is the reference commitment scheme (spec §4.3): a square grid of
// cells, each either marked or not, committed via a Merkle tree over
// per-cell leaves that are bound to a private per-session seed.
//
// Grounded on original_source/zerotrust/merkle.py's MerkleGridCommitment,
// adapted to this module's domain-tagged Merkle construction (merkle
// package) and to spec §4.3's canonical leaf encoding.
type Grid struct {
	gridSize uint32
	marked   map[GridQuery]bool
	seed     []byte
	tree     *merkle.Tree
	leaves   map[GridQuery][]byte // canonical leaf bytes, keyed by cell, for proof generation
}

var _ Scheme = (*Grid)(nil)

type gridLeaf struct {
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
	Marked bool   `json:"marked"`
	Seed   string `json:"seed"`
}

// NewGrid builds a grid commitment. marked lists the cells considered
// "marked" (e.g. ship positions); seed is the private per-session
// binding material and must never be published.
func NewGrid(gridSize uint32, marked []GridQuery, seed []byte) (*Grid, error) {
	if gridSize == 0 {
		return nil, fmt.Errorf("commitment: grid_size must be positive")
	}

	markedSet := make(map[GridQuery]bool, len(marked))
	for _, q := range marked {
		if q.X >= gridSize || q.Y >= gridSize {
			return nil, fmt.Errorf("commitment: marked position (%d,%d) outside grid_size %d", q.X, q.Y, gridSize)
		}
		markedSet[q] = true
	}

	leaves := make([][]byte, 0, gridSize*gridSize)
	byCell := make(map[GridQuery][]byte, gridSize*gridSize)
	seedHex := hex.EncodeToString(seed)

	for x := uint32(0); x < gridSize; x++ {
		for y := uint32(0); y < gridSize; y++ {
			q := GridQuery{X: x, Y: y}
			leaf := gridLeaf{X: x, Y: y, Marked: markedSet[q], Seed: seedHex}
			encoded, err := encodeGridLeaf(leaf)
			if err != nil {
				return nil, err
			}
			leaves = append(leaves, encoded)
			byCell[q] = encoded
		}
	}

	return &Grid{
		gridSize: gridSize,
		marked:   markedSet,
		seed:     append([]byte(nil), seed...),
		tree:     merkle.Build(leaves),
		leaves:   byCell,
	}, nil
}

func encodeGridLeaf(l gridLeaf) ([]byte, error) {
	return crypto.Canonical(map[string]any{
		"x":      l.X,
		"y":      l.Y,
		"marked": l.Marked,
		"seed":   l.Seed,
	})
}

// CommitRoot returns the Merkle root of the grid commitment.
func (g *Grid) CommitRoot() crypto.Digest {
	return g.tree.Root()
}

// SchemeTag identifies this scheme on the wire.
func (g *Grid) SchemeTag() string {
	return SchemeTagGrid
}

// Public returns the wire-safe commitment, including grid_size so a
// verifier lacking the witness can still size proofs correctly.
func (g *Grid) Public() Public {
	return Public{
		Root:      g.CommitRoot(),
		SchemeTag: SchemeTagGrid,
		Params:    map[string]any{"grid_size": g.gridSize},
	}
}

// Prove builds a membership proof for a (x, y) cell. The revealed
// leaf_value carries the seed-bound leaf bytes; the verifier cannot
// reconstruct it independently (spec §9 open question) so it must ship
// inside the proof.
func (g *Grid) Prove(query any) (*merkle.Proof, error) {
	q, ok := query.(GridQuery)
	if !ok {
		return nil, fmt.Errorf("commitment: grid scheme expects a GridQuery, got %T", query)
	}
	if q.X >= g.gridSize || q.Y >= g.gridSize {
		return nil, fmt.Errorf("commitment: query (%d,%d) outside grid_size %d", q.X, q.Y, g.gridSize)
	}

	idx := uint64(q.X)*uint64(g.gridSize) + uint64(q.Y)
	leaf := g.leaves[q]
	return g.tree.Prove(idx, leaf)
}

// VerifyMembership verifies a proof against root using this instance's
// grid size (e.g. a self-check of a proof it produced). When only a
// peer's Public commitment is available, the package-level Verify
// function below performs the same check instead.
func (g *Grid) VerifyMembership(root crypto.Digest, query any, claimedFact any, proof *merkle.Proof) bool {
	q, ok := query.(GridQuery)
	if !ok {
		return false
	}
	marked, ok := claimedFact.(bool)
	if !ok {
		return false
	}
	return verifyGrid(root, g.gridSize, q, marked, proof)
}

// Verify checks a grid membership proof against a peer's published
// commitment, without requiring the peer's witness or seed. This is the
// operation a verifier actually calls (engine.VerifyPeerProof), since the
// verifier never holds a Grid instance for the peer's grid.
func Verify(pub Public, query GridQuery, claimedMarked bool, proof *merkle.Proof) bool {
	if pub.SchemeTag != SchemeTagGrid {
		return false
	}
	gridSize, ok := gridSizeFromParams(pub.Params)
	if !ok {
		return false
	}
	return verifyGrid(pub.Root, gridSize, query, claimedMarked, proof)
}

func verifyGrid(root crypto.Digest, gridSize uint32, query GridQuery, claimedMarked bool, proof *merkle.Proof) bool {
	if proof == nil {
		return false
	}
	if query.X >= gridSize || query.Y >= gridSize {
		return false
	}

	expectedLevels, err := merkle.ProofLevels(int(gridSize) * int(gridSize))
	if err != nil {
		return false
	}

	var leaf gridLeaf
	if err := json.Unmarshal(proof.LeafValue, &leaf); err != nil {
		return false
	}

	// Bind the revealed (x, y, marked) to what the caller is asserting
	// and to what the proof's own leaf decodes to (spec §4.3: the
	// protocol binds the revealed fact by requiring equality here).
	if leaf.X != query.X || leaf.Y != query.Y {
		return false
	}
	if leaf.Marked != claimedMarked {
		return false
	}
	expectedIdx := uint64(query.X)*uint64(gridSize) + uint64(query.Y)
	if proof.LeafIndex != expectedIdx {
		return false
	}

	return merkle.VerifyProof(root, proof, expectedLevels)
}

func gridSizeFromParams(params map[string]any) (uint32, bool) {
	raw, ok := params["grid_size"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case uint32:
		return v, true
	case int:
		return uint32(v), true
	case int64:
		return uint32(v), true
	case float64:
		return uint32(v), true
	default:
		return 0, false
	}
}
