package merkle

import (
	"errors"
	"fmt"

	"github.com/blockberries/zerotrust/crypto"
)

// Side identifies which side of a hash-folding step a sibling digest
// occupies.
type Side byte

const (
	// Left means the sibling is folded in on the left: parent =
	// H(sibling || current).
	Left Side = 'L'
	// Right means the sibling is folded in on the right: parent =
	// H(current || sibling).
	Right Side = 'R'
)

// ErrOutOfRange is returned when a proof is requested for a leaf index
// outside the tree.
var ErrOutOfRange = errors.New("merkle: leaf index out of range")

// ErrEmptyTree is returned when a proof is requested on a tree with no
// leaves; the empty tree's root is well-defined but carries no provable
// members.
var ErrEmptyTree = errors.New("merkle: cannot prove membership in an empty tree")

// ErrProofLength names a proof whose sibling count does not match what
// the tree's shape requires. VerifyProof does not return it: it reports
// such a proof as false without hashing (spec §4.2 edge case b).
var ErrProofLength = errors.New("merkle: proof has wrong sibling count")

const (
	leafTag     = 0x00
	internalTag = 0x01
)

// Sibling is one step of a Merkle proof: the digest to fold in, and
// which side it belongs on.
type Sibling struct {
	Hash crypto.Digest
	Side Side
}

// Proof is the sibling path from a leaf to a Merkle root. The root
// itself is never embedded — verification takes it from whatever
// externally-published commitment the proof is checked against.
type Proof struct {
	LeafIndex uint64
	LeafValue []byte
	Siblings  []Sibling
}

// Tree is a binary Merkle tree built over an ordered sequence of leaves.
type Tree struct {
	leaves []crypto.Digest // H(0x00 || leaf) for each input leaf
	levels [][]crypto.Digest
	root   crypto.Digest
}

// Build constructs a Merkle tree over leaves, in order. An empty input
// produces a tree whose root is sha256("") and which permits no proofs,
// per spec §4.2.
func Build(leaves [][]byte) *Tree {
	if len(leaves) == 0 {
		return &Tree{root: crypto.Sum256(nil)}
	}

	hashed := make([]crypto.Digest, len(leaves))
	for i, l := range leaves {
		hashed[i] = hashLeaf(l)
	}

	levels := [][]crypto.Digest{hashed}
	current := hashed
	for len(current) > 1 {
		next := make([]crypto.Digest, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			left := current[i]
			right := left
			if i+1 < len(current) {
				right = current[i+1]
			}
			next = append(next, hashInternal(left, right))
		}
		levels = append(levels, next)
		current = next
	}

	return &Tree{leaves: hashed, levels: levels, root: current[0]}
}

// Root returns the tree's root digest.
func (t *Tree) Root() crypto.Digest {
	return t.root
}

// Len returns the number of leaves in the tree.
func (t *Tree) Len() int {
	return len(t.leaves)
}

// Prove builds an inclusion proof for the leaf at idx.
func (t *Tree) Prove(idx uint64, leafValue []byte) (*Proof, error) {
	if len(t.leaves) == 0 {
		return nil, ErrEmptyTree
	}
	if idx >= uint64(len(t.leaves)) {
		return nil, ErrOutOfRange
	}

	var siblings []Sibling
	pos := idx
	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		siblingPos := pos ^ 1
		var sib crypto.Digest
		var side Side
		if siblingPos < uint64(len(nodes)) {
			sib = nodes[siblingPos]
		} else {
			// Odd level: duplicated last node is its own sibling.
			sib = nodes[pos]
		}
		if siblingPos < pos {
			side = Left
		} else {
			side = Right
		}
		siblings = append(siblings, Sibling{Hash: sib, Side: side})
		pos /= 2
	}

	return &Proof{LeafIndex: idx, LeafValue: leafValue, Siblings: siblings}, nil
}

// VerifyProof recomputes the root implied by proof and compares it to
// root, which the verifier obtains independently (e.g. from the peer's
// published CommitmentPublic.root — never from the proof itself).
func VerifyProof(root crypto.Digest, proof *Proof, expectedLevels int) bool {
	if proof == nil {
		return false
	}
	if expectedLevels >= 0 && len(proof.Siblings) != expectedLevels {
		return false
	}

	current := hashLeaf(proof.LeafValue)
	for _, sib := range proof.Siblings {
		switch sib.Side {
		case Left:
			current = hashInternal(sib.Hash, current)
		case Right:
			current = hashInternal(current, sib.Hash)
		default:
			return false
		}
	}
	return current.Equal(root)
}

// ProofLevels returns ceil(log2(n_padded)) for n leaves — the sibling
// count any valid proof over a tree of this size must carry.
func ProofLevels(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("merkle: cannot size a proof for %d leaves", n)
	}
	levels := 0
	size := n
	for size > 1 {
		size = (size + 1) / 2
		levels++
	}
	return levels, nil
}

func hashLeaf(data []byte) crypto.Digest {
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, leafTag)
	buf = append(buf, data...)
	return crypto.Sum256(buf)
}

func hashInternal(left, right crypto.Digest) crypto.Digest {
	buf := make([]byte, 0, 2*crypto.DigestSize+1)
	buf = append(buf, internalTag)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return crypto.Sum256(buf)
}
