package merkle

import "testing"

func sampleLeaves(n int) [][]byte {
	leaves := make([][]byte, n)
	for i := range leaves {
		leaves[i] = []byte{byte(i)}
	}
	return leaves
}

func TestBuildEmptyTree(t *testing.T) {
	tree := Build(nil)
	if tree.Len() != 0 {
		t.Errorf("expected 0 leaves, got %d", tree.Len())
	}
	if _, err := tree.Prove(0, nil); err != ErrEmptyTree {
		t.Errorf("expected ErrEmptyTree, got %v", err)
	}
}

func TestProveAndVerifyAllLeaves(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 16} {
		leaves := sampleLeaves(n)
		tree := Build(leaves)
		levels, err := ProofLevels(n)
		if err != nil {
			t.Fatalf("ProofLevels(%d) failed: %v", n, err)
		}

		for i := 0; i < n; i++ {
			proof, err := tree.Prove(uint64(i), leaves[i])
			if err != nil {
				t.Fatalf("n=%d idx=%d: Prove failed: %v", n, i, err)
			}
			if len(proof.Siblings) != levels {
				t.Errorf("n=%d idx=%d: expected %d siblings, got %d", n, i, levels, len(proof.Siblings))
			}
			if !VerifyProof(tree.Root(), proof, levels) {
				t.Errorf("n=%d idx=%d: expected proof to verify", n, i)
			}
		}
	}
}

func TestVerifyFailsForSubstitutedLeaf(t *testing.T) {
	leaves := sampleLeaves(8)
	tree := Build(leaves)
	levels, _ := ProofLevels(8)

	proofA, err := tree.Prove(2, leaves[2])
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	// Substitute a different leaf's fact fields into proof A's path.
	tampered := &Proof{LeafIndex: proofA.LeafIndex, LeafValue: leaves[5], Siblings: proofA.Siblings}
	if VerifyProof(tree.Root(), tampered, levels) {
		t.Error("expected verification to fail for substituted leaf value")
	}
}

func TestProveOutOfRange(t *testing.T) {
	tree := Build(sampleLeaves(4))
	if _, err := tree.Prove(4, nil); err != ErrOutOfRange {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestVerifyRejectsWrongProofLength(t *testing.T) {
	tree := Build(sampleLeaves(8))
	proof, err := tree.Prove(0, sampleLeaves(8)[0])
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	// Correct length is 3 for 8 leaves; claim a different tree size.
	if VerifyProof(tree.Root(), proof, 5) {
		t.Error("expected verification to fail for mismatched proof length")
	}
}

func TestDeterministicRoot(t *testing.T) {
	leaves := sampleLeaves(6)
	t1 := Build(leaves)
	t2 := Build(leaves)
	if !t1.Root().Equal(t2.Root()) {
		t.Error("expected identical leaves to produce identical root")
	}
}
