// Package merkle implements the binary Merkle tree used by commitment
// schemes to let a party prove membership of a single revealed leaf
// against a previously-published root, without disclosing any other
// leaf.
//
// Leaves are domain-tagged with 0x00 and internal nodes with 0x01 before
// hashing, so a leaf hash can never be mistaken for an internal node
// hash (the classic second-preimage attack against naive Merkle trees).
// Odd levels duplicate their last node rather than promoting it
// unhashed, for the same reason.
package merkle
