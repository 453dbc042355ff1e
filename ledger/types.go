package ledger

import (
	"fmt"

	"github.com/blockberries/zerotrust/crypto"
	"github.com/blockberries/zerotrust/merkle"
)

// MoveType enumerates the kinds of transaction the protocol records.
type MoveType string

const (
	MoveCommit       MoveType = "COMMIT"
	MoveAction       MoveType = "ACTION"
	MoveResponse     MoveType = "RESPONSE"
	MoveProof        MoveType = "PROOF"
	MoveInvalidation MoveType = "INVALIDATION"
)

// Transaction is a single signed entry in the ledger. The signature
// covers the canonical encoding of every field except Signature itself.
type Transaction struct {
	MoveType      MoveType       `json:"move_type"`
	ParticipantID string         `json:"participant_id"`
	Data          map[string]any `json:"data"`
	Timestamp     int64          `json:"timestamp"`
	Nonce         uint64         `json:"nonce"`
	Signature     []byte         `json:"signature"`
}

// SignBytes returns the canonical encoding this transaction's signature
// covers: every field except Signature.
func (tx *Transaction) SignBytes() ([]byte, error) {
	return crypto.Canonical(map[string]any{
		"move_type":      string(tx.MoveType),
		"participant_id": tx.ParticipantID,
		"data":           tx.Data,
		"timestamp":      tx.Timestamp,
		"nonce":          tx.Nonce,
	})
}

// Hash returns the digest of the transaction's full canonical encoding
// (including the signature), used as a Merkle leaf when sealing a block.
func (tx *Transaction) Hash() (crypto.Digest, error) {
	full, err := crypto.Canonical(map[string]any{
		"move_type":      string(tx.MoveType),
		"participant_id": tx.ParticipantID,
		"data":           tx.Data,
		"timestamp":      tx.Timestamp,
		"nonce":          tx.Nonce,
		"signature":      tx.Signature,
	})
	if err != nil {
		return crypto.Digest{}, err
	}
	return crypto.Sum256(full), nil
}

// VerifySignature checks tx's signature against pub.
func (tx *Transaction) VerifySignature(pub *crypto.PublicKey) bool {
	signBytes, err := tx.SignBytes()
	if err != nil {
		return false
	}
	return pub.Verify(signBytes, tx.Signature)
}

// NewTransaction builds and signs a transaction with identity, stamping
// it with the given nonce and the given timestamp (Unix milliseconds).
func NewTransaction(identity *crypto.Identity, moveType MoveType, data map[string]any, nonce uint64, timestamp int64) (*Transaction, error) {
	tx := &Transaction{
		MoveType:      moveType,
		ParticipantID: identity.ParticipantID(),
		Data:          data,
		Timestamp:     timestamp,
		Nonce:         nonce,
	}
	signBytes, err := tx.SignBytes()
	if err != nil {
		return nil, fmt.Errorf("ledger: building sign bytes: %w", err)
	}
	tx.Signature = identity.Sign(signBytes)
	return tx, nil
}

// Block is a sealed, chained group of transactions (spec §3).
type Block struct {
	Index        uint64        `json:"index"`
	PrevHash     crypto.Digest `json:"prev_hash"`
	Transactions []Transaction `json:"transactions"`
	Timestamp    int64         `json:"timestamp"`
	Nonce        uint64        `json:"nonce"`
	Hash         crypto.Digest `json:"hash"`
}

// txMerkleRoot computes the Merkle root over the block's transaction
// hashes, in order.
func txMerkleRoot(txs []Transaction) (crypto.Digest, error) {
	leaves := make([][]byte, len(txs))
	for i := range txs {
		h, err := txs[i].Hash()
		if err != nil {
			return crypto.Digest{}, fmt.Errorf("ledger: hashing transaction %d: %w", i, err)
		}
		leaves[i] = h[:]
	}
	return merkle.Build(leaves).Root(), nil
}

// VerifyBlockHash reports whether block.Hash is the correct recomputed
// digest over block's header fields and transaction Merkle root. Used
// by suffix-sync to validate a peer-supplied block before it is
// accepted (reconnect.applySuffix).
func VerifyBlockHash(block Block) bool {
	root, err := txMerkleRoot(block.Transactions)
	if err != nil {
		return false
	}
	recomputed, err := computeHash(block.Index, block.PrevHash, root, block.Timestamp, block.Nonce)
	if err != nil {
		return false
	}
	return recomputed.Equal(block.Hash)
}

// computeHash recomputes the header digest a block's Hash field must
// equal: SHA256(canonical(index || prev_hash || merkle_root(tx_hashes)
// || timestamp || nonce)).
func computeHash(index uint64, prevHash crypto.Digest, merkleRoot crypto.Digest, timestamp int64, nonce uint64) (crypto.Digest, error) {
	encoded, err := crypto.Canonical(map[string]any{
		"index":       index,
		"prev_hash":   prevHash.String(),
		"merkle_root": merkleRoot.String(),
		"timestamp":   timestamp,
		"nonce":       nonce,
	})
	if err != nil {
		return crypto.Digest{}, err
	}
	return crypto.Sum256(encoded), nil
}
