package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrInvalidSignature names a malformed signature. No function in this
// package returns it: PublicKey.Verify reports a signature that fails to
// parse as false, the same as one that fails to verify (spec §7's
// "cryptographic failures never throw" policy).
var ErrInvalidSignature = errors.New("crypto: malformed signature")

// Identity is a secp256k1 keypair bound to a single process lifetime.
// The private key never leaves the owning process; only the public half
// and its derived ParticipantID travel on the wire.
type Identity struct {
	priv *secp256k1.PrivateKey
}

// GenerateIdentity creates a fresh secp256k1 keypair.
func GenerateIdentity() (*Identity, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("crypto: generate keypair: %w", err)
	}
	return &Identity{priv: priv}, nil
}

// IdentityFromPrivateKeyBytes rebuilds an Identity from a 32-byte scalar,
// e.g. loaded from a caller-supplied secret store (spec §4.8 keeps
// private keys out of the persisted snapshot).
func IdentityFromPrivateKeyBytes(raw []byte) (*Identity, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("crypto: private key must be 32 bytes, got %d", len(raw))
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	return &Identity{priv: priv}, nil
}

// PrivateKeyBytes exports the raw scalar for external secret storage.
func (id *Identity) PrivateKeyBytes() []byte {
	return id.priv.Serialize()
}

// PublicKey returns the holder's public key.
func (id *Identity) PublicKey() *PublicKey {
	return &PublicKey{pub: id.priv.PubKey()}
}

// ParticipantID returns the hex-encoded uncompressed public key — the
// sole participant name used on the wire (spec §3).
func (id *Identity) ParticipantID() string {
	return id.PublicKey().ParticipantID()
}

// Sign produces a deterministic-k ECDSA signature over the SHA-256
// digest of msg. The DER encoding is what travels on the wire.
func (id *Identity) Sign(msg []byte) []byte {
	digest := Sum256(msg)
	sig := ecdsa.Sign(id.priv, digest[:])
	return sig.Serialize()
}

// Zeroize overwrites the private scalar in memory. Called during graceful
// shutdown (spec §5) so the key does not linger in the process image.
func (id *Identity) Zeroize() {
	id.priv.Zero()
}

// PublicKey wraps a secp256k1 public key for verification and wire
// encoding.
type PublicKey struct {
	pub *secp256k1.PublicKey
}

// ParticipantID returns the hex-encoded uncompressed public key.
func (pk *PublicKey) ParticipantID() string {
	return hex.EncodeToString(pk.pub.SerializeUncompressed())
}

// Bytes returns the uncompressed public key encoding.
func (pk *PublicKey) Bytes() []byte {
	return pk.pub.SerializeUncompressed()
}

// PublicKeyFromParticipantID parses a participant ID back into a public
// key, the inverse of ParticipantID.
func PublicKeyFromParticipantID(participantID string) (*PublicKey, error) {
	raw, err := hex.DecodeString(participantID)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid participant id: %w", err)
	}
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid public key: %w", err)
	}
	return &PublicKey{pub: pub}, nil
}

// Verify checks sig (DER-encoded) over the SHA-256 digest of msg against
// this public key. It never returns an error: a malformed or mismatched
// signature is simply "not valid", per the protocol's policy of routing
// every cryptographic failure through Evidence rather than an exception
// (spec §7).
func (pk *PublicKey) Verify(msg, sig []byte) bool {
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := Sum256(msg)
	return parsed.Verify(digest[:], pk.pub)
}

// Equal reports whether two public keys are the same point.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return pk.pub.IsEqual(other.pub)
}
