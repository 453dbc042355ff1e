// Package crypto provides the hashing and identity primitives used
// throughout the zero-trust protocol kernel: SHA-256 digests, secp256k1
// keypairs, deterministic-k ECDSA signatures, and the canonical byte
// encoding used as input to every hash and signature.
//
// # Canonical encoding
//
// Every structured value that is hashed or signed is first reduced to a
// canonical byte form: the UTF-8 encoding of its JSON representation with
// object keys sorted lexicographically at every nesting level, no
// insignificant whitespace, and no floating-point values. Implementations
// on both sides of the wire MUST agree on this encoding bit-for-bit, or
// signatures produced by one peer will fail to verify for the other.
//
// # Identity
//
// An Identity is a secp256k1 keypair. ParticipantID derives a stable
// wire name for the holder from the uncompressed public key; it is the
// only name participants use to address each other.
package crypto
