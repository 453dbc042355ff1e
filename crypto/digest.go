package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DigestSize is the length in bytes of a Digest.
const DigestSize = 32

// Digest is a SHA-256 hash, the unit of content addressing used across
// the ledger, the Merkle tree, and commitment roots.
type Digest [DigestSize]byte

// ZeroDigest is the all-zero digest used as the genesis block's
// predecessor hash.
var ZeroDigest = Digest{}

// Sum256 computes the SHA-256 digest of data.
func Sum256(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// DigestFromBytes builds a Digest from raw bytes, failing if the length
// is wrong. Use for untrusted input (wire, disk).
func DigestFromBytes(data []byte) (Digest, error) {
	if len(data) != DigestSize {
		return Digest{}, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(data))
	}
	var d Digest
	copy(d[:], data)
	return d, nil
}

// DigestFromHex decodes a hex-encoded digest.
func DigestFromHex(s string) (Digest, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid hex digest: %w", err)
	}
	return DigestFromBytes(raw)
}

// IsZero reports whether d is the all-zero digest.
func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

// Equal reports whether d and other are the same digest.
func (d Digest) Equal(other Digest) bool {
	return bytes.Equal(d[:], other[:])
}

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Bytes returns a copy of the underlying bytes.
func (d Digest) Bytes() []byte {
	out := make([]byte, DigestSize)
	copy(out, d[:])
	return out
}

// MarshalText implements encoding.TextMarshaler so Digest round-trips
// through JSON as a hex string rather than an array of numbers.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := DigestFromHex(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LeadingZeroBits returns the number of leading zero bits in the digest,
// interpreted as a big-endian integer. Used by the ledger's proof-of-work
// tamper cost (spec difficulty_bits).
func (d Digest) LeadingZeroBits() int {
	count := 0
	for _, b := range d {
		if b == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask > 0; mask >>= 1 {
			if b&mask != 0 {
				return count
			}
			count++
		}
	}
	return count
}

// MeetsDifficulty reports whether the digest has at least the given
// number of leading zero bits.
func (d Digest) MeetsDifficulty(bits uint32) bool {
	return d.LeadingZeroBits() >= int(bits)
}
