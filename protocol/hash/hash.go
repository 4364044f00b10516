// Package hash wraps BLAKE3-256 for Photon Transport's three digest uses:
// the whole-payload data_hash, the per-packet chunk_hash carried in ACK,
// and the domain-separated provenance hashes anchoring the control
// envelope. All three are 32 bytes.
package hash

import (
	"encoding/binary"
	"encoding/hex"
	"hash"
	"slices"

	"lukechampine.com/blake3"
)

// Size is the digest length in bytes.
const Size = 32

// Hash is a 32-byte BLAKE3 digest.
type Hash []byte

// Zero is the empty digest, used as a sentinel return value on error paths.
var Zero Hash

// FromHex parses a hex-encoded digest.
func FromHex(hs string) (Hash, error) {
	if len(hs) == 0 {
		return Zero, nil
	}

	b, err := hex.DecodeString(hs)
	if err != nil {
		return Zero, err
	}
	return Hash(b), err
}

// MustFromHex is like FromHex but panics if the hex string is invalid.
// It is intended for use in tests and other situations where the hex string
// is known to be valid.
func MustFromHex(hs string) Hash {
	h, err := FromHex(hs)
	if err != nil {
		panic(err)
	}
	return h
}

func (h Hash) String() string {
	return hex.EncodeToString(h)
}

// Is reports whether h and other are the same digest. Digest comparison
// in this package is never used for access control, so a non-constant-time
// comparison is fine.
func (h Hash) Is(other Hash) bool {
	return slices.Equal(h, other)
}

// Hasher is a running BLAKE3-256 hash, embedding the standard hash.Hash
// interface so it can be used anywhere an io.Writer is expected.
type Hasher struct {
	hash.Hash
}

// NewHasher returns a fresh BLAKE3-256 Hasher.
func NewHasher() Hasher {
	return Hasher{Hash: blake3.New(Size, nil)}
}

// Sum256 digests data in one shot and returns the 32-byte BLAKE3 hash.
func Sum256(data []byte) Hash {
	h := NewHasher()
	// A hash.Hash Write never returns an error.
	_, _ = h.Write(data)
	return Hash(h.Sum(nil))
}

// DomainSeparated digests a domain tag followed by one or more fields,
// each length-prefixed so that concatenation is unambiguous (e.g.
// domain-separating "total_packets‖packet_size‖total_size‖data_hash" for
// a SPEC's provenance, or a missing-sequence list for a NAK's). The tag
// keeps a SPEC's provenance from colliding with a NAK's even if their raw
// fields happened to concatenate to the same bytes.
func DomainSeparated(domain string, fields ...[]byte) Hash {
	h := NewHasher()
	_, _ = h.Write([]byte(domain))
	for _, f := range fields {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(f)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(f)
	}
	return Hash(h.Sum(nil))
}
