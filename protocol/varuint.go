package protocol

import "encoding/binary"

// maxVaruintBytes bounds the DATA packet's sequence field to the 1-4 byte
// range spec.md §4.1/§6 names. A 4-byte base-128 varuint covers sequence
// numbers up to 2^28-1 (~268 million packets), which at the default 1024
// byte packet size already addresses payloads up to 256 GiB; see
// DESIGN.md for the reasoning behind not chasing the full 32-bit range
// here the way the envelope's fixed-width ACK/NAK sequence fields do.
const maxVaruintBytes = 4

// appendUvarint appends x to buf using the same base-128 varint encoding
// as encoding/binary.PutUvarint.
func appendUvarint(buf []byte, x uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], x)
	return append(buf, tmp[:n]...)
}

// takeUvarint decodes a varuint from the front of buf, returning the value,
// the number of bytes consumed, and whether decoding succeeded. It rejects
// encodings wider than maxVaruintBytes so a corrupt or adversarial DATA
// packet cannot force unbounded scanning.
func takeUvarint(buf []byte) (value uint64, n int, ok bool) {
	limit := len(buf)
	if limit > maxVaruintBytes {
		limit = maxVaruintBytes
	}
	value, n = binary.Uvarint(buf[:limit])
	if n <= 0 {
		return 0, 0, false
	}
	return value, n, true
}
