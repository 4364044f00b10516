package protocol

import (
	"encoding/binary"
	"time"

	"github.com/nickspiker/photon/protocol/hash"
)

// MagicPrefix opens every structured envelope (SPEC/ACK/NAK/CONTROL/COMPLETE).
// DATA never carries it — a DATA packet is recognized by its first byte
// being a lowercase ASCII letter, which MagicPrefix[0] ('R') is not.
var MagicPrefix = [3]byte{'R', 0xC5, '<'}

// Trailer closes every structured envelope.
const Trailer = '>'

// field-name tags. The name, not a numeric kind byte, is what Decode
// switches on — per the transport's tagged-variant design, the
// field-name discrimination is load-bearing.
const (
	fieldSpec    = "pt_spec"
	fieldAck     = "pt_ack"
	fieldNak     = "pt_nak"
	fieldControl = "pt_ctrl"
	fieldDone    = "pt_done"
)

// Domain-separation tags for provenance hashes that are computed (as
// opposed to ACK's and COMPLETE's, which carry a caller-supplied digest
// verbatim as their provenance).
const (
	domainSpecProvenance = "photon-spec-provenance-v1"
	domainNakProvenance  = "photon-nak-provenance-v1"
	domainCtrlProvenance = "photon-ctrl-provenance-v1"
)

// envelopeHeader is the fixed-shape prefix shared by all five structured
// packet types: a wall-clock timestamp (external correlation only, never
// used for protocol timing), a 32-byte provenance hash, and an optional
// signer public key + signature (SPEC only).
type envelopeHeader struct {
	Timestamp  time.Time
	Provenance hash.Hash
	HasSig     bool
	PubKey     [32]byte
	Signature  [64]byte
}

func writeEnvelopeHeader(buf []byte, h envelopeHeader) []byte {
	buf = append(buf, MagicPrefix[:]...)

	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(h.Timestamp.UnixNano()))
	buf = append(buf, tsBuf[:]...)

	var provenance [hash.Size]byte
	copy(provenance[:], h.Provenance)
	buf = append(buf, provenance[:]...)

	if h.HasSig {
		buf = append(buf, 1)
		buf = append(buf, h.PubKey[:]...)
		buf = append(buf, h.Signature[:]...)
	} else {
		buf = append(buf, 0)
	}

	return buf
}

func readEnvelopeHeader(buf []byte) (h envelopeHeader, rest []byte, ok bool) {
	if len(buf) < len(MagicPrefix) {
		return envelopeHeader{}, nil, false
	}
	for i, b := range MagicPrefix {
		if buf[i] != b {
			return envelopeHeader{}, nil, false
		}
	}
	buf = buf[len(MagicPrefix):]

	if len(buf) < 8 {
		return envelopeHeader{}, nil, false
	}
	h.Timestamp = time.Unix(0, int64(binary.BigEndian.Uint64(buf[:8])))
	buf = buf[8:]

	if len(buf) < hash.Size {
		return envelopeHeader{}, nil, false
	}
	h.Provenance = append(hash.Hash(nil), buf[:hash.Size]...)
	buf = buf[hash.Size:]

	if len(buf) < 1 {
		return envelopeHeader{}, nil, false
	}
	sigPresent := buf[0]
	buf = buf[1:]
	if sigPresent != 0 && sigPresent != 1 {
		return envelopeHeader{}, nil, false
	}

	if sigPresent == 1 {
		h.HasSig = true
		if len(buf) < 32+64 {
			return envelopeHeader{}, nil, false
		}
		copy(h.PubKey[:], buf[:32])
		copy(h.Signature[:], buf[32:96])
		buf = buf[96:]
	}

	return h, buf, true
}

// writeField appends the named inline field and its payload: a
// length-prefixed name, then a varuint-length-prefixed value.
func writeField(buf []byte, name string, payload []byte) []byte {
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	buf = appendUvarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	return buf
}

func readField(buf []byte) (name string, payload []byte, rest []byte, ok bool) {
	if len(buf) < 1 {
		return "", nil, nil, false
	}
	nameLen := int(buf[0])
	buf = buf[1:]
	if len(buf) < nameLen {
		return "", nil, nil, false
	}
	name = string(buf[:nameLen])
	buf = buf[nameLen:]

	payloadLen, n, ok := takeUvarintUnbounded(buf)
	if !ok {
		return "", nil, nil, false
	}
	buf = buf[n:]
	if uint64(len(buf)) < payloadLen {
		return "", nil, nil, false
	}
	payload = buf[:payloadLen]
	buf = buf[payloadLen:]

	return name, payload, buf, true
}

// takeUvarintUnbounded is like takeUvarint but without the 4-byte cap —
// field-payload lengths (e.g. a long NAK missing-sequence list) may
// legitimately need more than 4 bytes to encode, unlike a DATA sequence
// number.
func takeUvarintUnbounded(buf []byte) (value uint64, n int, ok bool) {
	value, n = binary.Uvarint(buf)
	if n <= 0 {
		return 0, 0, false
	}
	return value, n, true
}

func readTrailer(buf []byte) (rest []byte, ok bool) {
	if len(buf) < 1 || buf[0] != Trailer {
		return nil, false
	}
	return buf[1:], true
}

// appendFixedUint32 appends x as 4 big-endian bytes. ACK and NAK sequence
// numbers use this fixed width rather than a varuint: they're provenance
// inputs and field values in bulk (NAK's missing list), where a constant
// width keeps domain-separated hashing unambiguous without extra length
// prefixes.
func appendFixedUint32(buf []byte, x uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], x)
	return append(buf, tmp[:]...)
}

func readFixedUint32(buf []byte) (value uint32, rest []byte, ok bool) {
	if len(buf) < 4 {
		return 0, nil, false
	}
	return binary.BigEndian.Uint32(buf[:4]), buf[4:], true
}

// unixNanoTime converts a stored unix-nanosecond timestamp back into a
// time.Time for re-encoding.
func unixNanoTime(nanos int64) time.Time {
	return time.Unix(0, nanos)
}
