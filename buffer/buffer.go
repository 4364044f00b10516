// Package buffer implements the reassembly and transmit buffers backing
// a single transfer direction: ReceiveBuffer accumulates inbound DATA
// payloads into a flat byte slice guarded by a bitmap, and SendBuffer
// slices an outbound payload on demand and tracks which slices have
// been acknowledged.
package buffer

import (
	"math/bits"

	"github.com/nickspiker/photon/protocol/hash"
)

// bitset is a fixed-size, growable-at-construction bit vector used for
// both the receive bitmap and the send ACK bitmap. No bitset library
// appears among this module's dependency set, so this is a small
// stdlib implementation over math/bits rather than a fabricated import;
// see DESIGN.md.
type bitset struct {
	bits []uint64
	n    int
}

func newBitset(n int) *bitset {
	return &bitset{bits: make([]uint64, (n+63)/64), n: n}
}

func (b *bitset) set(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.bits[i/64] |= 1 << uint(i%64)
}

func (b *bitset) isSet(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.bits[i/64]&(1<<uint(i%64)) != 0
}

func (b *bitset) popcount() int {
	count := 0
	for _, word := range b.bits {
		count += bits.OnesCount64(word)
	}
	return count
}

func (b *bitset) saturated() bool {
	return b.popcount() == b.n
}

// missing enumerates unset bit positions in ascending order, stopping
// once limit results have been collected (limit <= 0 means unlimited).
func (b *bitset) missing(limit int) []uint32 {
	var out []uint32
	for i := 0; i < b.n; i++ {
		if !b.isSet(i) {
			out = append(out, uint32(i))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// ReceiveBuffer accumulates inbound DATA payloads for a single inbound
// transfer.
type ReceiveBuffer struct {
	data          []byte
	bitmap        *bitset
	packetSize    uint64
	totalSize     uint64
	totalPackets  int
	expectedHash  hash.Hash
	receivedCount int
}

// NewReceiveBuffer allocates a zero-filled buffer sized to hold
// totalSize bytes reassembled from totalPackets DATA packets of up to
// packetSize bytes each.
func NewReceiveBuffer(totalPackets int, packetSize, totalSize uint64, expectedHash hash.Hash) *ReceiveBuffer {
	return &ReceiveBuffer{
		data:         make([]byte, totalSize),
		bitmap:       newBitset(totalPackets),
		packetSize:   packetSize,
		totalSize:    totalSize,
		totalPackets: totalPackets,
		expectedHash: expectedHash,
	}
}

// InsertResult reports the outcome of an Insert call.
type InsertResult int

const (
	// InsertOK means payload was newly recorded.
	InsertOK InsertResult = iota
	// InsertDuplicate means the sequence was already set; the caller
	// still emits an ACK to suppress further sender retransmits.
	InsertDuplicate
	// InsertOutOfRange means seq >= totalPackets; the insert is silently dropped.
	InsertOutOfRange
)

// Insert copies payload into the reassembly buffer at the byte range
// owned by seq, clamped to the buffer's total size, and marks the
// sequence received. Re-inserting an already-set sequence is reported
// as InsertDuplicate without touching the underlying bytes.
func (r *ReceiveBuffer) Insert(seq uint32, payload []byte) InsertResult {
	if int(seq) >= r.totalPackets {
		return InsertOutOfRange
	}
	if r.bitmap.isSet(int(seq)) {
		return InsertDuplicate
	}

	start := uint64(seq) * r.packetSize
	if start > r.totalSize {
		start = r.totalSize
	}
	end := start + uint64(len(payload))
	if end > r.totalSize {
		end = r.totalSize
	}
	if end > start {
		copy(r.data[start:end], payload[:end-start])
	}

	r.bitmap.set(int(seq))
	r.receivedCount++
	return InsertOK
}

// ReceivedCount returns the number of distinct sequences received so far.
func (r *ReceiveBuffer) ReceivedCount() int {
	return r.receivedCount
}

// MissingSequences enumerates unset bitmap positions in ascending order.
func (r *ReceiveBuffer) MissingSequences() []uint32 {
	return r.bitmap.missing(0)
}

// Saturated reports whether every sequence has been received.
func (r *ReceiveBuffer) Saturated() bool {
	return r.bitmap.saturated()
}

// ExpectedHash returns the digest the reassembled payload must match,
// carried over from the SPEC that sized this buffer.
func (r *ReceiveBuffer) ExpectedHash() hash.Hash {
	return r.expectedHash
}

// Verify reports whether the buffer is saturated and the reassembled
// payload's digest matches expectedHash.
func (r *ReceiveBuffer) Verify() bool {
	if !r.bitmap.saturated() {
		return false
	}
	return hash.Sum256(r.data).Is(r.expectedHash)
}

// Digest returns the BLAKE3-256 digest of the reassembled payload,
// regardless of saturation — callers needing Verify's exact semantics
// should call Verify instead.
func (r *ReceiveBuffer) Digest() hash.Hash {
	return hash.Sum256(r.data)
}

// TakeData consumes the buffer, returning the reassembled payload
// truncated to total_size.
func (r *ReceiveBuffer) TakeData() []byte {
	out := r.data
	r.data = nil
	return out
}

// SendBuffer owns the outbound payload for a single outbound transfer,
// slicing it into packet-sized chunks on demand and tracking which
// sequences have been acknowledged.
type SendBuffer struct {
	payload      []byte
	packetSize   uint64
	totalPackets int
	ackBitmap    *bitset
	ackedCount   int
	cursor       int
	dataHash     hash.Hash
}

// NewSendBuffer precomputes payload's digest and partitions it into
// ceil(len(payload)/packetSize) packet-sized slices.
func NewSendBuffer(payload []byte, packetSize uint64) *SendBuffer {
	totalPackets := 0
	if packetSize > 0 {
		totalPackets = int((uint64(len(payload)) + packetSize - 1) / packetSize)
	}
	return &SendBuffer{
		payload:      payload,
		packetSize:   packetSize,
		totalPackets: totalPackets,
		ackBitmap:    newBitset(totalPackets),
		dataHash:     hash.Sum256(payload),
	}
}

// TotalPackets returns the number of packet-sized slices the payload
// was partitioned into.
func (s *SendBuffer) TotalPackets() int {
	return s.totalPackets
}

// DataHash returns the precomputed whole-payload digest.
func (s *SendBuffer) DataHash() hash.Hash {
	return s.dataHash
}

// Slice returns the read-only byte range owned by seq (the final slice
// may be shorter than packetSize), or (nil, false) if seq is out of range.
func (s *SendBuffer) Slice(seq uint32) ([]byte, bool) {
	if int(seq) >= s.totalPackets {
		return nil, false
	}
	start := uint64(seq) * s.packetSize
	end := start + s.packetSize
	if end > uint64(len(s.payload)) {
		end = uint64(len(s.payload))
	}
	return s.payload[start:end], true
}

// NextToSend returns the next never-yet-yielded sequence for the
// initial blast pass, and whether one remained.
func (s *SendBuffer) NextToSend() (uint32, bool) {
	if s.cursor >= s.totalPackets {
		return 0, false
	}
	seq := uint32(s.cursor)
	s.cursor++
	return seq, true
}

// Exhausted reports whether every sequence has been handed out by NextToSend.
func (s *SendBuffer) Exhausted() bool {
	return s.cursor >= s.totalPackets
}

// MarkAcked records seq as acknowledged, deduplicating repeated ACKs.
// It reports whether this was a newly observed ACK.
func (s *SendBuffer) MarkAcked(seq uint32) bool {
	if int(seq) >= s.totalPackets || s.ackBitmap.isSet(int(seq)) {
		return false
	}
	s.ackBitmap.set(int(seq))
	s.ackedCount++
	return true
}

// AckedCount returns the number of distinct sequences acknowledged so far.
func (s *SendBuffer) AckedCount() int {
	return s.ackedCount
}

// Saturated reports whether every sequence has been acknowledged.
func (s *SendBuffer) Saturated() bool {
	return s.ackBitmap.saturated()
}

// MissingSequences enumerates un-acknowledged sequences in ascending
// order, capped at limit entries (limit <= 0 means unlimited) — used
// when a sender sweeps gaps rather than waiting on NAKs alone.
func (s *SendBuffer) MissingSequences(limit int) []uint32 {
	return s.ackBitmap.missing(limit)
}
