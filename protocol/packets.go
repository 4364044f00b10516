// Package protocol implements the Photon Transport wire format: the
// minimal binary framing for the hot-path DATA packet, and the shared
// envelope (magic prefix, timestamp, provenance hash, optional
// signature) carrying the five control shapes SPEC, ACK, NAK, CONTROL,
// and COMPLETE. Packets are modeled as a tagged sum type — SpecPacket,
// DataPacket, AckPacket, NakPacket, ControlPacket, CompletePacket — not
// as one generic struct with optional fields, since the five control
// shapes have disjoint field schemas and the field-name discrimination
// in the wire format is load-bearing.
package protocol

import (
	"github.com/nickspiker/photon/protocol/hash"
)

// Packet is implemented by every decoded wire shape. Callers type-switch
// on the concrete type rather than reading optional fields off a generic
// struct.
type Packet interface {
	isPacket()
}

// SentinelSequence is the ACK.sequence value meaning "this acknowledges
// the SPEC, not a DATA packet" (a SPEC-ACK).
const SentinelSequence uint32 = 0xFFFFFFFF

// MaxPacketSize is the largest negotiable per-packet payload size.
const MaxPacketSize = 65535

// IsStreamID reports whether b is a valid stream identifier: a lowercase
// ASCII letter 'a'..'z'.
func IsStreamID(b byte) bool {
	return b >= 'a' && b <= 'z'
}

// ---- SPEC ----

// SpecPacket initiates a transfer. It is the only signed packet shape.
type SpecPacket struct {
	StreamID     byte
	TotalPackets uint64
	PacketSize   uint64
	TotalSize    uint64
	DataHash     hash.Hash
	Timestamp    int64 // unix nanos, correlation only
	PubKey       [32]byte
	Signature    [64]byte
}

func (*SpecPacket) isPacket() {}

// Provenance recomputes the SPEC's provenance hash from its fields, for
// signature verification by a party that didn't build the packet.
func (p *SpecPacket) Provenance() hash.Hash {
	return specProvenance(p.TotalPackets, p.PacketSize, p.TotalSize, p.DataHash)
}

// specProvenance computes the SPEC provenance: a domain-separated digest
// over total_packets‖packet_size‖total_size‖data_hash.
func specProvenance(totalPackets, packetSize, totalSize uint64, dataHash hash.Hash) hash.Hash {
	return hash.DomainSeparated(domainSpecProvenance,
		appendUvarint(nil, totalPackets),
		appendUvarint(nil, packetSize),
		appendUvarint(nil, totalSize),
		dataHash,
	)
}

// NewSpecPacket builds and signs a SPEC packet. The signature covers the
// packet's provenance hash, so a verifier that trusts PubKey can check
// Signature without re-deriving every field independently.
func NewSpecPacket(clock Clock, signer Signer, streamID byte, totalPackets, packetSize, totalSize uint64, dataHash hash.Hash) (*SpecPacket, error) {
	if !IsStreamID(streamID) {
		return nil, ErrInvalidPacket
	}
	if packetSize > MaxPacketSize {
		return nil, ErrInvalidPacket
	}

	provenance := specProvenance(totalPackets, packetSize, totalSize, dataHash)
	pubKey, sig, err := signer.Sign(provenance)
	if err != nil {
		return nil, err
	}

	return &SpecPacket{
		StreamID:     streamID,
		TotalPackets: totalPackets,
		PacketSize:   packetSize,
		TotalSize:    totalSize,
		DataHash:     dataHash,
		Timestamp:    clock.Now().UnixNano(),
		PubKey:       pubKey,
		Signature:    sig,
	}, nil
}

// Marshal encodes the SPEC as a structured envelope.
func (p *SpecPacket) Marshal() []byte {
	provenance := specProvenance(p.TotalPackets, p.PacketSize, p.TotalSize, p.DataHash)

	var payload []byte
	payload = append(payload, p.StreamID)
	payload = appendUvarint(payload, p.TotalPackets)
	payload = appendUvarint(payload, p.PacketSize)
	payload = appendUvarint(payload, p.TotalSize)
	payload = append(payload, p.DataHash...)

	var buf []byte
	buf = writeEnvelopeHeader(buf, envelopeHeader{
		Timestamp:  unixNanoTime(p.Timestamp),
		Provenance: provenance,
		HasSig:     true,
		PubKey:     p.PubKey,
		Signature:  p.Signature,
	})
	buf = writeField(buf, fieldSpec, payload)
	buf = append(buf, Trailer)
	return buf
}

// ---- ACK ----

// AckPacket acknowledges either a DATA packet (Sequence is its seq
// number, Provenance is chunk_hash) or a SPEC (Sequence ==
// SentinelSequence, Provenance is the SPEC's data_hash).
type AckPacket struct {
	StreamID   byte
	Sequence   uint32
	Provenance hash.Hash
	Timestamp  int64
}

func (*AckPacket) isPacket() {}

// IsSpecAck reports whether this ACK acknowledges a SPEC rather than a DATA packet.
func (p *AckPacket) IsSpecAck() bool {
	return p.Sequence == SentinelSequence
}

// NewAckPacket builds an ACK. provenance must be the chunk_hash of the
// acknowledged DATA payload, or the SPEC's data_hash for a SPEC-ACK.
func NewAckPacket(clock Clock, streamID byte, sequence uint32, provenance hash.Hash) *AckPacket {
	return &AckPacket{
		StreamID:   streamID,
		Sequence:   sequence,
		Provenance: provenance,
		Timestamp:  clock.Now().UnixNano(),
	}
}

func (p *AckPacket) Marshal() []byte {
	payload := make([]byte, 0, 5)
	payload = append(payload, p.StreamID)
	payload = appendFixedUint32(payload, p.Sequence)

	var buf []byte
	buf = writeEnvelopeHeader(buf, envelopeHeader{
		Timestamp:  unixNanoTime(p.Timestamp),
		Provenance: p.Provenance,
	})
	buf = writeField(buf, fieldAck, payload)
	buf = append(buf, Trailer)
	return buf
}

// ---- NAK ----

// NakPacket requests retransmission of the listed DATA sequence numbers.
type NakPacket struct {
	StreamID  byte
	Missing   []uint32
	Timestamp int64
}

func (*NakPacket) isPacket() {}

func nakProvenance(missing []uint32) hash.Hash {
	var fields [][]byte
	for _, seq := range missing {
		fields = append(fields, appendFixedUint32(nil, seq))
	}
	return hash.DomainSeparated(domainNakProvenance, fields...)
}

// NewNakPacket builds a NAK listing the given missing sequence numbers.
func NewNakPacket(clock Clock, streamID byte, missing []uint32) *NakPacket {
	return &NakPacket{
		StreamID:  streamID,
		Missing:   append([]uint32(nil), missing...),
		Timestamp: clock.Now().UnixNano(),
	}
}

func (p *NakPacket) Marshal() []byte {
	payload := make([]byte, 0, 1+len(p.Missing)*4)
	payload = append(payload, p.StreamID)
	payload = appendUvarint(payload, uint64(len(p.Missing)))
	for _, seq := range p.Missing {
		payload = appendFixedUint32(payload, seq)
	}

	var buf []byte
	buf = writeEnvelopeHeader(buf, envelopeHeader{
		Timestamp:  unixNanoTime(p.Timestamp),
		Provenance: nakProvenance(p.Missing),
	})
	buf = writeField(buf, fieldNak, payload)
	buf = append(buf, Trailer)
	return buf
}

// ---- CONTROL ----

// ControlCommand is the single command byte a CONTROL packet carries.
type ControlCommand byte

const (
	ControlPause    ControlCommand = 0
	ControlResume   ControlCommand = 1
	ControlSlowDown ControlCommand = 2
	ControlAbort    ControlCommand = 3
)

// ControlPacket carries an out-of-band command.
type ControlPacket struct {
	StreamID  byte
	Command   ControlCommand
	Timestamp int64
}

func (*ControlPacket) isPacket() {}

func controlProvenance(cmd ControlCommand) hash.Hash {
	return hash.DomainSeparated(domainCtrlProvenance, []byte{byte(cmd)})
}

// NewControlPacket builds a CONTROL packet.
func NewControlPacket(clock Clock, streamID byte, cmd ControlCommand) *ControlPacket {
	return &ControlPacket{
		StreamID:  streamID,
		Command:   cmd,
		Timestamp: clock.Now().UnixNano(),
	}
}

func (p *ControlPacket) Marshal() []byte {
	payload := []byte{p.StreamID, byte(p.Command)}

	var buf []byte
	buf = writeEnvelopeHeader(buf, envelopeHeader{
		Timestamp:  unixNanoTime(p.Timestamp),
		Provenance: controlProvenance(p.Command),
	})
	buf = writeField(buf, fieldControl, payload)
	buf = append(buf, Trailer)
	return buf
}

// ---- COMPLETE ----

// CompletePacket terminates a transfer. Provenance carries the receiver's
// final data_hash of the reassembled payload; the sender validates it
// against its own send_buffer.data_hash().
type CompletePacket struct {
	StreamID  byte
	Success   bool
	FinalHash hash.Hash
	Timestamp int64
}

func (*CompletePacket) isPacket() {}

// NewCompletePacket builds a COMPLETE packet.
func NewCompletePacket(clock Clock, streamID byte, success bool, finalHash hash.Hash) *CompletePacket {
	return &CompletePacket{
		StreamID:  streamID,
		Success:   success,
		FinalHash: finalHash,
		Timestamp: clock.Now().UnixNano(),
	}
}

func (p *CompletePacket) Marshal() []byte {
	successByte := byte(0)
	if p.Success {
		successByte = 1
	}
	payload := []byte{p.StreamID, successByte}

	var buf []byte
	buf = writeEnvelopeHeader(buf, envelopeHeader{
		Timestamp:  unixNanoTime(p.Timestamp),
		Provenance: p.FinalHash,
	})
	buf = writeField(buf, fieldDone, payload)
	buf = append(buf, Trailer)
	return buf
}

// ---- DATA ----

// DataPacket is the unsigned, un-enveloped hot-path packet:
// [stream_id:1][seq:varuint 1-4B][payload: <=packet_size].
type DataPacket struct {
	StreamID byte
	Sequence uint32
	Payload  []byte
}

func (*DataPacket) isPacket() {}

// Marshal encodes the DATA packet in its minimal binary framing.
func (p *DataPacket) Marshal() []byte {
	buf := make([]byte, 0, 1+binaryMaxVarintLen+len(p.Payload))
	buf = append(buf, p.StreamID)
	buf = appendUvarint(buf, uint64(p.Sequence))
	buf = append(buf, p.Payload...)
	return buf
}

const binaryMaxVarintLen = 5
