package protocol

import "github.com/nickspiker/photon/protocol/hash"

// Decode parses raw bytes received off the wire into one of the six
// Packet shapes. DATA packets never carry the envelope, so they're
// recognized first by a cheap shape test: MagicPrefix[0] is 'R', which
// is not a valid stream_id (lowercase ASCII letter), so any raw frame
// beginning with a valid stream_id byte followed by a plausible varuint
// is tried as DATA before falling through to the enveloped shapes.
func Decode(raw []byte) (Packet, bool) {
	if looksLikeData(raw) {
		if p, ok := decodeData(raw); ok {
			return p, true
		}
	}

	header, rest, ok := readEnvelopeHeader(raw)
	if !ok {
		return nil, false
	}

	name, payload, rest, ok := readField(rest)
	if !ok {
		return nil, false
	}

	if _, ok := readTrailer(rest); !ok {
		return nil, false
	}

	switch name {
	case fieldSpec:
		return decodeSpec(header, payload)
	case fieldAck:
		return decodeAck(header, payload)
	case fieldNak:
		return decodeNak(header, payload)
	case fieldControl:
		return decodeControl(header, payload)
	case fieldDone:
		return decodeComplete(header, payload)
	default:
		return nil, false
	}
}

func looksLikeData(raw []byte) bool {
	if len(raw) < 2 {
		return false
	}
	if raw[0] == MagicPrefix[0] {
		return false
	}
	return IsStreamID(raw[0])
}

func decodeData(raw []byte) (*DataPacket, bool) {
	streamID := raw[0]
	seq, n, ok := takeUvarint(raw[1:])
	if !ok {
		return nil, false
	}
	payload := raw[1+n:]
	return &DataPacket{
		StreamID: streamID,
		Sequence: uint32(seq),
		Payload:  payload,
	}, true
}

func decodeSpec(header envelopeHeader, payload []byte) (*SpecPacket, bool) {
	if !header.HasSig || len(payload) < 1 {
		return nil, false
	}
	streamID := payload[0]
	buf := payload[1:]

	totalPackets, n, ok := takeUvarintUnbounded(buf)
	if !ok {
		return nil, false
	}
	buf = buf[n:]

	packetSize, n, ok := takeUvarintUnbounded(buf)
	if !ok {
		return nil, false
	}
	buf = buf[n:]

	totalSize, n, ok := takeUvarintUnbounded(buf)
	if !ok {
		return nil, false
	}
	buf = buf[n:]

	if len(buf) < hash.Size {
		return nil, false
	}
	dataHash := append(hash.Hash(nil), buf[:hash.Size]...)

	expected := specProvenance(totalPackets, packetSize, totalSize, dataHash)
	if !expected.Is(header.Provenance) {
		return nil, false
	}

	return &SpecPacket{
		StreamID:     streamID,
		TotalPackets: totalPackets,
		PacketSize:   packetSize,
		TotalSize:    totalSize,
		DataHash:     dataHash,
		Timestamp:    header.Timestamp.UnixNano(),
		PubKey:       header.PubKey,
		Signature:    header.Signature,
	}, true
}

func decodeAck(header envelopeHeader, payload []byte) (*AckPacket, bool) {
	if len(payload) < 1 {
		return nil, false
	}
	streamID := payload[0]
	sequence, _, ok := readFixedUint32(payload[1:])
	if !ok {
		return nil, false
	}
	return &AckPacket{
		StreamID:   streamID,
		Sequence:   sequence,
		Provenance: header.Provenance,
		Timestamp:  header.Timestamp.UnixNano(),
	}, true
}

func decodeNak(header envelopeHeader, payload []byte) (*NakPacket, bool) {
	if len(payload) < 1 {
		return nil, false
	}
	streamID := payload[0]
	buf := payload[1:]

	count, n, ok := takeUvarintUnbounded(buf)
	if !ok {
		return nil, false
	}
	buf = buf[n:]

	missing := make([]uint32, 0, count)
	for i := uint64(0); i < count; i++ {
		seq, rest, ok := readFixedUint32(buf)
		if !ok {
			return nil, false
		}
		missing = append(missing, seq)
		buf = rest
	}

	if !nakProvenance(missing).Is(header.Provenance) {
		return nil, false
	}

	return &NakPacket{
		StreamID:  streamID,
		Missing:   missing,
		Timestamp: header.Timestamp.UnixNano(),
	}, true
}

func decodeControl(header envelopeHeader, payload []byte) (*ControlPacket, bool) {
	if len(payload) != 2 {
		return nil, false
	}
	cmd := ControlCommand(payload[1])
	if !controlProvenance(cmd).Is(header.Provenance) {
		return nil, false
	}
	return &ControlPacket{
		StreamID:  payload[0],
		Command:   cmd,
		Timestamp: header.Timestamp.UnixNano(),
	}, true
}

func decodeComplete(header envelopeHeader, payload []byte) (*CompletePacket, bool) {
	if len(payload) != 2 {
		return nil, false
	}
	return &CompletePacket{
		StreamID:  payload[0],
		Success:   payload[1] != 0,
		FinalHash: header.Provenance,
		Timestamp: header.Timestamp.UnixNano(),
	}, true
}
