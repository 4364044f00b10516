// Package photon implements the Photon Transport core: a Manager that
// multiplexes many concurrent transfers over unreliable datagrams, with
// byte-pipe fallback and relay escalation hints for the host to act on.
package photon

import (
	"context"
	"crypto/ed25519"

	"github.com/nickspiker/photon/log"
	"github.com/nickspiker/photon/protocol"
	"github.com/nickspiker/photon/transfer"
)

// TickAction is one escalation/transmission hint returned by Tick: the
// Manager never calls the network itself, it only reports what the
// host should do with WireBytes (and, optionally, AlsoBytePipe and
// Relay).
type TickAction struct {
	Peer         string
	WireBytes    [][]byte
	AlsoBytePipe bool
	Relay        *transfer.RelayRequest
}

// Manager multiplexes many concurrent transfers over a single peer
// address space via one-byte stream identifiers, coordinating retries
// and datagram -> byte-pipe -> relay escalation.
//
// Manager is single-threaded cooperative by design: every method
// mutates it synchronously and returns. There is no internal
// goroutine and no blocking call. Callers that invoke it from more
// than one goroutine must serialize access themselves.
type Manager struct {
	clock  protocol.Clock
	signer protocol.Signer
	config Config

	outbound map[string]map[byte]*transfer.Outbound
	inbound  map[string]map[byte]*transfer.Inbound

	streamCursor map[string]byte
	nextTransferID uint64
}

// NewManager builds a Manager around the given monotonic clock and
// long-term signer, applying config's defaults.
func NewManager(clock protocol.Clock, signer protocol.Signer, config Config) *Manager {
	return &Manager{
		clock:        clock,
		signer:       signer,
		config:       config,
		outbound:     make(map[string]map[byte]*transfer.Outbound),
		inbound:      make(map[string]map[byte]*transfer.Inbound),
		streamCursor: make(map[string]byte),
	}
}

// Send allocates a stream id and transfer id for peer, builds and
// signs the SPEC, and returns its wire bytes alongside the transfer id.
func (m *Manager) Send(ctx context.Context, peer string, payload []byte) ([]byte, uint64, error) {
	return m.SendWithPubKey(ctx, peer, payload, nil)
}

// SendWithPubKey is Send, additionally recording the recipient's
// long-term public key so relay escalation (§4.7) has somewhere to
// submit the pre-sharded payload.
func (m *Manager) SendWithPubKey(ctx context.Context, peer string, payload []byte, recipientPubKey *[32]byte) ([]byte, uint64, error) {
	logger := log.FromContextOrNoop(ctx)

	streamID, err := m.allocateStreamID(peer)
	if err != nil {
		return nil, 0, err
	}

	transferID := m.nextTransferID
	m.nextTransferID++

	ob, err := transfer.NewOutbound(m.clock, m.signer, peer, streamID, transferID, payload, m.config.PacketSize, recipientPubKey, m.config.limits())
	if err != nil {
		return nil, 0, err
	}

	if m.outbound[peer] == nil {
		m.outbound[peer] = make(map[byte]*transfer.Outbound)
	}
	m.outbound[peer][streamID] = ob

	logger.Info("outbound transfer created", "peer", peer, "stream_id", string(streamID), "transfer_id", transferID, "size", len(payload))
	return ob.SpecBytes(), transferID, nil
}

// allocateStreamID scans forward from the peer's cursor for the first
// stream id with no live outbound transfer, wrapping 'z' -> 'a', rather
// than blindly incrementing — recovered from the original Rust
// implementation's allocator (see DESIGN.md).
func (m *Manager) allocateStreamID(peer string) (byte, error) {
	cursor, ok := m.streamCursor[peer]
	if !ok {
		cursor = 'a'
	}

	for i := 0; i < 26; i++ {
		candidate := 'a' + (cursor-'a'+byte(i))%26
		if _, busy := m.outboundTransfer(peer, candidate); !busy {
			m.streamCursor[peer] = 'a' + (candidate-'a'+1)%26
			return candidate, nil
		}
	}
	return 0, protocol.ErrNoStreamIDAvailable
}

func (m *Manager) outboundTransfer(peer string, streamID byte) (*transfer.Outbound, bool) {
	streams, ok := m.outbound[peer]
	if !ok {
		return nil, false
	}
	ob, ok := streams[streamID]
	return ob, ok
}

func (m *Manager) inboundTransfer(peer string, streamID byte) (*transfer.Inbound, bool) {
	streams, ok := m.inbound[peer]
	if !ok {
		return nil, false
	}
	ib, ok := streams[streamID]
	return ib, ok
}

// HandleSpec verifies the SPEC's signature, evicts any incomplete
// inbound transfer on the same (peer, stream_id), allocates a fresh
// reassembly buffer, and returns the SPEC-ACK bytes to send back.
func (m *Manager) HandleSpec(ctx context.Context, peer string, spec *protocol.SpecPacket) []byte {
	logger := log.FromContextOrNoop(ctx)

	if !verifySpecSignature(spec) {
		logger.Warn("rejected spec with invalid signature", "peer", peer, "stream_id", string(spec.StreamID))
		return nil
	}

	if streams, ok := m.inbound[peer]; ok {
		if existing, ok := streams[spec.StreamID]; ok && existing.State() == transfer.InboundTransferring {
			logger.Info("evicting incomplete inbound transfer for new spec", "peer", peer, "stream_id", string(spec.StreamID))
			delete(streams, spec.StreamID)
		}
	}

	transferID := m.nextTransferID
	m.nextTransferID++

	ib := transfer.NewInbound(m.clock, peer, spec.StreamID, transferID, int(spec.TotalPackets), spec.PacketSize, spec.TotalSize, spec.DataHash, m.config.StaleTimeout)
	if m.inbound[peer] == nil {
		m.inbound[peer] = make(map[byte]*transfer.Inbound)
	}
	m.inbound[peer][spec.StreamID] = ib

	ack := protocol.NewAckPacket(m.clock, spec.StreamID, protocol.SentinelSequence, spec.DataHash)
	return ack.Marshal()
}

// verifySpecSignature checks the SPEC's embedded Ed25519 signature
// against its own provenance hash and public key. No external key
// store is involved — the public key travels with the packet, so this
// is a pure function over bytes already in hand.
func verifySpecSignature(spec *protocol.SpecPacket) bool {
	return ed25519.Verify(spec.PubKey[:], spec.Provenance(), spec.Signature[:])
}

// HandleAck routes an ACK to its outbound transfer. The sentinel
// sequence selects the SPEC-ACK branch, launching the blast; any other
// sequence is a DATA acknowledgment.
func (m *Manager) HandleAck(ctx context.Context, peer string, ack *protocol.AckPacket) [][]byte {
	ob, ok := m.outboundTransfer(peer, ack.StreamID)
	if !ok {
		return nil
	}

	now := m.clock.Now()
	if ack.IsSpecAck() {
		return ob.HandleSpecAck(now)
	}
	return ob.HandleAck(ack.Sequence, now)
}

// HandleData routes a DATA packet to its inbound transfer, returning
// the ACK bytes to send.
func (m *Manager) HandleData(ctx context.Context, peer string, data *protocol.DataPacket) []byte {
	ib, ok := m.inboundTransfer(peer, data.StreamID)
	if !ok {
		return nil
	}
	return ib.HandleData(data.Sequence, data.Payload, m.clock.Now())
}

// HandleNak routes a NAK to its outbound transfer, retransmitting each
// listed sequence still held in the send buffer.
func (m *Manager) HandleNak(ctx context.Context, peer string, nak *protocol.NakPacket) [][]byte {
	ob, ok := m.outboundTransfer(peer, nak.StreamID)
	if !ok {
		return nil
	}
	return ob.HandleNak(nak.Missing, m.clock.Now())
}

// HandleControl applies a CONTROL command: Abort drops every transfer
// with peer (both directions); SlowDown throttles the matching
// outbound.
func (m *Manager) HandleControl(ctx context.Context, peer string, ctrl *protocol.ControlPacket) {
	logger := log.FromContextOrNoop(ctx)

	switch ctrl.Command {
	case protocol.ControlAbort:
		logger.Info("peer aborted, clearing all transfers", "peer", peer, "error", protocol.ErrPeerAborted)
		m.ClearOutbound(peer)
		m.ClearInbound(peer)
	case protocol.ControlSlowDown:
		if ob, ok := m.outboundTransfer(peer, ctrl.StreamID); ok {
			ob.HandleSlowDown(m.clock.Now())
		}
	}
}

// HandleComplete matches a COMPLETE against the outbound transfer with
// the same stream id, validating its provenance against the send
// buffer's precomputed data_hash.
func (m *Manager) HandleComplete(ctx context.Context, peer string, done *protocol.CompletePacket) {
	ob, ok := m.outboundTransfer(peer, done.StreamID)
	if !ok {
		return
	}
	ob.HandleComplete(done.Success, done.FinalHash, m.clock.Now())
}

// CheckInboundComplete emits a COMPLETE for every saturated inbound
// transfer from peer.
func (m *Manager) CheckInboundComplete(ctx context.Context, peer string) [][]byte {
	streams, ok := m.inbound[peer]
	if !ok {
		return nil
	}

	var out [][]byte
	for streamID, ib := range streams {
		if !ib.Saturated() || ib.State() != transfer.InboundTransferring {
			continue
		}
		success, finalHash := ib.Finalize()
		done := protocol.NewCompletePacket(m.clock, streamID, success, finalHash)
		out = append(out, done.Marshal())
	}
	return out
}

// TakeInboundData consumes and returns the verified payload of a
// completed inbound transfer.
func (m *Manager) TakeInboundData(peer string, streamID byte) ([]byte, bool) {
	ib, ok := m.inboundTransfer(peer, streamID)
	if !ok || ib.State() != transfer.InboundComplete {
		return nil, false
	}
	return ib.TakeData(), true
}

// InboundMissingSequences reports the DATA sequence numbers an inbound
// transfer from peer is still waiting on.
func (m *Manager) InboundMissingSequences(peer string, streamID byte) ([]uint32, bool) {
	ib, ok := m.inboundTransfer(peer, streamID)
	if !ok {
		return nil, false
	}
	return ib.MissingSequences(), true
}

// InboundDuplicates reports how many duplicate DATA packets an inbound
// transfer from peer has seen.
func (m *Manager) InboundDuplicates(peer string, streamID byte) (int, bool) {
	ib, ok := m.inboundTransfer(peer, streamID)
	if !ok {
		return 0, false
	}
	return ib.Duplicates(), true
}

// ClearOutbound force-clears every outbound transfer to peer.
func (m *Manager) ClearOutbound(peer string) {
	delete(m.outbound, peer)
}

// ClearInbound force-clears every inbound transfer from peer.
func (m *Manager) ClearInbound(peer string) {
	delete(m.inbound, peer)
}

// Tick drives SPEC retry (with byte-pipe and relay escalation), DATA
// retransmission timeouts, and staleness across every live transfer,
// garbage-collecting any that reach a terminal state. A completed
// inbound transfer is not collected here; it stays until a new SPEC on
// the same stream id replaces it or ClearInbound runs.
func (m *Manager) Tick(ctx context.Context) []TickAction {
	logger := log.FromContextOrNoop(ctx)
	now := m.clock.Now()

	var actions []TickAction
	for peer, streams := range m.outbound {
		for streamID, ob := range streams {
			result := ob.Tick(now)
			if len(result.WireBytes) > 0 || result.Relay != nil {
				actions = append(actions, TickAction{
					Peer:         peer,
					WireBytes:    result.WireBytes,
					AlsoBytePipe: result.AlsoBytePipe,
					Relay:        result.Relay,
				})
			}
			if ob.State() == transfer.Complete || ob.State() == transfer.Failed {
				if ob.State() == transfer.Failed {
					logger.Warn("outbound transfer failed", "peer", peer, "stream_id", string(streamID), "error", ob.FailureReason())
				}
				delete(streams, streamID)
			}
		}
		if len(streams) == 0 {
			delete(m.outbound, peer)
		}
	}

	for peer, streams := range m.inbound {
		for streamID, ib := range streams {
			if ib.Tick(now) {
				logger.Warn("inbound transfer went stale", "peer", peer, "stream_id", string(streamID), "error", ib.FailureReason())
				delete(streams, streamID)
				continue
			}
			if ib.State() == transfer.InboundFailed {
				logger.Warn("inbound transfer failed", "peer", peer, "stream_id", string(streamID), "error", ib.FailureReason())
				delete(streams, streamID)
				continue
			}

			if m.config.EnableReceiverNAK && ib.State() == transfer.InboundTransferring {
				if missing := ib.MissingSequences(); len(missing) > 0 {
					nak := protocol.NewNakPacket(m.clock, streamID, missing)
					actions = append(actions, TickAction{Peer: peer, WireBytes: [][]byte{nak.Marshal()}})
				}
			}
		}
		if len(streams) == 0 {
			delete(m.inbound, peer)
		}
	}

	return actions
}

