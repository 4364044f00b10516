package transfer

import (
	"time"

	"github.com/nickspiker/photon/buffer"
	"github.com/nickspiker/photon/protocol"
	"github.com/nickspiker/photon/protocol/hash"
)

// InboundState enumerates the lifecycle of a single inbound transfer.
type InboundState int

const (
	InboundTransferring InboundState = iota
	InboundComplete
	InboundFailed
)

func (s InboundState) String() string {
	switch s {
	case InboundTransferring:
		return "Transferring"
	case InboundComplete:
		return "Complete"
	case InboundFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Inbound reassembles DATA packets for a single inbound transfer,
// allocated from a received SPEC.
type Inbound struct {
	PeerID     string
	StreamID   byte
	TransferID uint64

	state InboundState

	clock protocol.Clock
	recv  *buffer.ReceiveBuffer

	duplicates int

	createdAt    time.Time
	lastActivity time.Time
	staleTimeout time.Duration

	failureReason error
}

// NewInbound allocates a reassembly buffer from a received SPEC's
// sizing fields and expected digest. staleTimeout is the Manager's
// Config.StaleTimeout value.
func NewInbound(clock protocol.Clock, peerID string, streamID byte, transferID uint64, totalPackets int, packetSize, totalSize uint64, expectedHash hash.Hash, staleTimeout time.Duration) *Inbound {
	now := clock.Now()
	return &Inbound{
		PeerID:       peerID,
		StreamID:     streamID,
		TransferID:   transferID,
		state:        InboundTransferring,
		clock:        clock,
		recv:         buffer.NewReceiveBuffer(totalPackets, packetSize, totalSize, expectedHash),
		createdAt:    now,
		lastActivity: now,
		staleTimeout: staleTimeout,
	}
}

// State returns the transfer's current lifecycle state.
func (i *Inbound) State() InboundState { return i.state }

// FailureReason returns the error recorded when the transfer
// transitioned to Failed, or nil if it is still live or completed
// successfully.
func (i *Inbound) FailureReason() error { return i.failureReason }

// Duplicates returns the count of duplicate DATA packets observed.
func (i *Inbound) Duplicates() int { return i.duplicates }

// HandleData inserts payload at seq and returns the ACK bytes to send.
// An ACK is emitted regardless of duplicate status — duplicate ACKs
// suppress the sender's retransmits.
func (i *Inbound) HandleData(seq uint32, payload []byte, now time.Time) []byte {
	i.lastActivity = now

	result := i.recv.Insert(seq, payload)
	if result == buffer.InsertOutOfRange {
		return nil
	}
	if result == buffer.InsertDuplicate {
		i.duplicates++
	}

	chunkHash := hash.Sum256(payload)
	return protocol.NewAckPacket(i.clock, i.StreamID, seq, chunkHash).Marshal()
}

// Saturated reports whether every sequence has been received.
func (i *Inbound) Saturated() bool { return i.recv.Saturated() }

// MissingSequences enumerates unset bitmap positions, for an optional
// receiver-side NAK sweep.
func (i *Inbound) MissingSequences() []uint32 { return i.recv.MissingSequences() }

// Finalize verifies the reassembled payload against the SPEC's
// expected digest, transitioning to Complete or Failed, and returns the
// COMPLETE packet's (success, final_hash) for the Manager to emit.
func (i *Inbound) Finalize() (success bool, finalHash hash.Hash) {
	if !i.recv.Saturated() {
		return false, hash.Zero
	}
	finalHash = i.recv.Digest()
	if i.recv.Verify() {
		i.state = InboundComplete
		return true, finalHash
	}
	i.state = InboundFailed
	i.failureReason = protocol.NewHashMismatchError(i.recv.ExpectedHash(), finalHash)
	return false, finalHash
}

// TakeData consumes and returns the verified payload.
func (i *Inbound) TakeData() []byte {
	return i.recv.TakeData()
}

// Tick checks staleness, transitioning to Failed if exceeded.
func (i *Inbound) Tick(now time.Time) bool {
	if i.state != InboundTransferring {
		return false
	}
	if now.Sub(i.lastActivity) > i.staleTimeout {
		i.state = InboundFailed
		i.failureReason = protocol.ErrTimeout
		return true
	}
	return false
}
