// Package transfer implements the per-direction state machines driving
// a single (peer, stream_id) transfer: Outbound tracks a sent SPEC
// through blast-then-pipeline DATA delivery to COMPLETE, and Inbound
// reassembles DATA into a verified payload. Both are pure state:
// neither opens a socket nor calls a relay — they return wire bytes and
// escalation hints for the Manager to act on.
package transfer

import (
	"time"

	"github.com/nickspiker/photon/buffer"
	"github.com/nickspiker/photon/protocol"
	"github.com/nickspiker/photon/protocol/hash"
	"github.com/nickspiker/photon/window"
)

// OutboundState enumerates the lifecycle of a single outbound transfer.
type OutboundState int

const (
	AwaitingSpec OutboundState = iota
	Transferring
	AwaitingComplete
	Complete
	Failed
)

func (s OutboundState) String() string {
	switch s {
	case AwaitingSpec:
		return "AwaitingSpec"
	case Transferring:
		return "Transferring"
	case AwaitingComplete:
		return "AwaitingComplete"
	case Complete:
		return "Complete"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

const (
	// DefaultSpecMaxRetries bounds the byte-pipe-fallback retry budget,
	// absent an explicit Config override; relay escalation is
	// considered after 2*SpecMaxRetries total SPEC attempts with
	// spec_tcp_fallback set.
	DefaultSpecMaxRetries = 5

	// DefaultStaleTimeout is how long a transfer may sit without
	// forward progress before it is failed outright, absent an
	// explicit Config override.
	DefaultStaleTimeout = 30 * time.Second

	// DefaultMaxOutboundRetries is the retransmission-attempt ceiling
	// past which an outbound transfer is failed regardless of
	// staleness, absent an explicit Config override.
	DefaultMaxOutboundRetries = 10

	maxSpecBackoff = 32 * time.Second
)

// Limits bundles the host-configurable knobs a single outbound transfer
// needs beyond packet sizing: the blast-phase size, the SPEC retry
// budget driving byte-pipe-fallback and relay-escalation timing, the
// DATA retransmission-attempt ceiling, and the stale-transfer timeout.
// Manager threads these down from its Config.
type Limits struct {
	BlastSize          int
	SpecMaxRetries     int
	MaxOutboundRetries int
	StaleTimeout       time.Duration
}

// DefaultLimits returns the values this package previously hardcoded as
// constants: a 256-packet blast, 5 SPEC retries (10 total attempts
// before relay escalation), 10 DATA retransmission attempts, and a 30s
// stale timeout.
func DefaultLimits() Limits {
	return Limits{
		BlastSize:          window.DefaultBlastSize,
		SpecMaxRetries:     DefaultSpecMaxRetries,
		MaxOutboundRetries: DefaultMaxOutboundRetries,
		StaleTimeout:       DefaultStaleTimeout,
	}
}

// specRetryDelay returns the wait before the attempt-th SPEC retry
// (attempt=1 is the first retry, sent 1s after the initial SPEC):
// 1, 2, 4, 8, 16, 32, 32, 32, ... seconds.
func specRetryDelay(attempt int) time.Duration {
	delay := time.Second
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxSpecBackoff {
			return maxSpecBackoff
		}
	}
	return delay
}

// RelayRequest is the escalation hint emitted once datagram and
// byte-pipe delivery of SPEC have both been exhausted.
type RelayRequest struct {
	RecipientPubKey [32]byte
	Payload         []byte
}

// TickResult reports what an Outbound's Tick produced: wire bytes to
// transmit, whether they should also go over the byte-pipe socket, and
// an optional relay escalation.
type TickResult struct {
	WireBytes    [][]byte
	AlsoBytePipe bool
	Relay        *RelayRequest
	Failed       bool
}

// Outbound drives a single outbound transfer from SPEC through
// blast-then-pipeline DATA delivery to COMPLETE.
type Outbound struct {
	PeerID     string
	StreamID   byte
	TransferID uint64

	state OutboundState

	clock protocol.Clock

	sendBuf *buffer.SendBuffer
	ctrl    *window.Controller
	rtt     *window.RTTEstimator
	flight  *window.FlightTracker

	specBytes       []byte
	specAttempts    int
	specSentAt      time.Time
	specTCPFallback bool
	relayIssued     bool

	recipientPubKey *[32]byte
	originalPayload []byte

	createdAt    time.Time
	lastActivity time.Time
	retries      int
	retransmits  int

	staleTimeout       time.Duration
	specMaxRetries     int
	maxOutboundRetries int

	failureReason error
}

// NewOutbound builds and signs the initial SPEC for a fresh outbound
// transfer, partitioning payload into packetSize-sized DATA packets.
// recipientPubKey may be nil; relay escalation is skipped without it.
// limits carries the blast size, retry budgets, and stale timeout the
// Manager's Config was built with.
func NewOutbound(clock protocol.Clock, signer protocol.Signer, peerID string, streamID byte, transferID uint64, payload []byte, packetSize uint64, recipientPubKey *[32]byte, limits Limits) (*Outbound, error) {
	sendBuf := buffer.NewSendBuffer(payload, packetSize)

	spec, err := protocol.NewSpecPacket(clock, signer, streamID, uint64(sendBuf.TotalPackets()), packetSize, uint64(len(payload)), sendBuf.DataHash())
	if err != nil {
		return nil, err
	}

	now := clock.Now()
	return &Outbound{
		PeerID:             peerID,
		StreamID:           streamID,
		TransferID:         transferID,
		state:              AwaitingSpec,
		clock:              clock,
		sendBuf:            sendBuf,
		ctrl:               window.NewController(limits.BlastSize),
		rtt:                window.NewRTTEstimator(),
		flight:             window.NewFlightTracker(),
		specBytes:          spec.Marshal(),
		specAttempts:       1,
		specSentAt:         now,
		recipientPubKey:    recipientPubKey,
		originalPayload:    payload,
		createdAt:          now,
		lastActivity:       now,
		staleTimeout:       limits.StaleTimeout,
		specMaxRetries:     limits.SpecMaxRetries,
		maxOutboundRetries: limits.MaxOutboundRetries,
	}, nil
}

// State returns the transfer's current lifecycle state.
func (o *Outbound) State() OutboundState { return o.state }

// FailureReason returns the error recorded when the transfer
// transitioned to Failed, or nil if it is still live or completed
// successfully.
func (o *Outbound) FailureReason() error { return o.failureReason }

// SpecBytes returns the marshaled SPEC bytes to send immediately upon construction.
func (o *Outbound) SpecBytes() []byte { return o.specBytes }

// DataHash returns the precomputed whole-payload digest, used by the
// Manager to match an incoming COMPLETE's provenance.
func (o *Outbound) DataHash() hash.Hash { return o.sendBuf.DataHash() }

// Retransmits returns the cumulative retransmit counter, for host-side
// metrics/logging.
func (o *Outbound) Retransmits() int { return o.retransmits }

// Retries returns the cumulative SPEC/DATA retry counter.
func (o *Outbound) Retries() int { return o.retries }

// HandleSpecAck transitions AwaitingSpec -> Transferring and launches
// the initial uncapped blast. Subsequent SPEC-ACKs for this stream are
// ignored.
func (o *Outbound) HandleSpecAck(now time.Time) [][]byte {
	if o.state != AwaitingSpec {
		return nil
	}
	o.state = Transferring
	o.lastActivity = now

	var out [][]byte
	for o.ctrl.BlastRemaining() > 0 {
		seq, ok := o.sendBuf.NextToSend()
		if !ok {
			o.ctrl.EndBlast()
			break
		}
		out = append(out, o.emitData(seq, now))
		o.ctrl.RecordBlastSend(1)
	}
	return out
}

func (o *Outbound) emitData(seq uint32, now time.Time) []byte {
	slice, ok := o.sendBuf.Slice(seq)
	if !ok {
		return nil
	}
	o.flight.Sent(seq, now)
	return (&protocol.DataPacket{StreamID: o.StreamID, Sequence: seq, Payload: slice}).Marshal()
}

// HandleAck applies an ACK for a DATA packet: feeds the RTT sample if
// the sequence was in flight, marks the ACK bitmap, and on a newly
// observed ACK emits the next batch of DATA per the window controller.
// Transitions to AwaitingComplete once the ACK bitmap saturates, and
// returns the bytes to send.
func (o *Outbound) HandleAck(seq uint32, now time.Time) [][]byte {
	if o.state != Transferring {
		return nil
	}
	o.lastActivity = now

	if rtt, ok := o.flight.Acked(seq, now); ok {
		o.rtt.Sample(rtt)
	}

	if !o.sendBuf.MarkAcked(seq) {
		return nil
	}

	n := o.ctrl.OnAck()
	out := o.nextDataToSend(n, now)

	if o.sendBuf.Saturated() {
		o.state = AwaitingComplete
	}
	return out
}

// nextDataToSend fills up to n slots, first by drawing never-yet-sent
// sequences from the send buffer, then — once the initial pass is
// exhausted — by sweeping still-unacknowledged sequences for
// retransmission, matching the blast-then-pipeline design's post-blast
// sweep behavior.
func (o *Outbound) nextDataToSend(n int, now time.Time) [][]byte {
	var out [][]byte
	for len(out) < n {
		seq, ok := o.sendBuf.NextToSend()
		if !ok {
			break
		}
		out = append(out, o.emitData(seq, now))
	}
	if len(out) < n {
		for _, seq := range o.sendBuf.MissingSequences(n - len(out)) {
			out = append(out, o.emitData(seq, now))
			o.retransmits++
		}
	}
	return out
}

// HandleNak retransmits every listed sequence still held in the send
// buffer and records a loss event.
func (o *Outbound) HandleNak(missing []uint32, now time.Time) [][]byte {
	if o.state != Transferring {
		return nil
	}
	o.lastActivity = now
	o.ctrl.OnLoss()

	var out [][]byte
	for _, seq := range missing {
		raw := o.emitData(seq, now)
		if raw == nil {
			continue
		}
		out = append(out, raw)
		o.retransmits++
	}
	return out
}

// HandleSlowDown treats a CONTROL(SlowDown) as a soft congestion signal.
func (o *Outbound) HandleSlowDown(now time.Time) {
	o.lastActivity = now
	o.ctrl.OnLoss()
}

// HandleComplete validates a COMPLETE's provenance against the
// precomputed data_hash and transitions to Complete or Failed, recording
// a HashMismatchError as the failure reason when the digests disagree.
func (o *Outbound) HandleComplete(success bool, provenance hash.Hash, now time.Time) {
	if o.state != AwaitingComplete {
		return
	}
	o.lastActivity = now
	if success && provenance.Is(o.sendBuf.DataHash()) {
		o.state = Complete
		return
	}
	o.state = Failed
	o.failureReason = protocol.NewHashMismatchError(o.sendBuf.DataHash(), provenance)
}

// Tick drives SPEC retry (with byte-pipe and relay escalation), DATA
// retransmission timeouts, and staleness.
func (o *Outbound) Tick(now time.Time) TickResult {
	var result TickResult

	switch o.state {
	case AwaitingSpec:
		o.tickAwaitingSpec(now, &result)
	case Transferring:
		o.tickTransferring(now, &result)
	}

	if o.state != Complete && o.state != Failed {
		switch {
		case now.Sub(o.lastActivity) > o.staleTimeout:
			o.state = Failed
			o.failureReason = protocol.ErrTimeout
			result.Failed = true
		case o.retries > o.maxOutboundRetries:
			o.state = Failed
			o.failureReason = protocol.ErrTooManyRetries
			result.Failed = true
		}
	}

	return result
}

func (o *Outbound) tickAwaitingSpec(now time.Time, result *TickResult) {
	if !o.specTCPFallback && now.Sub(o.createdAt) >= time.Second {
		o.specTCPFallback = true
	}

	due := specRetryDelay(o.specAttempts)
	if now.Sub(o.specSentAt) < due {
		return
	}

	o.specAttempts++
	o.specSentAt = now
	o.retries++
	result.WireBytes = append(result.WireBytes, o.specBytes)
	result.AlsoBytePipe = o.specTCPFallback

	if o.specAttempts >= 2*o.specMaxRetries && o.specTCPFallback && !o.relayIssued && o.recipientPubKey != nil {
		o.relayIssued = true
		result.Relay = &RelayRequest{RecipientPubKey: *o.recipientPubKey, Payload: o.originalPayload}
	}
}

func (o *Outbound) tickTransferring(now time.Time, result *TickResult) {
	rto := o.rtt.RTO()
	for _, seq := range o.flight.TimedOut(now, rto) {
		slice, ok := o.sendBuf.Slice(seq)
		if !ok {
			continue
		}
		o.flight.Sent(seq, now)
		result.WireBytes = append(result.WireBytes, (&protocol.DataPacket{StreamID: o.StreamID, Sequence: seq, Payload: slice}).Marshal())
		o.ctrl.OnLoss()
		o.rtt.Backoff()
		o.retries++
		o.retransmits++
	}
}
