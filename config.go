package photon

import (
	"time"

	"github.com/nickspiker/photon/transfer"
)

// Config holds the plain Go values the Manager and the Window
// Controller it drives need. There is no environment variable or
// config-file loading here — PT's configuration surface is a struct
// literal, per its scope.
type Config struct {
	// PacketSize is the DATA payload size new outbound transfers are
	// sharded into.
	PacketSize uint64

	// BlastSize is the number of DATA packets an outbound transfer
	// sends with no in-flight cap immediately upon SPEC-ACK, before the
	// window controller's ratio-paced pipeline phase takes over.
	BlastSize int

	// SpecMaxRetries bounds the byte-pipe-fallback retry budget for a
	// pending SPEC; relay escalation is considered after
	// 2*SpecMaxRetries total SPEC attempts with the byte-pipe fallback
	// already engaged and a recipient public key on hand.
	SpecMaxRetries int

	// MaxOutboundRetries is the cumulative SPEC/DATA retry ceiling past
	// which an outbound transfer is failed regardless of staleness.
	MaxOutboundRetries int

	// StaleTimeout is how long a transfer may sit without forward
	// progress before it fails outright.
	StaleTimeout time.Duration

	// EnableReceiverNAK turns on a periodic inbound NAK sweep based on
	// missing_sequences(), off by default — see the Open Question
	// resolution recorded in DESIGN.md.
	EnableReceiverNAK bool
}

// DefaultConfig returns PT's documented defaults: 1024-byte packets, a
// 256-packet blast, 5 SPEC retries, 10 DATA retries, and a 30s stale
// timeout, matching spec section 4.7's default.
func DefaultConfig() Config {
	limits := transfer.DefaultLimits()
	return Config{
		PacketSize:         1024,
		BlastSize:          limits.BlastSize,
		SpecMaxRetries:     limits.SpecMaxRetries,
		MaxOutboundRetries: limits.MaxOutboundRetries,
		StaleTimeout:       limits.StaleTimeout,
	}
}

// limits projects Config's outbound-relevant fields into the
// transfer.Limits shape NewOutbound expects.
func (c Config) limits() transfer.Limits {
	return transfer.Limits{
		BlastSize:          c.BlastSize,
		SpecMaxRetries:     c.SpecMaxRetries,
		MaxOutboundRetries: c.MaxOutboundRetries,
		StaleTimeout:       c.StaleTimeout,
	}
}
