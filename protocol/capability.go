package protocol

import "time"

// Signer is the external long-term-key capability the core consumes to
// authenticate SPEC packets. The concrete key store (on-disk, HSM-backed,
// whatever) lives outside this repository; the core only ever calls Sign.
//
//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o protocolfakes/signer.go . Signer
type Signer interface {
	// Sign returns the signer's long-term public key and a signature over
	// data. Implementations must be deterministic enough for a single
	// logical identity to always report the same public key.
	Sign(data []byte) (pubkey [32]byte, signature [64]byte, err error)
}

// Clock is the external monotonic-time capability used for every
// elapsed-time comparison in the transport: RTT sampling, RTO, backoff,
// and staleness. A wall-clock timestamp is carried in the envelope header
// only for external correlation and must never be read back for protocol
// timing — see DESIGN.md.
//
//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o protocolfakes/clock.go . Clock
type Clock interface {
	// Now returns the current instant. Implementations must be monotonic;
	// time.Now() satisfies this on every platform Go supports.
	Now() time.Time
}
