// Package window implements the adaptive "blast-then-pipeline" sending
// discipline: RTT estimation (Jacobson/Karels), in-flight tracking, and
// the loss-driven ratio controller that decides how many new DATA
// packets to emit per ACK once the initial blast has drained.
package window

import "time"

const (
	rttAlpha = 0.125
	rttBeta  = 0.25

	minRTO = 100 * time.Millisecond
	maxRTO = 10 * time.Second
)

// RTTEstimator tracks smoothed round-trip time and its variance using
// the Jacobson/Karels algorithm, deriving a retransmission timeout
// clamped to [100ms, 10s].
type RTTEstimator struct {
	srtt      time.Duration
	rttvar    time.Duration
	hasSample bool
	rto       time.Duration
}

// NewRTTEstimator returns an estimator with no samples yet; RTO defaults
// to minRTO until the first sample arrives.
func NewRTTEstimator() *RTTEstimator {
	return &RTTEstimator{rto: minRTO}
}

// Sample feeds a fresh RTT measurement into the estimator.
func (e *RTTEstimator) Sample(rtt time.Duration) {
	if !e.hasSample {
		e.srtt = rtt
		e.rttvar = rtt / 2
		e.hasSample = true
	} else {
		delta := e.srtt - rtt
		if delta < 0 {
			delta = -delta
		}
		e.rttvar = time.Duration((1-rttBeta)*float64(e.rttvar) + rttBeta*float64(delta))
		e.srtt = time.Duration((1-rttAlpha)*float64(e.srtt) + rttAlpha*float64(rtt))
	}
	e.recompute()
}

func (e *RTTEstimator) recompute() {
	rto := e.srtt + 4*e.rttvar
	e.rto = clampRTO(rto)
}

// RTO returns the current retransmission timeout.
func (e *RTTEstimator) RTO() time.Duration {
	return e.rto
}

// SRTT returns the current smoothed RTT estimate.
func (e *RTTEstimator) SRTT() time.Duration {
	return e.srtt
}

// Backoff doubles the current RTO (saturating at maxRTO) in response to
// a timeout, without touching SRTT/RTTVAR — the next real sample resets
// it via recompute.
func (e *RTTEstimator) Backoff() {
	e.rto = clampRTO(e.rto * 2)
}

func clampRTO(rto time.Duration) time.Duration {
	if rto < minRTO {
		return minRTO
	}
	if rto > maxRTO {
		return maxRTO
	}
	return rto
}
