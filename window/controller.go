package window

const (
	// DefaultBlastSize is the number of packets sent with no in-flight
	// cap immediately upon SPEC-ACK, absent an explicit Config override.
	DefaultBlastSize = 256

	initialSendRatio = 2.0
	minSendRatio     = 1.1
	maxSendRatio     = 4.0

	lossEMACoefficient = 0.02

	slowDownThreshold = 0.995
	speedUpThreshold  = 1.001
	lossThreshold     = 0.10
	calmThreshold     = 0.01
	lossPenalty       = 0.95
)

// Phase distinguishes the uncapped initial blast from the steady-state
// pipeline that follows it.
type Phase int

const (
	PhaseBlast Phase = iota
	PhasePipeline
)

// Controller implements the blast-then-pipeline congestion control
// described for high-BDP paths: an uncapped initial blast saturates the
// path, then a ratio-driven pipeline phase paces new sends off of ACKs
// rather than an artificial window, adjusted by an exponential moving
// average of the observed loss rate.
type Controller struct {
	blastSize int
	phase     Phase
	sendRatio float64
	lossRate  float64
	carry     float64
	blastSent int
}

// NewController starts in the blast phase with the default send ratio,
// ending the blast after blastSize packets have been sent.
func NewController(blastSize int) *Controller {
	return &Controller{blastSize: blastSize, phase: PhaseBlast, sendRatio: initialSendRatio}
}

// Phase reports the controller's current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// SendRatio returns the current post-blast send ratio.
func (c *Controller) SendRatio() float64 {
	return c.sendRatio
}

// LossRate returns the current EMA loss-rate estimate.
func (c *Controller) LossRate() float64 {
	return c.lossRate
}

// BlastRemaining reports how many more packets the blast phase may send
// before it ends (0 once exhausted or once in the pipeline phase).
func (c *Controller) BlastRemaining() int {
	if c.phase != PhaseBlast {
		return 0
	}
	remaining := c.blastSize - c.blastSent
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordBlastSend accounts for n packets sent during the blast phase,
// ending the phase once the blast budget is exhausted.
func (c *Controller) RecordBlastSend(n int) {
	c.blastSent += n
	if c.blastSent >= c.blastSize {
		c.phase = PhasePipeline
	}
}

// EndBlast forces a transition to the pipeline phase — used when the
// send buffer empties before the blast budget is exhausted.
func (c *Controller) EndBlast() {
	c.phase = PhasePipeline
}

// OnAck applies the per-ACK loss-rate decay and send-ratio adjustment,
// then returns how many new DATA packets to emit: floor(send_ratio +
// carry), with the fractional remainder preserved in carry so
// non-integer ratios accumulate correctly across many ACKs.
func (c *Controller) OnAck() int {
	c.lossRate *= 1 - lossEMACoefficient
	switch {
	case c.lossRate > lossThreshold:
		c.sendRatio = clampRatio(c.sendRatio * slowDownThreshold)
	case c.lossRate < calmThreshold:
		c.sendRatio = clampRatio(c.sendRatio * speedUpThreshold)
	}

	c.carry += c.sendRatio
	n := int(c.carry)
	c.carry -= float64(n)
	return n
}

// OnLoss records a loss event (timeout or NAK), pushing the loss-rate
// EMA up and backing the send ratio off.
func (c *Controller) OnLoss() {
	c.lossRate = c.lossRate*(1-lossEMACoefficient) + lossEMACoefficient
	c.sendRatio = clampRatio(c.sendRatio * lossPenalty)
}

func clampRatio(ratio float64) float64 {
	if ratio < minSendRatio {
		return minSendRatio
	}
	if ratio > maxSendRatio {
		return maxSendRatio
	}
	return ratio
}
