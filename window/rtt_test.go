package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRTTEstimator_FirstSampleInitializesDirectly(t *testing.T) {
	t.Parallel()

	e := NewRTTEstimator()
	e.Sample(200 * time.Millisecond)

	require.Equal(t, 200*time.Millisecond, e.SRTT())
	// RTO = SRTT + 4*RTTVAR = 200ms + 4*100ms = 600ms.
	require.Equal(t, 600*time.Millisecond, e.RTO())
}

func TestRTTEstimator_RTOClampedToMinimum(t *testing.T) {
	t.Parallel()

	e := NewRTTEstimator()
	e.Sample(1 * time.Millisecond)

	require.Equal(t, minRTO, e.RTO())
}

func TestRTTEstimator_RTOClampedToMaximum(t *testing.T) {
	t.Parallel()

	e := NewRTTEstimator()
	e.Sample(20 * time.Second)

	require.Equal(t, maxRTO, e.RTO())
}

func TestRTTEstimator_ConvergesTowardStableRTT(t *testing.T) {
	t.Parallel()

	e := NewRTTEstimator()
	for i := 0; i < 200; i++ {
		e.Sample(200 * time.Millisecond)
	}

	// After many identical samples SRTT converges close to the sample
	// and RTTVAR decays toward zero, so RTO approaches SRTT.
	require.InDelta(t, float64(200*time.Millisecond), float64(e.SRTT()), float64(2*time.Millisecond))
	require.InDelta(t, float64(200*time.Millisecond), float64(e.RTO()), float64(10*time.Millisecond))
}

func TestRTTEstimator_BackoffDoublesAndSaturates(t *testing.T) {
	t.Parallel()

	e := NewRTTEstimator()
	e.Sample(1 * time.Second)
	before := e.RTO()

	e.Backoff()
	require.Equal(t, 2*before, e.RTO())

	for i := 0; i < 10; i++ {
		e.Backoff()
	}
	require.Equal(t, maxRTO, e.RTO())
}

func TestRTTEstimator_BackoffThenNewSampleRecomputes(t *testing.T) {
	t.Parallel()

	e := NewRTTEstimator()
	e.Sample(100 * time.Millisecond)
	e.Backoff()
	require.NotEqual(t, maxRTO, e.RTO())

	e.Sample(100 * time.Millisecond)
	require.Less(t, e.RTO(), maxRTO)
}
