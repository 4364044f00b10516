package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFlightTracker_SentThenAckedReturnsRTT(t *testing.T) {
	t.Parallel()

	f := NewFlightTracker()
	t0 := time.Now()
	f.Sent(1, t0)

	rtt, ok := f.Acked(1, t0.Add(50*time.Millisecond))
	require.True(t, ok)
	require.Equal(t, 50*time.Millisecond, rtt)
	require.Equal(t, 0, f.Len())
}

func TestFlightTracker_AckUnknownSequence(t *testing.T) {
	t.Parallel()

	f := NewFlightTracker()
	_, ok := f.Acked(99, time.Now())
	require.False(t, ok)
}

func TestFlightTracker_DuplicateRetransmitsTrackedSeparately(t *testing.T) {
	t.Parallel()

	f := NewFlightTracker()
	t0 := time.Now()
	f.Sent(1, t0)
	f.Sent(1, t0.Add(10*time.Millisecond))
	require.Equal(t, 2, f.Len())

	_, ok := f.Acked(1, t0.Add(20*time.Millisecond))
	require.True(t, ok)
	require.Equal(t, 1, f.Len(), "only the first matching entry is removed")
}

func TestFlightTracker_TimedOutRemovesExpiredEntries(t *testing.T) {
	t.Parallel()

	f := NewFlightTracker()
	t0 := time.Now()
	f.Sent(1, t0)
	f.Sent(2, t0.Add(100*time.Millisecond))
	f.Sent(3, t0.Add(200*time.Millisecond))

	expired := f.TimedOut(t0.Add(250*time.Millisecond), 150*time.Millisecond)
	require.Equal(t, []uint32{1, 2}, expired)
	require.Equal(t, 1, f.Len())
}

func TestFlightTracker_TimedOutNoneExpired(t *testing.T) {
	t.Parallel()

	f := NewFlightTracker()
	t0 := time.Now()
	f.Sent(1, t0)

	expired := f.TimedOut(t0.Add(10*time.Millisecond), time.Second)
	require.Empty(t, expired)
	require.Equal(t, 1, f.Len())
}
