package window

import "time"

type flightEntry struct {
	sequence    uint32
	sendInstant time.Time
}

// FlightTracker is an ordered multiset of (sequence, send_instant)
// entries representing packets currently in flight. Retransmissions
// append a fresh entry for the same sequence rather than replacing the
// existing one, so multiple outstanding copies can independently time
// out or be acknowledged.
type FlightTracker struct {
	entries []flightEntry
}

// NewFlightTracker returns an empty tracker.
func NewFlightTracker() *FlightTracker {
	return &FlightTracker{}
}

// Sent records that sequence was just transmitted at now.
func (f *FlightTracker) Sent(sequence uint32, now time.Time) {
	f.entries = append(f.entries, flightEntry{sequence: sequence, sendInstant: now})
}

// Acked removes the first matching in-flight entry for sequence and
// returns the elapsed time since it was sent as an RTT sample. Reports
// false if no in-flight entry for sequence exists.
func (f *FlightTracker) Acked(sequence uint32, now time.Time) (time.Duration, bool) {
	for i, entry := range f.entries {
		if entry.sequence == sequence {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return now.Sub(entry.sendInstant), true
		}
	}
	return 0, false
}

// TimedOut removes and returns every in-flight sequence whose age is at
// least rto, oldest first.
func (f *FlightTracker) TimedOut(now time.Time, rto time.Duration) []uint32 {
	var expired []uint32
	var remaining []flightEntry
	for _, entry := range f.entries {
		if now.Sub(entry.sendInstant) >= rto {
			expired = append(expired, entry.sequence)
		} else {
			remaining = append(remaining, entry)
		}
	}
	f.entries = remaining
	return expired
}

// Len reports the number of in-flight entries, including duplicate
// retransmissions of the same sequence.
func (f *FlightTracker) Len() int {
	return len(f.entries)
}
