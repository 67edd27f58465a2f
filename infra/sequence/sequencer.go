// Package sequence numbers every tape event accepted by the service.
// Seq values key the journal and the execution outbox.
package sequence

import "sync/atomic"

// Sequencer issues strictly monotonic sequence numbers. Deterministic
// across restarts: Reset to the journal's last seq before accepting
// new events.
type Sequencer struct {
	last atomic.Uint64
}

func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued sequence number.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Reset repositions the sequencer; only valid after journal replay.
func (s *Sequencer) Reset(v uint64) {
	s.last.Store(v)
}
