package testutil

// DeterministicClock is a logical clock that stamps trace entries.
//
// The first call to Next returns 1. Reset rewinds the clock so a scenario
// run twice produces identical sequence numbers. Not safe for concurrent
// use; sessions are single-threaded.
type DeterministicClock struct {
	seq int64
}

// NewDeterministicClock creates a clock starting at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the sequence number.
func (c *DeterministicClock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.seq = 0
}
