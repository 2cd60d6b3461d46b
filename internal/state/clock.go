package state

import "sync/atomic"

// Clock hands out commit sequence numbers. The first Next after NewClock
// returns 1. A Clock may be shared by goroutines and by several stores.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock at zero.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose next value is start+1. Used to continue
// numbering after the last journaled sequence.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out, or the start value.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Reset rewinds the clock to zero so a run can be repeated with the same
// sequence numbers.
func (c *Clock) Reset() {
	c.seq.Store(0)
}
