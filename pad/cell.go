package pad

import "sync/atomic"

// Cell passes snapshots from a reader to the bus emulator.  Only a single
// writer goroutine and a single reader goroutine are allowed.
//
// Each snapshot is published with one aligned word store, so the reader
// always sees a complete snapshot, never one assembled halfway through a read
// cycle.  There is no acknowledgement and no ordering beyond that: the reader
// sees the latest snapshot within one update interval.  Store and Load never
// block.
type Cell struct {
	v atomic.Uint32
}

func (c *Cell) Store(b Buttons) {
	c.v.Store(uint32(b & Mask))
}

func (c *Cell) Load() Buttons {
	return Buttons(c.v.Load())
}

// Tracker detects button edges over successive snapshots.
type Tracker struct {
	current, last Buttons
}

// Update makes b the current snapshot.
func (t *Tracker) Update(b Buttons) {
	t.last = t.current
	t.current = b
}

func (t *Tracker) Down() Buttons {
	return t.current
}

func (t *Tracker) Changed() Buttons {
	return t.current ^ t.last
}

func (t *Tracker) Pressed() Buttons {
	return t.Changed() & t.current
}
