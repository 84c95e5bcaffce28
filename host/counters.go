package host

import "sync"

// Traffic is a snapshot of the traffic counters.
type Traffic struct {
	Bytes     uint64 // Bytes transferred
	Transfers uint64 // Transfers completed
}

// Counters accumulates traffic since the last reset.
//
// The completion handler adds to it on the dispatcher goroutine while the
// reset coordinator zeroes it from its own goroutine. Both fields change
// together under one lock, so a Reset never loses an increment and never
// observes bytes without the matching transfer.
type Counters struct {
	mu        sync.Mutex
	bytes     uint64
	transfers uint64
}

// Add records one completed transfer of n bytes.
func (c *Counters) Add(n int) {
	c.mu.Lock()
	c.bytes += uint64(n)
	c.transfers++
	c.mu.Unlock()
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Traffic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Traffic{Bytes: c.bytes, Transfers: c.transfers}
}

// Reset zeroes both counters and returns the values it discarded.
func (c *Counters) Reset() Traffic {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := Traffic{Bytes: c.bytes, Transfers: c.transfers}
	c.bytes, c.transfers = 0, 0
	return prev
}
