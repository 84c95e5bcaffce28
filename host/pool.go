package host

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ardnew/xferreset/host/hal"
	"github.com/ardnew/xferreset/pkg"
)

// =============================================================================
// Slots
// =============================================================================

// SlotState is the lifecycle state of a pipeline slot.
type SlotState uint8

// Slot states.
const (
	SlotIdle     SlotState = iota // Transfer allocated, not in flight
	SlotInFlight                  // Transfer submitted to the device
	SlotReleased                  // Transfer freed; slot left the pool
)

// String returns the slot state name.
func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotInFlight:
		return "in-flight"
	case SlotReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Slot is one pipeline position owning a buffer and the transfer that
// carries it.
type Slot struct {
	id    int
	buf   []byte
	xfer  *hal.Transfer
	state SlotState
	last  pkg.TransferStatus
}

// SlotInfo is a read-only view of a slot.
type SlotInfo struct {
	ID    int
	State SlotState
	Last  pkg.TransferStatus
}

// =============================================================================
// Pool
// =============================================================================

// Pool keeps a fixed set of transfers in flight by resubmitting each one from
// its own completion.
//
// Everything except Outstanding must be called from the dispatcher goroutine.
type Pool struct {
	dev      hal.Device
	shutdown *Shutdown
	counters *Counters
	stats    *Stats

	slots       []Slot
	outstanding atomic.Int32
}

// NewPool allocates count slots of size bytes each on endpoint ep. If any
// allocation fails, the transfers already allocated are freed and the error
// wraps [pkg.ErrResourceExhausted].
func NewPool(dev hal.Device, shutdown *Shutdown, counters *Counters, stats *Stats, ep uint8, count, size int) (*Pool, error) {
	p := &Pool{
		dev:      dev,
		shutdown: shutdown,
		counters: counters,
		stats:    stats,
		slots:    make([]Slot, count),
	}

	for i := range p.slots {
		s := &p.slots[i]
		s.id = i
		s.buf = make([]byte, size)

		xfer, err := dev.Alloc(ep, s.buf, i)
		if err != nil {
			p.Close()
			if errors.Is(err, pkg.ErrResourceExhausted) {
				return nil, fmt.Errorf("slot %d: %w", i, err)
			}
			return nil, fmt.Errorf("%w: slot %d: %w", pkg.ErrResourceExhausted, i, err)
		}
		s.xfer = xfer
		s.state = SlotIdle
	}

	pkg.LogDebug(pkg.ComponentPipeline, "transfer pool allocated",
		"slots", count,
		"size", size,
		"endpoint", fmt.Sprintf("0x%02x", ep))
	return p, nil
}

// Len returns the number of slots in the pool.
func (p *Pool) Len() int {
	return len(p.slots)
}

// Outstanding returns the number of transfers currently in flight. It is
// safe to call from any goroutine.
func (p *Pool) Outstanding() int {
	return int(p.outstanding.Load())
}

// Slots returns a snapshot of every slot.
func (p *Pool) Slots() []SlotInfo {
	info := make([]SlotInfo, len(p.slots))
	for i := range p.slots {
		s := &p.slots[i]
		info[i] = SlotInfo{ID: s.id, State: s.state, Last: s.last}
	}
	return info
}

// SubmitAll submits every idle slot. A slot that fails to submit is reported
// and left idle; the remaining slots are still submitted. It returns the
// number of transfers in flight afterwards.
func (p *Pool) SubmitAll() int {
	for i := range p.slots {
		s := &p.slots[i]
		if s.state != SlotIdle {
			continue
		}
		if err := p.submit(s); err != nil {
			p.stats.failure(failureSubmit)
			pkg.LogError(pkg.ComponentPipeline, "error submitting transfer",
				"slot", s.id,
				"error", err)
		}
	}
	return p.Outstanding()
}

// OnCompletion handles one transfer returned by the device.
//
// A failed transfer frees its slot and raises the shutdown flag. A successful
// one is counted and, unless shutdown has been requested, submitted again
// with the same buffer.
func (p *Pool) OnCompletion(t *hal.Transfer) {
	s := p.lookup(t)
	if s == nil || s.state != SlotInFlight {
		pkg.LogWarn(pkg.ComponentPipeline, "completion for unknown transfer", "id", t.ID)
		return
	}

	p.outstanding.Add(-1)
	s.state = SlotIdle
	s.last = t.Status

	if !t.Status.OK() {
		if t.Status == pkg.TransferStatusCancelled && p.shutdown.IsSet() {
			pkg.LogDebug(pkg.ComponentPipeline, "transfer cancelled", "slot", s.id)
		} else {
			p.stats.failure(failureTransfer)
			pkg.LogError(pkg.ComponentPipeline, "transfer failed",
				"slot", s.id,
				"status", t.Status.String())
		}
		p.release(s)
		p.shutdown.Set(fmt.Errorf("%w: slot %d: %w", pkg.ErrTransferFailed, s.id, t.Status.Err()))
		return
	}

	p.counters.Add(t.ActualLength)
	p.stats.transfer(t.ActualLength)

	if p.shutdown.IsSet() {
		return
	}

	if err := p.submit(s); err != nil {
		p.stats.failure(failureSubmit)
		pkg.LogError(pkg.ComponentPipeline, "error re-submitting transfer",
			"slot", s.id,
			"error", err)
		p.release(s)
	}
}

// CancelAll requests cancellation of every in-flight transfer and returns
// how many requests the device accepted. It does not wait: cancelled
// transfers still arrive through OnCompletion.
func (p *Pool) CancelAll() int {
	n := 0
	for i := range p.slots {
		s := &p.slots[i]
		if s.state != SlotInFlight {
			continue
		}
		err := p.dev.Cancel(s.xfer)
		switch {
		case err == nil:
			n++
		case errors.Is(err, pkg.ErrNotFound):
			// Completed already; the completion is waiting to be reaped.
			pkg.LogDebug(pkg.ComponentPipeline, "transfer not pending", "slot", s.id)
		default:
			pkg.LogWarn(pkg.ComponentPipeline, "error cancelling transfer",
				"slot", s.id,
				"error", err)
		}
	}
	pkg.LogDebug(pkg.ComponentPipeline, "cancellation requested", "transfers", n)
	return n
}

// Close frees every transfer the pool still holds. Transfers still in flight
// are left to the device, which discards them when it is closed.
func (p *Pool) Close() {
	inflight := 0
	for i := range p.slots {
		s := &p.slots[i]
		if s.xfer == nil {
			continue
		}
		if s.state == SlotInFlight {
			inflight++
			continue
		}
		p.release(s)
	}
	if inflight > 0 {
		pkg.LogWarn(pkg.ComponentPipeline, "transfers still in flight at close", "transfers", inflight)
	}
}

// =============================================================================
// Internal Methods
// =============================================================================

func (p *Pool) lookup(t *hal.Transfer) *Slot {
	if t == nil || t.ID < 0 || t.ID >= len(p.slots) {
		return nil
	}
	s := &p.slots[t.ID]
	if s.xfer != t {
		return nil
	}
	return s
}

func (p *Pool) submit(s *Slot) error {
	if err := p.dev.Submit(s.xfer); err != nil {
		return fmt.Errorf("%w: %w", pkg.ErrSubmit, err)
	}
	s.state = SlotInFlight
	p.outstanding.Add(1)
	return nil
}

func (p *Pool) release(s *Slot) {
	if s.xfer != nil {
		p.dev.Free(s.xfer)
		s.xfer = nil
	}
	s.state = SlotReleased
}
