package host

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ardnew/xferreset/host/hal"
	"github.com/ardnew/xferreset/pkg"
)

// ResetState is the state of the reset coordinator.
//
// State machine:
//
//	ResetStateIdle → ResetStateWaiting                 [Start]
//	ResetStateWaiting → ResetStateReset                [delay elapsed, shutdown clear]
//	ResetStateWaiting → ResetStateSkipped              [shutdown raised]
//	ResetStateReset, ResetStateSkipped → ResetStateDone
type ResetState int32

// Reset coordinator states.
const (
	ResetStateIdle ResetState = iota
	ResetStateWaiting
	ResetStateReset
	ResetStateSkipped
	ResetStateDone
)

// String returns the state name.
func (s ResetState) String() string {
	switch s {
	case ResetStateIdle:
		return "idle"
	case ResetStateWaiting:
		return "waiting"
	case ResetStateReset:
		return "reset"
	case ResetStateSkipped:
		return "skipped"
	case ResetStateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ResetResult describes what the coordinator did once it is done.
type ResetResult struct {
	Outcome ResetState // ResetStateReset or ResetStateSkipped
	Before  Traffic    // Counters discarded by the reset
	Err     error      // Reset failure, wraps pkg.ErrResetFailed
}

// ResetCoordinator resets the device once, a fixed delay after traffic
// starts, and zeroes the traffic counters.
//
// A failed reset is reported in the result but never raises the shutdown
// flag: traffic keeps running.
type ResetCoordinator struct {
	dev      hal.Device
	shutdown *Shutdown
	counters *Counters
	stats    *Stats
	clock    clock.Clock
	delay    time.Duration

	state   atomic.Int32
	started atomic.Bool
	done    chan struct{}

	mu     sync.Mutex
	result ResetResult
}

// NewResetCoordinator creates an idle coordinator. A nil clk selects the
// wall clock.
func NewResetCoordinator(dev hal.Device, shutdown *Shutdown, counters *Counters, stats *Stats, clk clock.Clock, delay time.Duration) *ResetCoordinator {
	if clk == nil {
		clk = clock.New()
	}
	return &ResetCoordinator{
		dev:      dev,
		shutdown: shutdown,
		counters: counters,
		stats:    stats,
		clock:    clk,
		delay:    delay,
		done:     make(chan struct{}),
	}
}

// State returns the current state.
func (r *ResetCoordinator) State() ResetState {
	return ResetState(r.state.Load())
}

// Result returns the outcome. It is only meaningful after Join returns.
func (r *ResetCoordinator) Result() ResetResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Start begins the delay and returns immediately. The delay timer is armed
// before Start returns.
func (r *ResetCoordinator) Start() error {
	if !r.started.CompareAndSwap(false, true) {
		return pkg.ErrAlreadyRunning
	}
	timer := r.clock.Timer(r.delay)
	r.transition(ResetStateWaiting)
	go r.run(timer)
	return nil
}

// Join blocks until the coordinator is done. It returns immediately if the
// coordinator was never started.
func (r *ResetCoordinator) Join() {
	if !r.started.Load() {
		return
	}
	<-r.done
}

func (r *ResetCoordinator) run(timer *clock.Timer) {
	defer close(r.done)
	pkg.LogInfo(pkg.ComponentReset, "reset coordinator running", "delay", r.delay)

	select {
	case <-timer.C:
	case <-r.shutdown.Done():
		timer.Stop()
	}

	var res ResetResult
	if r.shutdown.IsSet() {
		r.transition(ResetStateSkipped)
		res.Outcome = ResetStateSkipped
		pkg.LogInfo(pkg.ComponentReset, "reset skipped", "cause", r.shutdown.Cause())
	} else {
		r.transition(ResetStateReset)
		res = r.fire()
	}

	r.mu.Lock()
	r.result = res
	r.mu.Unlock()

	r.transition(ResetStateDone)
	pkg.LogInfo(pkg.ComponentReset, "reset coordinator shutting down")
}

func (r *ResetCoordinator) fire() ResetResult {
	at := r.counters.Snapshot()
	pkg.LogInfo(pkg.ComponentReset, "send reset",
		"transfers", at.Transfers,
		"bytes", at.Bytes)

	res := ResetResult{Outcome: ResetStateReset}
	if err := r.dev.Reset(); err != nil {
		res.Err = fmt.Errorf("%w: %w", pkg.ErrResetFailed, err)
		r.stats.failure(failureReset)
		pkg.LogError(pkg.ComponentReset, "device reset failed", "error", err)
	} else {
		r.stats.reset()
	}

	res.Before = r.counters.Reset()
	pkg.LogDebug(pkg.ComponentReset, "traffic counters cleared",
		"transfers", res.Before.Transfers,
		"bytes", res.Before.Bytes)
	return res
}

func (r *ResetCoordinator) transition(s ResetState) {
	prev := ResetState(r.state.Swap(int32(s)))
	pkg.LogDebug(pkg.ComponentReset, "state change", "from", prev.String(), "to", s.String())
}
