package host

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ardnew/xferreset/host/hal"
	"github.com/ardnew/xferreset/pkg"
)

// Dispatcher is the single consumer of device completions. It blocks in
// [hal.Device.Reap] and hands every completed transfer to the pool.
type Dispatcher struct {
	dev      hal.Device
	pool     *Pool
	shutdown *Shutdown
	stats    *Stats

	running    atomic.Bool
	dispatched atomic.Uint64
}

// NewDispatcher creates a dispatcher feeding pool from dev.
func NewDispatcher(dev hal.Device, pool *Pool, shutdown *Shutdown, stats *Stats) *Dispatcher {
	return &Dispatcher{
		dev:      dev,
		pool:     pool,
		shutdown: shutdown,
		stats:    stats,
	}
}

// Dispatched returns the number of completions handed to the pool.
func (d *Dispatcher) Dispatched() uint64 {
	return d.dispatched.Load()
}

// Run waits for and dispatches completions until the shutdown flag is
// raised. If the wait itself fails for any reason other than shutdown, Run
// raises the flag and returns an error wrapping [pkg.ErrDispatch].
func (d *Dispatcher) Run() error {
	if !d.running.CompareAndSwap(false, true) {
		return pkg.ErrAlreadyRunning
	}
	defer d.running.Store(false)

	ctx := d.shutdown.Context()
	for !d.shutdown.IsSet() {
		if _, err := d.dispatchOnce(ctx); err != nil {
			if d.shutdown.IsSet() {
				if !errors.Is(err, context.Canceled) {
					pkg.LogDebug(pkg.ComponentDispatch, "wait failed during shutdown", "error", err)
				}
				break
			}
			err = fmt.Errorf("%w: %w", pkg.ErrDispatch, err)
			d.stats.failure(failureDispatch)
			pkg.LogError(pkg.ComponentDispatch, "completion wait failed", "error", err)
			d.shutdown.Set(err)
			return err
		}
	}
	return nil
}

// DispatchOnce performs one blocking wait and dispatches what it returns.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	if !d.running.CompareAndSwap(false, true) {
		return 0, pkg.ErrAlreadyRunning
	}
	defer d.running.Store(false)
	return d.dispatchOnce(ctx)
}

// Drain dispatches completions until the pool has nothing in flight or the
// timeout elapses. It is used after [Pool.CancelAll] to collect the
// cancelled transfers before the device is released.
func (d *Dispatcher) Drain(timeout time.Duration) error {
	if !d.running.CompareAndSwap(false, true) {
		return pkg.ErrAlreadyRunning
	}
	defer d.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for d.pool.Outstanding() > 0 {
		if _, err := d.dispatchOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%d transfers still outstanding: %w", d.pool.Outstanding(), ctx.Err())
			}
			return err
		}
	}
	return nil
}

func (d *Dispatcher) dispatchOnce(ctx context.Context) (int, error) {
	done, err := d.dev.Reap(ctx)
	if err != nil {
		return 0, err
	}
	for _, t := range done {
		d.pool.OnCompletion(t)
	}
	d.dispatched.Add(uint64(len(done)))
	return len(done), nil
}
