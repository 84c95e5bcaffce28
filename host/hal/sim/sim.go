package sim

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/eapache/queue"
	"golang.org/x/time/rate"

	"github.com/ardnew/xferreset/host/hal"
	"github.com/ardnew/xferreset/pkg"
)

// =============================================================================
// Operation Journal
// =============================================================================

// OpKind identifies a recorded device operation.
type OpKind uint8

// Journaled operations.
const (
	OpAlloc OpKind = iota
	OpSubmit
	OpCancel
	OpFree
	OpReset
	OpRelease
	OpClose
)

// String returns the operation name.
func (k OpKind) String() string {
	switch k {
	case OpAlloc:
		return "alloc"
	case OpSubmit:
		return "submit"
	case OpCancel:
		return "cancel"
	case OpFree:
		return "free"
	case OpReset:
		return "reset"
	case OpRelease:
		return "release"
	case OpClose:
		return "close"
	default:
		return "unknown"
	}
}

// Op is one journaled device operation. ID is the transfer ID, or -1 for
// device-wide operations.
type Op struct {
	Kind OpKind
	ID   int
}

// =============================================================================
// Options
// =============================================================================

// StatusFunc decides the status of an automatically completed transfer.
// seq counts completions of that transfer starting at 1.
type StatusFunc func(t *hal.Transfer, seq uint64) pkg.TransferStatus

// Options configures a simulated device.
type Options struct {
	// AllocLimit caps the number of live transfers; zero means unlimited.
	AllocLimit int

	// AutoComplete completes every submission immediately with the status
	// chosen by Status. When false, tests complete transfers explicitly.
	AutoComplete bool

	// Status picks the status for automatic completions; nil means success.
	Status StatusFunc

	// Rate paces Reap: each call that returns completions consumes one token.
	// Zero means unlimited.
	Rate  rate.Limit
	Burst int
}

// =============================================================================
// Device
// =============================================================================

type xferState uint8

const (
	stateIdle xferState = iota
	statePending
	stateReady
)

// entry is the simulator's bookkeeping for one transfer.
type entry struct {
	state xferState
	seq   uint64
}

// Device is an in-process [hal.Device].
//
// Completed transfers are queued in completion order and handed out by Reap
// in that order. All methods are safe for concurrent use.
type Device struct {
	opts    Options
	limiter *rate.Limiter

	mu     sync.Mutex
	live   map[*hal.Transfer]*entry
	ready  *queue.Queue // *hal.Transfer, completed and not yet reaped
	notify chan struct{}
	closed bool

	submitErr map[int]error
	reapErr   error
	resetErr  error
	resetHook func()

	journal []Op
	submits int
	cancels int
	resets  int
}

// New creates a simulated device.
func New(opts Options) *Device {
	limit := opts.Rate
	if limit == 0 {
		limit = rate.Inf
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	return &Device{
		opts:      opts,
		limiter:   rate.NewLimiter(limit, burst),
		live:      make(map[*hal.Transfer]*entry),
		ready:     queue.New(),
		notify:    make(chan struct{}, 1),
		submitErr: make(map[int]error),
	}
}

// =============================================================================
// Fault Injection
// =============================================================================

// FailSubmit makes every submission of transfer id fail with err until
// cleared with a nil err.
func (d *Device) FailSubmit(id int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.submitErr, id)
		return
	}
	d.submitErr[id] = err
}

// FailReap makes the next Reap return err.
func (d *Device) FailReap(err error) {
	d.mu.Lock()
	d.reapErr = err
	d.mu.Unlock()
	d.wake()
}

// FailReset makes every Reset return err; nil restores success.
func (d *Device) FailReset(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetErr = err
}

// OnReset installs a hook run inside Reset before it returns.
func (d *Device) OnReset(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetHook = fn
}

// =============================================================================
// hal.Device Implementation
// =============================================================================

// Alloc creates a transfer bound to buf.
func (d *Device) Alloc(endpoint uint8, buf []byte, id int) (*hal.Transfer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, pkg.ErrClosed
	}
	if d.opts.AllocLimit > 0 && len(d.live) >= d.opts.AllocLimit {
		return nil, fmt.Errorf("%w: %d transfers live", pkg.ErrResourceExhausted, len(d.live))
	}

	t := &hal.Transfer{ID: id, Endpoint: endpoint, Buffer: buf}
	d.live[t] = &entry{}
	d.record(OpAlloc, id)
	return t, nil
}

// Free forgets a transfer. Freeing an in-flight transfer drops it silently.
func (d *Device) Free(t *hal.Transfer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.live[t]; !ok {
		return
	}
	delete(d.live, t)
	d.record(OpFree, t.ID)
}

// Submit queues a transfer.
func (d *Device) Submit(t *hal.Transfer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return pkg.ErrClosed
	}
	e, ok := d.live[t]
	if !ok {
		return pkg.ErrInvalidParameter
	}
	if e.state != stateIdle {
		return pkg.ErrBusy
	}
	if err, ok := d.submitErr[t.ID]; ok {
		return err
	}

	e.state = statePending
	t.Complete(pkg.TransferStatusPending, 0)
	d.submits++
	d.record(OpSubmit, t.ID)

	if d.opts.AutoComplete {
		status := pkg.TransferStatusSuccess
		if d.opts.Status != nil {
			status = d.opts.Status(t, e.seq+1)
		}
		d.completeLocked(t, e, status)
	}
	return nil
}

// Cancel completes a pending transfer with a cancelled status.
func (d *Device) Cancel(t *hal.Transfer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.live[t]
	if !ok || e.state != statePending {
		return pkg.ErrNotFound
	}
	d.cancels++
	d.record(OpCancel, t.ID)
	d.completeLocked(t, e, pkg.TransferStatusCancelled)
	return nil
}

// Reap returns every completed transfer, blocking until there is at least one.
func (d *Device) Reap(ctx context.Context) ([]*hal.Transfer, error) {
	for {
		d.mu.Lock()
		if err := d.reapErr; err != nil {
			d.reapErr = nil
			d.mu.Unlock()
			return nil, err
		}
		if d.closed {
			d.mu.Unlock()
			return nil, pkg.ErrClosed
		}
		n := d.ready.Length()
		d.mu.Unlock()

		if n > 0 {
			if err := d.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, err
			}
			return d.drainReady(), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-d.notify:
		}
	}
}

// Reset records a device reset.
func (d *Device) Reset() error {
	d.mu.Lock()
	d.resets++
	d.record(OpReset, -1)
	hook, err := d.resetHook, d.resetErr
	pending := d.pendingLocked()
	d.mu.Unlock()

	pkg.LogDebug(pkg.ComponentSim, "device reset", "pending", pending)

	if hook != nil {
		hook()
	}
	return err
}

// ReleaseInterface records the interface release.
func (d *Device) ReleaseInterface() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(OpRelease, -1)
	return nil
}

// Close marks the device closed and wakes a blocked Reap.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return pkg.ErrClosed
	}
	d.closed = true
	d.record(OpClose, -1)
	d.mu.Unlock()

	d.wake()
	return nil
}

// =============================================================================
// Manual Completion
// =============================================================================

// Complete finishes one pending transfer with the given status. It returns
// false if the transfer is not pending.
func (d *Device) Complete(t *hal.Transfer, status pkg.TransferStatus) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.live[t]
	if !ok || e.state != statePending {
		return false
	}
	d.completeLocked(t, e, status)
	return true
}

// CompleteID finishes the pending transfer with the given ID.
func (d *Device) CompleteID(id int, status pkg.TransferStatus) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for t, e := range d.live {
		if t.ID == id && e.state == statePending {
			d.completeLocked(t, e, status)
			return true
		}
	}
	return false
}

// CompleteAll finishes every pending transfer, in ID order, with the given
// status and returns how many were completed.
func (d *Device) CompleteAll(status pkg.TransferStatus) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := make([]*hal.Transfer, 0, len(d.live))
	for t, e := range d.live {
		if e.state == statePending {
			pending = append(pending, t)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	for _, t := range pending {
		d.completeLocked(t, d.live[t], status)
	}
	return len(pending)
}

// =============================================================================
// Observation
// =============================================================================

// Pending returns the number of transfers submitted and not yet reaped.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pendingLocked()
}

func (d *Device) pendingLocked() int {
	n := 0
	for _, e := range d.live {
		if e.state != stateIdle {
			n++
		}
	}
	return n
}

// Live returns the number of allocated transfers.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Submits returns the number of accepted submissions.
func (d *Device) Submits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submits
}

// Cancels returns the number of cancellations that hit a pending transfer.
func (d *Device) Cancels() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancels
}

// Resets returns the number of Reset calls.
func (d *Device) Resets() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resets
}

// Journal returns a copy of the operation journal.
func (d *Device) Journal() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Op(nil), d.journal...)
}

// Ops returns the journaled operations of the given kind.
func (d *Device) Ops(kind OpKind) []Op {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ops []Op
	for _, op := range d.journal {
		if op.Kind == kind {
			ops = append(ops, op)
		}
	}
	return ops
}

// =============================================================================
// Internal Methods
// =============================================================================

func (d *Device) completeLocked(t *hal.Transfer, e *entry, status pkg.TransferStatus) {
	actual := 0
	if status.OK() {
		actual = len(t.Buffer)
	}
	t.Complete(status, actual)
	e.state = stateReady
	e.seq++
	d.ready.Add(t)
	d.wake()
}

func (d *Device) drainReady() []*hal.Transfer {
	d.mu.Lock()
	defer d.mu.Unlock()

	done := make([]*hal.Transfer, 0, d.ready.Length())
	for d.ready.Length() > 0 {
		t := d.ready.Remove().(*hal.Transfer)
		if e, ok := d.live[t]; ok {
			e.state = stateIdle
		}
		done = append(done, t)
	}
	return done
}

func (d *Device) record(kind OpKind, id int) {
	d.journal = append(d.journal, Op{Kind: kind, ID: id})
}

func (d *Device) wake() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Ensure Device implements hal.Device.
var _ hal.Device = (*Device)(nil)
