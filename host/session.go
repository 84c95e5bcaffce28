package host

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/ardnew/xferreset/host/hal"
	"github.com/ardnew/xferreset/pkg"
)

// Option configures a Session.
type Option func(*Session)

// WithStats reports lifetime totals to stats.
func WithStats(stats *Stats) Option {
	return func(s *Session) { s.stats = stats }
}

// WithSignals raises the shutdown flag on the first signal from sigs.
func WithSignals(sigs <-chan os.Signal) Option {
	return func(s *Session) { s.signals = sigs }
}

// WithShutdown shares an existing shutdown flag with the session.
func WithShutdown(shutdown *Shutdown) Option {
	return func(s *Session) { s.shutdown = shutdown }
}

// Session owns one run of the pipeline against an opened device: the shared
// shutdown flag and counters, the slot pool, the dispatcher and the reset
// coordinator.
type Session struct {
	cfg Config
	dev hal.Device

	shutdown   *Shutdown
	counters   *Counters
	stats      *Stats
	pool       *Pool
	dispatcher *Dispatcher
	reset      *ResetCoordinator
	signals    <-chan os.Signal

	started  atomic.Bool
	closing  atomic.Bool
	loopDone chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewSession allocates the transfer pool on dev. On error nothing has been
// submitted and dev is still owned by the caller.
func NewSession(dev hal.Device, cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrSetup, err)
	}

	s := &Session{
		cfg:      cfg,
		dev:      dev,
		counters: &Counters{},
		loopDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shutdown == nil {
		s.shutdown = NewShutdown()
	}

	pool, err := NewPool(dev, s.shutdown, s.counters, s.stats, cfg.Endpoint, cfg.Slots, cfg.TransferSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrSetup, err)
	}
	s.pool = pool
	s.dispatcher = NewDispatcher(dev, pool, s.shutdown, s.stats)
	s.reset = NewResetCoordinator(dev, s.shutdown, s.counters, s.stats, cfg.Clock, cfg.ResetDelay)
	return s, nil
}

// Shutdown returns the session's shutdown flag.
func (s *Session) Shutdown() *Shutdown { return s.shutdown }

// Counters returns the traffic counters.
func (s *Session) Counters() *Counters { return s.counters }

// Pool returns the transfer slot pool.
func (s *Session) Pool() *Pool { return s.pool }

// ResetCoordinator returns the reset coordinator.
func (s *Session) ResetCoordinator() *ResetCoordinator { return s.reset }

// Run fills the pipeline, starts the reset coordinator and dispatches
// completions on the calling goroutine until the shutdown flag is raised,
// then tears everything down. The returned error is the dispatch error, if
// the completion wait failed; a transfer failure or an interrupt is a clean
// shutdown and the cause is available from Shutdown().Cause().
func (s *Session) Run() error {
	if !s.started.CompareAndSwap(false, true) {
		return pkg.ErrAlreadyRunning
	}
	if s.closing.Load() {
		close(s.loopDone)
		return pkg.ErrClosed
	}

	var watcher <-chan struct{}
	if s.signals != nil {
		watcher = s.shutdown.Watch(s.signals)
	}

	inflight := s.pool.SubmitAll()
	pkg.LogInfo(pkg.ComponentPipeline, "traffic started",
		"inflight", inflight,
		"slots", s.pool.Len(),
		"size", s.cfg.TransferSize,
		"direction", s.cfg.direction())
	if inflight == 0 {
		pkg.LogWarn(pkg.ComponentPipeline, "no transfers in flight")
	}

	s.reset.Start()

	err := s.dispatcher.Run()
	s.shutdown.Set(errSessionClosed)
	close(s.loopDone)

	pkg.LogInfo(pkg.ComponentShutdown, "shutting down", "cause", s.shutdown.Cause())
	if cerr := s.Close(); cerr != nil {
		pkg.LogWarn(pkg.ComponentShutdown, "teardown incomplete", "error", cerr)
	}
	if watcher != nil {
		<-watcher
	}
	return err
}

// Close runs the shutdown sequence exactly once:
//
//  1. raise the shutdown flag
//  2. wait for the dispatcher loop to exit
//  3. cancel every in-flight transfer and collect the cancellations
//  4. join the reset coordinator
//  5. release the interface and close the device
//
// Every step runs even if an earlier one failed; the failures are combined
// in the returned error. Close is safe to call from any goroutine and any
// number of times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		s.shutdown.Set(errSessionClosed)
		if s.started.Load() {
			<-s.loopDone
		}

		var err error
		s.pool.CancelAll()
		if derr := s.dispatcher.Drain(s.cfg.DrainTimeout); derr != nil {
			pkg.LogWarn(pkg.ComponentShutdown, "cancelled transfers not drained", "error", derr)
			err = multierr.Append(err, derr)
		}

		s.reset.Join()
		if rerr := s.reset.Result().Err; rerr != nil {
			pkg.LogDebug(pkg.ComponentShutdown, "reset coordinator reported", "error", rerr)
		}
		s.pool.Close()

		if rerr := s.dev.ReleaseInterface(); rerr != nil {
			pkg.LogWarn(pkg.ComponentShutdown, "error releasing interface", "error", rerr)
			err = multierr.Append(err, fmt.Errorf("release interface: %w", rerr))
		}
		if cerr := s.dev.Close(); cerr != nil {
			pkg.LogWarn(pkg.ComponentShutdown, "error closing device", "error", cerr)
			err = multierr.Append(err, fmt.Errorf("close device: %w", cerr))
		}

		s.closeErr = err
		pkg.LogDebug(pkg.ComponentShutdown, "shutdown complete",
			"dispatched", s.dispatcher.Dispatched())
	})
	return s.closeErr
}
