package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ardnew/xferreset/pkg"
)

// errSessionClosed is the shutdown cause when a session is closed directly.
var errSessionClosed = errors.New("session closed")

// Shutdown is the single stop condition shared by every pipeline component.
//
// It starts clear, is set at most once and is never cleared. Set may be
// called from any goroutine any number of times; only the first call records
// its cause. Blocking waits select on Done (or use Context) so they return
// as soon as the flag is set.
type Shutdown struct {
	set    atomic.Bool
	once   sync.Once
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// NewShutdown creates a clear shutdown flag.
func NewShutdown() *Shutdown {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &Shutdown{ctx: ctx, cancel: cancel}
}

// Set raises the flag with the given cause. It reports whether this call was
// the one that raised it.
func (s *Shutdown) Set(cause error) bool {
	first := false
	s.once.Do(func() {
		first = true
		s.set.Store(true)
		s.cancel(cause)
		pkg.LogDebug(pkg.ComponentShutdown, "shutdown requested", "cause", cause)
	})
	return first
}

// IsSet reports whether the flag has been raised.
func (s *Shutdown) IsSet() bool {
	return s.set.Load()
}

// Done returns a channel closed when the flag is raised.
func (s *Shutdown) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Context returns a context cancelled when the flag is raised.
func (s *Shutdown) Context() context.Context {
	return s.ctx
}

// Cause returns the error passed to the first Set, or nil while clear.
func (s *Shutdown) Cause() error {
	if !s.IsSet() {
		return nil
	}
	return context.Cause(s.ctx)
}

// Watch raises the flag on the first signal received from sigs. The returned
// channel is closed once the watcher goroutine exits, which happens on the
// first signal or when the flag is raised by any other source.
func (s *Shutdown) Watch(sigs <-chan os.Signal) <-chan struct{} {
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case sig := <-sigs:
			s.Set(fmt.Errorf("%w: %v", pkg.ErrInterrupted, sig))
		case <-s.Done():
		}
	}()
	return exited
}
