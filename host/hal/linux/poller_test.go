//go:build linux

package linux

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// newPipe returns the read and write ends of a pipe closed at test end.
func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2 failed: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPoller_ReadyDescriptor(t *testing.T) {
	// An empty pipe's write end is always writable, like a usbfs node with
	// completed URBs.
	_, w := newPipe(t)
	p, err := newPoller(w)
	if err != nil {
		t.Fatalf("newPoller failed: %v", err)
	}
	defer p.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.wait(ctx); err != nil {
		t.Errorf("wait = %v, want nil", err)
	}
}

func TestPoller_CancelInterruptsWait(t *testing.T) {
	// The read end never reports EPOLLOUT, so only the context ends the wait.
	r, _ := newPipe(t)
	p, err := newPoller(r)
	if err != nil {
		t.Fatalf("newPoller failed: %v", err)
	}
	defer p.close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	err = p.wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("wait = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("wait returned after %v, before the cancel", elapsed)
	}
}

func TestPoller_CancelledBeforeWait(t *testing.T) {
	r, _ := newPipe(t)
	p, err := newPoller(r)
	if err != nil {
		t.Fatalf("newPoller failed: %v", err)
	}
	defer p.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("wait = %v, want context.Canceled", err)
	}
}

func TestPoller_Close(t *testing.T) {
	r, _ := newPipe(t)
	p, err := newPoller(r)
	if err != nil {
		t.Fatalf("newPoller failed: %v", err)
	}
	if err := p.close(); err != nil {
		t.Errorf("close = %v", err)
	}
	if p.epfd != -1 || p.wakefd != -1 {
		t.Error("descriptors not reset after close")
	}
	if err := p.close(); err != nil {
		t.Errorf("second close = %v", err)
	}
}
