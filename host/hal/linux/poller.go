//go:build linux

package linux

import (
	"context"
	"encoding/binary"
	"errors"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// poller blocks until the usbfs descriptor has completed URBs to reap or a
// context is cancelled.
//
// usbfs reports completions as EPOLLOUT on the device descriptor; a
// disconnect shows up as EPOLLHUP or EPOLLERR. A non-blocking eventfd is
// registered next to it so that a cancelled context can interrupt
// epoll_wait.
type poller struct {
	epfd   int // epoll file descriptor
	wakefd int // eventfd for waking the poller
	fd     int // usbfs descriptor being watched
}

// newPoller watches fd for completions.
func newPoller(fd int) (*poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}

	p := &poller{epfd: epfd, wakefd: wakefd, fd: fd}
	if err := p.add(wakefd, unix.EPOLLIN); err != nil {
		p.close()
		return nil, err
	}
	if err := p.add(fd, unix.EPOLLOUT); err != nil {
		p.close()
		return nil, err
	}
	return p, nil
}

func (p *poller) add(fd int, events uint32) error {
	event := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &event)
}

// wait blocks until the watched descriptor is ready or ctx is done. It
// returns ctx.Err() in the latter case.
func (p *poller) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, p.wake)
	defer stop()

	var events [MaxEpollEvents]unix.EpollEvent
	for {
		n, err := unix.EpollWait(p.epfd, events[:], -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}

		ready := false
		for i := range events[:n] {
			if int(events[i].Fd) == p.wakefd {
				p.drain()
				continue
			}
			ready = true
		}
		if ready {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// wake interrupts a blocked wait.
func (p *poller) wake() {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(p.wakefd, buf[:])
}

func (p *poller) drain() {
	var buf [8]byte
	_, _ = unix.Read(p.wakefd, buf[:])
}

// close releases the epoll instance and the eventfd. The watched descriptor
// belongs to the device.
func (p *poller) close() error {
	var err error
	if p.wakefd >= 0 {
		err = multierr.Append(err, unix.Close(p.wakefd))
		p.wakefd = -1
	}
	if p.epfd >= 0 {
		err = multierr.Append(err, unix.Close(p.epfd))
		p.epfd = -1
	}
	return err
}
