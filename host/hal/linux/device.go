//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/ardnew/xferreset/host/hal"
	"github.com/ardnew/xferreset/pkg"
	"github.com/ardnew/xferreset/pkg/linux/usbid"
)

// OpenOptions selects the device and interface to open.
type OpenOptions struct {
	VendorID  uint16 // idVendor to match
	ProductID uint16 // idProduct to match
	Interface uint8  // Interface to claim

	// Path opens a specific usbfs node instead of scanning sysfs.
	Path string
}

// urbState is the device's bookkeeping for one transfer.
type urbState struct {
	urb      urb
	inflight bool
}

// Device is a [hal.Device] backed by a Linux usbfs node.
//
// Every transfer owns a URB whose address the kernel holds while it is in
// flight. The URB and the transfer buffer are kept reachable from the device
// until the URB is reaped or the descriptor is closed, which makes the kernel
// drop all outstanding URBs.
type Device struct {
	fd     int
	iface  uint8
	path   string
	poller *poller

	mu      sync.Mutex
	live    map[*hal.Transfer]*urbState
	pending map[*urb]*hal.Transfer
	closed  bool
}

// Open finds the device, detaches any kernel driver from the interface and
// claims it.
func Open(opts OpenOptions) (*Device, error) {
	path := opts.Path
	if path == "" {
		info, err := findDevice(SysfsUSBPath, opts.VendorID, opts.ProductID)
		if err != nil {
			return nil, err
		}
		if len(info.interfaces) > 0 && !info.hasInterface(opts.Interface) {
			return nil, fmt.Errorf("%w: device %04x:%04x has no interface %d",
				pkg.ErrNotFound, opts.VendorID, opts.ProductID, opts.Interface)
		}
		path = info.devfsPath(DevfsUSBPath)

		// The name database is optional.
		db, _ := usbid.Open(usbid.DefaultPaths...)
		pkg.LogInfo(pkg.ComponentHAL, "device found",
			"name", db.Lookup(opts.VendorID, opts.ProductID).String(),
			"sysfs", info.sysfsPath,
			"path", path,
			"speed", info.speed)
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, mapErrno("open "+path, err)
	}

	if err := detachKernelDriver(fd, opts.Interface); err != nil && !errors.Is(err, unix.ENODATA) {
		unix.Close(fd)
		return nil, mapErrno("detach kernel driver", err)
	}

	if err := claimInterface(fd, opts.Interface); err != nil {
		unix.Close(fd)
		return nil, mapErrno("claim interface", err)
	}

	p, err := newPoller(fd)
	if err != nil {
		releaseInterface(fd, opts.Interface)
		unix.Close(fd)
		return nil, fmt.Errorf("poller: %w", err)
	}

	pkg.LogInfo(pkg.ComponentHAL, "device opened",
		"path", path,
		"interface", opts.Interface)
	return newDevice(fd, opts.Interface, path, p), nil
}

func newDevice(fd int, iface uint8, path string, p *poller) *Device {
	return &Device{
		fd:      fd,
		iface:   iface,
		path:    path,
		poller:  p,
		live:    make(map[*hal.Transfer]*urbState),
		pending: make(map[*urb]*hal.Transfer),
	}
}

// Path returns the usbfs node the device was opened from.
func (d *Device) Path() string { return d.path }

// =============================================================================
// Transfers
// =============================================================================

// Alloc prepares a bulk URB for buf on endpoint.
func (d *Device) Alloc(endpoint uint8, buf []byte, id int) (*hal.Transfer, error) {
	if len(buf) > MaxBulkURBSize {
		pkg.LogWarn(pkg.ComponentHAL, "transfer larger than the default usbfs URB limit",
			"size", len(buf),
			"limit", MaxBulkURBSize)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, pkg.ErrClosed
	}

	t := &hal.Transfer{ID: id, Endpoint: endpoint, Buffer: buf}
	st := &urbState{}
	initBulkURB(&st.urb, endpoint, buf, id)
	t.Private = st
	d.live[t] = st
	return t, nil
}

// Free forgets an idle transfer. An in-flight transfer stays with the device
// until it is reaped or the device is closed.
func (d *Device) Free(t *hal.Transfer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.live[t]
	if !ok || st.inflight {
		return
	}
	delete(d.live, t)
}

// Submit queues the transfer's URB with the kernel.
func (d *Device) Submit(t *hal.Transfer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return pkg.ErrClosed
	}
	st, ok := d.live[t]
	if !ok {
		return pkg.ErrInvalidParameter
	}
	if st.inflight {
		return pkg.ErrBusy
	}

	st.urb.rearm()
	t.Complete(pkg.TransferStatusPending, 0)
	if err := submitURB(d.fd, &st.urb); err != nil {
		return mapErrno("submit urb", err)
	}
	st.inflight = true
	d.pending[&st.urb] = t
	return nil
}

// Cancel asks the kernel to discard an in-flight URB. The transfer still
// completes through Reap, with a cancelled status.
func (d *Device) Cancel(t *hal.Transfer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.live[t]
	if !ok || !st.inflight {
		return pkg.ErrNotFound
	}
	if err := discardURB(d.fd, &st.urb); err != nil {
		// EINVAL: the URB already completed and waits to be reaped.
		if errors.Is(err, unix.EINVAL) {
			return pkg.ErrNotFound
		}
		return mapErrno("discard urb", err)
	}
	return nil
}

// Reap blocks until at least one URB has completed, then returns every
// completed transfer.
func (d *Device) Reap(ctx context.Context) ([]*hal.Transfer, error) {
	for {
		done, err := d.reapReady()
		if err != nil || len(done) > 0 {
			return done, err
		}
		if err := d.poller.wait(ctx); err != nil {
			return nil, err
		}
	}
}

// reapReady drains the kernel's completion list without blocking.
func (d *Device) reapReady() ([]*hal.Transfer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, pkg.ErrClosed
	}

	var done []*hal.Transfer
	for {
		u, err := reapURBNDelay(d.fd)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return done, nil
			}
			if len(done) > 0 {
				// Hand out what completed; the error repeats on the next call.
				return done, nil
			}
			return nil, mapErrno("reap urb", err)
		}

		t, ok := d.pending[u]
		if !ok {
			pkg.LogWarn(pkg.ComponentHAL, "reaped unknown urb", "context", u.userContext)
			continue
		}
		delete(d.pending, u)
		d.live[t].inflight = false
		t.Complete(urbStatus(u.status), int(u.actualLength))
		done = append(done, t)
	}
}

// =============================================================================
// Device Control
// =============================================================================

// Reset issues a USB port reset. It may run while transfers are in flight.
func (d *Device) Reset() error {
	return mapErrno("reset device", resetDevice(d.fd))
}

// ReleaseInterface gives the claimed interface back.
func (d *Device) ReleaseInterface() error {
	return mapErrno("release interface", releaseInterface(d.fd, d.iface))
}

// Close closes the usbfs node. The kernel kills any URB still in flight.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return pkg.ErrClosed
	}
	d.closed = true
	inflight := len(d.pending)
	d.mu.Unlock()

	if inflight > 0 {
		pkg.LogWarn(pkg.ComponentHAL, "closing with transfers in flight", "transfers", inflight)
	}

	var err error
	if d.poller != nil {
		err = multierr.Append(err, d.poller.close())
	}
	if cerr := unix.Close(d.fd); cerr != nil {
		err = multierr.Append(err, mapErrno("close", cerr))
	}

	d.mu.Lock()
	clear(d.pending)
	clear(d.live)
	d.mu.Unlock()
	return err
}

// Ensure Device implements hal.Device.
var _ hal.Device = (*Device)(nil)
