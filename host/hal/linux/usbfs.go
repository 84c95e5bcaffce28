//go:build linux

package linux

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/xferreset/pkg"
)

// =============================================================================
// Kernel Structures
// =============================================================================

// urb matches the kernel's struct usbdevfs_urb without the trailing
// isochronous frame descriptors, which bulk URBs never carry.
type urb struct {
	typ          uint8   // URB type (control, bulk, interrupt, iso)
	endpoint     uint8   // Endpoint address
	status       int32   // Negative errno after completion
	flags        uint32  // URB flags
	buffer       uintptr // Pointer to data buffer
	bufferLength int32   // Length of data buffer
	actualLength int32   // Actual bytes transferred
	startFrame   int32   // Start frame for ISO transfers
	streamID     uint32  // Stream ID for USB 3.0 bulk streams
	errorCount   int32   // Error count for ISO transfers
	signr        uint32  // Signal number for async notification
	userContext  uintptr // Opaque to the kernel; holds the transfer ID
}

// usbIoctl matches the kernel's struct usbdevfs_ioctl, used to address an
// ioctl at the driver bound to one interface.
type usbIoctl struct {
	ifno      int32
	ioctlCode int32
	data      uintptr
}

// =============================================================================
// Raw Syscall Wrappers
// =============================================================================

func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlNone(fd int, req uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// =============================================================================
// USBDEVFS Operations
// =============================================================================

func claimInterface(fd int, iface uint8) error {
	n := uint32(iface)
	return ioctlPtr(fd, ioctlClaimInterface, unsafe.Pointer(&n))
}

func releaseInterface(fd int, iface uint8) error {
	n := uint32(iface)
	return ioctlPtr(fd, ioctlReleaseInterface, unsafe.Pointer(&n))
}

// detachKernelDriver unbinds whatever kernel driver holds the interface.
// ENODATA means no driver was bound.
func detachKernelDriver(fd int, iface uint8) error {
	cmd := usbIoctl{
		ifno:      int32(iface),
		ioctlCode: int32(ioctlDisconnect),
	}
	return ioctlPtr(fd, ioctlIoctl, unsafe.Pointer(&cmd))
}

func resetDevice(fd int) error {
	return ioctlNone(fd, ioctlReset)
}

func submitURB(fd int, u *urb) error {
	return ioctlPtr(fd, ioctlSubmitURB, unsafe.Pointer(u))
}

func discardURB(fd int, u *urb) error {
	return ioctlPtr(fd, ioctlDiscardURB, unsafe.Pointer(u))
}

// reapURBNDelay retrieves one completed URB without blocking. It returns
// EAGAIN when none is ready.
func reapURBNDelay(fd int) (*urb, error) {
	var u *urb
	if err := ioctlPtr(fd, ioctlReapURBNDelay, unsafe.Pointer(&u)); err != nil {
		return nil, err
	}
	return u, nil
}

// =============================================================================
// URB Helpers
// =============================================================================

// initBulkURB points u at data for a bulk transfer on endpoint.
func initBulkURB(u *urb, endpoint uint8, data []byte, id int) {
	*u = urb{
		typ:          URBTypeBulk,
		endpoint:     endpoint,
		bufferLength: int32(len(data)),
		userContext:  uintptr(id),
	}
	if len(data) > 0 {
		u.buffer = uintptr(unsafe.Pointer(&data[0]))
	}
}

// rearm clears the completion fields before a resubmission.
func (u *urb) rearm() {
	u.status = 0
	u.actualLength = 0
	u.errorCount = 0
}

// =============================================================================
// Status and Error Mapping
// =============================================================================

// urbStatus converts the kernel's completion status into a transfer status.
func urbStatus(status int32) pkg.TransferStatus {
	if status == 0 {
		return pkg.TransferStatusSuccess
	}
	switch unix.Errno(-status) {
	case unix.ENOENT, unix.ECONNRESET:
		return pkg.TransferStatusCancelled
	case unix.EPIPE:
		return pkg.TransferStatusStall
	case unix.ETIMEDOUT:
		return pkg.TransferStatusTimeout
	case unix.EOVERFLOW:
		return pkg.TransferStatusOverrun
	case unix.ENODEV, unix.ESHUTDOWN:
		return pkg.TransferStatusNoDevice
	default:
		return pkg.TransferStatusError
	}
}

// mapErrno wraps a failed usbfs syscall with the matching package error so
// callers can test it with errors.Is while keeping the errno.
func mapErrno(op string, err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var sentinel error
	switch errno {
	case unix.ENODEV, unix.ESHUTDOWN, unix.ENXIO:
		sentinel = pkg.ErrNoDevice
	case unix.EBUSY:
		sentinel = pkg.ErrBusy
	case unix.ENOMEM:
		sentinel = pkg.ErrResourceExhausted
	case unix.EINVAL:
		sentinel = pkg.ErrInvalidParameter
	case unix.EPIPE:
		sentinel = pkg.ErrStall
	case unix.ETIMEDOUT:
		sentinel = pkg.ErrTimeout
	case unix.ENOENT:
		sentinel = pkg.ErrNotFound
	case unix.EACCES, unix.EPERM:
		return fmt.Errorf("%s: permission denied (check udev rules): %w", op, errno)
	default:
		return fmt.Errorf("%s: %w", op, errno)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, op, errno)
}
