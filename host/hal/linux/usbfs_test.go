//go:build linux

package linux

import (
	"errors"
	"strings"
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/xferreset/pkg"
)

func TestURBStatus(t *testing.T) {
	tests := []struct {
		status   int32
		expected pkg.TransferStatus
	}{
		{0, pkg.TransferStatusSuccess},
		{-int32(unix.ENOENT), pkg.TransferStatusCancelled},
		{-int32(unix.ECONNRESET), pkg.TransferStatusCancelled},
		{-int32(unix.EPIPE), pkg.TransferStatusStall},
		{-int32(unix.ETIMEDOUT), pkg.TransferStatusTimeout},
		{-int32(unix.EOVERFLOW), pkg.TransferStatusOverrun},
		{-int32(unix.ENODEV), pkg.TransferStatusNoDevice},
		{-int32(unix.ESHUTDOWN), pkg.TransferStatusNoDevice},
		{-int32(unix.EPROTO), pkg.TransferStatusError},
		{-int32(unix.EILSEQ), pkg.TransferStatusError},
	}

	for _, tt := range tests {
		if got := urbStatus(tt.status); got != tt.expected {
			t.Errorf("urbStatus(%d) = %v, want %v", tt.status, got, tt.expected)
		}
	}
}

func TestMapErrno(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{unix.ENODEV, pkg.ErrNoDevice},
		{unix.ESHUTDOWN, pkg.ErrNoDevice},
		{unix.EBUSY, pkg.ErrBusy},
		{unix.ENOMEM, pkg.ErrResourceExhausted},
		{unix.EINVAL, pkg.ErrInvalidParameter},
		{unix.EPIPE, pkg.ErrStall},
		{unix.ETIMEDOUT, pkg.ErrTimeout},
		{unix.ENOENT, pkg.ErrNotFound},
	}

	for _, tt := range tests {
		err := mapErrno("op", tt.err)
		if !errors.Is(err, tt.sentinel) {
			t.Errorf("mapErrno(%v) = %v, want %v", tt.err, err, tt.sentinel)
		}
		if !errors.Is(err, tt.err) {
			t.Errorf("mapErrno(%v) lost the errno", tt.err)
		}
	}

	if mapErrno("op", nil) != nil {
		t.Error("mapErrno(nil) should be nil")
	}

	err := mapErrno("open", unix.EACCES)
	if !errors.Is(err, unix.EACCES) || !strings.Contains(err.Error(), "udev") {
		t.Errorf("mapErrno(EACCES) = %v", err)
	}

	err = mapErrno("reap", unix.EIO)
	if !errors.Is(err, unix.EIO) || errors.Is(err, pkg.ErrNoDevice) {
		t.Errorf("mapErrno(EIO) = %v", err)
	}
}

func TestInitBulkURB(t *testing.T) {
	buf := make([]byte, 512)
	var u urb
	u.status = -int32(unix.EPIPE)
	u.actualLength = 7

	initBulkURB(&u, 0x81, buf, 5)

	if u.typ != URBTypeBulk {
		t.Errorf("typ = %d, want %d", u.typ, URBTypeBulk)
	}
	if u.endpoint != 0x81 {
		t.Errorf("endpoint = 0x%02x", u.endpoint)
	}
	if u.buffer != uintptr(unsafe.Pointer(&buf[0])) {
		t.Error("buffer does not point at the transfer buffer")
	}
	if u.bufferLength != 512 {
		t.Errorf("bufferLength = %d", u.bufferLength)
	}
	if u.userContext != 5 {
		t.Errorf("userContext = %d", u.userContext)
	}
	if u.status != 0 || u.actualLength != 0 {
		t.Error("completion fields not cleared")
	}

	u.status, u.actualLength, u.errorCount = -1, 3, 2
	u.rearm()
	if u.status != 0 || u.actualLength != 0 || u.errorCount != 0 {
		t.Error("rearm did not clear completion fields")
	}
	if u.bufferLength != 512 {
		t.Error("rearm changed the buffer")
	}
}
