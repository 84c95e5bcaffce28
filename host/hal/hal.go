package hal

//go:generate mockgen -destination=mock/device.go -package=mock . Device

import (
	"context"

	"github.com/ardnew/xferreset/pkg"
)

// EndpointDirIn is the direction bit of an IN endpoint address.
const EndpointDirIn = 0x80

// EndpointIsIn reports whether an endpoint address is device-to-host.
func EndpointIsIn(addr uint8) bool {
	return addr&EndpointDirIn != 0
}

// Transfer is one asynchronous bulk request owned by a device.
//
// A Transfer is created by [Device.Alloc] and stays bound to the same buffer
// for its lifetime, so it can be resubmitted any number of times. Status and
// ActualLength are written by the device when the transfer is returned from
// [Device.Reap]; they must not be read while the transfer is in flight.
type Transfer struct {
	ID       int    // Caller identity, stable for the transfer's lifetime
	Endpoint uint8  // Endpoint address including direction bit
	Buffer   []byte // Data buffer, reused on every submission

	Status       pkg.TransferStatus // Completion status
	ActualLength int                // Bytes transferred

	// Backend-private state (URB, queue bookkeeping).
	Private any
}

// Complete records a completion on the transfer.
func (t *Transfer) Complete(status pkg.TransferStatus, actual int) {
	t.Status = status
	t.ActualLength = actual
}

// Device is the opened, interface-claimed handle the transfer pipeline runs
// against.
//
// Submit, Cancel and Reap are called only from the dispatcher goroutine.
// Reset may be called concurrently with all of them and implementations must
// tolerate that.
type Device interface {
	// Alloc creates a transfer for endpoint backed by buf. It returns an
	// error wrapping [pkg.ErrResourceExhausted] when no transfer can be
	// allocated.
	Alloc(endpoint uint8, buf []byte, id int) (*Transfer, error)

	// Free releases a transfer that is not in flight.
	Free(t *Transfer)

	// Submit hands the transfer to the device for asynchronous execution.
	Submit(t *Transfer) error

	// Cancel requests cancellation of an in-flight transfer. It does not
	// wait: the transfer still completes through Reap, usually with
	// [pkg.TransferStatusCancelled].
	Cancel(t *Transfer) error

	// Reap blocks until at least one transfer has completed and returns all
	// completed transfers. It returns ctx.Err() when ctx is done first.
	Reap(ctx context.Context) ([]*Transfer, error)

	// Reset performs a device-level reset. It blocks until the reset
	// finishes.
	Reset() error

	// ReleaseInterface releases the claimed interface.
	ReleaseInterface() error

	// Close releases all resources associated with the device.
	Close() error
}
