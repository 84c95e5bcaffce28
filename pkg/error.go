package pkg

import "errors"

// Pipeline errors.
var (
	// ErrSetup indicates the device could not be prepared for traffic.
	ErrSetup = errors.New("setup failed")

	// ErrResourceExhausted indicates a transfer slot could not be allocated.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrSubmit indicates a single transfer could not be handed to the device.
	ErrSubmit = errors.New("transfer submission failed")

	// ErrTransferFailed indicates a transfer completed with a non-success status.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrResetFailed indicates the device reset request failed.
	ErrResetFailed = errors.New("device reset failed")

	// ErrDispatch indicates the blocking completion wait itself failed.
	ErrDispatch = errors.New("completion dispatch failed")

	// ErrInterrupted indicates an operating system signal requested shutdown.
	ErrInterrupted = errors.New("interrupted")

	// ErrAlreadyRunning indicates a single-consumer loop was entered twice.
	ErrAlreadyRunning = errors.New("already running")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// USB protocol errors.
var (
	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrTimeout indicates a transfer timeout.
	ErrTimeout = errors.New("transfer timeout")

	// ErrCancelled indicates a cancelled transfer.
	ErrCancelled = errors.New("transfer cancelled")

	// ErrOverrun indicates a data overrun condition.
	ErrOverrun = errors.New("data overrun")

	// ErrProtocol indicates a protocol error.
	ErrProtocol = errors.New("protocol error")

	// ErrNoDevice indicates the device is not present.
	ErrNoDevice = errors.New("device not present")

	// ErrNotFound indicates the transfer is not pending on the device.
	ErrNotFound = errors.New("transfer not pending")

	// ErrBusy indicates the resource is busy.
	ErrBusy = errors.New("resource busy")

	// ErrClosed indicates the device handle was closed.
	ErrClosed = errors.New("device closed")
)

// TransferStatus represents the completion status of a USB transfer.
type TransferStatus int

// Transfer status values.
const (
	TransferStatusPending   TransferStatus = iota // Not yet completed
	TransferStatusSuccess                         // Transfer completed successfully
	TransferStatusError                           // Transfer failed with error
	TransferStatusStall                           // Endpoint stalled
	TransferStatusTimeout                         // Transfer timed out
	TransferStatusCancelled                       // Transfer was cancelled
	TransferStatusOverrun                         // Data overrun
	TransferStatusNoDevice                        // Device went away
)

// String returns a string representation of the transfer status.
func (s TransferStatus) String() string {
	switch s {
	case TransferStatusPending:
		return "pending"
	case TransferStatusSuccess:
		return "success"
	case TransferStatusError:
		return "error"
	case TransferStatusStall:
		return "stall"
	case TransferStatusTimeout:
		return "timeout"
	case TransferStatusCancelled:
		return "cancelled"
	case TransferStatusOverrun:
		return "overrun"
	case TransferStatusNoDevice:
		return "no device"
	default:
		return "unknown"
	}
}

// OK reports whether the status is a successful completion.
func (s TransferStatus) OK() bool {
	return s == TransferStatusSuccess
}

// Err returns the corresponding error for the transfer status.
func (s TransferStatus) Err() error {
	switch s {
	case TransferStatusSuccess:
		return nil
	case TransferStatusStall:
		return ErrStall
	case TransferStatusTimeout:
		return ErrTimeout
	case TransferStatusCancelled:
		return ErrCancelled
	case TransferStatusOverrun:
		return ErrOverrun
	case TransferStatusNoDevice:
		return ErrNoDevice
	default:
		return ErrProtocol
	}
}
