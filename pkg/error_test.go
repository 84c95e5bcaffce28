package pkg

import (
	"errors"
	"fmt"
	"testing"
)

func TestTransferStatus_String(t *testing.T) {
	tests := []struct {
		status TransferStatus
		want   string
	}{
		{TransferStatusPending, "pending"},
		{TransferStatusSuccess, "success"},
		{TransferStatusError, "error"},
		{TransferStatusStall, "stall"},
		{TransferStatusTimeout, "timeout"},
		{TransferStatusCancelled, "cancelled"},
		{TransferStatusOverrun, "overrun"},
		{TransferStatusNoDevice, "no device"},
		{TransferStatus(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("TransferStatus.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransferStatus_Err(t *testing.T) {
	tests := []struct {
		status  TransferStatus
		wantErr error
	}{
		{TransferStatusSuccess, nil},
		{TransferStatusStall, ErrStall},
		{TransferStatusTimeout, ErrTimeout},
		{TransferStatusCancelled, ErrCancelled},
		{TransferStatusOverrun, ErrOverrun},
		{TransferStatusNoDevice, ErrNoDevice},
		{TransferStatusError, ErrProtocol},
		{TransferStatusPending, ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			err := tt.status.Err()
			if tt.wantErr == nil && err != nil {
				t.Errorf("TransferStatus.Err() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("TransferStatus.Err() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransferStatus_OK(t *testing.T) {
	if !TransferStatusSuccess.OK() {
		t.Error("success should be OK")
	}
	for _, s := range []TransferStatus{TransferStatusPending, TransferStatusError, TransferStatusCancelled} {
		if s.OK() {
			t.Errorf("%v should not be OK", s)
		}
	}
}

func TestErrorsWrap(t *testing.T) {
	err := fmt.Errorf("%w: slot %d", ErrResourceExhausted, 3)
	if !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("wrapped error %v does not match ErrResourceExhausted", err)
	}
	if errors.Is(err, ErrSubmit) {
		t.Errorf("wrapped error %v should not match ErrSubmit", err)
	}
}
