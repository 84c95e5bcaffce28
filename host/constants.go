package host

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ardnew/xferreset/host/hal"
	"github.com/ardnew/xferreset/pkg"
)

// =============================================================================
// Pipeline Defaults
// =============================================================================

// DefaultEndpoint is the bulk OUT endpoint the pipeline writes to.
const DefaultEndpoint = 0x01

// DefaultSlots is the number of transfers kept in flight.
const DefaultSlots = 10

// DefaultTransferSize is the buffer size of every transfer in bytes.
const DefaultTransferSize = 4096

// DefaultResetDelay is how long traffic runs before the device is reset.
const DefaultResetDelay = 500 * time.Millisecond

// DefaultDrainTimeout bounds how long shutdown waits for cancelled transfers
// to come back from the device.
const DefaultDrainTimeout = time.Second

// =============================================================================
// Limits
// =============================================================================

// MaxSlots is the largest pool the pipeline accepts.
const MaxSlots = 256

// MaxTransferSize is the largest per-transfer buffer the pipeline accepts.
const MaxTransferSize = 1 << 20

// =============================================================================
// Configuration
// =============================================================================

// Config holds the fixed pipeline parameters.
type Config struct {
	Endpoint     uint8         // Endpoint address including direction bit
	Slots        int           // Transfers kept in flight
	TransferSize int           // Bytes per transfer
	ResetDelay   time.Duration // Delay before the device reset
	DrainTimeout time.Duration // Bound on waiting for cancelled transfers

	// Clock drives the reset delay. Nil selects the wall clock.
	Clock clock.Clock
}

// DefaultConfig returns the compile-time pipeline parameters.
func DefaultConfig() Config {
	return Config{
		Endpoint:     DefaultEndpoint,
		Slots:        DefaultSlots,
		TransferSize: DefaultTransferSize,
		ResetDelay:   DefaultResetDelay,
		DrainTimeout: DefaultDrainTimeout,
	}
}

// Validate checks the configuration and fills in a nil Clock.
func (c *Config) Validate() error {
	switch {
	case c.Slots < 1 || c.Slots > MaxSlots:
		return fmt.Errorf("%w: slots %d not in [1, %d]", pkg.ErrInvalidParameter, c.Slots, MaxSlots)
	case c.TransferSize < 1 || c.TransferSize > MaxTransferSize:
		return fmt.Errorf("%w: transfer size %d not in [1, %d]", pkg.ErrInvalidParameter, c.TransferSize, MaxTransferSize)
	case c.Endpoint&0x0F == 0:
		return fmt.Errorf("%w: endpoint 0x%02x is the control endpoint", pkg.ErrInvalidParameter, c.Endpoint)
	case c.ResetDelay < 0:
		return fmt.Errorf("%w: negative reset delay %v", pkg.ErrInvalidParameter, c.ResetDelay)
	case c.DrainTimeout <= 0:
		return fmt.Errorf("%w: drain timeout %v", pkg.ErrInvalidParameter, c.DrainTimeout)
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return nil
}

// direction returns a log-friendly endpoint direction.
func (c *Config) direction() string {
	if hal.EndpointIsIn(c.Endpoint) {
		return "in"
	}
	return "out"
}
