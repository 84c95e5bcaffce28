package host

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/xferreset/pkg"
)

// =============================================================================
// Config Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint8(0x01), cfg.Endpoint)
	assert.Equal(t, 10, cfg.Slots)
	assert.Equal(t, 4096, cfg.TransferSize)
	assert.Equal(t, 500*time.Millisecond, cfg.ResetDelay)
	assert.Nil(t, cfg.Clock)

	require.NoError(t, cfg.Validate())
	assert.NotNil(t, cfg.Clock)
	assert.Equal(t, "out", cfg.direction())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"one slot", func(c *Config) { c.Slots = 1 }, true},
		{"max slots", func(c *Config) { c.Slots = MaxSlots }, true},
		{"zero delay", func(c *Config) { c.ResetDelay = 0 }, true},
		{"in endpoint", func(c *Config) { c.Endpoint = 0x81 }, true},
		{"no slots", func(c *Config) { c.Slots = 0 }, false},
		{"too many slots", func(c *Config) { c.Slots = MaxSlots + 1 }, false},
		{"empty transfers", func(c *Config) { c.TransferSize = 0 }, false},
		{"huge transfers", func(c *Config) { c.TransferSize = MaxTransferSize + 1 }, false},
		{"control endpoint", func(c *Config) { c.Endpoint = 0x80 }, false},
		{"negative delay", func(c *Config) { c.ResetDelay = -time.Millisecond }, false},
		{"no drain timeout", func(c *Config) { c.DrainTimeout = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
			}
		})
	}
}

func TestConfig_ValidateKeepsClock(t *testing.T) {
	clk := clock.NewMock()
	cfg := DefaultConfig()
	cfg.Clock = clk

	require.NoError(t, cfg.Validate())
	assert.Same(t, clk, cfg.Clock)
}

// =============================================================================
// Stats Tests
// =============================================================================

func TestStats_Nil(t *testing.T) {
	var s *Stats
	assert.NotPanics(t, func() {
		s.transfer(64)
		s.reset()
		s.failure(failureSubmit)
	})
}

func TestStats_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewStats(reg)

	s.transfer(64)
	s.transfer(32)
	s.reset()
	s.failure(failureTransfer)
	s.failure(failureTransfer)
	s.failure(failureDispatch)

	assert.Equal(t, 96.0, testutil.ToFloat64(s.bytes))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.transfers))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.resets))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.failures.WithLabelValues(failureTransfer)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.failures.WithLabelValues(failureDispatch)))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
