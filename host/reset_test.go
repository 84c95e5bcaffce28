package host

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ardnew/xferreset/host/hal/mock"
	"github.com/ardnew/xferreset/host/hal/sim"
	"github.com/ardnew/xferreset/pkg"
)

func TestResetCoordinator_FiresAfterDelay(t *testing.T) {
	dev := sim.New(sim.Options{})
	clk := clock.NewMock()
	shutdown := NewShutdown()
	counters := &Counters{}
	stats := NewStats(prometheus.NewRegistry())
	for i := 0; i < 30; i++ {
		counters.Add(64)
	}

	rc := NewResetCoordinator(dev, shutdown, counters, stats, clk, 50*time.Millisecond)
	assert.Equal(t, ResetStateIdle, rc.State())
	require.NoError(t, rc.Start())
	assert.Equal(t, ResetStateWaiting, rc.State())

	clk.Add(49 * time.Millisecond)
	assert.Equal(t, ResetStateWaiting, rc.State())
	assert.Equal(t, 0, dev.Resets())

	clk.Add(time.Millisecond)
	rc.Join()

	res := rc.Result()
	assert.Equal(t, ResetStateReset, res.Outcome)
	assert.Equal(t, Traffic{Bytes: 1920, Transfers: 30}, res.Before)
	assert.NoError(t, res.Err)
	assert.Equal(t, ResetStateDone, rc.State())

	assert.Equal(t, 1, dev.Resets())
	assert.Equal(t, Traffic{}, counters.Snapshot())
	assert.False(t, shutdown.IsSet())
	assert.Equal(t, 1.0, testutil.ToFloat64(stats.resets))
}

func TestResetCoordinator_SkippedOnShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := mock.NewMockDevice(ctrl)
	dev.EXPECT().Reset().Times(0)

	clk := clock.NewMock()
	shutdown := NewShutdown()
	counters := &Counters{}
	counters.Add(64)

	rc := NewResetCoordinator(dev, shutdown, counters, nil, clk, 500*time.Millisecond)
	require.NoError(t, rc.Start())

	clk.Add(10 * time.Millisecond)
	shutdown.Set(pkg.ErrInterrupted)
	rc.Join()

	res := rc.Result()
	assert.Equal(t, ResetStateSkipped, res.Outcome)
	assert.Equal(t, Traffic{}, res.Before)
	assert.NoError(t, res.Err)
	assert.Equal(t, ResetStateDone, rc.State())
	assert.Equal(t, Traffic{Bytes: 64, Transfers: 1}, counters.Snapshot(), "a skipped reset leaves the counters alone")

	// The delay elapsing after shutdown changes nothing.
	clk.Add(time.Second)
	assert.Equal(t, ResetStateSkipped, rc.Result().Outcome)
}

func TestResetCoordinator_ShutdownBeforeStart(t *testing.T) {
	dev := sim.New(sim.Options{})
	shutdown := NewShutdown()
	shutdown.Set(pkg.ErrTransferFailed)

	rc := NewResetCoordinator(dev, shutdown, &Counters{}, nil, clock.NewMock(), 50*time.Millisecond)
	require.NoError(t, rc.Start())
	rc.Join()

	assert.Equal(t, ResetStateSkipped, rc.Result().Outcome)
	assert.Equal(t, 0, dev.Resets())
}

func TestResetCoordinator_FailureIsNotFatal(t *testing.T) {
	dev := sim.New(sim.Options{})
	dev.FailReset(errors.New("protocol error"))
	clk := clock.NewMock()
	shutdown := NewShutdown()
	counters := &Counters{}
	stats := NewStats(nil)
	counters.Add(100)

	rc := NewResetCoordinator(dev, shutdown, counters, stats, clk, 50*time.Millisecond)
	require.NoError(t, rc.Start())
	clk.Add(50 * time.Millisecond)
	rc.Join()

	res := rc.Result()
	assert.Equal(t, ResetStateReset, res.Outcome)
	assert.ErrorIs(t, res.Err, pkg.ErrResetFailed)
	assert.Equal(t, Traffic{Bytes: 100, Transfers: 1}, res.Before)
	assert.Equal(t, Traffic{}, counters.Snapshot(), "counters are zeroed even when the reset fails")
	assert.False(t, shutdown.IsSet(), "a failed reset does not stop traffic")

	assert.Equal(t, 0.0, testutil.ToFloat64(stats.resets))
	assert.Equal(t, 1.0, testutil.ToFloat64(stats.failures.WithLabelValues(failureReset)))
}

func TestResetCoordinator_StartTwice(t *testing.T) {
	shutdown := NewShutdown()
	rc := NewResetCoordinator(sim.New(sim.Options{}), shutdown, &Counters{}, nil, clock.NewMock(), time.Hour)

	require.NoError(t, rc.Start())
	assert.ErrorIs(t, rc.Start(), pkg.ErrAlreadyRunning)

	shutdown.Set(pkg.ErrInterrupted)
	rc.Join()
	assert.Equal(t, ResetStateSkipped, rc.Result().Outcome)
}

func TestResetCoordinator_JoinWithoutStart(t *testing.T) {
	rc := NewResetCoordinator(sim.New(sim.Options{}), NewShutdown(), &Counters{}, nil, nil, time.Hour)

	done := make(chan struct{})
	go func() {
		rc.Join()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Join blocked on a coordinator that never started")
	}
	assert.Equal(t, ResetStateIdle, rc.State())
}

func TestResetState_String(t *testing.T) {
	tests := []struct {
		state    ResetState
		expected string
	}{
		{ResetStateIdle, "idle"},
		{ResetStateWaiting, "waiting"},
		{ResetStateReset, "reset"},
		{ResetStateSkipped, "skipped"},
		{ResetStateDone, "done"},
		{ResetState(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.state.String())
	}
}
