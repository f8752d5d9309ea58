package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"transport-ops-backend/internal/health"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsBadCadence(t *testing.T) {
	s := New(nil)
	err := s.Register(Job{
		Name:    "broken",
		Cadence: "every five minutes",
		Run:     func(context.Context) error { return nil },
	})
	assert.Error(t, err)
}

func TestRegisteredJobFires(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	var fired atomic.Int64
	require.NoError(t, s.Register(Job{
		Name:    "ticker",
		Cadence: "@every 20ms",
		Run: func(context.Context) error {
			fired.Add(1)
			return nil
		},
	}))
	s.Start()

	assert.Eventually(t, func() bool {
		return fired.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPanickingJobDoesNotStopSiblings(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	var healthy atomic.Int64
	require.NoError(t, s.Register(Job{
		Name:    "panicky",
		Cadence: "@every 20ms",
		Run: func(context.Context) error {
			panic("boom")
		},
	}))
	require.NoError(t, s.Register(Job{
		Name:    "healthy",
		Cadence: "@every 20ms",
		Run: func(context.Context) error {
			healthy.Add(1)
			return nil
		},
	}))
	s.Start()

	assert.Eventually(t, func() bool {
		return healthy.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMonitoredJobFailureCountsMisses(t *testing.T) {
	monitor := health.NewMonitor()
	s := New(monitor)
	defer s.Stop()

	require.NoError(t, s.Register(Job{
		Name:      "flaky",
		Cadence:   "@every 20ms",
		Monitored: true,
		Run: func(context.Context) error {
			return errors.New("store unavailable")
		},
	}))
	s.Start()

	assert.Eventually(t, func() bool {
		return monitor.GetSnapshot().ConsecutiveMisses >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnmonitoredJobFailureLeavesMonitorAlone(t *testing.T) {
	monitor := health.NewMonitor()
	s := New(monitor)
	defer s.Stop()

	var fired atomic.Int64
	require.NoError(t, s.Register(Job{
		Name:    "side-job",
		Cadence: "@every 20ms",
		Run: func(context.Context) error {
			fired.Add(1)
			return errors.New("smtp timeout")
		},
	}))
	s.Start()

	require.Eventually(t, func() bool {
		return fired.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, monitor.GetSnapshot().ConsecutiveMisses)
}

func TestStopIsIdempotent(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Register(Job{
		Name:    "noop",
		Cadence: "@every 20ms",
		Run:     func(context.Context) error { return nil },
	}))
	s.Start()

	s.Stop()
	s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Shutdown(ctx)
}

func TestStopPreventsFurtherFirings(t *testing.T) {
	s := New(nil)

	var fired atomic.Int64
	require.NoError(t, s.Register(Job{
		Name:    "counter",
		Cadence: "@every 20ms",
		Run: func(context.Context) error {
			fired.Add(1)
			return nil
		},
	}))
	s.Start()

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	after := fired.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, fired.Load())
}

func TestShutdownWaitsForInFlightRun(t *testing.T) {
	s := New(nil)

	started := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, s.Register(Job{
		Name:    "slow",
		Cadence: "@every 20ms",
		Run: func(context.Context) error {
			select {
			case started <- struct{}{}:
			default:
			}
			time.Sleep(150 * time.Millisecond)
			finished.Store(true)
			return nil
		},
	}))
	s.Start()

	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Shutdown(ctx)

	assert.True(t, finished.Load())
}
