package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackloop/trackd/internal/logging"
)

func TestSample(t *testing.T) {
	s := NewService(Dependencies{
		LogManager:    logging.NewSlogManager(),
		VehicleCount:  func() int { return 4 },
		ObserverCount: func() int { return 2 },
		PendingWrites: func() int { return 17 },
	})

	stats := s.Sample()
	assert.Equal(t, 4, stats.Vehicles)
	assert.Equal(t, 2, stats.Observers)
	assert.Equal(t, 17, stats.PendingWrites)
	assert.False(t, stats.Time.IsZero())
}

func TestSample_NilCounters(t *testing.T) {
	s := NewService(Dependencies{LogManager: logging.NewSlogManager()})

	stats := s.Sample()
	assert.Zero(t, stats.Vehicles)
	assert.Zero(t, stats.Observers)
	assert.Zero(t, stats.PendingWrites)
}

func TestStartStop(t *testing.T) {
	s := NewService(Dependencies{
		LogManager:   logging.NewSlogManager(),
		VehicleCount: func() int { return 1 },
		Interval:     10 * time.Millisecond,
	})

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	// Starting again is a no-op
	require.NoError(t, s.Start())

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestStopTwice(t *testing.T) {
	s := NewService(Dependencies{
		LogManager: logging.NewSlogManager(),
		Interval:   10 * time.Millisecond,
	})

	require.NoError(t, s.Start())

	s.Stop()
	assert.NotPanics(t, s.Stop)
	assert.False(t, s.IsRunning())

	// A fresh Start after Stop spins up a new run
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	s.Stop()
}
