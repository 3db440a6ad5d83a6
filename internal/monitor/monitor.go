package monitor

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/trackloop/trackd/internal/influx"
	"github.com/trackloop/trackd/internal/logging"
)

// Stats is a point-in-time snapshot of service health counters.
type Stats struct {
	Time          time.Time `json:"time"`
	Vehicles      int       `json:"vehicles"`
	Observers     int       `json:"observers"`
	PendingWrites int       `json:"pendingWrites"`
}

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	LogManager    *logging.SlogManager
	Influx        *influx.Manager
	VehicleCount  func() int
	ObserverCount func() int
	PendingWrites func() int
	Interval      time.Duration
}

// Service periodically samples service counters and reports them.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = 10 * time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sample collects the current counters.
func (s *Service) Sample() Stats {
	stats := Stats{Time: time.Now().UTC()}
	if s.deps.VehicleCount != nil {
		stats.Vehicles = s.deps.VehicleCount()
	}
	if s.deps.ObserverCount != nil {
		stats.Observers = s.deps.ObserverCount()
	}
	if s.deps.PendingWrites != nil {
		stats.PendingWrites = s.deps.PendingWrites()
	}
	return stats
}

// Start starts the monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting service monitor goroutine")

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				stats := s.Sample()

				logger.Debug("Service stats",
					"vehicles", stats.Vehicles,
					"observers", stats.Observers,
					"pendingWrites", stats.PendingWrites)

				if s.deps.Influx != nil {
					point := influxdb2.NewPointWithMeasurement("service_stats").
						AddField("vehicles", stats.Vehicles).
						AddField("observers", stats.Observers).
						AddField("pending_writes", stats.PendingWrites).
						SetTime(stats.Time)

					err := s.deps.Influx.WritePoint(context.Background(), "service_performance", point)
					if err != nil {
						logger.Error("Error writing service stats", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the monitor. Stop owns the running flag, so repeated calls are
// safe: only the call that flips the flag closes the channel.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.isRunning = false
	close(s.stopChan)
}
