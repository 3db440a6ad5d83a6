// Package history implements the optional gorm-backed history sink. It is a
// documented extension over the in-memory core: positions and events are
// buffered and batch-written so the database can never slow down an update.
package history

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/trackloop/trackd/internal/queue"
	"github.com/trackloop/trackd/pkg/core"
	"github.com/trackloop/trackd/pkg/streaming"
)

const defaultFlushInterval = 2 * time.Second

// Backend persists the event stream through a gorm DB (Postgres or SQLite).
type Backend struct {
	db            *gorm.DB
	logger        zerolog.Logger
	flushInterval time.Duration

	positions *queue.Queue[Position]
	events    *queue.Queue[Event]

	stopOnce sync.Once
	stop     chan struct{}
	flushed  chan struct{}
}

// New creates a history backend on an open gorm DB.
func New(db *gorm.DB, log zerolog.Logger, flushInterval time.Duration) *Backend {
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	return &Backend{
		db:            db,
		logger:        log,
		flushInterval: flushInterval,
		positions:     queue.New[Position](),
		events:        queue.New[Event](),
		stop:          make(chan struct{}),
		flushed:       make(chan struct{}),
	}
}

// Init migrates the schema and starts the flush loop.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("migrating history schema: %w", err)
	}
	go b.flushLoop()
	return nil
}

// Close flushes pending rows and stops the loop.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.flushed
	return b.Flush()
}

func (b *Backend) RecordPosition(r *core.PositionRecord) error {
	b.positions.Push(Position{
		VehicleID: r.VehicleID,
		Time:      r.Time,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Altitude:  r.Altitude,
		Speed:     r.Speed,
		Course:    r.Course,
		Direction: string(r.Direction),
	})
	return nil
}

func (b *Backend) RecordAlert(a *core.AlertRecord) error {
	return b.pushEvent(streaming.TypeAlert, a.VehicleID, a.Time, a)
}

func (b *Backend) RecordWarning(w *streaming.WarningPayload) error {
	at := time.Now().UTC()
	if w.Alert != nil {
		at = w.Alert.Time
	}
	return b.pushEvent(streaming.TypeWarning, w.TargetID, at, w)
}

func (b *Backend) RecordStatus(s *core.StatusRecord) error {
	return b.pushEvent(streaming.TypeStatus, s.VehicleID, s.Time, s)
}

func (b *Backend) pushEvent(eventType, vehicleID string, at time.Time, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	b.events.Push(Event{
		Type:      eventType,
		VehicleID: vehicleID,
		Time:      at,
		Payload:   raw,
	})
	return nil
}

// Flush writes all buffered rows in two batch inserts.
func (b *Backend) Flush() error {
	if positions := b.positions.Drain(); len(positions) > 0 {
		if err := b.db.Create(&positions).Error; err != nil {
			return fmt.Errorf("writing position batch: %w", err)
		}
	}
	if events := b.events.Drain(); len(events) > 0 {
		if err := b.db.Create(&events).Error; err != nil {
			return fmt.Errorf("writing event batch: %w", err)
		}
	}
	return nil
}

// Pending returns the number of rows not yet written.
func (b *Backend) Pending() int {
	return b.positions.Len() + b.events.Len()
}

func (b *Backend) flushLoop() {
	defer close(b.flushed)

	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.logger.Error().Err(err).Msg("History flush failed")
			}
		}
	}
}
