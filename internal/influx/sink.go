package influx

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/trackloop/trackd/pkg/core"
	"github.com/trackloop/trackd/pkg/streaming"
)

const (
	bucketPositions = "track_positions"
	bucketEvents    = "track_events"
)

// Sink adapts the InfluxDB manager to the storage backend contract so
// position and event records flow into time series buckets.
type Sink struct {
	manager *Manager
}

// NewSink creates a storage sink backed by the given manager.
func NewSink(m *Manager) *Sink {
	return &Sink{manager: m}
}

func (s *Sink) Init() error {
	return s.manager.Connect()
}

func (s *Sink) Close() error {
	return s.manager.Close()
}

func (s *Sink) RecordPosition(r *core.PositionRecord) error {
	point := influxdb2.NewPointWithMeasurement("position").
		AddTag("vehicle", r.VehicleID).
		AddTag("direction", string(r.Direction)).
		AddField("lat", r.Latitude).
		AddField("lon", r.Longitude).
		AddField("altitude", r.Altitude).
		AddField("speed", r.Speed).
		AddField("course", r.Course).
		SetTime(r.Time)

	return s.manager.WritePoint(context.Background(), bucketPositions, point)
}

func (s *Sink) RecordAlert(a *core.AlertRecord) error {
	point := influxdb2.NewPointWithMeasurement("alert").
		AddTag("vehicle", a.VehicleID).
		AddField("message", a.Message).
		SetTime(a.Time)

	return s.manager.WritePoint(context.Background(), bucketEvents, point)
}

func (s *Sink) RecordWarning(w *streaming.WarningPayload) error {
	point := influxdb2.NewPointWithMeasurement("warning").
		AddTag("vehicle", w.TargetID).
		AddTag("source", w.Alert.VehicleID).
		AddField("message", w.Alert.Message).
		SetTime(w.Alert.Time)

	return s.manager.WritePoint(context.Background(), bucketEvents, point)
}

func (s *Sink) RecordStatus(rec *core.StatusRecord) error {
	point := influxdb2.NewPointWithMeasurement("status").
		AddTag("vehicle", rec.VehicleID).
		AddField("message", rec.Message).
		SetTime(rec.Time)

	return s.manager.WritePoint(context.Background(), bucketEvents, point)
}
