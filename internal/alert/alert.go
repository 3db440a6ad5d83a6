// Package alert turns a distressed vehicle's emergency into broadcast and
// warning records using the engine's trailing-vehicle query.
package alert

import (
	"log/slog"
	"time"

	"github.com/trackloop/trackd/internal/engine"
	"github.com/trackloop/trackd/pkg/core"
	"github.com/trackloop/trackd/pkg/streaming"
)

// Dispatcher resolves emergency alerts against engine state. It only reads
// vehicle state through the engine's query interface.
type Dispatcher struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New creates an alert dispatcher.
func New(e *engine.Engine, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{engine: e, logger: logger}
}

// Raise builds the broadcast alert for the distressed vehicle and, when a
// trailing vehicle exists on the loop, a warning addressed to it. The warning
// is nil when the vehicle is unknown or nobody qualifies as behind it.
func (d *Dispatcher) Raise(vehicleID, message string) (core.AlertRecord, *streaming.WarningPayload) {
	rec := core.AlertRecord{
		VehicleID: vehicleID,
		Message:   message,
		Time:      time.Now().UTC(),
	}

	trailingID, _, ok := d.engine.FindTrailing(vehicleID)
	if !ok {
		d.logger.Debug("no trailing vehicle for alert", "vehicle", vehicleID)
		return rec, nil
	}

	d.logger.Info("warning trailing vehicle",
		"vehicle", vehicleID,
		"trailing", trailingID)

	return rec, &streaming.WarningPayload{TargetID: trailingID, Alert: &rec}
}
