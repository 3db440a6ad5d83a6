// Package engine owns per-vehicle canonical state on the loop track:
// snap-to-track, direction inference and the circular proximity query.
package engine

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/trackloop/trackd/internal/geo"
	"github.com/trackloop/trackd/pkg/core"
)

// coordTolerance is the absolute per-axis tolerance, in degrees, under which
// a snapped position is considered unchanged from the stored one.
const coordTolerance = 0.0001

// Engine holds the vehicle-state map and answers position updates and
// trailing-vehicle queries against the loaded track.
//
// All state lives behind a single mutex: updates are atomic per call and
// queries observe a consistent snapshot across all vehicles. Vehicle counts
// are small, so one lock beats sharding here.
type Engine struct {
	track  *geo.Track
	logger *slog.Logger

	mu       sync.Mutex
	vehicles map[string]core.VehicleState
	order    []string // insertion order; keeps query tie-breaks deterministic
}

// New creates an engine for the given track.
func New(track *geo.Track, logger *slog.Logger) *Engine {
	return &Engine{
		track:    track,
		logger:   logger,
		vehicles: make(map[string]core.VehicleState),
	}
}

// UpdatePosition snaps a fix onto the track, infers the vehicle's direction
// of travel and stores the new canonical state. Returns changed=false without
// mutating anything when the snapped position matches the stored one within
// tolerance.
func (e *Engine) UpdatePosition(vehicleID string, fix core.Fix) (core.PositionRecord, bool) {
	match := e.track.Nearest(fix.Latitude, fix.Longitude)

	e.mu.Lock()
	defer e.mu.Unlock()

	prev, known := e.vehicles[vehicleID]

	if known && withinTolerance(prev, match.Point) {
		return core.PositionRecord{}, false
	}

	direction := core.DirectionForward
	if known {
		// Re-derive the stored position's index; stored coordinates always
		// equal a track point so this is an exact hit.
		currentIndex := e.track.Nearest(prev.Latitude, prev.Longitude).Index
		if match.Index == currentIndex {
			direction = prev.Direction
		} else {
			fwd := e.track.ForwardDistance(currentIndex, match.Index)
			bwd := e.track.BackwardDistance(currentIndex, match.Index)
			if fwd > bwd {
				direction = core.DirectionBackward
			}
		}
	}

	// Whether moving forward or backward, the new canonical coordinates are
	// the snapped track point itself.
	state := core.VehicleState{
		Latitude:  match.Point.Latitude,
		Longitude: match.Point.Longitude,
		Altitude:  fix.Altitude,
		Speed:     fix.Speed,
		Course:    fix.Course,
		Direction: direction,
	}

	if !known {
		e.order = append(e.order, vehicleID)
	}
	e.vehicles[vehicleID] = state

	e.logger.Debug("position updated",
		"vehicle", vehicleID,
		"trackIndex", match.Index,
		"direction", direction)

	return record(vehicleID, state), true
}

// FindTrailing returns the vehicle with the minimum positive forward circular
// distance behind the given vehicle, or ok=false when the vehicle is unknown
// or no other vehicle qualifies. Vehicles at the identical track point
// (distance 0) never qualify. Ties go to the earliest-registered vehicle.
//
// "Behind" is defined purely by forward index distance from the target,
// independent of either vehicle's own travel direction.
func (e *Engine) FindTrailing(vehicleID string) (string, core.VehicleState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	target, known := e.vehicles[vehicleID]
	if !known {
		return "", core.VehicleState{}, false
	}
	targetIndex := e.track.Nearest(target.Latitude, target.Longitude).Index

	bestID := ""
	var bestState core.VehicleState
	bestDist := 0

	for _, id := range e.order {
		if id == vehicleID {
			continue
		}
		state := e.vehicles[id]
		idx := e.track.Nearest(state.Latitude, state.Longitude).Index
		d := e.track.ForwardDistance(targetIndex, idx)
		if d == 0 {
			continue
		}
		if bestID == "" || d < bestDist {
			bestID = id
			bestState = state
			bestDist = d
		}
	}

	if bestID == "" {
		return "", core.VehicleState{}, false
	}
	return bestID, bestState, true
}

// State returns the stored state for a vehicle.
func (e *Engine) State(vehicleID string) (core.VehicleState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.vehicles[vehicleID]
	return s, ok
}

// Record returns the canonical position record for a vehicle.
func (e *Engine) Record(vehicleID string) (core.PositionRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.vehicles[vehicleID]
	if !ok {
		return core.PositionRecord{}, false
	}
	return record(vehicleID, s), true
}

// Snapshot returns every vehicle's current record, in registration order.
func (e *Engine) Snapshot() []core.PositionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	records := make([]core.PositionRecord, 0, len(e.order))
	for _, id := range e.order {
		records = append(records, record(id, e.vehicles[id]))
	}
	return records
}

// VehicleCount returns the number of vehicles seen so far. Retention is
// unbounded for the process lifetime; there is no eviction.
func (e *Engine) VehicleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.vehicles)
}

func withinTolerance(prev core.VehicleState, p core.TrackPoint) bool {
	return math.Abs(prev.Latitude-p.Latitude) <= coordTolerance &&
		math.Abs(prev.Longitude-p.Longitude) <= coordTolerance
}

func record(vehicleID string, s core.VehicleState) core.PositionRecord {
	return core.PositionRecord{
		VehicleID: vehicleID,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Altitude:  s.Altitude,
		Speed:     s.Speed,
		Course:    s.Course,
		Direction: s.Direction,
		Time:      time.Now().UTC(),
	}
}
