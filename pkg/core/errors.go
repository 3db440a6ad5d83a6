// pkg/core/errors.go
package core

import "errors"

var (
	// ErrTrackEmpty is returned when the track source yields no points.
	// It is fatal at startup: no snapping is possible on an empty track.
	ErrTrackEmpty = errors.New("track has no points")

	// ErrMalformedInput is returned when a positioning sentence cannot be
	// parsed into a fix.
	ErrMalformedInput = errors.New("malformed positioning sentence")

	// ErrMissingField is returned when a required request field is absent.
	ErrMissingField = errors.New("required field missing")

	// ErrUnknownVehicle is returned when an operation references a vehicle
	// that has never submitted a valid fix.
	ErrUnknownVehicle = errors.New("unknown vehicle")
)
