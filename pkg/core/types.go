// pkg/core/types.go
package core

// Direction is a vehicle's inferred direction of travel along the loop.
type Direction string

const (
	// DirectionForward means the vehicle moves toward increasing track indices.
	DirectionForward Direction = "forward"
	// DirectionBackward means the vehicle moves toward decreasing track indices.
	DirectionBackward Direction = "backward"
)

// TrackPoint is a single point of the closed-loop track, in decimal degrees.
type TrackPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Fix is a structured GPS reading parsed from a raw positioning sentence.
// It is transient: consumed by a position update and not retained.
type Fix struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	Speed     float64
	Course    float64
}

// VehicleState is the canonical per-vehicle state after snapping.
// Latitude/Longitude always equal some TrackPoint of the loaded track,
// never the raw fix coordinates.
type VehicleState struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`
	Speed     float64   `json:"speed"`
	Course    float64   `json:"course"`
	Direction Direction `json:"direction"`
}
