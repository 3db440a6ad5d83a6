// pkg/core/records.go
package core

import "time"

// PositionRecord is the broadcast payload for an accepted position update.
type PositionRecord struct {
	VehicleID string    `json:"vehicleId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`
	Speed     float64   `json:"speed"`
	Course    float64   `json:"course"`
	Direction Direction `json:"direction"`
	Time      time.Time `json:"time"`
}

// AlertRecord is the broadcast payload for an emergency alert or for the
// warning delivered to the vehicle trailing a distressed one.
type AlertRecord struct {
	VehicleID string    `json:"vehicleId"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// StatusRecord is a timestamped pass-through of a free-form status message.
type StatusRecord struct {
	VehicleID string    `json:"vehicleId"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}
