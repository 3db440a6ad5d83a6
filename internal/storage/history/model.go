package history

import (
	"time"

	"gorm.io/datatypes"
)

// Models is the list of structs migrated into the history schema.
var Models = []any{
	&Position{},
	&Event{},
}

// Position is one accepted (snapped) position update.
type Position struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	VehicleID  string    `gorm:"index" json:"vehicleId"`
	Time       time.Time `gorm:"index" json:"time"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   float64   `json:"altitude"`
	Speed      float64   `json:"speed"`
	Course     float64   `json:"course"`
	Direction  string    `json:"direction"`
}

// Event is one alert, warning or status event, with the full broadcast
// payload kept as JSON.
type Event struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Type      string         `gorm:"index" json:"type"`
	VehicleID string         `gorm:"index" json:"vehicleId"`
	Time      time.Time      `gorm:"index" json:"time"`
	Payload   datatypes.JSON `json:"payload"`
}
