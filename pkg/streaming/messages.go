package streaming

import (
	"encoding/json"

	"github.com/trackloop/trackd/pkg/core"
)

// Message type constants matching the observer streaming protocol.
const (
	TypePosition = "position"
	TypeAlert    = "alert"
	TypeWarning  = "warning"
	TypeStatus   = "status"
)

// Envelope wraps all messages sent to stream observers.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope marshals a payload into an Envelope of the given type.
func NewEnvelope(msgType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}

// WarningPayload is the payload of a warning message: the alert raised by the
// distressed vehicle, addressed to the trailing vehicle that must react.
type WarningPayload struct {
	TargetID string            `json:"targetId"`
	Alert    *core.AlertRecord `json:"alert"`
}
