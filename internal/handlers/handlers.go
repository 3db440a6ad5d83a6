package handlers

import (
	"fmt"
	"time"

	"github.com/trackloop/trackd/internal/alert"
	"github.com/trackloop/trackd/internal/dispatcher"
	"github.com/trackloop/trackd/internal/engine"
	"github.com/trackloop/trackd/internal/logging"
	"github.com/trackloop/trackd/internal/parser"
	"github.com/trackloop/trackd/internal/storage"
	"github.com/trackloop/trackd/pkg/core"
	"github.com/trackloop/trackd/pkg/streaming"
)

// Dispatcher kinds for the storage write pipeline.
const (
	kindPosition = "record.position"
	kindEvent    = "record.event"
)

// Dependencies holds all dependencies needed by the handler service.
type Dependencies struct {
	Engine     *engine.Engine
	Alerts     *alert.Dispatcher
	Parser     *parser.Parser
	LogManager *logging.SlogManager
}

// Service processes vehicle submissions and fans results out to storage.
type Service struct {
	deps    Dependencies
	backend storage.Backend
	events  *dispatcher.Dispatcher
}

// NewService creates a new handler service.
func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// SetBackend sets the storage backend that receives processed records.
func (s *Service) SetBackend(b storage.Backend) {
	s.backend = b
}

// RegisterHandlers wires the storage writers into the dispatcher. Once
// registered, submissions queue their record writes through the buffered
// pipeline instead of writing to the backend inline, so a slow sink never
// holds up a submission.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Position records arrive at high rate, one per vehicle per interval;
	// under sustained backpressure they drop rather than block.
	d.Register(kindPosition, s.writeRecord, dispatcher.Buffered(10000), dispatcher.Logged())

	// Alerts, warnings and statuses are rare and must not be dropped. They
	// share one queue so an alert and its warning keep their relative order.
	d.Register(kindEvent, s.writeRecord, dispatcher.Buffered(1000), dispatcher.Blocking(), dispatcher.Logged())

	s.events = d
}

// SubmitFix parses a raw fix sentence, updates the vehicle's canonical
// position and records the result. It returns nil without error when the
// fix resolved to the vehicle's current position and was suppressed.
func (s *Service) SubmitFix(vehicleID, sentence string) (*core.PositionRecord, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("vehicle id: %w", core.ErrMissingField)
	}
	if sentence == "" {
		return nil, fmt.Errorf("fix sentence: %w", core.ErrMissingField)
	}

	fix, err := s.deps.Parser.ParseFix(sentence)
	if err != nil {
		return nil, err
	}

	rec, changed := s.deps.Engine.UpdatePosition(vehicleID, fix)
	if !changed {
		return nil, nil
	}

	logger := s.deps.LogManager.Logger()
	logger.Debug("Position updated",
		"vehicle", vehicleID,
		"lat", rec.Latitude,
		"lon", rec.Longitude,
		"direction", rec.Direction)

	s.record(kindPosition, vehicleID, &rec)

	return &rec, nil
}

// SubmitAlert raises an emergency alert from a vehicle. The alert is always
// broadcast; a targeted warning follows when a trailing vehicle exists.
func (s *Service) SubmitAlert(vehicleID, message string) (*core.AlertRecord, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("vehicle id: %w", core.ErrMissingField)
	}

	rec, warning := s.deps.Alerts.Raise(vehicleID, message)

	s.record(kindEvent, vehicleID, &rec)
	if warning != nil {
		s.record(kindEvent, warning.TargetID, warning)
	}

	return &rec, nil
}

// SubmitStatus records a free-form status message from a vehicle.
func (s *Service) SubmitStatus(vehicleID, message string) (*core.StatusRecord, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("vehicle id: %w", core.ErrMissingField)
	}

	rec := core.StatusRecord{
		VehicleID: vehicleID,
		Message:   message,
		Time:      time.Now().UTC(),
	}

	s.record(kindEvent, vehicleID, &rec)

	return &rec, nil
}

// record hands a finished record to the storage path: through the dispatcher
// when one is wired, synchronously otherwise.
func (s *Service) record(kind, vehicleID string, payload any) {
	e := dispatcher.Event{
		Kind:      kind,
		VehicleID: vehicleID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	var err error
	if s.events != nil {
		_, err = s.events.Dispatch(e)
	} else {
		_, err = s.writeRecord(e)
	}
	if err != nil {
		s.deps.LogManager.Logger().Error("Failed to record event",
			"kind", kind, "vehicle", vehicleID, "error", err)
	}
}

// writeRecord is the storage writer behind every record kind.
func (s *Service) writeRecord(e dispatcher.Event) (any, error) {
	if s.backend == nil {
		return nil, nil
	}
	switch p := e.Payload.(type) {
	case *core.PositionRecord:
		return nil, s.backend.RecordPosition(p)
	case *core.AlertRecord:
		return nil, s.backend.RecordAlert(p)
	case *streaming.WarningPayload:
		return nil, s.backend.RecordWarning(p)
	case *core.StatusRecord:
		return nil, s.backend.RecordStatus(p)
	default:
		return nil, fmt.Errorf("unsupported record payload %T", e.Payload)
	}
}
