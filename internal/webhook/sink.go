package webhook

import (
	"log/slog"

	"github.com/trackloop/trackd/pkg/core"
	"github.com/trackloop/trackd/pkg/streaming"
)

// Sink adapts the webhook client to the storage backend contract. Only
// emergency traffic is forwarded; positions and statuses stay local.
type Sink struct {
	client *Client
	logger *slog.Logger
}

// NewSink creates a storage sink that forwards alerts and warnings.
func NewSink(c *Client, logger *slog.Logger) *Sink {
	return &Sink{client: c, logger: logger}
}

func (s *Sink) Init() error {
	if err := s.client.Healthcheck(); err != nil {
		s.logger.Warn("Dispatch console is offline", "error", err)
	} else {
		s.logger.Info("Dispatch console is online")
	}
	return nil
}

func (s *Sink) Close() error { return nil }

func (s *Sink) RecordPosition(*core.PositionRecord) error { return nil }

func (s *Sink) RecordStatus(*core.StatusRecord) error { return nil }

func (s *Sink) RecordAlert(a *core.AlertRecord) error {
	return s.client.NotifyAlert(a)
}

func (s *Sink) RecordWarning(w *streaming.WarningPayload) error {
	return s.client.NotifyWarning(w)
}
