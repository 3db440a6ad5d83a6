// Package memory implements an in-memory event journal backend. It backs
// tests and the JSON export path; nothing is persisted across restarts.
package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/trackloop/trackd/internal/queue"
	"github.com/trackloop/trackd/pkg/core"
	"github.com/trackloop/trackd/pkg/streaming"
)

// Backend journals every event as a streaming.Envelope in emission order.
type Backend struct {
	events *queue.Queue[streaming.Envelope]
}

// New creates an empty in-memory journal.
func New() *Backend {
	return &Backend{events: queue.New[streaming.Envelope]()}
}

func (b *Backend) Init() error  { return nil }
func (b *Backend) Close() error { return nil }

func (b *Backend) RecordPosition(r *core.PositionRecord) error {
	return b.push(streaming.TypePosition, r)
}

func (b *Backend) RecordAlert(a *core.AlertRecord) error {
	return b.push(streaming.TypeAlert, a)
}

func (b *Backend) RecordWarning(w *streaming.WarningPayload) error {
	return b.push(streaming.TypeWarning, w)
}

func (b *Backend) RecordStatus(s *core.StatusRecord) error {
	return b.push(streaming.TypeStatus, s)
}

func (b *Backend) push(msgType string, payload any) error {
	env, err := streaming.NewEnvelope(msgType, payload)
	if err != nil {
		return fmt.Errorf("journal %s: %w", msgType, err)
	}
	b.events.Push(env)
	return nil
}

// Events drains and returns all journaled events in emission order.
func (b *Backend) Events() []streaming.Envelope {
	return b.events.Drain()
}

// Len returns the number of journaled events without draining.
func (b *Backend) Len() int {
	return b.events.Len()
}

// Export drains the journal and writes it as a JSON array to the given path.
func (b *Backend) Export(path string) error {
	data, err := json.Marshal(b.events.Drain())
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}
