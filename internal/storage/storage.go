// internal/storage/storage.go
package storage

import (
	"github.com/trackloop/trackd/pkg/core"
	"github.com/trackloop/trackd/pkg/streaming"
)

// Backend is the interface every broadcast/journal sink must satisfy.
// All Record* calls are fire-and-forget from the caller's perspective: a
// backend must never block a position update on its own slowness.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Event recording, one call per emitted event
	RecordPosition(r *core.PositionRecord) error
	RecordAlert(a *core.AlertRecord) error
	RecordWarning(w *streaming.WarningPayload) error
	RecordStatus(s *core.StatusRecord) error
}

// Multi tees every event to several backends. Errors are collected but do
// not stop delivery to the remaining backends.
type Multi struct {
	backends []Backend
}

// NewMulti creates a backend that fans out to all given backends.
func NewMulti(backends ...Backend) *Multi {
	return &Multi{backends: backends}
}

func (m *Multi) Init() error {
	for _, b := range m.backends {
		if err := b.Init(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) Close() error {
	var firstErr error
	for _, b := range m.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Multi) RecordPosition(r *core.PositionRecord) error {
	return m.each(func(b Backend) error { return b.RecordPosition(r) })
}

func (m *Multi) RecordAlert(a *core.AlertRecord) error {
	return m.each(func(b Backend) error { return b.RecordAlert(a) })
}

func (m *Multi) RecordWarning(w *streaming.WarningPayload) error {
	return m.each(func(b Backend) error { return b.RecordWarning(w) })
}

func (m *Multi) RecordStatus(s *core.StatusRecord) error {
	return m.each(func(b Backend) error { return b.RecordStatus(s) })
}

func (m *Multi) each(f func(Backend) error) error {
	var firstErr error
	for _, b := range m.backends {
		if err := f(b); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
