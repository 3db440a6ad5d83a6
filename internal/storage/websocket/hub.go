// Package websocket implements the observer fan-out backend: every accepted
// event is broadcast to all connected stream observers over WebSocket.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	ws "github.com/gorilla/websocket"

	"github.com/trackloop/trackd/pkg/core"
	"github.com/trackloop/trackd/pkg/streaming"
)

const defaultBufferSize = 1024

// Config holds fan-out backend configuration.
type Config struct {
	// BufferSize is the per-hub broadcast queue length. When the queue is
	// full, events are dropped rather than blocking the producer.
	BufferSize int
}

// Hub owns the observer connections and a single broadcast goroutine.
// Recording an event enqueues it and returns immediately: a slow or
// disconnected observer can never stall a position update.
type Hub struct {
	logger   *slog.Logger
	upgrader ws.Upgrader

	broadcast chan []byte
	done      chan struct{}

	mu        sync.Mutex
	observers map[*observer]struct{}
	closed    bool
}

// NewHub creates a fan-out hub.
func NewHub(cfg Config, logger *slog.Logger) *Hub {
	size := cfg.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Hub{
		logger: logger,
		upgrader: ws.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		broadcast: make(chan []byte, size),
		done:      make(chan struct{}),
		observers: make(map[*observer]struct{}),
	}
}

// Init starts the broadcast loop.
func (h *Hub) Init() error {
	go h.run()
	return nil
}

// Close disconnects all observers and stops the broadcast loop.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.done)
	for o := range h.observers {
		o.close()
	}
	h.observers = make(map[*observer]struct{})
	h.mu.Unlock()
	return nil
}

// HandleUpgrade upgrades an HTTP request to a WebSocket observer connection
// and registers it with the hub.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}

	o := newObserver(conn, h.logger)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		o.close()
		return fmt.Errorf("hub is closed")
	}
	h.observers[o] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("observer connected", "remote", conn.RemoteAddr())

	go o.writeLoop()
	go func() {
		o.readLoop()
		h.unregister(o)
	}()

	return nil
}

// ObserverCount returns the number of connected observers.
func (h *Hub) ObserverCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

func (h *Hub) RecordPosition(r *core.PositionRecord) error {
	return h.send(streaming.TypePosition, r)
}

func (h *Hub) RecordAlert(a *core.AlertRecord) error {
	return h.send(streaming.TypeAlert, a)
}

func (h *Hub) RecordWarning(w *streaming.WarningPayload) error {
	return h.send(streaming.TypeWarning, w)
}

func (h *Hub) RecordStatus(s *core.StatusRecord) error {
	return h.send(streaming.TypeStatus, s)
}

// send marshals the payload into an Envelope and pushes it to the broadcast
// loop. Non-blocking; drops with a warning if the queue is full.
func (h *Hub) send(msgType string, payload any) error {
	env, err := streaming.NewEnvelope(msgType, payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast queue full, dropping event", "type", msgType)
	}
	return nil
}

// run drains the broadcast queue and fans each message out to every
// observer in emission order.
func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case data := <-h.broadcast:
			h.mu.Lock()
			for o := range h.observers {
				o.send(data)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) unregister(o *observer) {
	h.mu.Lock()
	if _, ok := h.observers[o]; ok {
		delete(h.observers, o)
		o.close()
	}
	h.mu.Unlock()
	h.logger.Info("observer disconnected", "remote", o.conn.RemoteAddr())
}
