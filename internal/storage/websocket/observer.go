package websocket

import (
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	observerChSize = 256
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	pongWait       = 35 * time.Second
)

// observer is a single connected stream consumer with its own write pump.
// Messages are dropped per-observer when its channel backs up, so one slow
// consumer cannot delay the others.
type observer struct {
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}
	logger *slog.Logger

	closeOnce sync.Once
}

func newObserver(conn *ws.Conn, logger *slog.Logger) *observer {
	return &observer{
		conn:   conn,
		sendCh: make(chan []byte, observerChSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// send pushes data to the write pump. Non-blocking; drops if the channel
// is full.
func (o *observer) send(data []byte) {
	select {
	case o.sendCh <- data:
	default:
		o.logger.Warn("observer channel full, dropping message", "remote", o.conn.RemoteAddr())
	}
}

// writeLoop drains sendCh and writes messages to the connection, with a
// periodic ping to detect dead peers.
func (o *observer) writeLoop() {
	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-o.done:
			return
		case data := <-o.sendCh:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := o.conn.WriteMessage(ws.TextMessage, data); err != nil {
				o.logger.Debug("observer write error", "error", err)
				return
			}
		case <-pingTicker.C:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := o.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards inbound frames until the connection errors; the stream
// is one-way, reads exist only to notice disconnects and answer pings.
func (o *observer) readLoop() {
	o.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	o.conn.SetPongHandler(func(string) error {
		o.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		if _, _, err := o.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (o *observer) close() {
	o.closeOnce.Do(func() {
		close(o.done)
		o.conn.WriteMessage( //nolint:errcheck
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		)
		o.conn.Close() //nolint:errcheck
	})
}
