package live

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ripple-dev/ripple/pkg/metrics"
	"github.com/ripple-dev/ripple/pkg/ripple"
)

// Frame is one message pushed to a client.
type Frame struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// feed is one connected client: a WebSocket connection plus the Owner
// holding its per-channel effects.
type feed struct {
	conn         *websocket.Conn
	logger       *slog.Logger
	owner        *ripple.Owner
	writeTimeout time.Duration

	// writeMu serializes writes; effects may fire from any goroutine
	// that mutates the graph, and gorilla allows one concurrent writer.
	writeMu sync.Mutex
	closed  atomic.Bool
}

// run wires one effect per channel under the feed's owner, then blocks
// reading the connection until the client goes away. Each effect sends the
// channel's current value on its first run and again whenever any
// dependency of the channel reader changes.
func (f *feed) run(channels map[string]func() any) {
	metrics.RecordFeedOpen()
	defer metrics.RecordFeedClose()

	f.owner.OnCleanup(func() {
		f.closed.Store(true)
		f.conn.Close()
	})

	ripple.WithOwner(f.owner, func() {
		for name, read := range channels {
			name, read := name, read
			ripple.CreateEffect(func() ripple.Cleanup {
				f.send(Frame{Channel: name, Data: read()})
				return nil
			})
		}
	})

	// Clients send nothing meaningful; the read loop only detects close.
	for {
		if _, _, err := f.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				f.logger.Warn("feed closed unexpectedly", "error", err)
				metrics.RecordFeedError("read")
			}
			break
		}
	}

	f.owner.Dispose()
}

// send pushes one frame, dropping it if the feed is already closed.
func (f *feed) send(frame Frame) {
	if f.closed.Load() {
		return
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.conn.SetWriteDeadline(time.Now().Add(f.writeTimeout))
	if err := f.conn.WriteJSON(frame); err != nil {
		if f.closed.CompareAndSwap(false, true) {
			f.logger.Warn("feed write failed", "channel", frame.Channel, "error", err)
			metrics.RecordFeedError("write")
			f.conn.Close()
		}
		return
	}
	metrics.RecordFeedMessage()
}
