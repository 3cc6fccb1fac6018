// Package live serves reactive state over WebSocket. It is the reference
// host integration for the ripple graph: each connected client gets an
// Owner, every published channel becomes an effect under that owner, and
// disconnecting disposes the owner, which unlinks the client from the
// graph entirely.
package live

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ripple-dev/ripple/pkg/metrics"
	"github.com/ripple-dev/ripple/pkg/ripple"
)

// Server pushes the current value of named channels to WebSocket clients
// whenever the reactive graph changes them.
type Server struct {
	config   *Config
	router   chi.Router
	upgrader websocket.Upgrader
	http     *http.Server

	// root owns every per-connection owner, so Shutdown can tear down
	// all feeds at once.
	root *ripple.Owner

	mu       sync.RWMutex
	channels map[string]func() any
}

// NewServer creates a live feed server.
// Routes: GET /ws (feed), GET /healthz, GET /metrics (Prometheus).
func NewServer(config *Config) *Server {
	config = config.withDefaults()

	s := &Server{
		config: config,
		root:   ripple.NewOwner(nil),
		upgrader: websocket.Upgrader{
			CheckOrigin: config.CheckOrigin,
		},
		channels: make(map[string]func() any),
	}

	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	s.router = r

	return s
}

// Channel publishes a named channel. read runs inside a tracked effect per
// client: any signal or memo it reads becomes a dependency, and clients
// receive a new frame whenever the result changes. Registering a name
// twice replaces the reader for future connections.
func (s *Server) Channel(name string, read func() any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[name] = read
}

// Handler returns the HTTP handler, for mounting under an existing server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.http = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.router,
	}
	s.config.Logger.Info("live server listening", "addr", s.config.Addr)
	return s.http.ListenAndServe()
}

// Shutdown disposes every connected feed and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.root.Dispose()
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}

// handleWS upgrades the connection and runs the feed until disconnect.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.config.Logger.Error("websocket upgrade failed", "error", err)
		metrics.RecordFeedError("upgrade")
		return
	}

	s.mu.RLock()
	channels := make(map[string]func() any, len(s.channels))
	for name, read := range s.channels {
		channels[name] = read
	}
	s.mu.RUnlock()

	f := &feed{
		conn:         conn,
		logger:       s.config.Logger.With("remote", conn.RemoteAddr().String()),
		owner:        ripple.NewOwner(s.root),
		writeTimeout: s.config.WriteTimeout,
	}
	conn.SetReadLimit(s.config.MaxMessageSize)

	f.run(channels)
}
