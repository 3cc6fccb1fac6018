package live

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds configuration for the live feed server.
type Config struct {
	// Addr is the listen address. Default: ":8420".
	Addr string

	// Logger is the structured logger. Default: slog.Default with a
	// "live" component attribute.
	Logger *slog.Logger

	// WriteTimeout is the maximum time to wait when pushing a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize is the maximum size of an incoming WebSocket
	// message. Clients only send close/ping traffic. Default: 4KB.
	MaxMessageSize int64

	// CheckOrigin validates the Origin header during the WebSocket
	// handshake. Default: same-origin (the websocket package default).
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:           ":8420",
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 4 << 10,
	}
}

// withDefaults fills zero fields with defaults.
func (c *Config) withDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	out := *c
	def := DefaultConfig()

	if out.Addr == "" {
		out.Addr = def.Addr
	}
	if out.Logger == nil {
		out.Logger = slog.Default().With("component", "live")
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = def.WriteTimeout
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = def.MaxMessageSize
	}
	return &out
}
