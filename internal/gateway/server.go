// Package gateway is the HTTP binding of the USSD engine: JSON routes for
// the dialer UI, a config surface for the menu tree, and a WebSocket feed
// of session lifecycle events for monitoring dashboards.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/simphone/ussdd/internal/config"
	"github.com/simphone/ussdd/internal/engine"
	"github.com/simphone/ussdd/internal/events"
	"github.com/simphone/ussdd/internal/logging"
	"github.com/simphone/ussdd/internal/version"
)

// TreeConfig is the menu-tree document surface exposed over HTTP.
type TreeConfig interface {
	Document() ([]byte, error)
	Save(doc []byte) error
	Reset() error
}

// Server serves the USSD engine over HTTP and WebSocket.
type Server struct {
	cfg      config.Config
	log      *logging.Logger
	engine   *engine.Engine
	clients  *ClientRegistry
	version  string
	eventSeq atomic.Int64

	// Tree config surface (optional — nil disables the config routes)
	trees TreeConfig

	// Lifecycle event bus (optional — nil disables the monitor feed)
	bus *events.Bus

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithTreeConfig enables the menu-tree config routes.
func WithTreeConfig(tc TreeConfig) ServerOption {
	return func(s *Server) { s.trees = tc }
}

// WithBus wires the monitor WebSocket feed to the engine's event bus.
func WithBus(b *events.Bus) ServerOption {
	return func(s *Server) { s.bus = b }
}

// New creates a new gateway server over the given engine.
func New(cfg config.Config, eng *engine.Engine, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log.Sub("gateway"),
		engine:  eng,
		clients: NewClientRegistry(log.Sub("monitor")),
		version: version.Version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Server.AllowedOrigins),
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.bus != nil {
		for _, ev := range events.AllEvents {
			s.bus.On(ev, "monitor", func(_ context.Context, p events.Payload) error {
				s.broadcast(p.Event, p.Data)
				return nil
			})
		}
	}

	return s
}

// checkWebSocketOrigin returns a function that validates WebSocket Origin
// headers. With no origins configured, only same-origin or non-browser
// clients are allowed.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Server)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := withMiddleware(mux, s.log, s.cfg.Server.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Server.Bind).
		Msg("gateway server ready")

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.clients.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// broadcast fans an engine event out to all monitor clients.
func (s *Server) broadcast(event string, data map[string]any) {
	s.clients.Broadcast(Frame{
		Type:    FrameTypeEvent,
		Event:   event,
		Seq:     s.eventSeq.Add(1),
		Payload: data,
	})
}
