// Package events provides the lifecycle event bus for engine activity.
// The gateway's monitor feed and debug logging subscribe to it; handlers
// never affect the request path.
package events

import (
	"context"
	"sync"

	"github.com/simphone/ussdd/internal/logging"
)

// Event names emitted by the engine and config store.
const (
	EventSessionStart    = "session.start"
	EventSessionContinue = "session.continue"
	EventSessionEnd      = "session.end"
	EventCDPDispatch     = "cdp.dispatch"
	EventTreeSaved       = "tree.saved"
)

// AllEvents lists all known event names.
var AllEvents = []string{
	EventSessionStart,
	EventSessionContinue,
	EventSessionEnd,
	EventCDPDispatch,
	EventTreeSaved,
}

// Payload carries event data to handlers.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler handles one event. Returning an error logs the failure but never
// stops other handlers or the emitting request.
type Handler func(ctx context.Context, p Payload) error

// Bus manages handler registrations and dispatches events.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewBus creates an event bus.
func NewBus(log *logging.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("events"),
	}
}

// On registers a handler for the given event. The name identifies the
// handler for logging and removal.
func (b *Bus) On(event, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], namedHandler{name: name, handler: handler})
	b.log.Debug().Str("event", event).Str("handler", name).Msg("handler registered")
}

// Off removes all handlers with the given name from the event.
func (b *Bus) Off(event, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[event]
	filtered := make([]namedHandler, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	b.handlers[event] = filtered
}

// Emit dispatches an event to all registered handlers synchronously, in
// registration order. Errors are logged and swallowed.
func (b *Bus) Emit(ctx context.Context, event string, data map[string]any) {
	for _, h := range b.snapshot(event) {
		if err := h.handler(ctx, Payload{Event: event, Data: data}); err != nil {
			b.log.Warn().
				Err(err).
				Str("event", event).
				Str("handler", h.name).
				Msg("event handler error")
		}
	}
}

// EmitAsync dispatches an event to all registered handlers concurrently.
// Returns immediately; handler errors are logged.
func (b *Bus) EmitAsync(ctx context.Context, event string, data map[string]any) {
	handlers := b.snapshot(event)
	if len(handlers) == 0 {
		return
	}

	payload := Payload{Event: event, Data: data}
	for _, h := range handlers {
		go func(h namedHandler) {
			if err := h.handler(ctx, payload); err != nil {
				b.log.Warn().
					Err(err).
					Str("event", event).
					Str("handler", h.name).
					Msg("async event handler error")
			}
		}(h)
	}
}

// Count returns the number of handlers registered for an event.
func (b *Bus) Count(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

func (b *Bus) snapshot(event string) []namedHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]namedHandler, len(b.handlers[event]))
	copy(handlers, b.handlers[event])
	return handlers
}
