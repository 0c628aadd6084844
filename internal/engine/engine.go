// Package engine implements the USSD session state machine: one step of
// menu-tree traversal per request, over sessions shared in a store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/simphone/ussdd/internal/analytics"
	"github.com/simphone/ussdd/internal/events"
	"github.com/simphone/ussdd/internal/logging"
	"github.com/simphone/ussdd/internal/menu"
	"github.com/simphone/ussdd/internal/session"
)

var (
	// ErrMissingField marks a request rejected before any state lookup.
	ErrMissingField = errors.New("missing required field")

	// ErrSessionNotFound marks a continue or end against an unknown or
	// expired session. The caller must restart with a new dial.
	ErrSessionNotFound = errors.New("session not found or expired")
)

// DefaultSessionTimeout is how long a session may live, measured from its
// start time regardless of activity.
const DefaultSessionTimeout = 5 * time.Minute

// DefaultNetworkName is used when a tree has no display name of its own.
const DefaultNetworkName = "Network"

const (
	serviceUnavailableText = "Service unavailable. Please try again later."
	invalidOptionPrefix    = "Invalid option.\n"
)

// TreeProvider supplies the current menu tree. The engine takes a fresh
// snapshot per call and never mutates it; live sessions keep nodes from
// whatever tree was current when they traversed them.
type TreeProvider interface {
	CurrentTree() *menu.Tree
}

// Reply is the caller-visible outcome of a start or continue step.
// SessionID is nil whenever no live session backs the reply.
type Reply struct {
	SessionID     *string `json:"sessionId"`
	Response      string  `json:"response"`
	SessionActive bool    `json:"sessionActive"`
	RequiresInput bool    `json:"requiresInput"`
	NetworkName   string  `json:"networkName"`
}

// Engine walks menu trees on behalf of callers. A single mutex serializes
// all session mutations, including the expiry sweep; contention is low
// because every step is a handful of map operations.
type Engine struct {
	mu         sync.Mutex
	trees      TreeProvider
	store      session.Store
	dispatcher analytics.Dispatcher
	bus        *events.Bus
	timeout    time.Duration
	log        *logging.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithDispatcher sets the CDP event dispatcher.
func WithDispatcher(d analytics.Dispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithBus sets the lifecycle event bus.
func WithBus(b *events.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithTimeout overrides the session timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// New creates an engine over the given tree provider and session store.
func New(trees TreeProvider, store session.Store, log *logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		trees:      trees,
		store:      store,
		dispatcher: analytics.Nop{},
		timeout:    DefaultSessionTimeout,
		log:        log.Sub("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartSession dials a code for a phone number. Unknown codes are a normal
// outcome carrying a service-unavailable response, never an error.
func (e *Engine) StartSession(phoneNumber, dialCode string) (Reply, error) {
	if phoneNumber == "" {
		return Reply{}, fmt.Errorf("%w: phoneNumber", ErrMissingField)
	}
	if dialCode == "" {
		return Reply{}, fmt.Errorf("%w: dialCode", ErrMissingField)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tree := e.trees.CurrentTree()
	network := networkName(tree)

	root, ok := tree.Root(dialCode)
	if !ok {
		e.log.Debug().Str("dialCode", dialCode).Msg("unknown dial code")
		return Reply{
			Response:    serviceUnavailableText,
			NetworkName: network,
		}, nil
	}

	// Root events resolve against an empty buffer; placeholders that need
	// captured input pass through literally.
	e.fireCDP(phoneNumber, root.CDPEvent, nil)

	if root.SessionEnd {
		// Nothing to continue, so nothing is stored.
		e.emit(events.EventSessionEnd, map[string]any{
			"phoneNumber": phoneNumber,
			"dialCode":    dialCode,
		})
		return Reply{
			Response:    root.Response,
			NetworkName: network,
		}, nil
	}

	sess := &session.Session{
		ID:          uuid.New().String(),
		PhoneNumber: phoneNumber,
		RootCode:    dialCode,
		Current:     root,
		StartedAt:   time.Now(),
	}
	e.store.Put(sess)

	e.log.Info().
		Str("sessionId", sess.ID).
		Str("dialCode", dialCode).
		Msg("session started")
	e.emit(events.EventSessionStart, map[string]any{
		"sessionId":   sess.ID,
		"phoneNumber": phoneNumber,
		"dialCode":    dialCode,
	})

	return Reply{
		SessionID:     &sess.ID,
		Response:      root.Response,
		SessionActive: true,
		RequiresInput: root.IsInput,
		NetworkName:   network,
	}, nil
}

// ContinueSession advances a session one step with the given input. Invalid
// menu input leaves the session untouched and re-presents the current node.
func (e *Engine) ContinueSession(sessionID, input string) (Reply, error) {
	if sessionID == "" {
		return Reply{}, fmt.Errorf("%w: sessionId", ErrMissingField)
	}
	if input == "" {
		return Reply{}, fmt.Errorf("%w: input", ErrMissingField)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.store.Get(sessionID)
	if !ok {
		return Reply{}, ErrSessionNotFound
	}

	tree := e.trees.CurrentTree()
	network := networkName(tree)

	next, wildcard := sess.Current.Next(input)
	if next == nil {
		// No literal and no wildcard: session stays exactly where it is.
		return Reply{
			SessionID:     &sess.ID,
			Response:      invalidOptionPrefix + sess.Current.Response,
			SessionActive: true,
			RequiresInput: sess.Current.IsInput,
			NetworkName:   network,
		}, nil
	}

	if wildcard {
		sess.InputBuffer = append(sess.InputBuffer, input)
	}

	// A goto node is stood in for by the addressed root. Resolution uses
	// the tree that is current *now*, not the one the session started in.
	// Unknown targets fall back to the matched node itself.
	if next.Goto != "" {
		if target, ok := tree.Root(next.Goto); ok {
			next = target
		} else {
			e.log.Warn().
				Str("sessionId", sess.ID).
				Str("goto", next.Goto).
				Msg("goto target not found, keeping matched node")
		}
	}

	sess.History = append(sess.History, input)
	sess.Current = next

	if next.CDPEvent != nil {
		e.fireCDP(sess.PhoneNumber, next.CDPEvent, sess.InputBuffer)
	}

	if next.SessionEnd {
		e.store.Delete(sess.ID)
		e.log.Info().Str("sessionId", sess.ID).Msg("session reached terminal node")
		e.emit(events.EventSessionEnd, map[string]any{
			"sessionId":   sess.ID,
			"phoneNumber": sess.PhoneNumber,
		})
		return Reply{
			Response:    next.Response,
			NetworkName: network,
		}, nil
	}

	e.store.Put(sess)
	e.emit(events.EventSessionContinue, map[string]any{
		"sessionId": sess.ID,
		"input":     input,
		"wildcard":  wildcard,
	})

	return Reply{
		SessionID:     &sess.ID,
		Response:      next.Response,
		SessionActive: true,
		RequiresInput: next.IsInput,
		NetworkName:   network,
	}, nil
}

// EndSession deletes a session. Idempotent: unknown IDs report deleted=false.
func (e *Engine) EndSession(sessionID string) (bool, error) {
	if sessionID == "" {
		return false, fmt.Errorf("%w: sessionId", ErrMissingField)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	deleted := e.store.Delete(sessionID)
	if deleted {
		e.log.Info().Str("sessionId", sessionID).Msg("session ended by caller")
		e.emit(events.EventSessionEnd, map[string]any{"sessionId": sessionID})
	}
	return deleted, nil
}

// SweepExpired removes sessions older than the timeout. It holds the same
// lock as request handling so a sweep never races a concurrent continue.
func (e *Engine) SweepExpired(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.SweepExpired(now, e.timeout)
}

// fireCDP resolves an event's placeholders and hands it to the dispatcher
// without waiting for delivery. Called with the engine lock held; resolution
// happens synchronously so later buffer growth cannot leak into the payload.
func (e *Engine) fireCDP(phoneNumber string, ev *menu.CDPEvent, inputBuffer []string) {
	if ev == nil || e.dispatcher == nil || !e.dispatcher.Configured() {
		return
	}

	props := ResolvePlaceholders(ev.Properties, inputBuffer)
	go e.dispatcher.Dispatch(phoneNumber, ev.EventID, props)

	e.emit(events.EventCDPDispatch, map[string]any{
		"phoneNumber": phoneNumber,
		"eventId":     ev.EventID,
	})
}

func (e *Engine) emit(event string, data map[string]any) {
	if e.bus != nil {
		e.bus.EmitAsync(context.Background(), event, data)
	}
}

func networkName(t *menu.Tree) string {
	if t == nil || t.NetworkName == "" {
		return DefaultNetworkName
	}
	return t.NetworkName
}
