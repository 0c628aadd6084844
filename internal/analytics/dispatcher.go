// Package analytics delivers CDP events captured during USSD sessions.
// Delivery is best-effort: the engine never waits on it and never learns
// whether it succeeded.
package analytics

// Dispatcher sends a resolved CDP event for a phone number. Implementations
// must swallow their own failures; callers fire and forget.
type Dispatcher interface {
	// Configured reports whether dispatching is enabled. The engine skips
	// resolution entirely when it is not.
	Configured() bool

	// Dispatch delivers one event. Blocking and errors are the
	// implementation's problem; callers invoke it from a goroutine.
	Dispatch(phoneNumber, eventID string, properties map[string]any)
}

// Nop is a Dispatcher that drops everything. Used when no CDP endpoint is
// configured and in tests.
type Nop struct{}

func (Nop) Configured() bool { return false }

func (Nop) Dispatch(string, string, map[string]any) {}
