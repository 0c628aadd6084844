// Package session holds live USSD session state and the store that keys it
// by session ID. Sessions are not durable; a restart discards them all.
package session

import (
	"time"

	"github.com/simphone/ussdd/internal/menu"
)

// Session tracks one caller's walk through a menu tree.
type Session struct {
	ID          string     `json:"id"`
	PhoneNumber string     `json:"phoneNumber"`
	RootCode    string     `json:"rootCode"`
	Current     *menu.Node `json:"-"`

	// History records every accepted input in order. Diagnostic only —
	// engine logic never reads it.
	History []string `json:"history,omitempty"`

	// InputBuffer records only wildcard-matched free-text inputs, oldest
	// first. It only grows; CDP placeholder resolution indexes it from
	// the tail.
	InputBuffer []string `json:"inputBuffer,omitempty"`

	StartedAt time.Time `json:"startedAt"`
}

// Expired reports whether the session has outlived the timeout. Expiry is
// measured from StartedAt, not last activity, so a long-running conversation
// can expire mid-menu.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.StartedAt) > timeout
}
