package analytics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/simphone/ussdd/internal/logging"
)

const dispatchTimeout = 10 * time.Second

// HTTPDispatcher POSTs CDP events as JSON to a collector endpoint.
type HTTPDispatcher struct {
	endpoint string
	writeKey string
	client   *http.Client
	log      *logging.Logger
}

// NewHTTPDispatcher creates a dispatcher for the given collector endpoint.
// An empty endpoint yields an unconfigured dispatcher that drops events.
func NewHTTPDispatcher(endpoint, writeKey string, log *logging.Logger) *HTTPDispatcher {
	return &HTTPDispatcher{
		endpoint: endpoint,
		writeKey: writeKey,
		client:   &http.Client{Timeout: dispatchTimeout},
		log:      log.Sub("cdp"),
	}
}

func (d *HTTPDispatcher) Configured() bool {
	return d.endpoint != ""
}

// eventPayload is the wire shape expected by the CDP collector.
type eventPayload struct {
	UserID     string         `json:"userId"`
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  string         `json:"timestamp"`
}

// Dispatch delivers one event. Failures are logged and swallowed; nothing
// about the originating session depends on the outcome.
func (d *HTTPDispatcher) Dispatch(phoneNumber, eventID string, properties map[string]any) {
	if !d.Configured() {
		return
	}

	body, err := json.Marshal(eventPayload{
		UserID:     phoneNumber,
		Event:      eventID,
		Properties: properties,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		d.log.Error().Err(err).Str("event", eventID).Msg("failed to encode cdp event")
		return
	}

	req, err := http.NewRequest(http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		d.log.Error().Err(err).Str("event", eventID).Msg("failed to build cdp request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if d.writeKey != "" {
		req.SetBasicAuth(d.writeKey, "")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn().Err(err).Str("event", eventID).Msg("cdp dispatch failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		d.log.Warn().
			Int("status", resp.StatusCode).
			Str("event", eventID).
			Msg("cdp collector rejected event")
		return
	}

	d.log.Debug().Str("event", eventID).Str("user", phoneNumber).Msg("cdp event dispatched")
}
