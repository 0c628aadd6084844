package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/simphone/ussdd/internal/engine"
	"github.com/simphone/ussdd/internal/events"
	"github.com/simphone/ussdd/internal/menu"
)

// maxConfigBytes caps the size of an uploaded tree document.
const maxConfigBytes = 1 << 20 // 1MB

type startRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	DialCode    string `json:"dialCode"`
}

// continueRequest uses a pointer for Input so the literal "0" (and even "")
// can be told apart from a field that is absent entirely.
type continueRequest struct {
	SessionID string  `json:"sessionId"`
	Input     *string `json:"input"`
}

type endRequest struct {
	SessionID string `json:"sessionId"`
}

type endResponse struct {
	Deleted bool `json:"deleted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.engine.StartSession(req.PhoneNumber, req.DialCode)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	var req continueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Input == nil {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}
	if *req.Input == "" {
		writeError(w, http.StatusBadRequest, "input must not be empty")
		return
	}

	reply, err := s.engine.ContinueSession(req.SessionID, *req.Input)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deleted, err := s.engine.EndSession(req.SessionID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, endResponse{Deleted: deleted})
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	if s.trees == nil {
		writeError(w, http.StatusNotFound, "tree config not available")
		return
	}

	doc, err := s.trees.Document()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read tree document")
		writeError(w, http.StatusInternalServerError, "failed to read tree document")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (s *Server) handleConfigPut(w http.ResponseWriter, r *http.Request) {
	if s.trees == nil {
		writeError(w, http.StatusNotFound, "tree config not available")
		return
	}

	doc, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(doc) > maxConfigBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "tree document too large")
		return
	}

	if err := s.trees.Save(doc); err != nil {
		var parseErr *menu.ParseError
		if errors.As(err, &parseErr) {
			writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		s.log.Error().Err(err).Msg("failed to save tree document")
		writeError(w, http.StatusInternalServerError, "failed to save tree document")
		return
	}

	s.emitTreeSaved(len(doc))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfigReset(w http.ResponseWriter, r *http.Request) {
	if s.trees == nil {
		writeError(w, http.StatusNotFound, "tree config not available")
		return
	}

	if err := s.trees.Reset(); err != nil {
		s.log.Error().Err(err).Msg("failed to reset tree document")
		writeError(w, http.StatusInternalServerError, "failed to reset tree document")
		return
	}

	s.emitTreeSaved(0)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) emitTreeSaved(bytes int) {
	if s.bus != nil {
		s.bus.EmitAsync(context.Background(), events.EventTreeSaved, map[string]any{
			"bytes": bytes,
		})
	}
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Clients int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
		Clients: s.clients.Count(),
	})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// respondEngineError maps engine errors onto the caller-facing error shapes.
// Business non-matches never reach here — the engine reports those as
// successful replies.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrMissingField):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error().Err(err).Msg("unexpected engine error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
