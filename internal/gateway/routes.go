package gateway

import "net/http"

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ussd/start", s.handleStart)
	mux.HandleFunc("POST /api/ussd/continue", s.handleContinue)
	mux.HandleFunc("POST /api/ussd/end", s.handleEnd)

	mux.HandleFunc("GET /api/ussd/config", s.handleConfigGet)
	mux.HandleFunc("PUT /api/ussd/config", s.handleConfigPut)
	mux.HandleFunc("POST /api/ussd/config/reset", s.handleConfigReset)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}
