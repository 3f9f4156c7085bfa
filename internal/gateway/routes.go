package gateway

import "net/http"

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	auth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h, s.cfg.Auth.Token, s.authLimiter, s.log)
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	if m := s.svc.Metrics(); m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	mux.Handle("POST /v1/alarms", auth(s.handleAlarm))
	mux.Handle("GET /v1/reports", auth(s.handleListReports))
	mux.Handle("GET /v1/reports/{id}", auth(s.handleGetReport))
	mux.Handle("GET /ws", auth(s.handleWebSocket))

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}
