package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/soyeahso/alarmhound/internal/store"
)

// maxEventBytes caps the size of an alarm event body.
const maxEventBytes = 1 << 20

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Clients int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
		Clients: s.clients.Count(),
	})
}

// handleAlarm investigates an EventBridge alarm event and answers with the
// report, or the Lambda-style error body.
func (s *Server) handleAlarm(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}
	if len(body) > maxEventBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "event too large")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), investigationTimeout)
	defer cancel()

	resp := s.svc.Respond(ctx, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	io.WriteString(w, resp.Body)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports := s.svc.Reports()
	if reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report store disabled")
		return
	}

	q := store.ReportQuery{
		AlarmName: r.URL.Query().Get("alarm"),
		State:     r.URL.Query().Get("state"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = n
	}

	list, err := reports.ListReports(r.Context(), q)
	if err != nil {
		s.log.Error().Err(err).Msg("listing reports")
		writeError(w, http.StatusInternalServerError, "listing reports failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": list})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	reports := s.svc.Reports()
	if reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report store disabled")
		return
	}

	rep, err := reports.GetReport(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("loading report")
		writeError(w, http.StatusInternalServerError, "loading report failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
