package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"TubeScribe/internal/domain"
)

type submitRequest struct {
	Topic string `json:"topic"`
	Mode  string `json:"mode"`
}

type submitResponse struct {
	TaskID string `json:"taskId"`
}

type statusResponse struct {
	Status   string         `json:"status"`
	Progress float64        `json:"progress"`
	Message  string         `json:"message"`
	Result   *domain.Result `json:"result,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	mode := domain.Mode(req.Mode)
	if req.Mode == "" {
		mode = domain.ModeFull
	}

	id, err := s.service.Submit(r.Context(), req.Topic, mode)
	if err != nil {
		s.logger.Warn("submit rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{TaskID: id})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	job, err := s.service.GetStatus(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "task not found"})
		return
	}
	if err != nil {
		s.logger.Error("status lookup failed", "id", id, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:   string(job.Status),
		Progress: job.Progress,
		Message:  job.Message,
		Result:   job.Result,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
