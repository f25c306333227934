package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/hts-classify/internal/classify"
)

// classifyFailed is the error message for every failed classification request.
const classifyFailed = "Classification failed"

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	log := zap.L().With(zap.String("request_id", requestID(r)))

	var req classify.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.metrics.RecordRejection()
		log.Warn("api: malformed classify request", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   classifyFailed,
			Details: "invalid request body",
		})
		return
	}

	resp, err := s.classifier.Classify(r.Context(), req)
	if err != nil {
		var verr *classify.ValidationError
		if errors.As(err, &verr) {
			log.Warn("api: rejected classify request", zap.Strings("missing", verr.Fields))
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   classifyFailed,
				Details: verr.Error(),
			})
			return
		}
		s.metrics.RecordFailure()
		log.Error("api: classification failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: classifyFailed})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReference(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Status(s.opts.Source))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}
