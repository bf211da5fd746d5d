package server

import (
	"encoding/json"
	"net/http"

	"fjacquet/case-categorizer/internal/logging"
)

// ValidationDetail describes one invalid part of a request body.
type ValidationDetail struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

type detailResponse struct {
	Detail any `json:"detail"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("Failed to write response body",
			logging.Field{Key: logging.FieldStatus, Value: status})
	}
}

// writeError sends {"detail": msg}.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, detailResponse{Detail: msg})
}

// writeValidation sends 422 with one entry per invalid location.
func (s *Server) writeValidation(w http.ResponseWriter, details ...ValidationDetail) {
	s.writeJSON(w, http.StatusUnprocessableEntity, detailResponse{Detail: details})
}

func bodyError(err error) ValidationDetail {
	return ValidationDetail{Loc: []string{"body"}, Msg: "invalid JSON: " + err.Error()}
}

func fieldRequired(field string) ValidationDetail {
	return ValidationDetail{Loc: []string{"body", field}, Msg: "field required"}
}
