package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"library-api/internal/library"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			s.logger.Printf("encode response: %v", err)
		}
	}
}

// respondError maps the library error taxonomy onto HTTP statuses.
// Business-rule and validation failures are 400 with their stable
// message so clients can branch on it.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrUnauthenticated):
		s.respond(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, library.ErrPermissionDenied):
		s.respond(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, library.ErrNotFound):
		s.respond(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, library.ErrInsufficientCopies),
		errors.Is(err, library.ErrAlreadyBorrowed),
		errors.Is(err, library.ErrNotBorrowed),
		library.IsValidation(err):
		s.respond(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Printf("internal error: %v", err)
		s.respond(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// decode reads the JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &library.ValidationError{Field: "body", Reason: "invalid JSON"}
	}
	return nil
}
