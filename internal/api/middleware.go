package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"library-api/internal/library"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	requestIDKey
)

// actorFrom returns the authenticated user, or nil outside the
// authenticated subrouter.
func actorFrom(r *http.Request) *library.User {
	actor, _ := r.Context().Value(actorKey).(*library.User)
	return actor
}

// requestID tags every request with a uuid, echoed in X-Request-ID.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		id, _ := r.Context().Value(requestIDKey).(string)
		s.logger.Printf("%s %s %d %s req=%s", r.Method, r.URL.Path, rec.status, time.Since(start), id)
	})
}

// authenticate resolves the bearer token to a user record. The user is
// loaded fresh on every request so deactivation and role changes take
// effect without waiting for token expiry.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			s.respondError(w, library.ErrUnauthenticated)
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			s.respondError(w, library.ErrUnauthenticated)
			return
		}

		userID, err := s.issuer.Verify(parts[1])
		if err != nil {
			s.respondError(w, library.ErrUnauthenticated)
			return
		}

		user, err := s.store.GetUser(r.Context(), userID)
		if err != nil || !user.IsActive {
			s.respondError(w, library.ErrUnauthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, user)))
	})
}
