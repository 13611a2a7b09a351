package api

import (
	"errors"
	"net/http"

	"library-api/internal/auth"
	"library-api/internal/library"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// handleToken exchanges credentials for a bearer token. Unknown users,
// wrong passwords and deactivated accounts all get the same answer.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	invalid := func() {
		s.respond(w, http.StatusUnauthorized, errorResponse{Error: "invalid username or password"})
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if errors.Is(err, library.ErrNotFound) {
		invalid()
		return
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		invalid()
		return
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresIn: int(s.issuer.TTL().Seconds()),
	})
}
