package api

import (
	"net/http"
	"strings"

	"library-api/internal/auth"
	"library-api/internal/library"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister is the unauthenticated self-service signup: always a
// regular, active member. Staff accounts come from an admin or the
// create-admin command.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	user, err := s.newUser(req.Username, req.Email, req.Password)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, user)
}

func (s *Server) newUser(username, email, password string) (*library.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, &library.ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if password == "" {
		return nil, &library.ValidationError{Field: "password", Reason: "must not be empty"}
	}
	hash, err := auth.HashPassword(password, s.cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &library.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}, nil
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if err := library.Decide(actorFrom(r), library.OpUserList, 0); err != nil {
		s.respondError(w, err)
		return
	}

	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, users)
}

type userRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsActive *bool  `json:"is_active"`
	IsStaff  *bool  `json:"is_staff"`
}

// handleCreateUser is the admin path: it may mint staff or inactive
// accounts directly.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if err := library.Decide(actorFrom(r), library.OpUserCreate, 0); err != nil {
		s.respondError(w, err)
		return
	}

	var req userRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	user, err := s.newUser(req.Username, req.Email, req.Password)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsStaff != nil {
		user.IsStaff = *req.IsStaff
	}

	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := library.Decide(actorFrom(r), library.OpUserRead, id); err != nil {
		s.respondError(w, err)
		return
	}

	user, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, user)
}

// handleUpdateUser lets a user edit their own record and an admin edit
// anyone's. The role and active flags only move for staff callers.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := library.Decide(actor, library.OpUserUpdate, id); err != nil {
		s.respondError(w, err)
		return
	}

	var req userRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	user, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password, s.cfg.Auth.BcryptCost)
		if err != nil {
			s.respondError(w, err)
			return
		}
		user.PasswordHash = hash
	}
	if actor.IsStaff {
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if req.IsStaff != nil {
			user.IsStaff = *req.IsStaff
		}
	}

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := library.Decide(actorFrom(r), library.OpUserDelete, id); err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}
