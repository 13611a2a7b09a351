package api

import (
	"net/http"

	"library-api/internal/library"
)

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	// Borrow is always on the caller's own behalf.
	if err := library.Decide(actor, library.OpBorrow, actor.ID); err != nil {
		s.respondError(w, err)
		return
	}
	bookID, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	loan, err := s.loans.Borrow(r.Context(), actor.ID, bookID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, loan)
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if err := library.Decide(actor, library.OpReturn, actor.ID); err != nil {
		s.respondError(w, err)
		return
	}
	bookID, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	loan, err := s.loans.Return(r.Context(), actor.ID, bookID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, loan)
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if err := library.Decide(actor, library.OpLoanList, 0); err != nil {
		s.respondError(w, err)
		return
	}

	loans, err := s.loans.ListFor(r.Context(), actor)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, loans)
}
