package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"library-api/internal/library"
)

// pathID extracts the numeric {id} route variable.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, library.ErrNotFound
	}
	return id, nil
}

const dateLayout = "2006-01-02"

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &library.ValidationError{Field: "published_date", Reason: "must be a YYYY-MM-DD date"}
	}
	return t, nil
}

type bookRequest struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	PublishedDate   string `json:"published_date"`
	CopiesAvailable *int   `json:"copies_available"`
}

// toBook builds a Book from the request, filling defaults the way the
// catalog expects: one copy, published today.
func (req *bookRequest) toBook() (*library.Book, error) {
	b := &library.Book{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		PublishedDate:   time.Now().UTC().Truncate(24 * time.Hour),
		CopiesAvailable: 1,
	}
	if req.PublishedDate != "" {
		date, err := parseDate(req.PublishedDate)
		if err != nil {
			return nil, err
		}
		b.PublishedDate = date
	}
	if req.CopiesAvailable != nil {
		b.CopiesAvailable = *req.CopiesAvailable
	}
	return b, nil
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	if err := library.Decide(actorFrom(r), library.OpBookRead, 0); err != nil {
		s.respondError(w, err)
		return
	}

	q := r.URL.Query()
	books, err := s.catalog.List(r.Context(), library.BookFilter{
		Title:  q.Get("title"),
		Author: q.Get("author"),
		ISBN:   q.Get("isbn"),
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, books)
}

func (s *Server) handleAvailableBooks(w http.ResponseWriter, r *http.Request) {
	if err := library.Decide(actorFrom(r), library.OpBookRead, 0); err != nil {
		s.respondError(w, err)
		return
	}

	books, err := s.catalog.ListAvailable(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, books)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	if err := library.Decide(actorFrom(r), library.OpBookRead, 0); err != nil {
		s.respondError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	book, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, book)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	if err := library.Decide(actorFrom(r), library.OpBookWrite, 0); err != nil {
		s.respondError(w, err)
		return
	}

	var req bookRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	book, err := req.toBook()
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.catalog.Create(r.Context(), book); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, book)
}

// handleUpdateBook is the PUT path: every field is replaced.
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	if err := library.Decide(actorFrom(r), library.OpBookWrite, 0); err != nil {
		s.respondError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	var req bookRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	book, err := req.toBook()
	if err != nil {
		s.respondError(w, err)
		return
	}
	book.ID = id
	if err := s.catalog.Update(r.Context(), book); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, book)
}

type bookPatch struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	ISBN            *string `json:"isbn"`
	PublishedDate   *string `json:"published_date"`
	CopiesAvailable *int    `json:"copies_available"`
}

// handlePatchBook applies only the fields present in the body. Setting
// copies_available here is the administrative override; the field is
// otherwise owned by the loan transactions.
func (s *Server) handlePatchBook(w http.ResponseWriter, r *http.Request) {
	if err := library.Decide(actorFrom(r), library.OpBookWrite, 0); err != nil {
		s.respondError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	var patch bookPatch
	if err := decode(r, &patch); err != nil {
		s.respondError(w, err)
		return
	}

	book, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		book.Author = *patch.Author
	}
	if patch.ISBN != nil {
		book.ISBN = *patch.ISBN
	}
	if patch.PublishedDate != nil {
		date, err := parseDate(*patch.PublishedDate)
		if err != nil {
			s.respondError(w, err)
			return
		}
		book.PublishedDate = date
	}
	if patch.CopiesAvailable != nil {
		book.CopiesAvailable = *patch.CopiesAvailable
	}

	if err := s.catalog.Update(r.Context(), book); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, book)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := library.Decide(actorFrom(r), library.OpBookWrite, 0); err != nil {
		s.respondError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}
