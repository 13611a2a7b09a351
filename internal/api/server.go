// Package api exposes the library over HTTP. Each request flows through
// an explicit pipeline: authenticate (middleware) → authorize
// (library.Decide in the handler) → execute (service call) → serialize
// (respond/respondError).
package api

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"library-api/internal/auth"
	"library-api/internal/config"
	"library-api/internal/library"
)

// Server wires the services and token issuer behind a router.
type Server struct {
	cfg     *config.Config
	store   *library.Store
	catalog *library.CatalogService
	loans   *library.LoanService
	issuer  *auth.TokenIssuer
	logger  *log.Logger
}

// NewServer builds a Server over an open store.
func NewServer(cfg *config.Config, store *library.Store, issuer *auth.TokenIssuer, logger *log.Logger) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		catalog: library.NewCatalogService(store),
		loans:   library.NewLoanService(store),
		issuer:  issuer,
		logger:  logger,
	}
}

// Handler returns the fully wired HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requestID, s.logRequests)

	// Unauthenticated endpoints.
	api.HandleFunc("/token", s.handleToken).Methods(http.MethodPost)
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	// Everything else requires a valid bearer token.
	authed := api.NewRoute().Subrouter()
	authed.Use(s.authenticate)

	authed.HandleFunc("/books", s.handleListBooks).Methods(http.MethodGet)
	authed.HandleFunc("/books", s.handleCreateBook).Methods(http.MethodPost)
	authed.HandleFunc("/books/available", s.handleAvailableBooks).Methods(http.MethodGet)
	authed.HandleFunc("/books/{id:[0-9]+}", s.handleGetBook).Methods(http.MethodGet)
	authed.HandleFunc("/books/{id:[0-9]+}", s.handleUpdateBook).Methods(http.MethodPut)
	authed.HandleFunc("/books/{id:[0-9]+}", s.handlePatchBook).Methods(http.MethodPatch)
	authed.HandleFunc("/books/{id:[0-9]+}", s.handleDeleteBook).Methods(http.MethodDelete)
	authed.HandleFunc("/books/{id:[0-9]+}/borrow", s.handleBorrow).Methods(http.MethodPost)
	authed.HandleFunc("/books/{id:[0-9]+}/return", s.handleReturn).Methods(http.MethodPost)

	authed.HandleFunc("/loans", s.handleListLoans).Methods(http.MethodGet)

	authed.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	authed.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	authed.HandleFunc("/users/{id:[0-9]+}", s.handleGetUser).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id:[0-9]+}", s.handleUpdateUser).Methods(http.MethodPut)
	authed.HandleFunc("/users/{id:[0-9]+}", s.handleDeleteUser).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
