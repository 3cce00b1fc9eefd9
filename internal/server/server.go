package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/salmonumbrella/bookmarks-cli/internal/config"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

// Options configures the HTTP server.
type Options struct {
	Registry       *toc.Registry
	Backend        string
	APIKey         string
	MaxUploadBytes int64
	Logger         *logrus.Logger
}

// Server is the HTTP surface for bookmark extraction.
type Server struct {
	router chi.Router
	opts   Options
	log    *logrus.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	s := &Server{opts: opts, log: log}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.opts.APIKey != "" {
			r.Use(AuthMiddleware(s.opts.APIKey, s.log))
		}

		r.Post("/v1/bookmarks", s.handleBookmarks)
		r.Post("/v1/check", s.handleCheck)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"backends": s.opts.Registry.Names(),
	})
}
