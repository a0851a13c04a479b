package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/readlogs/internal/processor"
	"github.com/MikeSquared-Agency/readlogs/internal/store"
)

// Archive is the read side of the transcript archive.
type Archive interface {
	GetTranscript(ctx context.Context, id uuid.UUID) (*store.TranscriptRow, error)
	ListTranscripts(ctx context.Context, limit int) ([]store.TranscriptRow, error)
}

type Server struct {
	router  *chi.Mux
	proc    *processor.Processor
	archive Archive
	logger  *slog.Logger
	http    *http.Server
}

// NewServer wires the HTTP API. archive may be nil, in which case the
// transcript listing routes answer 503 and only render-only posts succeed.
func NewServer(port int, apiToken string, proc *processor.Processor, archive Archive, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		proc:    proc,
		archive: archive,
		logger:  logger,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/readlogs/status", s.status)

	router.Route("/api/v1/transcripts", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/", s.renderTranscript)
		r.Get("/", s.listTranscripts)
		r.Get("/{id}", s.getTranscript)
	})

	return s
}

// Start blocks serving the API. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "readlogs",
		"archive": s.archive != nil && s.proc.Archiving(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
