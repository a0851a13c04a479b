package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/readlogs/internal/capture"
	"github.com/MikeSquared-Agency/readlogs/internal/store"
	"github.com/MikeSquared-Agency/readlogs/internal/transcript"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	defaultSource    = "api"
)

// RenderResponse is returned by POST /api/v1/transcripts?archive=true.
type RenderResponse struct {
	ID         string           `json:"id"`
	Source     string           `json:"source"`
	Transcript string           `json:"transcript"`
	Stats      transcript.Stats `json:"stats"`
}

// renderTranscript handles POST /api/v1/transcripts. The request body is the
// raw log.
func (s *Server) renderTranscript(w http.ResponseWriter, r *http.Request) {
	raw, err := capture.Read(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("read log: %v", err))
		return
	}

	archive, _ := strconv.ParseBool(r.URL.Query().Get("archive"))
	if !archive {
		t, err := transcript.Build(raw)
		if err != nil {
			s.renderFailed(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, t.String())
		return
	}

	if !s.proc.Archiving() {
		writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = defaultSource
	}

	res, err := s.proc.Process(r.Context(), source, raw)
	if err != nil {
		s.renderFailed(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, RenderResponse{
		ID:         res.ID.String(),
		Source:     source,
		Transcript: res.Transcript.String(),
		Stats:      res.Transcript.Stats,
	})
}

func (s *Server) renderFailed(w http.ResponseWriter, err error) {
	if transcript.IsFormatError(err) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.logger.Error("render transcript", "error", err)
	writeError(w, http.StatusInternalServerError, "render failed")
}

// listTranscripts handles GET /api/v1/transcripts.
func (s *Server) listTranscripts(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	rows, err := s.archive.ListTranscripts(r.Context(), limit)
	if err != nil {
		s.logger.Error("list transcripts", "error", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if rows == nil {
		rows = []store.TranscriptRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transcripts": rows,
		"count":       len(rows),
	})
}

// getTranscript handles GET /api/v1/transcripts/{id}.
func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transcript id")
		return
	}

	row, err := s.archive.GetTranscript(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transcript not found")
		return
	}
	if err != nil {
		s.logger.Error("get transcript", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get failed")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// BearerAuthMiddleware rejects requests without the configured bearer token.
// An empty token disables the check.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
