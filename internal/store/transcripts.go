package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/readlogs/internal/transcript"
)

// TranscriptRow is an archived transcript. Body holds the rendered transcript
// including its legend; list queries leave it empty.
type TranscriptRow struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"`
	Peer1     string    `json:"peer1"`
	Peer2     string    `json:"peer2"`
	Project   string    `json:"project"`
	Body      string    `json:"body,omitempty"`
	Lines     int       `json:"lines"`
	Tables    int       `json:"tables"`
	Entries   int       `json:"entries"`
	Phases    int       `json:"phases"`
	CreatedAt time.Time `json:"created_at"`
}

// WriteTranscript archives a rendered transcript under a new id.
func (s *Store) WriteTranscript(ctx context.Context, source string, t *transcript.Transcript) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transcripts (id, source, peer1, peer2, project, body, lines, tables, entries, phases, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`,
		id, source, t.Aliases.Peers[0].ID, t.Aliases.Peers[1].ID, t.Aliases.Project.ID, t.String(),
		t.Stats.Lines, t.Stats.Tables, t.Stats.Entries, t.Stats.Phases,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert transcript: %w", err)
	}
	return id, nil
}

// GetTranscript fetches an archived transcript with its body.
func (s *Store) GetTranscript(ctx context.Context, id uuid.UUID) (*TranscriptRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, source, peer1, peer2, project, body, lines, tables, entries, phases, created_at
		FROM transcripts WHERE id = $1`, id)

	var t TranscriptRow
	err := row.Scan(&t.ID, &t.Source, &t.Peer1, &t.Peer2, &t.Project, &t.Body, &t.Lines, &t.Tables, &t.Entries, &t.Phases, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	return &t, nil
}

// ListTranscripts returns the most recent transcripts, newest first, without bodies.
func (s *Store) ListTranscripts(ctx context.Context, limit int) ([]TranscriptRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source, peer1, peer2, project, lines, tables, entries, phases, created_at
		FROM transcripts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	var out []TranscriptRow
	for rows.Next() {
		var t TranscriptRow
		if err := rows.Scan(&t.ID, &t.Source, &t.Peer1, &t.Peer2, &t.Project, &t.Lines, &t.Tables, &t.Entries, &t.Phases, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcripts: %w", err)
	}
	return out, nil
}
