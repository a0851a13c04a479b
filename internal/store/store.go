package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a transcript id has no row.
var ErrNotFound = errors.New("transcript not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id         uuid PRIMARY KEY,
	source     text NOT NULL,
	peer1      text NOT NULL,
	peer2      text NOT NULL,
	project    text NOT NULL,
	body       text NOT NULL,
	lines      integer NOT NULL,
	tables     integer NOT NULL,
	entries    integer NOT NULL,
	phases     integer NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS transcripts_created_at_idx ON transcripts (created_at DESC);
CREATE INDEX IF NOT EXISTS transcripts_project_idx ON transcripts (project);`

// EnsureSchema creates the transcripts table and its indexes if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
