// Package postgres is the pgx-backed storage backend. It implements the
// same store interfaces as the sqlite backend; the server picks one at
// startup based on configuration.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gummama/quizhub/internal/achievement"
	"github.com/gummama/quizhub/internal/results"
	"github.com/gummama/quizhub/internal/session"
)

type Store struct {
	db *pgxpool.Pool
}

var (
	_ session.Store     = (*Store)(nil)
	_ results.Store     = (*Store)(nil)
	_ achievement.Store = (*Store)(nil)
)

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Connect builds a pool and verifies the connection.
func Connect(ctx context.Context, addr, user, pass, name string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", user, pass, addr, name))
	if err != nil {
		return nil, err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (s *Store) Close() {
	s.db.Close()
}

// Migrate applies the schema. Statements are idempotent, so running it on
// every deploy is safe.
func (s *Store) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS quiz_sessions (
	session_id   TEXT PRIMARY KEY,
	user_name    TEXT NOT NULL,
	quiz_name    TEXT NOT NULL,
	questions    JSONB NOT NULL,
	user_answers JSONB NOT NULL,
	start_time   DOUBLE PRECISION NOT NULL,
	is_exam      BOOLEAN NOT NULL DEFAULT FALSE,
	submitted    BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_scores (
	id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	user_name     TEXT NOT NULL,
	quiz_name     TEXT NOT NULL,
	score         NUMERIC NOT NULL,
	time_taken    DOUBLE PRECISION NOT NULL,
	total_quizzes INTEGER NOT NULL,
	average_score NUMERIC NOT NULL,
	create_time   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS achievements (
	user_name        TEXT NOT NULL,
	achievement_name TEXT NOT NULL,
	description      TEXT NOT NULL,
	earned_at        TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_name, achievement_name)
);

CREATE INDEX IF NOT EXISTS idx_user_scores_user ON user_scores (user_name, create_time DESC);
CREATE INDEX IF NOT EXISTS idx_quiz_sessions_updated ON quiz_sessions (updated_at DESC);
`

	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}
