// Package sqlite is the embedded storage backend. A single file (or
// ":memory:") holds session snapshots, completed results and achievements;
// writes are serialized through one connection.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gummama/quizhub/internal/achievement"
	"github.com/gummama/quizhub/internal/results"
	"github.com/gummama/quizhub/internal/session"
)

type Store struct {
	db *sql.DB
}

var (
	_ session.Store     = (*Store)(nil)
	_ results.Store     = (*Store)(nil)
	_ achievement.Store = (*Store)(nil)
)

// Open opens (and creates if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "quizhub.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// One writer at a time keeps SQLite's locking honest under concurrent
	// HTTP requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quiz_sessions (
			session_id TEXT PRIMARY KEY,
			user_name TEXT NOT NULL,
			quiz_name TEXT NOT NULL,
			questions TEXT NOT NULL,
			user_answers TEXT NOT NULL,
			start_time REAL NOT NULL,
			is_exam INTEGER NOT NULL,
			submitted INTEGER NOT NULL DEFAULT 0,
			updated_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_name TEXT NOT NULL,
			quiz_name TEXT NOT NULL,
			score REAL NOT NULL,
			time_taken REAL NOT NULL,
			total_quizzes INTEGER NOT NULL,
			average_score REAL NOT NULL,
			timestamp_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			user_name TEXT NOT NULL,
			achievement_name TEXT NOT NULL,
			achievement_description TEXT NOT NULL,
			earned_at_unix INTEGER NOT NULL,
			PRIMARY KEY (user_name, achievement_name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_sessions_updated_at ON quiz_sessions(updated_at_unix DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_user_scores_user ON user_scores(user_name, timestamp_unix DESC);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
