package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
)

// start_time is stored as fractional epoch seconds, same contract as the
// sqlite backend, so a snapshot written by one backend reads identically
// from the other.
func toEpochSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

func fromEpochSeconds(f float64) time.Time {
	return time.UnixMicro(int64(math.Round(f * 1e6)))
}

func (s *Store) UpsertSnapshot(ctx context.Context, a domain.Attempt) error {
	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return fmt.Errorf("postgres: marshal questions: %w", err)
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("postgres: marshal answers: %w", err)
	}

	const stmt = `
INSERT INTO quiz_sessions (session_id, user_name, quiz_name, questions, user_answers, start_time, is_exam, submitted, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (session_id) DO UPDATE SET
	user_answers = EXCLUDED.user_answers,
	submitted    = EXCLUDED.submitted,
	updated_at   = EXCLUDED.updated_at;`

	_, err = s.db.Exec(ctx, stmt,
		a.SessionID, a.UserName, a.QuizName, questions, answers,
		toEpochSeconds(a.StartTime), a.IsExam, a.Submitted, time.Now(),
	)
	if err != nil {
		return errors.Internal(fmt.Errorf("postgres: upsert session %s: %w", a.SessionID, err))
	}
	return nil
}

func (s *Store) GetSnapshot(ctx context.Context, sessionID string) (domain.Attempt, error) {
	const stmt = `
SELECT session_id, user_name, quiz_name, questions, user_answers, start_time, is_exam, submitted
FROM quiz_sessions
WHERE session_id = $1;`

	var (
		a         domain.Attempt
		questions []byte
		answers   []byte
		startTime float64
	)
	err := s.db.QueryRow(ctx, stmt, sessionID).
		Scan(&a.SessionID, &a.UserName, &a.QuizName, &questions, &answers, &startTime, &a.IsExam, &a.Submitted)

	if err == pgx.ErrNoRows {
		return domain.Attempt{}, errors.NotFound("session %q not found", sessionID)
	}
	if err != nil {
		return domain.Attempt{}, errors.Internal(fmt.Errorf("postgres: get session %s: %w", sessionID, err))
	}

	if err := json.Unmarshal(questions, &a.Questions); err != nil {
		return domain.Attempt{}, errors.Internal(fmt.Errorf("postgres: unmarshal questions: %w", err))
	}
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return domain.Attempt{}, errors.Internal(fmt.Errorf("postgres: unmarshal answers: %w", err))
	}
	a.StartTime = fromEpochSeconds(startTime)

	return a, nil
}

func (s *Store) ListSnapshots(ctx context.Context) ([]domain.SessionSummary, error) {
	const stmt = `
SELECT session_id, user_name, quiz_name, user_answers, updated_at
FROM quiz_sessions
ORDER BY updated_at DESC;`

	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("postgres: list sessions: %w", err))
	}

	summaries, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.SessionSummary, error) {
		var (
			sum     domain.SessionSummary
			answers []byte
		)
		if err := r.Scan(&sum.SessionID, &sum.UserName, &sum.QuizName, &answers, &sum.SavedAt); err != nil {
			return domain.SessionSummary{}, err
		}

		var parsed []string
		if err := json.Unmarshal(answers, &parsed); err != nil {
			return domain.SessionSummary{}, fmt.Errorf("unmarshal answers for %s: %w", sum.SessionID, err)
		}
		sum.Total = len(parsed)
		for _, a := range parsed {
			if a != "" {
				sum.Answered++
			}
		}
		return sum, nil
	})
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("postgres: collect sessions: %w", err))
	}

	return summaries, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM quiz_sessions WHERE session_id = $1;`, sessionID); err != nil {
		return errors.Internal(fmt.Errorf("postgres: delete session %s: %w", sessionID, err))
	}
	return nil
}
