package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
)

// Snapshots store start_time as fractional epoch seconds. Round-tripping
// through microseconds keeps elapsed-time math stable.
func toEpochSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

func fromEpochSeconds(f float64) time.Time {
	return time.UnixMicro(int64(math.Round(f * 1e6)))
}

func (s *Store) UpsertSnapshot(ctx context.Context, a domain.Attempt) error {
	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return fmt.Errorf("sqlite: marshal questions: %w", err)
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("sqlite: marshal answers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO quiz_sessions
			(session_id, user_name, quiz_name, questions, user_answers, start_time, is_exam, submitted, updated_at_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SessionID, a.UserName, a.QuizName, string(questions), string(answers),
		toEpochSeconds(a.StartTime), a.IsExam, a.Submitted, time.Now().UnixNano(),
	)
	if err != nil {
		return errors.Internal(fmt.Errorf("sqlite: upsert session %s: %w", a.SessionID, err))
	}
	return nil
}

func (s *Store) GetSnapshot(ctx context.Context, sessionID string) (domain.Attempt, error) {
	var (
		a         domain.Attempt
		questions string
		answers   string
		startTime float64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, user_name, quiz_name, questions, user_answers, start_time, is_exam, submitted
		FROM quiz_sessions
		WHERE session_id = ?`,
		sessionID,
	).Scan(&a.SessionID, &a.UserName, &a.QuizName, &questions, &answers, &startTime, &a.IsExam, &a.Submitted)

	if err == sql.ErrNoRows {
		return domain.Attempt{}, errors.NotFound("session %q not found", sessionID)
	}
	if err != nil {
		return domain.Attempt{}, errors.Internal(fmt.Errorf("sqlite: get session %s: %w", sessionID, err))
	}

	if err := json.Unmarshal([]byte(questions), &a.Questions); err != nil {
		return domain.Attempt{}, errors.Internal(fmt.Errorf("sqlite: unmarshal questions: %w", err))
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return domain.Attempt{}, errors.Internal(fmt.Errorf("sqlite: unmarshal answers: %w", err))
	}
	a.StartTime = fromEpochSeconds(startTime)

	return a, nil
}

func (s *Store) ListSnapshots(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, user_name, quiz_name, user_answers, updated_at_unix
		FROM quiz_sessions
		ORDER BY updated_at_unix DESC`,
	)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("sqlite: list sessions: %w", err))
	}
	defer rows.Close()

	summaries := make([]domain.SessionSummary, 0)
	for rows.Next() {
		var (
			sum       domain.SessionSummary
			answers   string
			updatedAt int64
		)
		if err := rows.Scan(&sum.SessionID, &sum.UserName, &sum.QuizName, &answers, &updatedAt); err != nil {
			return nil, errors.Internal(fmt.Errorf("sqlite: scan session row: %w", err))
		}

		var parsed []string
		if err := json.Unmarshal([]byte(answers), &parsed); err != nil {
			return nil, errors.Internal(fmt.Errorf("sqlite: unmarshal answers for %s: %w", sum.SessionID, err))
		}
		sum.Total = len(parsed)
		for _, a := range parsed {
			if a != "" {
				sum.Answered++
			}
		}
		sum.SavedAt = time.Unix(0, updatedAt)

		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Internal(fmt.Errorf("sqlite: iterate sessions: %w", err))
	}
	return summaries, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM quiz_sessions WHERE session_id = ?`, sessionID); err != nil {
		return errors.Internal(fmt.Errorf("sqlite: delete session %s: %w", sessionID, err))
	}
	return nil
}
