package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
)

func (s *Store) InsertResult(ctx context.Context, r domain.CompletedResult) error {
	const stmt = `
INSERT INTO user_scores (user_name, quiz_name, score, time_taken, total_quizzes, average_score, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := s.db.Exec(ctx, stmt,
		r.UserName, r.QuizName, r.Score, r.TimeTaken, r.TotalQuizzes, r.AverageScore, r.Timestamp,
	)
	if err != nil {
		return errors.Internal(fmt.Errorf("postgres: insert result for %s: %w", r.UserName, err))
	}
	return nil
}

func (s *Store) ListResultsByUser(ctx context.Context, userName string) ([]domain.CompletedResult, error) {
	const stmt = `
SELECT user_name, quiz_name, score, time_taken, total_quizzes, average_score, create_time
FROM user_scores
WHERE user_name = $1
ORDER BY create_time DESC, id DESC;`

	rows, err := s.db.Query(ctx, stmt, userName)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("postgres: list results for %s: %w", userName, err))
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CompletedResult, error) {
		var r domain.CompletedResult
		err := row.Scan(&r.UserName, &r.QuizName, &r.Score, &r.TimeTaken, &r.TotalQuizzes, &r.AverageScore, &r.Timestamp)
		return r, err
	})
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("postgres: collect results: %w", err))
	}

	return results, nil
}

func (s *Store) LeaderboardRows(ctx context.Context) ([]domain.LeaderboardRow, error) {
	// Ties on best score keep first-recorded-user-first ordering via MIN(id).
	const stmt = `
SELECT user_name, MAX(score) AS best_score, AVG(score) AS average_score, COUNT(*) AS attempts
FROM user_scores
GROUP BY user_name
ORDER BY best_score DESC, MIN(id) ASC;`

	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("postgres: leaderboard rows: %w", err))
	}

	board, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LeaderboardRow, error) {
		var r domain.LeaderboardRow
		err := row.Scan(&r.UserName, &r.BestScore, &r.AverageScore, &r.Attempts)
		return r, err
	})
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("postgres: collect leaderboard: %w", err))
	}

	return board, nil
}
