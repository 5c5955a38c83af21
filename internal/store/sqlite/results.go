package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
)

func (s *Store) InsertResult(ctx context.Context, r domain.CompletedResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_scores (user_name, quiz_name, score, time_taken, total_quizzes, average_score, timestamp_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.UserName, r.QuizName, r.Score.InexactFloat64(), r.TimeTaken,
		r.TotalQuizzes, r.AverageScore.InexactFloat64(), r.Timestamp.UnixNano(),
	)
	if err != nil {
		return errors.Internal(fmt.Errorf("sqlite: insert result for %s: %w", r.UserName, err))
	}
	return nil
}

func (s *Store) ListResultsByUser(ctx context.Context, userName string) ([]domain.CompletedResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_name, quiz_name, score, time_taken, total_quizzes, average_score, timestamp_unix
		FROM user_scores
		WHERE user_name = ?
		ORDER BY timestamp_unix DESC, id DESC`,
		userName,
	)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("sqlite: list results for %s: %w", userName, err))
	}
	defer rows.Close()

	results := make([]domain.CompletedResult, 0)
	for rows.Next() {
		var (
			r         domain.CompletedResult
			score     float64
			avg       float64
			timestamp int64
		)
		if err := rows.Scan(&r.UserName, &r.QuizName, &score, &r.TimeTaken, &r.TotalQuizzes, &avg, &timestamp); err != nil {
			return nil, errors.Internal(fmt.Errorf("sqlite: scan result row: %w", err))
		}
		r.Score = decimal.NewFromFloat(score)
		r.AverageScore = decimal.NewFromFloat(avg)
		r.Timestamp = time.Unix(0, timestamp)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Internal(fmt.Errorf("sqlite: iterate results: %w", err))
	}
	return results, nil
}

func (s *Store) LeaderboardRows(ctx context.Context) ([]domain.LeaderboardRow, error) {
	// Ties on best score keep first-recorded-user-first ordering via MIN(id).
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_name, MAX(score) AS best_score, AVG(score) AS average_score, COUNT(*) AS attempts
		FROM user_scores
		GROUP BY user_name
		ORDER BY best_score DESC, MIN(id) ASC`,
	)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("sqlite: leaderboard rows: %w", err))
	}
	defer rows.Close()

	board := make([]domain.LeaderboardRow, 0)
	for rows.Next() {
		var (
			r    domain.LeaderboardRow
			best float64
			avg  float64
		)
		if err := rows.Scan(&r.UserName, &best, &avg, &r.Attempts); err != nil {
			return nil, errors.Internal(fmt.Errorf("sqlite: scan leaderboard row: %w", err))
		}
		r.BestScore = decimal.NewFromFloat(best)
		r.AverageScore = decimal.NewFromFloat(avg)
		board = append(board, r)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Internal(fmt.Errorf("sqlite: iterate leaderboard: %w", err))
	}
	return board, nil
}
