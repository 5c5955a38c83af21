package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
)

func (s *Store) InsertAchievement(ctx context.Context, a domain.Achievement) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO achievements (user_name, achievement_name, achievement_description, earned_at_unix)
		VALUES (?, ?, ?, ?)`,
		a.UserName, a.Name, a.Description, a.EarnedAt.UnixNano(),
	)
	if err != nil {
		return false, errors.Internal(fmt.Errorf("sqlite: insert achievement %q for %s: %w", a.Name, a.UserName, err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Internal(fmt.Errorf("sqlite: rows affected: %w", err))
	}
	return n > 0, nil
}

func (s *Store) ListAchievementsByUser(ctx context.Context, userName string) ([]domain.Achievement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_name, achievement_name, achievement_description, earned_at_unix
		FROM achievements
		WHERE user_name = ?
		ORDER BY earned_at_unix DESC`,
		userName,
	)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("sqlite: list achievements for %s: %w", userName, err))
	}
	defer rows.Close()

	out := make([]domain.Achievement, 0)
	for rows.Next() {
		var (
			a        domain.Achievement
			earnedAt int64
		)
		if err := rows.Scan(&a.UserName, &a.Name, &a.Description, &earnedAt); err != nil {
			return nil, errors.Internal(fmt.Errorf("sqlite: scan achievement row: %w", err))
		}
		a.EarnedAt = time.Unix(0, earnedAt)
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Internal(fmt.Errorf("sqlite: iterate achievements: %w", err))
	}
	return out, nil
}
