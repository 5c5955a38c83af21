package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
)

func (s *Store) InsertAchievement(ctx context.Context, a domain.Achievement) (bool, error) {
	const stmt = `
INSERT INTO achievements (user_name, achievement_name, description, earned_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_name, achievement_name) DO NOTHING;`

	tag, err := s.db.Exec(ctx, stmt, a.UserName, a.Name, a.Description, a.EarnedAt)
	if err != nil {
		return false, errors.Internal(fmt.Errorf("postgres: insert achievement %s/%s: %w", a.UserName, a.Name, err))
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListAchievementsByUser(ctx context.Context, userName string) ([]domain.Achievement, error) {
	// Most recent first, matching the sqlite backend.
	const stmt = `
SELECT user_name, achievement_name, description, earned_at
FROM achievements
WHERE user_name = $1
ORDER BY earned_at DESC;`

	rows, err := s.db.Query(ctx, stmt, userName)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("postgres: list achievements for %s: %w", userName, err))
	}

	achievements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Achievement, error) {
		var a domain.Achievement
		err := row.Scan(&a.UserName, &a.Name, &a.Description, &a.EarnedAt)
		return a, err
	})
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("postgres: collect achievements: %w", err))
	}

	return achievements, nil
}
