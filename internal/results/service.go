// Package results is the durable, append-only log of completed attempts and
// the derived per-user statistics and leaderboard views.
package results

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
	"github.com/gummama/quizhub/internal/event"
)

// Store persists completed-result rows. Rows are insert-only and never
// mutated; Leaderboard groups them by user with stable first-recorded
// ordering for ties.
type Store interface {
	InsertResult(ctx context.Context, r domain.CompletedResult) error
	ListResultsByUser(ctx context.Context, userName string) ([]domain.CompletedResult, error)
	LeaderboardRows(ctx context.Context) ([]domain.LeaderboardRow, error)
}

type Config struct {
	Store    Store
	EventBus *event.Bus
}

type Service struct {
	store Store
	eb    *event.Bus
}

func NewService(c Config) *Service {
	return &Service{
		store: c.Store,
		eb:    c.EventBus,
	}
}

// Record appends one completed attempt. Storage errors surface to the
// caller without retry. On success an EventResultRecorded fans out to the
// leaderboard cache and the achievement evaluator.
func (s *Service) Record(ctx context.Context, r domain.CompletedResult) error {
	if err := s.store.InsertResult(ctx, r); err != nil {
		return errors.Convert(err)
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventResultRecorded{Result: r})
	}
	return nil
}

// Query returns a user's completed attempts, most recent first.
func (s *Service) Query(ctx context.Context, userName string) ([]domain.CompletedResult, error) {
	rows, err := s.store.ListResultsByUser(ctx, userName)
	if err != nil {
		return nil, errors.Convert(err)
	}
	return rows, nil
}

// UserStats derives best/average/attempt-count from the user's rows on
// demand; nothing is precomputed or stored.
func (s *Service) UserStats(ctx context.Context, userName string) (domain.UserStats, error) {
	rows, err := s.store.ListResultsByUser(ctx, userName)
	if err != nil {
		return domain.UserStats{}, errors.Convert(err)
	}
	if len(rows) == 0 {
		return domain.UserStats{}, errors.NotFound("no results for user %q", userName)
	}

	best := rows[0].Score
	sum := decimal.Zero
	for _, r := range rows {
		if r.Score.GreaterThan(best) {
			best = r.Score
		}
		sum = sum.Add(r.Score)
	}

	return domain.UserStats{
		UserName:     userName,
		BestScore:    best,
		AverageScore: sum.Div(decimal.NewFromInt(int64(len(rows)))),
		Attempts:     len(rows),
	}, nil
}

// Leaderboard returns every user's aggregate, ranked by best score
// descending, ties broken by who recorded a result first.
func (s *Service) Leaderboard(ctx context.Context) ([]domain.LeaderboardRow, error) {
	rows, err := s.store.LeaderboardRows(ctx)
	if err != nil {
		return nil, errors.Convert(err)
	}
	return rows, nil
}
