// Package leaderboard keeps a redis-backed ranking of users by best score.
// The results store remains the source of truth; redis provides the hot
// ordering and the throttle for update notifications.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/event"
)

const (
	publishInterval = 200 * time.Millisecond
)

// StatsSource provides the canonical per-user aggregates.
type StatsSource interface {
	Leaderboard(ctx context.Context) ([]domain.LeaderboardRow, error)
}

type Config struct {
	EventBus *event.Bus
	Results  StatsSource
	Redis    redis.UniversalClient
	Prefix   string
}

type Service struct {
	eb      *event.Bus
	results StatsSource
	redis   redis.UniversalClient
	prefix  string
}

func NewService(c Config) *Service {
	s := &Service{
		eb:      c.EventBus,
		results: c.Results,
		redis:   c.Redis,
		prefix:  c.Prefix,
	}

	if s.eb != nil {
		s.eb.Subscribe(domain.EventNameResultRecorded, func(ctx context.Context, e event.Event) error {
			return s.HandleResultRecorded(ctx, e.(domain.EventResultRecorded))
		})
	}

	return s
}

// GetLeaderboard returns every user's aggregate ranked by best score.
// Redis supplies the ordering when populated; users missing from the cache
// (e.g. results recorded before the cache existed) keep their store order
// at the tail.
func (s *Service) GetLeaderboard(ctx context.Context) ([]domain.LeaderboardRow, error) {
	rows, err := s.results.Leaderboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: load rows: %w", err)
	}

	if len(rows) == 0 {
		return []domain.LeaderboardRow{}, nil
	}

	ranked, err := s.redis.ZRevRangeWithScores(ctx, s.boardKey(), 0, -1).Result()
	if err != nil || len(ranked) == 0 {
		return rows, nil
	}

	byUser := make(map[string]domain.LeaderboardRow, len(rows))
	for _, r := range rows {
		byUser[r.UserName] = r
	}

	out := make([]domain.LeaderboardRow, 0, len(rows))
	for _, z := range ranked {
		if r, ok := byUser[z.Member.(string)]; ok {
			out = append(out, r)
			delete(byUser, r.UserName)
		}
	}
	for _, r := range rows {
		if _, ok := byUser[r.UserName]; ok {
			out = append(out, r)
		}
	}

	return out, nil
}

// HandleResultRecorded keeps the user's best-ever score in the sorted set.
func (s *Service) HandleResultRecorded(ctx context.Context, e domain.EventResultRecorded) error {
	r := e.Result

	if err := s.redis.ZAddGT(ctx, s.boardKey(), redis.Z{
		Score:  r.Score.InexactFloat64(),
		Member: r.UserName,
	}).Err(); err != nil {
		return fmt.Errorf("leaderboard: update ranking: %w", err)
	}

	return s.schedulePublish(ctx, r)
}

// schedulePublish publishes the refreshed leaderboard at most once per
// interval. A burst of submissions collapses into a single notification;
// the SETNX key doubles as the cross-instance election.
func (s *Service) schedulePublish(ctx context.Context, r domain.CompletedResult) error {
	ok, err := s.redis.SetNX(ctx, s.timeKey(), r.Timestamp.UnixMilli(), publishInterval).Result()
	if err != nil {
		return fmt.Errorf("leaderboard: setnx: %w", err)
	}

	if !ok {
		return nil
	}

	return s.publish(ctx)
}

func (s *Service) publish(ctx context.Context) error {
	rows, err := s.GetLeaderboard(ctx)
	if err != nil {
		return fmt.Errorf("leaderboard: refresh for publish: %w", err)
	}

	s.eb.Publish(ctx, domain.EventLeaderboardUpdated{Leaderboard: rows})
	return nil
}

func (s *Service) boardKey() string {
	return fmt.Sprintf("%s:leaderboard", s.prefix)
}

func (s *Service) timeKey() string {
	return fmt.Sprintf("%s:leaderboard:time", s.prefix)
}
