package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gummama/quizhub/internal/domain"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	LeaderboardPayload struct {
		Entries []LeaderboardEntryView `json:"entries"`
	}
)

// PublishLeaderboardUpdated fans the fresh ranking out to every ranked
// user's notification channel.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	if a.redis == nil {
		return nil
	}

	data := LeaderboardPayload{
		Entries: make([]LeaderboardEntryView, 0, len(e.Leaderboard)),
	}
	for i, r := range e.Leaderboard {
		data.Entries = append(data.Entries, LeaderboardEntryView{
			Rank:         i + 1,
			UserName:     r.UserName,
			BestScore:    r.BestScore.StringFixed(2),
			AverageScore: r.AverageScore.StringFixed(2),
			Attempts:     r.Attempts,
		})
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, entry := range data.Entries {
		entry := entry
		eg.Go(func() error {
			return a.publishNotification(ctx, entry.UserName, e.Name(), data)
		})
	}

	return eg.Wait()
}

func (a *API) publishNotification(ctx context.Context, user, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:user:%s", a.prefix, user), b).Err()
}
