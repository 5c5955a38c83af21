package results_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
	"github.com/gummama/quizhub/internal/event"
	"github.com/gummama/quizhub/internal/results"
	"github.com/gummama/quizhub/internal/store/sqlite"
)

func newService(t *testing.T, eb *event.Bus) *results.Service {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return results.NewService(results.Config{
		Store:    store,
		EventBus: eb,
	})
}

func completed(user, quiz string, score float64, at time.Time) domain.CompletedResult {
	return domain.CompletedResult{
		UserName:     user,
		QuizName:     quiz,
		Score:        decimal.NewFromFloat(score),
		TimeTaken:    30,
		TotalQuizzes: 1,
		AverageScore: decimal.NewFromFloat(score),
		Timestamp:    at,
	}
}

func TestService_RecordPublishesEvent(t *testing.T) {
	eb := event.NewBus()
	defer eb.Stop()

	var (
		mu   sync.Mutex
		seen []domain.CompletedResult
	)
	eb.Subscribe(domain.EventNameResultRecorded, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.(domain.EventResultRecorded).Result)
		return nil
	})

	svc := newService(t, eb)
	r := completed("alice", "networking", 85, time.Now())
	require.NoError(t, svc.Record(context.Background(), r))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	require.Equal(t, "alice", seen[0].UserName)
	require.True(t, seen[0].Score.Equal(decimal.NewFromInt(85)))
	mu.Unlock()
}

func TestService_QueryMostRecentFirst(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Record(ctx, completed("alice", "networking", 70, base)))
	require.NoError(t, svc.Record(ctx, completed("alice", "storage", 90, base.Add(time.Hour))))

	rows, err := svc.Query(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "storage", rows[0].QuizName)
	require.Equal(t, "networking", rows[1].QuizName)
}

func TestService_UserStats(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Record(ctx, completed("alice", "q1", 60, base)))
	require.NoError(t, svc.Record(ctx, completed("alice", "q2", 100, base.Add(time.Minute))))

	stats, err := svc.UserStats(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", stats.UserName)
	require.True(t, stats.BestScore.Equal(decimal.NewFromInt(100)))
	require.True(t, stats.AverageScore.Equal(decimal.NewFromInt(80)))
	require.Equal(t, 2, stats.Attempts)
}

func TestService_UserStatsUnknownUser(t *testing.T) {
	svc := newService(t, nil)

	_, err := svc.UserStats(context.Background(), "nobody")
	require.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestService_Leaderboard(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Record(ctx, completed("A", "q1", 70, base)))
	require.NoError(t, svc.Record(ctx, completed("B", "q1", 85, base.Add(time.Minute))))
	require.NoError(t, svc.Record(ctx, completed("A", "q2", 90, base.Add(2*time.Minute))))

	board, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	require.Equal(t, "A", board[0].UserName)
	require.Equal(t, "B", board[1].UserName)
	require.True(t, board[0].BestScore.Equal(decimal.NewFromInt(90)))
}
