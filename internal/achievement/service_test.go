package achievement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gummama/quizhub/internal/achievement"
	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/event"
)

const examName = "50-Question Exam"

func names(as []domain.Achievement) []string {
	var out []string
	for _, a := range as {
		out = append(out, a.Name)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	earnedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		percent  string
		quizName string
		want     []string
	}{
		"95 on a regular quiz":      {percent: "95", quizName: "Quiz1", want: []string{achievement.NamePerfectScore}},
		"exactly 90":                {percent: "90", quizName: "Quiz1", want: []string{achievement.NamePerfectScore}},
		"85 earns great, not both":  {percent: "85", quizName: "Quiz1", want: []string{achievement.NameGreatPerformance}},
		"exactly 80":                {percent: "80", quizName: "Quiz1", want: []string{achievement.NameGreatPerformance}},
		"79.9 earns nothing":        {percent: "79.9", quizName: "Quiz1", want: nil},
		"95 on the exam":            {percent: "95", quizName: examName, want: []string{achievement.NamePerfectScore, achievement.NameExamMaster}},
		"low score on the exam":     {percent: "40", quizName: examName, want: []string{achievement.NameExamMaster}},
		"great score on the exam":   {percent: "82", quizName: examName, want: []string{achievement.NameGreatPerformance, achievement.NameExamMaster}},
		"zero on an ordinary quiz":  {percent: "0", quizName: "Quiz1", want: nil},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			got := achievement.Evaluate("alice", decimal.RequireFromString(tt.percent), tt.quizName, examName, earnedAt)
			require.Equal(t, tt.want, names(got))
			for _, a := range got {
				require.Equal(t, "alice", a.UserName)
				require.Equal(t, earnedAt, a.EarnedAt)
			}
		})
	}
}

func TestEvaluate_IsPure(t *testing.T) {
	earnedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := decimal.NewFromInt(95)

	first := achievement.Evaluate("alice", p, "Quiz1", examName, earnedAt)
	second := achievement.Evaluate("alice", p, "Quiz1", examName, earnedAt)
	require.Equal(t, first, second)
}

// memStore implements insert-ignore achievement persistence in memory.
type memStore struct {
	rows map[string]domain.Achievement
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]domain.Achievement)}
}

func (m *memStore) InsertAchievement(_ context.Context, a domain.Achievement) (bool, error) {
	key := a.UserName + "|" + a.Name
	if _, ok := m.rows[key]; ok {
		return false, nil
	}
	m.rows[key] = a
	return true, nil
}

func (m *memStore) ListAchievementsByUser(_ context.Context, userName string) ([]domain.Achievement, error) {
	var out []domain.Achievement
	for _, a := range m.rows {
		if a.UserName == userName {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestService_PersistIsIdempotent(t *testing.T) {
	store := newMemStore()
	s := achievement.NewService(achievement.Config{Store: store, ExamName: examName})

	earned := achievement.Evaluate("alice", decimal.NewFromInt(95), "Quiz1", examName, time.Now())
	require.NoError(t, s.Persist(context.Background(), earned))
	require.NoError(t, s.Persist(context.Background(), earned))

	rows, err := s.ListByUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1, "persisting the same achievement twice keeps exactly one row")
}

func TestService_NewlyEarnedExcludesHeldBadges(t *testing.T) {
	store := newMemStore()
	s := achievement.NewService(achievement.Config{Store: store, ExamName: examName})
	ctx := context.Background()
	p := decimal.NewFromInt(95)

	first, err := s.NewlyEarned(ctx, "alice", p, "Quiz1")
	require.NoError(t, err)
	require.Equal(t, []string{achievement.NamePerfectScore}, names(first))

	require.NoError(t, s.Persist(ctx, first))

	// A second qualifying submission earns nothing new.
	second, err := s.NewlyEarned(ctx, "alice", p, "Quiz2")
	require.NoError(t, err)
	require.Empty(t, second)

	// The exam badge is still new even though the score badge is held.
	exam, err := s.NewlyEarned(ctx, "alice", p, examName)
	require.NoError(t, err)
	require.Equal(t, []string{achievement.NameExamMaster}, names(exam))
}

func TestService_HandlesResultEvents(t *testing.T) {
	store := newMemStore()
	eb := event.NewBus()

	var (
		mu           sync.Mutex
		earnedEvents []domain.EventAchievementEarned
	)
	eb.Subscribe(domain.EventNameAchievementEarned, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		earnedEvents = append(earnedEvents, e.(domain.EventAchievementEarned))
		mu.Unlock()
		return nil
	})

	achievement.NewService(achievement.Config{Store: store, EventBus: eb, ExamName: examName})

	eb.Publish(context.Background(), domain.EventResultRecorded{
		Result: domain.CompletedResult{
			UserName: "bob",
			QuizName: examName,
			Score:    decimal.NewFromInt(92),
		},
	})
	eb.Stop()

	rows, err := store.ListAchievementsByUser(context.Background(), "bob")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{achievement.NamePerfectScore, achievement.NameExamMaster}, names(rows))
	require.Len(t, earnedEvents, 2, "each new badge should publish one earned event")
}
