package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
	"github.com/gummama/quizhub/internal/session"
)

// memStore is an in-memory Store that counts writes, so tests can assert
// that redundant snapshots are skipped.
type memStore struct {
	snapshots map[string]domain.Attempt
	upserts   int
}

func newMemStore() *memStore {
	return &memStore{snapshots: make(map[string]domain.Attempt)}
}

func (m *memStore) UpsertSnapshot(_ context.Context, a domain.Attempt) error {
	cp := a
	cp.Answers = append([]string(nil), a.Answers...)
	cp.Questions = append([]domain.Question(nil), a.Questions...)
	m.snapshots[a.SessionID] = cp
	m.upserts++
	return nil
}

func (m *memStore) GetSnapshot(_ context.Context, id string) (domain.Attempt, error) {
	a, ok := m.snapshots[id]
	if !ok {
		return domain.Attempt{}, errors.NotFound("session %q not found", id)
	}
	return a, nil
}

func (m *memStore) ListSnapshots(_ context.Context) ([]domain.SessionSummary, error) {
	out := make([]domain.SessionSummary, 0, len(m.snapshots))
	for _, a := range m.snapshots {
		out = append(out, domain.SessionSummary{
			SessionID: a.SessionID,
			UserName:  a.UserName,
			QuizName:  a.QuizName,
			Answered:  a.Answered(),
			Total:     len(a.Answers),
		})
	}
	return out, nil
}

func (m *memStore) DeleteSnapshot(_ context.Context, id string) error {
	delete(m.snapshots, id)
	return nil
}

func questions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			Prompt:        "q",
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
		}
	}
	return qs
}

func makeService(store session.Store) *session.Service {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return session.NewService(session.Config{
		Store: store,
		Now:   func() time.Time { return start },
	})
}

func TestService_Start(t *testing.T) {
	store := newMemStore()
	s := makeService(store)

	a, err := s.Start(context.Background(), session.StartRequest{
		UserName:  "alice",
		QuizName:  "networking",
		Questions: questions(3),
	})
	require.NoError(t, err)
	require.NotEmpty(t, a.SessionID)
	require.Equal(t, []string{"", "", ""}, a.Answers)
	require.False(t, a.Submitted)
	require.Equal(t, 1, store.upserts, "starting should persist the initial snapshot")

	// A second attempt gets a distinct session ID.
	b, err := s.Start(context.Background(), session.StartRequest{
		UserName:  "alice",
		QuizName:  "networking",
		Questions: questions(3),
	})
	require.NoError(t, err)
	require.NotEqual(t, a.SessionID, b.SessionID)
}

func TestService_StartValidation(t *testing.T) {
	s := makeService(newMemStore())

	_, err := s.Start(context.Background(), session.StartRequest{QuizName: "q", Questions: questions(1)})
	require.True(t, errors.Is(err, errors.CodeInvalidArgument))

	_, err = s.Start(context.Background(), session.StartRequest{UserName: "alice", QuizName: "q"})
	require.True(t, errors.Is(err, errors.CodeInvalidArgument))
}

func TestService_AnswerResumeRoundTrip(t *testing.T) {
	store := newMemStore()
	s := makeService(store)

	a, err := s.Start(context.Background(), session.StartRequest{
		UserName:  "alice",
		QuizName:  "networking",
		Questions: questions(3),
	})
	require.NoError(t, err)

	require.NoError(t, s.Answer(context.Background(), a, 0, "b"))
	require.NoError(t, s.Answer(context.Background(), a, 2, "a"))

	resumed, err := s.Resume(context.Background(), a.SessionID)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "", "a"}, resumed.Answers, "resumed answers must equal the last snapshot")
	require.Equal(t, a.StartTime, resumed.StartTime, "resume must preserve the original start time")
	require.False(t, resumed.Submitted)
}

func TestService_AnswerSkipsRedundantWrites(t *testing.T) {
	store := newMemStore()
	s := makeService(store)

	a, err := s.Start(context.Background(), session.StartRequest{
		UserName:  "alice",
		QuizName:  "networking",
		Questions: questions(2),
	})
	require.NoError(t, err)
	writes := store.upserts

	require.NoError(t, s.Answer(context.Background(), a, 0, "b"))
	require.Equal(t, writes+1, store.upserts)

	// Same value again: no snapshot write.
	require.NoError(t, s.Answer(context.Background(), a, 0, "b"))
	require.Equal(t, writes+1, store.upserts)

	// Changing the answer writes again.
	require.NoError(t, s.Answer(context.Background(), a, 0, "a"))
	require.Equal(t, writes+2, store.upserts)
}

func TestService_AnswerErrors(t *testing.T) {
	s := makeService(newMemStore())

	a, err := s.Start(context.Background(), session.StartRequest{
		UserName:  "alice",
		QuizName:  "networking",
		Questions: questions(2),
	})
	require.NoError(t, err)

	err = s.Answer(context.Background(), a, -1, "a")
	require.True(t, errors.Is(err, errors.CodeOutOfRange))

	err = s.Answer(context.Background(), a, 2, "a")
	require.True(t, errors.Is(err, errors.CodeOutOfRange))

	require.NoError(t, s.Answer(context.Background(), a, 0, "a"))
	require.NoError(t, s.Answer(context.Background(), a, 1, "a"))
	require.NoError(t, s.Submit(context.Background(), a))

	err = s.Answer(context.Background(), a, 0, "b")
	require.True(t, errors.Is(err, errors.CodeFailedPrecondition))
}

func TestService_Submit(t *testing.T) {
	store := newMemStore()
	s := makeService(store)

	a, err := s.Start(context.Background(), session.StartRequest{
		UserName:  "alice",
		QuizName:  "networking",
		Questions: questions(2),
	})
	require.NoError(t, err)

	err = s.Submit(context.Background(), a)
	require.True(t, errors.Is(err, errors.CodeFailedPrecondition), "unanswered questions must block submission")
	require.False(t, a.Submitted)

	require.NoError(t, s.Answer(context.Background(), a, 0, "a"))
	require.NoError(t, s.Answer(context.Background(), a, 1, "b"))
	require.NoError(t, s.Submit(context.Background(), a))
	require.True(t, a.Submitted)

	// Submitted flag survives the snapshot round trip.
	resumed, err := s.Resume(context.Background(), a.SessionID)
	require.NoError(t, err)
	require.True(t, resumed.Submitted)

	// Re-submitting is a no-op, not an error, and writes nothing.
	writes := store.upserts
	require.NoError(t, s.Submit(context.Background(), a))
	require.Equal(t, writes, store.upserts)
}

func TestService_ResumeUnknownSession(t *testing.T) {
	s := makeService(newMemStore())

	_, err := s.Resume(context.Background(), "nope")
	require.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestService_ListAndAbandon(t *testing.T) {
	store := newMemStore()
	s := makeService(store)

	a, err := s.Start(context.Background(), session.StartRequest{
		UserName:  "alice",
		QuizName:  "networking",
		Questions: questions(2),
	})
	require.NoError(t, err)
	require.NoError(t, s.Answer(context.Background(), a, 0, "a"))

	summaries, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, 1, summaries[0].Answered)
	require.Equal(t, 2, summaries[0].Total)

	require.NoError(t, s.Abandon(context.Background(), a.SessionID))
	_, err = s.Resume(context.Background(), a.SessionID)
	require.True(t, errors.Is(err, errors.CodeNotFound))
}
