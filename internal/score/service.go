// Package score computes per-attempt results and keeps the per-process
// cumulative aggregate across quizzes.
package score

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gummama/quizhub/internal/domain"
)

var hundred = decimal.NewFromInt(100)

type Config struct {
	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// Service scores attempts and aggregates the latest percent per quiz,
// tracked separately for each user. The aggregate lives for the lifetime of
// the process; durable history is the results store's job.
type Service struct {
	now func() time.Time

	mu     sync.Mutex
	latest map[string]map[string]decimal.Decimal
}

func NewService(c Config) *Service {
	s := &Service{
		now:    c.Now,
		latest: make(map[string]map[string]decimal.Decimal),
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Score computes the result of a finished attempt. An attempt without
// questions can not exist (session.Start rejects it), so Total == 0 is a
// programming error and panics rather than mis-reporting a score.
func (s *Service) Score(a *domain.Attempt) domain.ScoreResult {
	if len(a.Questions) == 0 {
		panic(fmt.Sprintf("score: attempt %s has no questions", a.SessionID))
	}

	correct := 0
	for i, q := range a.Questions {
		if a.Answers[i] == q.CorrectAnswer {
			correct++
		}
	}

	total := len(a.Questions)
	return domain.ScoreResult{
		CorrectCount: correct,
		Total:        total,
		Percent:      decimal.NewFromInt(int64(correct)).Mul(hundred).Div(decimal.NewFromInt(int64(total))),
		Elapsed:      s.now().Sub(a.StartTime),
	}
}

// Summary is one user's cumulative view across the quizzes they completed
// this run.
type Summary struct {
	CompletedQuizzes int
	AverageScore     decimal.Decimal
}

// Apply records the percent for a user's quiz, overwriting any earlier
// attempt at the same quiz (last attempt wins), and returns the user's
// updated summary. Users never see each other's aggregates.
func (s *Service) Apply(userName, quizName string, percent decimal.Decimal) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest[userName] == nil {
		s.latest[userName] = make(map[string]decimal.Decimal)
	}
	s.latest[userName][quizName] = percent
	return s.summaryLocked(userName)
}

// Summary returns the user's current cumulative view without recording
// anything.
func (s *Service) Summary(userName string) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.summaryLocked(userName)
}

func (s *Service) summaryLocked(userName string) Summary {
	quizzes := s.latest[userName]
	if len(quizzes) == 0 {
		return Summary{}
	}

	sum := decimal.Zero
	for _, p := range quizzes {
		sum = sum.Add(p)
	}

	return Summary{
		CompletedQuizzes: len(quizzes),
		AverageScore:     sum.Div(decimal.NewFromInt(int64(len(quizzes)))),
	}
}
