// Package achievement derives badges from submission scores and persists
// them exactly once per (user, badge).
package achievement

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
	"github.com/gummama/quizhub/internal/event"
)

const (
	NamePerfectScore     = "Perfect Score"
	NameGreatPerformance = "Great Performance"
	NameExamMaster       = "Exam Master"
)

var (
	perfectThreshold = decimal.NewFromInt(90)
	greatThreshold   = decimal.NewFromInt(80)
)

// Evaluate is a pure function of its inputs: it returns the candidate
// achievements for one submission. Score badges are mutually exclusive with
// the highest threshold winning; the exam badge is independent and can
// combine with a score badge.
func Evaluate(userName string, percent decimal.Decimal, quizName, examName string, earnedAt time.Time) []domain.Achievement {
	var out []domain.Achievement

	switch {
	case percent.GreaterThanOrEqual(perfectThreshold):
		out = append(out, domain.Achievement{
			UserName:    userName,
			Name:        NamePerfectScore,
			Description: "Scored 90% or higher on a quiz",
			EarnedAt:    earnedAt,
		})
	case percent.GreaterThanOrEqual(greatThreshold):
		out = append(out, domain.Achievement{
			UserName:    userName,
			Name:        NameGreatPerformance,
			Description: "Scored 80% or higher on a quiz",
			EarnedAt:    earnedAt,
		})
	}

	if quizName == examName {
		out = append(out, domain.Achievement{
			UserName:    userName,
			Name:        NameExamMaster,
			Description: "Completed the full exam",
			EarnedAt:    earnedAt,
		})
	}

	return out
}

// Store persists achievements with insert-ignore semantics: inserting a
// duplicate (user, name) pair reports inserted=false and no error.
type Store interface {
	InsertAchievement(ctx context.Context, a domain.Achievement) (inserted bool, err error)
	ListAchievementsByUser(ctx context.Context, userName string) ([]domain.Achievement, error)
}

type Config struct {
	Store    Store
	EventBus *event.Bus

	// ExamName is the quiz identity that earns the exam badge.
	ExamName string

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store    Store
	eb       *event.Bus
	examName string
	now      func() time.Time
}

// NewService builds the evaluator and subscribes it to result events, so
// every recorded submission is evaluated without the caller's involvement.
func NewService(c Config) *Service {
	s := &Service{
		store:    c.Store,
		eb:       c.EventBus,
		examName: c.ExamName,
		now:      c.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	if s.eb != nil {
		s.eb.Subscribe(domain.EventNameResultRecorded, func(ctx context.Context, e event.Event) error {
			return s.HandleResultRecorded(ctx, e.(domain.EventResultRecorded))
		})
	}

	return s
}

// HandleResultRecorded evaluates one recorded result and persists whatever
// it earned.
func (s *Service) HandleResultRecorded(ctx context.Context, e domain.EventResultRecorded) error {
	r := e.Result
	return s.Persist(ctx, Evaluate(r.UserName, r.Score, r.QuizName, s.examName, s.now()))
}

// Persist inserts each candidate; duplicates are silently ignored. An
// EventAchievementEarned fires only for rows that were actually new.
func (s *Service) Persist(ctx context.Context, candidates []domain.Achievement) error {
	for _, a := range candidates {
		inserted, err := s.store.InsertAchievement(ctx, a)
		if err != nil {
			return errors.Convert(err)
		}
		if inserted && s.eb != nil {
			s.eb.Publish(ctx, domain.EventAchievementEarned{Achievement: a})
		}
	}
	return nil
}

// NewlyEarned evaluates one submission and filters out badges the user
// already holds. Call it before the result is recorded: persistence runs off
// the result event, so reading afterwards could already see the new rows.
func (s *Service) NewlyEarned(ctx context.Context, userName string, percent decimal.Decimal, quizName string) ([]domain.Achievement, error) {
	existing, err := s.store.ListAchievementsByUser(ctx, userName)
	if err != nil {
		return nil, errors.Convert(err)
	}

	held := make(map[string]bool, len(existing))
	for _, a := range existing {
		held[a.Name] = true
	}

	var out []domain.Achievement
	for _, a := range Evaluate(userName, percent, quizName, s.examName, s.now()) {
		if !held[a.Name] {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListByUser returns everything a user has earned.
func (s *Service) ListByUser(ctx context.Context, userName string) ([]domain.Achievement, error) {
	out, err := s.store.ListAchievementsByUser(ctx, userName)
	if err != nil {
		return nil, errors.Convert(err)
	}
	return out, nil
}
