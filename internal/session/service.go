// Package session owns the lifecycle of an in-progress quiz attempt:
// NotStarted -> InProgress -> Submitted. Every accepted answer persists a
// full snapshot so interrupted attempts are resumable.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
	"github.com/gummama/quizhub/internal/telemetry"
)

// Store persists attempt snapshots keyed by session ID with upsert semantics.
type Store interface {
	UpsertSnapshot(ctx context.Context, a domain.Attempt) error
	GetSnapshot(ctx context.Context, sessionID string) (domain.Attempt, error)
	ListSnapshots(ctx context.Context) ([]domain.SessionSummary, error)
	DeleteSnapshot(ctx context.Context, sessionID string) error
}

type Config struct {
	Store Store

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store: c.Store,
		now:   c.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// StartRequest carries everything needed to begin a new attempt. Questions
// must already be randomized; the attempt stores them as its immutable
// post-shuffle snapshot.
type StartRequest struct {
	UserName  string
	QuizName  string
	Questions []domain.Question
	IsExam    bool
}

// Start allocates a new session ID, blanks all answers and persists the
// initial snapshot so the attempt is immediately resumable.
func (s *Service) Start(ctx context.Context, req StartRequest) (*domain.Attempt, error) {
	if req.UserName == "" {
		return nil, errors.InvalidArgument("user name is required")
	}
	if len(req.Questions) == 0 {
		return nil, errors.InvalidArgument("attempt needs at least one question")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("generate session ID: %w", err))
	}

	a := &domain.Attempt{
		SessionID: id.String(),
		UserName:  req.UserName,
		QuizName:  req.QuizName,
		Questions: req.Questions,
		Answers:   make([]string, len(req.Questions)),
		StartTime: s.now(),
		IsExam:    req.IsExam,
	}

	if err := s.store.UpsertSnapshot(ctx, *a); err != nil {
		return nil, errors.Convert(err)
	}

	telemetry.AttemptsStarted.Inc()
	return a, nil
}

// Answer records the answer at index and persists a full snapshot.
// Re-selecting the current answer is a no-op that skips the write.
func (s *Service) Answer(ctx context.Context, a *domain.Attempt, index int, value string) error {
	if a.Submitted {
		return errors.FailedPrecondition("attempt %s is already submitted", a.SessionID)
	}
	if index < 0 || index >= len(a.Answers) {
		return errors.New(errors.CodeOutOfRange,
			errors.WithMessagef("answer index %d out of range [0, %d)", index, len(a.Answers)))
	}
	if a.Answers[index] == value {
		return nil
	}

	a.Answers[index] = value
	if err := s.store.UpsertSnapshot(ctx, *a); err != nil {
		return errors.Convert(err)
	}
	return nil
}

// Submit transitions the attempt to its terminal state. Submitting an
// already-submitted attempt is a no-op, so an attempt can never be scored
// twice. An attempt with unanswered questions is rejected.
func (s *Service) Submit(ctx context.Context, a *domain.Attempt) error {
	if a.Submitted {
		return nil
	}

	if unanswered := len(a.Answers) - a.Answered(); unanswered > 0 {
		return errors.FailedPrecondition("%d of %d questions are unanswered", unanswered, len(a.Answers))
	}

	a.Submitted = true
	if err := s.store.UpsertSnapshot(ctx, *a); err != nil {
		a.Submitted = false
		return errors.Convert(err)
	}

	telemetry.AttemptsSubmitted.Inc()
	return nil
}

// Resume reconstructs an attempt from its persisted snapshot, preserving the
// original start time so elapsed time accumulates across interruptions.
func (s *Service) Resume(ctx context.Context, sessionID string) (*domain.Attempt, error) {
	a, err := s.store.GetSnapshot(ctx, sessionID)
	if err != nil {
		return nil, errors.Convert(err)
	}
	return &a, nil
}

// List returns summaries of all saved sessions, most recently saved first.
func (s *Service) List(ctx context.Context) ([]domain.SessionSummary, error) {
	summaries, err := s.store.ListSnapshots(ctx)
	if err != nil {
		return nil, errors.Convert(err)
	}
	return summaries, nil
}

// Abandon drops a saved session.
func (s *Service) Abandon(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSnapshot(ctx, sessionID); err != nil {
		return errors.Convert(err)
	}
	return nil
}
