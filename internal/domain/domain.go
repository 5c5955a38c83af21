package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Question is a single multiple-choice question. Exactly one entry of
// Options equals CorrectAnswer; quizbank validates this at load time and
// randomize preserves it across shuffles.
type Question struct {
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Resources     []string `json:"resources,omitempty"`
}

// Clone returns a deep copy, so shuffling never mutates a loaded quiz set.
func (q Question) Clone() Question {
	c := q
	c.Options = append([]string(nil), q.Options...)
	c.Resources = append([]string(nil), q.Resources...)
	return c
}

// QuizSet is the ordered content of one quiz source. Name is the source's
// file stem and the quiz's display identity.
type QuizSet struct {
	Name      string
	Questions []Question
}

// Attempt is one user's run through a selected set of questions.
// Answers is aligned by index with Questions; "" means unanswered.
type Attempt struct {
	SessionID string     `json:"session_id"`
	UserName  string     `json:"user_name"`
	QuizName  string     `json:"quiz_name"`
	Questions []Question `json:"questions"`
	Answers   []string   `json:"answers"`
	StartTime time.Time  `json:"start_time"`
	IsExam    bool       `json:"is_exam"`
	Submitted bool       `json:"submitted"`
}

// Answered counts the non-empty answers.
func (a *Attempt) Answered() int {
	n := 0
	for _, ans := range a.Answers {
		if ans != "" {
			n++
		}
	}
	return n
}

// ScoreResult is the outcome of scoring a submitted attempt.
type ScoreResult struct {
	CorrectCount int
	Total        int
	Percent      decimal.Decimal
	Elapsed      time.Duration
}

// CompletedResult is one append-only row per submission. TotalQuizzes and
// AverageScore carry the submitter's cumulative aggregate at submission time.
type CompletedResult struct {
	UserName     string
	QuizName     string
	Score        decimal.Decimal
	TimeTaken    float64
	TotalQuizzes int
	AverageScore decimal.Decimal
	Timestamp    time.Time
}

// UserStats is derived on demand from a user's CompletedResult rows.
type UserStats struct {
	UserName     string
	BestScore    decimal.Decimal
	AverageScore decimal.Decimal
	Attempts     int
}

// LeaderboardRow is one user's aggregate in the ranked leaderboard view.
type LeaderboardRow struct {
	UserName     string
	BestScore    decimal.Decimal
	AverageScore decimal.Decimal
	Attempts     int
}

// Achievement is a badge earned by a user, unique per (user, name).
type Achievement struct {
	UserName    string
	Name        string
	Description string
	EarnedAt    time.Time
}

// SessionSummary describes a resumable saved session.
type SessionSummary struct {
	SessionID string
	UserName  string
	QuizName  string
	Answered  int
	Total     int
	SavedAt   time.Time
}
