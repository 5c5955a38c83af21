// Package quizbank reads quiz content from JSON files. Each file holds a
// list of multiple-choice questions; the file stem is the quiz's display
// name.
package quizbank

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gummama/quizhub/internal/domain"
	"github.com/gummama/quizhub/internal/errors"
	"github.com/gummama/quizhub/internal/telemetry"
)

type Config struct {
	// Dir is the directory holding *.json quiz files.
	Dir string
}

type Bank struct {
	dir string
}

func NewBank(c Config) *Bank {
	return &Bank{dir: c.Dir}
}

// List returns the names of all quiz sources, sorted.
func (b *Bank) List() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(b.dir, "*.json"))
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("quizbank: glob %s: %w", b.dir, err))
	}

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, strings.TrimSuffix(filepath.Base(p), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads and validates a single quiz source.
// Returns CodeNotFound if the source does not exist and CodeInvalidArgument
// if it does not parse as a list of valid question records.
func (b *Bank) Load(name string) (domain.QuizSet, error) {
	path := filepath.Join(b.dir, filepath.Base(name)+".json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return domain.QuizSet{}, errors.NotFound("quiz source %q not found", name)
	}
	if err != nil {
		return domain.QuizSet{}, errors.Internal(fmt.Errorf("quizbank: read %s: %w", path, err))
	}

	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return domain.QuizSet{}, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("quiz source %q is not a JSON list of questions", name),
			errors.WithCause(err),
		)
	}

	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return domain.QuizSet{}, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("quiz source %q: question %d: %v", name, i, err),
			)
		}
	}

	return domain.QuizSet{Name: name, Questions: questions}, nil
}

// LoadFailure pairs a quiz source with the error that kept it out of a batch
// load.
type LoadFailure struct {
	Source string `json:"source"`
	Err    error  `json:"error"`
}

// LoadAll loads every known source and concatenates the successes. Sources
// that fail validation are reported in the failure list instead of being
// silently dropped; when strict is set, the first failure aborts the load.
func (b *Bank) LoadAll(strict bool) ([]domain.Question, []LoadFailure, error) {
	names, err := b.List()
	if err != nil {
		return nil, nil, err
	}

	var (
		questions []domain.Question
		failures  []LoadFailure
	)
	for _, name := range names {
		set, err := b.Load(name)
		if err != nil {
			if strict {
				return nil, nil, err
			}
			telemetry.QuizLoadFailures.WithLabelValues(name).Inc()
			slog.Warn("quizbank: skipping quiz source", "source", name, "error", err)
			failures = append(failures, LoadFailure{Source: name, Err: err})
			continue
		}
		questions = append(questions, set.Questions...)
	}

	return questions, failures, nil
}

func validateQuestion(q domain.Question) error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("empty prompt")
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("no options")
	}

	matches := 0
	for _, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("empty option")
		}
		if opt == q.CorrectAnswer {
			matches++
		}
	}

	// Zero matches would make the question unanswerable; multiple matches
	// would make correctness tracking ambiguous after a shuffle.
	if matches != 1 {
		return fmt.Errorf("correct_answer must match exactly one option, matched %d", matches)
	}

	return nil
}
