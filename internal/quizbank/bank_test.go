package quizbank_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gummama/quizhub/internal/errors"
	"github.com/gummama/quizhub/internal/quizbank"
)

const validQuiz = `[
  {
    "question": "What does TCP stand for?",
    "options": ["Transmission Control Protocol", "Transfer Core Protocol", "Timed Control Packet"],
    "correct_answer": "Transmission Control Protocol",
    "explanation": "TCP is the connection-oriented transport protocol.",
    "resources": ["https://datatracker.ietf.org/doc/html/rfc9293"]
  },
  {
    "question": "Which layer does IP live on?",
    "options": ["Network", "Transport", "Application"],
    "correct_answer": "Network"
  }
]`

func writeQuiz(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644))
}

func TestBank_Load(t *testing.T) {
	dir := t.TempDir()
	writeQuiz(t, dir, "networking", validQuiz)

	b := quizbank.NewBank(quizbank.Config{Dir: dir})

	set, err := b.Load("networking")
	require.NoError(t, err)
	require.Equal(t, "networking", set.Name)
	require.Len(t, set.Questions, 2)
	require.Equal(t, "Transmission Control Protocol", set.Questions[0].CorrectAnswer)
	require.Equal(t, "TCP is the connection-oriented transport protocol.", set.Questions[0].Explanation)
}

func TestBank_LoadErrors(t *testing.T) {
	tests := map[string]struct {
		content  string
		wantCode errors.Code
	}{
		"missing source": {
			content:  "", // no file written
			wantCode: errors.CodeNotFound,
		},
		"not json": {
			content:  "definitely not json",
			wantCode: errors.CodeInvalidArgument,
		},
		"not a list": {
			content:  `{"question": "huh"}`,
			wantCode: errors.CodeInvalidArgument,
		},
		"no options": {
			content:  `[{"question": "q", "options": [], "correct_answer": "a"}]`,
			wantCode: errors.CodeInvalidArgument,
		},
		"correct answer matches nothing": {
			content:  `[{"question": "q", "options": ["a", "b"], "correct_answer": "c"}]`,
			wantCode: errors.CodeInvalidArgument,
		},
		"correct answer matches twice": {
			content:  `[{"question": "q", "options": ["a", "a"], "correct_answer": "a"}]`,
			wantCode: errors.CodeInvalidArgument,
		},
		"empty prompt": {
			content:  `[{"question": " ", "options": ["a", "b"], "correct_answer": "a"}]`,
			wantCode: errors.CodeInvalidArgument,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != "" {
				writeQuiz(t, dir, "broken", tt.content)
			}

			b := quizbank.NewBank(quizbank.Config{Dir: dir})

			_, err := b.Load("broken")
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestBank_LoadAll(t *testing.T) {
	dir := t.TempDir()
	writeQuiz(t, dir, "networking", validQuiz)
	writeQuiz(t, dir, "broken", "not json")
	writeQuiz(t, dir, "storage", validQuiz)

	b := quizbank.NewBank(quizbank.Config{Dir: dir})

	questions, failures, err := b.LoadAll(false)
	require.NoError(t, err)
	require.Len(t, questions, 4, "both valid sources should be concatenated")
	require.Len(t, failures, 1)
	require.Equal(t, "broken", failures[0].Source)
	require.Error(t, failures[0].Err)
}

func TestBank_LoadAllStrict(t *testing.T) {
	dir := t.TempDir()
	writeQuiz(t, dir, "networking", validQuiz)
	writeQuiz(t, dir, "broken", "not json")

	b := quizbank.NewBank(quizbank.Config{Dir: dir})

	_, _, err := b.LoadAll(true)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.CodeInvalidArgument))
}

func TestBank_List(t *testing.T) {
	dir := t.TempDir()
	writeQuiz(t, dir, "zebra", validQuiz)
	writeQuiz(t, dir, "alpha", validQuiz)

	b := quizbank.NewBank(quizbank.Config{Dir: dir})

	names, err := b.List()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "zebra"}, names)
}
