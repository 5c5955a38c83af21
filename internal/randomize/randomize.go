// Package randomize draws bounded random question subsets and shuffles
// answer options while keeping correctness tracking intact.
package randomize

import (
	"math/rand"

	"github.com/gummama/quizhub/internal/domain"
)

// Pick returns min(n, len(qs)) questions sampled uniformly without
// replacement, in selection order, each with freshly shuffled options.
// Returns nil iff qs is empty. The input is never mutated; every returned
// question is a deep copy. Safe for concurrent use.
func Pick(qs []domain.Question, n int) []domain.Question {
	if len(qs) == 0 {
		return nil
	}
	if n > len(qs) {
		n = len(qs)
	}

	selected := make([]domain.Question, 0, n)
	for _, i := range rand.Perm(len(qs))[:n] {
		q := qs[i].Clone()
		shuffleOptions(&q)
		selected = append(selected, q)
	}

	return selected
}

// shuffleOptions permutes q.Options and repoints CorrectAnswer at the option
// flagged correct before the shuffle. With validated input exactly one option
// carries the flag; on malformed input the first flagged option wins.
func shuffleOptions(q *domain.Question) {
	type pair struct {
		option  string
		correct bool
	}

	pairs := make([]pair, len(q.Options))
	for i, opt := range q.Options {
		pairs[i] = pair{option: opt, correct: opt == q.CorrectAnswer}
	}

	rand.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})

	for i, p := range pairs {
		q.Options[i] = p.option
	}
	for _, p := range pairs {
		if p.correct {
			q.CorrectAnswer = p.option
			break
		}
	}
}
