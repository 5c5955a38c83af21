package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AttemptsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quizhub",
		Name:      "attempts_started_total",
		Help:      "Number of quiz attempts started.",
	})

	AttemptsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quizhub",
		Name:      "attempts_submitted_total",
		Help:      "Number of quiz attempts submitted and scored.",
	})

	QuizLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizhub",
		Name:      "quiz_load_failures_total",
		Help:      "Number of quiz sources that failed to load.",
	}, []string{"source"})
)
