package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gummama/quizhub/internal/achievement"
	"github.com/gummama/quizhub/internal/api"
	"github.com/gummama/quizhub/internal/event"
	"github.com/gummama/quizhub/internal/leaderboard"
	"github.com/gummama/quizhub/internal/quizbank"
	"github.com/gummama/quizhub/internal/results"
	"github.com/gummama/quizhub/internal/score"
	"github.com/gummama/quizhub/internal/session"
	"github.com/gummama/quizhub/internal/store/postgres"
	"github.com/gummama/quizhub/internal/store/sqlite"
	"github.com/gummama/quizhub/internal/telemetry"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Quiz struct {
		// Dir holds the *.json quiz sources.
		Dir string

		QuestionsPerQuiz int
		ExamQuestions    int
		ExamName         string

		// Strict makes any unloadable quiz source fatal instead of skipped.
		Strict bool
	}

	Storage struct {
		// Driver selects the backend: "sqlite" (default) or "postgres".
		Driver string

		SQLite struct {
			Path string
		}

		Postgres struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Redis struct {
		Leaderboard struct {
			Addrs  []string
			Pass   string
			Prefix string
		}

		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}
}

// Store is the union of what the services persist; both backends satisfy it.
type Store interface {
	session.Store
	results.Store
	achievement.Store
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			leaderboard redis.UniversalClient
			pubsub      redis.UniversalClient
		}

		store Store
		close func()
	}

	service struct {
		bank        *quizbank.Bank
		session     *session.Service
		score       *score.Service
		results     *results.Service
		achievement *achievement.Service
		leaderboard *leaderboard.Service
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.leaderboard, err = connect(s.c.Redis.Leaderboard.Addrs, s.c.Redis.Leaderboard.Pass)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}

	s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initStorage() error {
	switch s.c.Storage.Driver {
	case "", "sqlite":
		st, err := sqlite.Open(s.c.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		s.infra.store = st
		s.infra.close = func() { _ = st.Close() }

	case "postgres":
		pg := s.c.Storage.Postgres
		db, err := postgres.Connect(context.Background(), pg.Addr, pg.User, pg.Pass, pg.Name)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		s.infra.store = postgres.New(db)
		s.infra.close = db.Close

	default:
		return fmt.Errorf("unknown driver %q", s.c.Storage.Driver)
	}

	return nil
}

func (s *Server) initService() {
	s.service.bank = quizbank.NewBank(quizbank.Config{
		Dir: s.c.Quiz.Dir,
	})

	s.service.session = session.NewService(session.Config{
		Store: s.infra.store,
	})

	s.service.score = score.NewService(score.Config{})

	s.service.results = results.NewService(results.Config{
		Store:    s.infra.store,
		EventBus: s.eb,
	})

	s.service.achievement = achievement.NewService(achievement.Config{
		Store:    s.infra.store,
		EventBus: s.eb,
		ExamName: s.c.Quiz.ExamName,
	})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		EventBus: s.eb,
		Results:  s.service.results,
		Redis:    s.infra.redis.leaderboard,
		Prefix:   s.c.Redis.Leaderboard.Prefix,
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	api.New(api.Config{
		Router:           e,
		EventBus:         s.eb,
		Bank:             s.service.bank,
		Session:          s.service.session,
		Score:            s.service.score,
		Results:          s.service.results,
		Achievements:     s.service.achievement,
		Leaderboard:      s.service.leaderboard,
		Redis:            s.infra.redis.pubsub,
		PubsubPrefix:     s.c.Redis.Pubsub.Prefix,
		QuestionsPerQuiz: s.c.Quiz.QuestionsPerQuiz,
		ExamQuestions:    s.c.Quiz.ExamQuestions,
		ExamName:         s.c.Quiz.ExamName,
		Strict:           s.c.Quiz.Strict,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()
	if s.infra.close != nil {
		s.infra.close()
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
