// Package cli is the cobra command tree: `quizhub serve` runs the server,
// `quizhub migrate` applies the storage schema.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gummama/quizhub/internal/config"
	"github.com/gummama/quizhub/internal/server"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")

	cmd := &cobra.Command{
		Use:   "quizhub",
		Short: "Quiz server with resumable sessions, achievements and a leaderboard",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newMigrateCmd(&configPath))
	return cmd
}

// loadConfig applies the built-in defaults, then the config file (if any),
// then environment overrides.
func loadConfig(path string) (server.Config, error) {
	var c server.Config
	c.HTTP.Port = 8080
	c.Quiz.Dir = "quizzes"
	c.Quiz.QuestionsPerQuiz = 20
	c.Quiz.ExamQuestions = 50
	c.Quiz.ExamName = "50-Question Exam"
	c.Storage.Driver = "sqlite"
	c.Storage.SQLite.Path = "quizhub.db"
	c.Redis.Leaderboard.Addrs = []string{"localhost:6379"}
	c.Redis.Leaderboard.Prefix = "quizhub"
	c.Redis.Pubsub.Addrs = []string{"localhost:6379"}
	c.Redis.Pubsub.Prefix = "quizhub"

	if err := config.Load(path, &c); err != nil {
		return c, err
	}
	return c, nil
}
