package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gummama/quizhub/internal/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			s, err := server.Init(c)
			if err != nil {
				return err
			}

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, syscall.SIGTERM, os.Interrupt)

			go s.Start()

			<-shutdown
			s.Shutdown()
			return nil
		},
	}
}
