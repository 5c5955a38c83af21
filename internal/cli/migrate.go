package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gummama/quizhub/internal/server"
	"github.com/gummama/quizhub/internal/store/postgres"
	"github.com/gummama/quizhub/internal/store/sqlite"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the storage schema for the configured driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return migrate(cmd, c)
		},
	}
}

func migrate(cmd *cobra.Command, c server.Config) error {
	ctx := cmd.Context()

	switch c.Storage.Driver {
	case "", "sqlite":
		// Open applies the schema on connect.
		st, err := sqlite.Open(c.Storage.SQLite.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		slog.InfoContext(ctx, "migrate: sqlite schema applied", "path", c.Storage.SQLite.Path)
		return nil

	case "postgres":
		pg := c.Storage.Postgres
		db, err := postgres.Connect(ctx, pg.Addr, pg.User, pg.Pass, pg.Name)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.New(db).Migrate(ctx); err != nil {
			return err
		}

		slog.InfoContext(ctx, "migrate: postgres schema applied", "addr", pg.Addr, "database", pg.Name)
		return nil

	default:
		return fmt.Errorf("unknown driver %q", c.Storage.Driver)
	}
}
