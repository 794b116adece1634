package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/storage"
	"github.com/platinummonkey/specbook/pkg/storage/sqlstore"
)

func newMigrateCommand() *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Create any missing tables in the catalog database",
		Flags:       flag.NewFlagSet("migrate", flag.ContinueOnError),
		Run:         runMigrate,
	}

	defaults := storage.DefaultConfig()
	cmd.Flags.String("driver", getEnv("SPECBOOK_DB_DRIVER", defaults.Driver), "Database driver (postgres or sqlite3)")
	cmd.Flags.String("dsn", getEnv("SPECBOOK_DB_DSN", defaults.DSN), "Database connection string")
	cmd.Flags.Duration("timeout", time.Minute, "Migration timeout")

	return cmd
}

func runMigrate(args []string) error {
	cmd := newMigrateCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	cfg := storage.DefaultConfig()
	cfg.Driver = cmd.Flags.Lookup("driver").Value.String()
	cfg.DSN = cmd.Flags.Lookup("dsn").Value.String()
	cfg.Migrate = true

	ctx, cancel := context.WithTimeout(context.Background(), flagDuration(cmd.Flags, "timeout"))
	defer cancel()

	store, err := sqlstore.Open(ctx, cfg, observability.NewLogger(observability.WarnLevel, logger.Out))
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer store.Close()

	logger.WithField("driver", cfg.Driver).Info("Schema is up to date")
	return nil
}
