package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"danicandles/internal/config"
	"danicandles/internal/infra/db"
	"danicandles/internal/logging"

	"github.com/joho/godotenv"
)

// usage: migrate [up|down|status|version]
func main() {
	flag.Parse()
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	if err := run(context.Background(), command); err != nil {
		slog.Error("migrate failed", slog.String("command", command), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, command string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	logging.New(cfg.IsProduction(), cfg.LogLevel)

	sqlDB, err := db.OpenSQL(cfg.DSN())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	if err := db.Migrate(ctx, sqlDB, command); err != nil {
		return err
	}
	slog.Info("migrate done", slog.String("command", command))
	return nil
}
