package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"libraryapi/internal/config"
	"libraryapi/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stdout, cfg.LogLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), logger, cfg, *command, *name); err != nil {
		logger.Fatal().Err(err).Str("command", *command).Msg("migration failed")
	}
}

func run(ctx context.Context, logger zerolog.Logger, cfg config.Config, command, name string) error {
	if command == "create" {
		if name == "" {
			return fmt.Errorf("name is required for 'create' command")
		}
		if err := goose.Create(nil, cfg.MigrationsDir, name, "sql"); err != nil {
			return err
		}
		logger.Info().Str("name", name).Msg("migration created")
		return nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", config.RedactDSN(cfg.DatabaseDSN), err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := goose.UpContext(ctx, db, cfg.MigrationsDir); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	case "down":
		if err := goose.DownContext(ctx, db, cfg.MigrationsDir); err != nil {
			return err
		}
		logger.Info().Msg("migrations rolled back")
	case "status":
		return goose.StatusContext(ctx, db, cfg.MigrationsDir)
	default:
		return fmt.Errorf("unknown command %q, use: up, down, status, create", command)
	}
	return nil
}
