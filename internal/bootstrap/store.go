package bootstrap

import (
	"context"
	"fmt"
	"time"

	"libraryapi/internal/book"
	"libraryapi/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// OpenRepository opens the store selected by cfg.StoreDriver. The returned
// func releases it.
func OpenRepository(ctx context.Context, cfg config.Config, logger zerolog.Logger) (book.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory store, data is lost on exit")
		return book.NewMemoryRepo(), func() {}, nil
	case config.DriverSQLite:
		repo, err := book.OpenSQLite(ctx, cfg.SQLitePath, cfg.DBTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return repo, func() { _ = repo.Close() }, nil
	default:
		pool, err := openDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("dsn", config.RedactDSN(cfg.DatabaseDSN)).Msg("database connection OK")
		return book.NewPostgresRepo(pool, cfg.DBTimeout), pool.Close, nil
	}
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", config.RedactDSN(dsn), err)
	}
	return pool, nil
}
