package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/maxbot/core/logger"
)

const connectTimeout = 5 * time.Second

// Connect opens the session database, configures the pool and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	target := []slog.Attr{
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	took := logger.Took(start)
	if err != nil {
		logger.Error(ctx, logger.CompDB, "db.connect", append(target,
			slog.String("status", "fail"),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error(ctx, logger.CompDB, "db.ping", append(target,
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db ping: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	logger.Info(ctx, logger.CompDB, "db.connect", append(target,
		slog.String("status", "ok"),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", took),
	)...)
	return db, nil
}

// WaitForPostgres polls the server until it answers a ping or timeout elapses.
func WaitForPostgres(ctx context.Context, dsn string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var lastErr error
	for {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			err = db.PingContext(ctx)
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout reached waiting for database: %w", lastErr)
		case <-time.After(2 * time.Second):
		}
	}
}
