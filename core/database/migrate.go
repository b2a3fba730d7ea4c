package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/maxbot/core/logger"
)

// RunMigrations applies all pending up migrations for the session tables.
func RunMigrations(ctx context.Context, cfg Config) error {
	dsn := cfg.URL()
	if err := WaitForPostgres(ctx, dsn, 30*time.Second); err != nil {
		logger.Error(ctx, logger.CompMigrate, "db.migrate",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("database not ready: %w", err)
	}

	dir, err := migrationsDir(cfg)
	if err != nil {
		return err
	}
	files := listMigrationFiles(dir)
	preview, hidden := logger.Preview(files, 6)
	attrs := []slog.Attr{
		slog.String("path", dir),
		slog.Int("files_total", len(files)),
	}
	if preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
	}
	if hidden > 0 {
		attrs = append(attrs, slog.Int("files_hidden", hidden))
	}
	logger.Debug(ctx, logger.CompMigrate, "migrate.resolve", attrs...)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
	if err != nil {
		logger.Error(ctx, logger.CompMigrate, "migrate.init",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := logger.Took(start)

	switch {
	case upErr == nil:
	case errors.Is(upErr, migrate.ErrNoChange):
		logger.Info(ctx, logger.CompMigrate, "migrate.summary",
			slog.String("status", "ok"),
			slog.Uint64("from_ver", uint64(fromVer)),
			slog.Uint64("to_ver", uint64(fromVer)),
			slog.Int("files", 0),
			slog.Duration("duration", took),
		)
		return nil
	default:
		logger.Error(ctx, logger.CompMigrate, "migrate.apply",
			slog.String("status", "fail"),
			slog.Duration("duration", took),
			slog.String("err", upErr.Error()),
		)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	toVer, _, _ := m.Version()
	applied := selectApplied(files, uint64(fromVer), uint64(toVer))
	if len(applied) > 0 {
		names, hidden := logger.Preview(applied, 6)
		logger.Debug(ctx, logger.CompMigrate, "migrate.applied",
			slog.Int("files_total", len(applied)),
			slog.String("files_preview", names),
			slog.Int("files_hidden", hidden),
		)
	}
	logger.Info(ctx, logger.CompMigrate, "migrate.summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

func migrationsDir(cfg Config) (string, error) {
	if dir := strings.TrimSpace(cfg.MigrationsDir); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(cwd, "migrations"), nil
}

func listMigrationFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

func selectApplied(files []string, from, to uint64) []string {
	if to <= from {
		return nil
	}
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
