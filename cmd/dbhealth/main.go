// Command dbhealth pings the Supabase Postgres instance directly, catching
// DSN and connectivity problems before a long ingestion run is attempted.
// The pipeline itself talks PostgREST; this probe uses the database wire
// protocol, which also verifies the credentials PostgREST sits on.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	dsn := os.Getenv("SUPABASE_DB_URL")
	if dsn == "" {
		logger.Error("SUPABASE_DB_URL env var is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid DSN", "error", err)
		os.Exit(1)
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "rendicion-tracker"

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database health OK")
}
