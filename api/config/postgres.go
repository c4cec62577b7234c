package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgPool is the global PostgreSQL connection pool.
var PgPool *pgxpool.Pool

// PgConfig holds the PostgreSQL configuration.
type PgConfig struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
}

var pgCfg PgConfig

func pgEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadPostgres initializes the PostgreSQL connection pool and runs the
// schema migrations.
func LoadPostgres() error {
	pgCfg = PgConfig{
		Host:     pgEnv("POSTGRES_HOST", "localhost"),
		Port:     pgEnv("POSTGRES_PORT", "5432"),
		Database: pgEnv("POSTGRES_DB", "mahainsight"),
		Username: pgEnv("POSTGRES_USER", "mahainsight"),
		Password: pgEnv("POSTGRES_PASSWORD", "mahainsight"),
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		pgCfg.Username, pgCfg.Password, pgCfg.Host, pgCfg.Port, pgCfg.Database,
	)

	slog.Info("connecting to postgres",
		"host", pgCfg.Host, "port", pgCfg.Port, "database", pgCfg.Database, "username", pgCfg.Username)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("failed to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	PgPool = pool

	if err := runMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("connected to postgres")
	return nil
}

// runMigrations creates the required tables.
func runMigrations(ctx context.Context) error {
	_, err := PgPool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id SERIAL PRIMARY KEY,
			slug VARCHAR(255) UNIQUE NOT NULL,
			title VARCHAR(255) NOT NULL,
			data_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create posts table: %w", err)
	}

	// One usage row per (user, article); the quota ledger relies on the
	// primary key for its atomic upsert.
	_, err = PgPool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ai_usage (
			user_id VARCHAR(128) NOT NULL,
			post_id VARCHAR(64) NOT NULL,
			window_start TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			count INT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, post_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create ai_usage table: %w", err)
	}
	return nil
}

// ClosePostgres closes the connection pool.
func ClosePostgres() {
	if PgPool != nil {
		PgPool.Close()
	}
}
