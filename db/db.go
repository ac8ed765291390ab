package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// NewDB connects to Postgres and creates the run history tables. An empty
// dsn is built from the DB_* environment variables.
func NewDB(ctx context.Context, dsn string) (*DB, error) {
	if dsn == "" {
		dsn = DSNFromEnv()
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// DSNFromEnv builds a connection string from DB_HOST, DB_PORT, DB_USER,
// DB_PASSWORD, DB_NAME and DB_SSLMODE
func DSNFromEnv() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnvOrDefault("DB_HOST", "localhost"),
		getEnvOrDefault("DB_PORT", "5432"),
		getEnvOrDefault("DB_USER", "html_scraper"),
		getEnvOrDefault("DB_PASSWORD", ""),
		getEnvOrDefault("DB_NAME", "html_scraper"),
		getEnvOrDefault("DB_SSLMODE", "disable"),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scrape_runs (
			id SERIAL PRIMARY KEY,
			url TEXT NOT NULL,
			auth_mode VARCHAR(20) NOT NULL DEFAULT 'none',
			tag VARCHAR(64),
			class_name VARCHAR(255),
			attribute VARCHAR(255),
			status VARCHAR(20) NOT NULL DEFAULT 'in_progress',
			records_count INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT valid_run_status CHECK (status IN ('in_progress', 'done', 'no_data', 'failed'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scrape_runs table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scrape_records (
			id SERIAL PRIMARY KEY,
			run_id INTEGER NOT NULL REFERENCES scrape_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			tag VARCHAR(64) NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scrape_records table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_scrape_runs_status ON scrape_runs(status)`)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create index on scrape_runs.status")
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_scrape_records_run_id ON scrape_records(run_id, position)`)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create index on scrape_records.run_id")
	}

	log.Debug().Msg("Database schema initialized")
	return nil
}
