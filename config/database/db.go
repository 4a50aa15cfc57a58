package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"propdesk/config"
	"propdesk/pkg/logger"

	_ "github.com/lib/pq"
)

const (
	pingAttempts = 5
	pingInterval = 2 * time.Second
)

// Connect opens the postgres pool and pings it, retrying a few times to ride
// out DNS or network blips during startup.
func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", pingInterval, err)
		time.Sleep(pingInterval)
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", pingAttempts, err)
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_collection_updated_idx ON documents (collection, updated_at DESC);
DROP INDEX IF EXISTS documents_campaign_id_idx;
CREATE UNIQUE INDEX IF NOT EXISTS documents_campaign_id_key ON documents ((data->>'campaignId')) WHERE collection = 'campaigns';
`

// Migrate creates the document table and its indexes.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logger.Sugar.Info("Database schema is up to date")
	return nil
}
