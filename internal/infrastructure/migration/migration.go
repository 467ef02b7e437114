package migration

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Migration represents a database migration
type Migration struct {
	Name string
	SQL  string
}

// Migrations lists the schema changes applied on startup, in order.
// Each statement must be safe to run again.
var Migrations = []Migration{
	{
		Name: "create_cv_exports",
		SQL: `
			CREATE TABLE IF NOT EXISTS cv_exports (
				id UUID PRIMARY KEY,
				session_id UUID NOT NULL,
				template_id INTEGER NOT NULL,
				status TEXT NOT NULL,
				file_name TEXT NOT NULL DEFAULT '',
				file_path TEXT NOT NULL DEFAULT '',
				file_size INTEGER NOT NULL DEFAULT 0,
				shared BOOLEAN NOT NULL DEFAULT FALSE,
				error TEXT NOT NULL DEFAULT '',
				metadata JSONB DEFAULT '{}'::jsonb,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			);
		`,
	},
	{
		Name: "index_cv_exports_session",
		SQL: `
			CREATE INDEX IF NOT EXISTS cv_exports_session_created_idx
			ON cv_exports (session_id, created_at DESC);
		`,
	},
	{
		Name: "add_direction_to_cv_exports",
		SQL: `
			ALTER TABLE cv_exports
			ADD COLUMN IF NOT EXISTS direction TEXT NOT NULL DEFAULT 'ltr';
		`,
	},
}

// RunMigrations executes all migrations on startup. A nil pool is skipped.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) error {
	if pool == nil {
		logger.Info("No database configured, skipping migrations")
		return nil
	}
	logger.Info("Starting database migrations", "count", len(Migrations))

	for _, m := range Migrations {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			logger.Error("Migration failed", "name", m.Name, "err", err)
			return err
		}
		logger.Info("Migration completed", "name", m.Name)
	}

	logger.Info("All migrations completed successfully")
	return nil
}
