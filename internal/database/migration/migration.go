package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_entities",
		SQL: `CREATE TABLE IF NOT EXISTS entities (
  id               UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner_subject_id TEXT NOT NULL
);`,
	},
	{
		// container_id/object_id are written back by the upload-completion
		// writer; a row with only one of them populated is an inconsistent
		// state the read path must detect, so no both-or-neither constraint.
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner_entity_id UUID        NOT NULL REFERENCES entities (id),
  container_id    TEXT,
  object_id       TEXT,
  file_name       TEXT        NOT NULL,
  file_size_bytes BIGINT      NOT NULL DEFAULT 0 CHECK (file_size_bytes >= 0),
  mime_type       TEXT        NOT NULL DEFAULT 'application/octet-stream',
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_document_grants",
		SQL: `CREATE TABLE IF NOT EXISTS document_grants (
  subject_id  TEXT NOT NULL,
  document_id UUID NOT NULL REFERENCES documents (id),
  operation   TEXT NOT NULL CHECK (operation IN ('preview', 'download')),
  PRIMARY KEY (subject_id, document_id, operation)
);`,
	},
	{
		Name: "create_table_subject_roles",
		SQL: `CREATE TABLE IF NOT EXISTS subject_roles (
  subject_id TEXT NOT NULL,
  role       TEXT NOT NULL,
  PRIMARY KEY (subject_id, role)
);`,
	},
	{
		Name: "create_index_documents_owner_entity",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_entity ON documents (owner_entity_id);`,
	},
	{
		Name: "create_index_entities_owner_subject",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_entities_owner_subject ON entities (owner_subject_id);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	start := time.Now()
	log = log.With("component", "database")

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed", "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip", "msg", "schema already exists", "duration_ms", time.Since(start).Milliseconds())
		return nil
	}

	log.Info("db_migration_start")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				"migration_step", step.Name,
				"error", err.Error(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("db_migration_step",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("db_migration_success", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
