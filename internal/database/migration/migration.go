package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
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
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  username     TEXT        NOT NULL UNIQUE,
  is_staff     BOOLEAN     NOT NULL DEFAULT FALSE,
  is_superuser BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_files",
		SQL: `CREATE TABLE IF NOT EXISTS files (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner_id     UUID        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  storage_key  TEXT        NOT NULL UNIQUE,
  display_name TEXT        NOT NULL,
  size_bytes   BIGINT      NOT NULL CHECK (size_bytes >= 0),
  is_archive   BOOLEAN     NOT NULL DEFAULT FALSE,
  uploaded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_files_owner_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_files_owner_id ON files (owner_id);`,
	},
	{
		Name: "create_index_files_uploaded_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_files_uploaded_at ON files (uploaded_at);`,
	},
	{
		Name: "create_table_file_versions",
		SQL: `CREATE TABLE IF NOT EXISTS file_versions (
  id                    BIGSERIAL   PRIMARY KEY,
  file_id               UUID        NOT NULL REFERENCES files (id) ON DELETE CASCADE,
  version_number        INT         NOT NULL CHECK (version_number >= 1),
  storage_key           TEXT        NOT NULL,
  display_name          TEXT        NOT NULL,
  size_bytes            BIGINT      NOT NULL CHECK (size_bytes >= 0),
  restored_from_version INT,
  created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (file_id, version_number)
);`,
	},
	{
		Name: "create_table_activity_log",
		SQL: `CREATE TABLE IF NOT EXISTS activity_log (
  id         BIGSERIAL   PRIMARY KEY,
  user_id    UUID        REFERENCES users (id) ON DELETE SET NULL,
  action     TEXT        NOT NULL,
  details    TEXT        NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_activity_log_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_activity_log_user_id ON activity_log (user_id);`,
	},
	{
		Name: "create_index_activity_log_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_activity_log_created_at ON activity_log (created_at);`,
	},
}

// EnsureMigrated checks if the 'files' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.files') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
