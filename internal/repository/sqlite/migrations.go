package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

// mirrors migrations/000001_init.up.sql with SQLite types; times are UTC text in timeLayout
var migrations = []migration{
	{
		version: 1,
		name:    "init",
		sql: `
CREATE TABLE IF NOT EXISTS client_profiles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  age INTEGER NOT NULL,
  sex TEXT NOT NULL,
  height_cm REAL NOT NULL CHECK(height_cm > 0),
  weight_kg REAL NOT NULL CHECK(weight_kg > 0),
  goal TEXT NOT NULL,
  activity_level TEXT NOT NULL,
  locale TEXT NOT NULL,
  restrictions TEXT NOT NULL,
  allergies TEXT NOT NULL,
  medical_conditions TEXT NOT NULL,
  current_diet TEXT NOT NULL,
  sleep_hours TEXT NOT NULL,
  stress_level TEXT NOT NULL,
  budget TEXT NOT NULL,
  cooking_time TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS generation_logs (
  id TEXT PRIMARY KEY,
  client_id TEXT,
  diet_plan_id TEXT,
  provider TEXT NOT NULL,
  model TEXT NOT NULL,
  raw_text TEXT NOT NULL DEFAULT '',
  raw_json TEXT,
  prompt_tokens INTEGER NOT NULL DEFAULT 0,
  completion_tokens INTEGER NOT NULL DEFAULT 0,
  generation_time_ms INTEGER NOT NULL DEFAULT 0,
  cost REAL NOT NULL DEFAULT 0,
  success INTEGER NOT NULL,
  failure_kind TEXT NOT NULL DEFAULT '',
  error_message TEXT,
  created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_generation_logs_client ON generation_logs(client_id, created_at);

CREATE TABLE IF NOT EXISTS diet_plans (
  id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  status TEXT NOT NULL CHECK(status IN ('draft', 'pending_review', 'approved', 'rejected', 'published')),
  version INTEGER NOT NULL DEFAULT 1,
  targets TEXT NOT NULL,
  overview TEXT NOT NULL,
  weeks TEXT NOT NULL DEFAULT '[]',
  recommendations TEXT NOT NULL,
  review_notes TEXT NOT NULL DEFAULT '[]',
  approved_by TEXT,
  approved_at TEXT,
  rejected_by TEXT,
  rejected_at TEXT,
  generation_log_id TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY(client_id) REFERENCES client_profiles(id),
  FOREIGN KEY(generation_log_id) REFERENCES generation_logs(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_diet_plans_client ON diet_plans(client_id, created_at);

CREATE TABLE IF NOT EXISTS plan_customizations (
  plan_id TEXT PRIMARY KEY,
  overview TEXT,
  weeks TEXT,
  recommendations TEXT,
  edited_by TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY(plan_id) REFERENCES diet_plans(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS published_access (
  id TEXT PRIMARY KEY,
  diet_plan_id TEXT NOT NULL,
  access_token TEXT NOT NULL UNIQUE,
  issued_at TEXT NOT NULL,
  expires_at TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  deactivated_at TEXT,
  FOREIGN KEY(diet_plan_id) REFERENCES diet_plans(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_published_access_active ON published_access(diet_plan_id) WHERE is_active = 1;
`,
	},
}

// ApplyMigrations applies every migration not yet recorded in schema_migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}
	return nil
}
