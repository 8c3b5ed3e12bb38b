package store

import (
	"context"
	"database/sql"
)

const schemaVersion = 1

var schemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  external_id TEXT NOT NULL,
  source TEXT NOT NULL,
  title TEXT NOT NULL,
  company TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  salary TEXT,
  url TEXT NOT NULL DEFAULT '',
  posted_date TEXT NOT NULL DEFAULT '',
  match_score REAL,
  is_active INTEGER NOT NULL DEFAULT 1,
  first_seen_at TEXT NOT NULL,
  last_seen_at TEXT NOT NULL,
  UNIQUE (external_id, source)
);`,
	`CREATE TABLE IF NOT EXISTS job_applications (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  job_id INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
  status TEXT NOT NULL DEFAULT 'applied',
  notes TEXT NOT NULL DEFAULT '',
  applied_at TEXT NOT NULL,
  UNIQUE (user_id, job_id)
);`,
	`CREATE TABLE IF NOT EXISTS excluded_jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  job_id INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
  reason TEXT NOT NULL DEFAULT '',
  excluded_at TEXT NOT NULL,
  UNIQUE (user_id, job_id)
);`,
	`CREATE TABLE IF NOT EXISTS generated_documents (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  job_id INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
  document_type TEXT NOT NULL,
  content TEXT NOT NULL,
  ai_model TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_last_seen ON jobs(last_seen_at);`,
	`CREATE INDEX IF NOT EXISTS idx_documents_job ON generated_documents(job_id);`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	for _, stmt := range schemaV1 {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}
