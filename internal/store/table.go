package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS applications (
  employer_key TEXT PRIMARY KEY,
  employer TEXT NOT NULL,
  position TEXT NOT NULL,
  status TEXT NOT NULL,
  confidence TEXT NOT NULL,
  first_seen TEXT NOT NULL,
  last_updated TEXT NOT NULL,
  message_ids TEXT NOT NULL DEFAULT '[]',
  notes TEXT NOT NULL DEFAULT ''
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS employer_domains (
  domain TEXT NOT NULL,
  employer_key TEXT NOT NULL,
  seen_at TEXT NOT NULL,
  PRIMARY KEY (domain, employer_key)
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS deletion_batches (
  id TEXT PRIMARY KEY,
  created_at TEXT NOT NULL,
  restored_at TEXT NOT NULL DEFAULT ''
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS deletion_items (
  batch_id TEXT NOT NULL REFERENCES deletion_batches(id) ON DELETE CASCADE,
  message_id TEXT NOT NULL,
  employer TEXT NOT NULL DEFAULT '',
  subject TEXT NOT NULL DEFAULT '',
  reason TEXT NOT NULL DEFAULT '',
  restored INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (batch_id, message_id)
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_applications_status
ON applications(status);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_applications_last_updated
ON applications(last_updated);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_employer_domains_employer
ON employer_domains(employer_key);
`); err != nil {
		return err
	}

	// Dev databases created before notes existed.
	if !columnExists(tx, "applications", "notes") {
		if _, err := tx.Exec(`ALTER TABLE applications ADD COLUMN notes TEXT NOT NULL DEFAULT '';`); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}

	return tx.Commit()
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}
