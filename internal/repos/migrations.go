package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migration is one ordered schema step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationInfo describes a single migration.
type MigrationInfo struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// MigrationStatus reports the current and available schema versions.
type MigrationStatus struct {
	CurrentVersion   int             `json:"current_version"`
	AvailableVersion int             `json:"available_version"`
	Pending          []MigrationInfo `json:"pending"`
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "stocks table",
		SQL: `
CREATE TABLE IF NOT EXISTS stocks(
  id TEXT PRIMARY KEY,
  image BLOB NOT NULL,
  price REAL NOT NULL,
  detail TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_stocks_created_at ON stocks(created_at);
`,
	},
	{
		Version:     2,
		Description: "record the uploaded image content type",
		SQL: `
ALTER TABLE stocks ADD COLUMN content_type TEXT NOT NULL DEFAULT '';
`,
	},
}

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations(
  version INTEGER PRIMARY KEY,
  description TEXT NOT NULL,
  applied_at TEXT DEFAULT CURRENT_TIMESTAMP
);`

func currentVersion(db *sqlx.DB) (int, error) {
	if _, err := db.Exec(migrationsTable); err != nil {
		return 0, err
	}
	var v int
	if err := db.Get(&v, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return 0, err
	}
	return v, nil
}

// MigrationPlan reports which migrations have not been applied yet.
func MigrationPlan(db *sqlx.DB) (MigrationStatus, error) {
	cur, err := currentVersion(db)
	if err != nil {
		return MigrationStatus{}, err
	}
	st := MigrationStatus{
		CurrentVersion:   cur,
		AvailableVersion: migrations[len(migrations)-1].Version,
		Pending:          []MigrationInfo{},
	}
	for _, m := range migrations {
		if m.Version > cur {
			st.Pending = append(st.Pending, MigrationInfo{Version: m.Version, Description: m.Description})
		}
	}
	return st, nil
}

// Migrate applies every pending migration, each in its own transaction.
func Migrate(db *sqlx.DB) (int, error) {
	cur, err := currentVersion(db)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, m := range migrations {
		if m.Version <= cur {
			continue
		}
		tx, err := db.Beginx()
		if err != nil {
			return applied, err
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, description) VALUES(?, ?)`, m.Version, m.Description); err != nil {
			_ = tx.Rollback()
			return applied, err
		}
		if err := tx.Commit(); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}
