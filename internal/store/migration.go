package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Migration is one step of the catalog schema
type Migration struct {
	Version     int
	Description string
	SQL         string
	// Apply runs before SQL for changes SQLite cannot express idempotently
	Apply func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial catalog with sessions, scalars and arrays",
		SQL: `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    source_path TEXT NOT NULL,
    session_index INTEGER NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    experiment TEXT NOT NULL DEFAULT '',
    group_name TEXT NOT NULL DEFAULT '',
    box TEXT NOT NULL DEFAULT '',
    box_numeric BOOLEAN NOT NULL DEFAULT 0,
    msn TEXT NOT NULL DEFAULT '',
    start_date TEXT NOT NULL DEFAULT '',
    end_date TEXT NOT NULL DEFAULT '',
    start_time TEXT NOT NULL DEFAULT '',
    end_time TEXT NOT NULL DEFAULT '',
    started_at TIMESTAMP,
    imported_at TIMESTAMP NOT NULL,
    UNIQUE (source_path, session_index)
);

CREATE INDEX IF NOT EXISTS idx_sessions_source ON sessions(source_path);
CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at DESC);

CREATE TABLE IF NOT EXISTS scalars (
    session_id TEXT NOT NULL,
    name TEXT NOT NULL,
    value REAL NOT NULL,
    PRIMARY KEY (session_id, name),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS arrays (
    session_id TEXT NOT NULL,
    name TEXT NOT NULL,
    length INTEGER NOT NULL,
    data TEXT NOT NULL,
    PRIMARY KEY (session_id, name),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);
`,
	},
	{
		Version:     2,
		Description: "Add issues column and subject index",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			return addColumnIfNotExists(ctx, tx, "sessions", "issues", "TEXT NOT NULL DEFAULT '[]'")
		},
		SQL: `
CREATE INDEX IF NOT EXISTS idx_sessions_subject ON sessions(subject);
`,
	},
}

// MigrationVersion records an applied migration
type MigrationVersion struct {
	Version   int
	AppliedAt time.Time
}

// ApplyMigrations applies all pending migrations in one transaction
func (s *Store) ApplyMigrations(ctx context.Context) error {
	return s.retry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
)`); err != nil {
			return fmt.Errorf("ensure schema_version table: %w", err)
		}

		applied, err := appliedVersionsTx(ctx, tx)
		if err != nil {
			return err
		}

		for _, m := range migrations {
			if applied[m.Version] {
				continue
			}
			if m.Apply != nil {
				if err := m.Apply(ctx, tx); err != nil {
					return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
				}
			}
			if m.SQL != "" {
				if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
					return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
				}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`,
				m.Version, time.Now().UTC()); err != nil {
				return fmt.Errorf("record migration %d: %w", m.Version, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migrations: %w", err)
		}
		return nil
	})
}

// GetAppliedVersions returns the applied migrations in version order
func (s *Store) GetAppliedVersions(ctx context.Context) ([]MigrationVersion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, applied_at FROM schema_version ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	var versions []MigrationVersion
	for rows.Next() {
		var v MigrationVersion
		if err := rows.Scan(&v.Version, &v.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan schema version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// GetLatestVersion returns the highest applied migration version, 0 if none
func (s *Store) GetLatestVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return int(version.Int64), nil
}

func appliedVersionsTx(ctx context.Context, tx *sql.Tx) (map[int]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, fmt.Errorf("get applied versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan applied version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// addColumnIfNotExists adds a column unless PRAGMA table_info already lists it.
// SQLite has no ADD COLUMN IF NOT EXISTS.
func addColumnIfNotExists(ctx context.Context, tx *sql.Tx, table, column, definition string) error {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("query table info: %w", err)
	}

	exists := false
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("scan table info: %w", err)
		}
		if name == column {
			exists = true
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate table info: %w", err)
	}
	rows.Close()

	if exists {
		return nil
	}

	alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
	if _, err := tx.ExecContext(ctx, alter); err != nil {
		if strings.Contains(err.Error(), "duplicate column name") {
			return nil
		}
		return fmt.Errorf("alter table: %w", err)
	}
	return nil
}
