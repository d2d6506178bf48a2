package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_sync_runs_table",
		Up:      migration002AddSyncRunsTable,
	},
	{
		Version: 3,
		Name:    "add_audit_log_table",
		Up:      migration003AddAuditLogTable,
	},
	{
		Version: 4,
		Name:    "split_legacy_annotations",
		Up:      migration004SplitLegacyAnnotations,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		log.Printf("Migration %d complete", migration.Version)
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// ================================================================
// MIGRATION FUNCTIONS
// ================================================================

// migration001InitialSchema creates the users, transfers, and movements tables
func migration001InitialSchema(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			canonical_name TEXT NOT NULL,
			tax_id TEXT,
			wallet_alias TEXT,
			organization TEXT,
			external_ref TEXT,
			active BOOLEAN DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS transfers (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			operated_at TIMESTAMP,
			amount REAL,
			channel TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			movement_id TEXT,
			shift_tag TEXT,
			note TEXT,
			receipt_url TEXT,
			receipt_file_id TEXT,
			receipt_uploaded_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS movements (
			id TEXT PRIMARY KEY,
			channel TEXT,
			occurred_at TIMESTAMP,
			amount REAL,
			payer_name TEXT,
			payer_tax_id TEXT,
			name_norm TEXT,
			tax_id_norm TEXT,
			imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			source_file TEXT
		)`,

		// Indexes for the batch scan and the matching lookups
		`CREATE INDEX IF NOT EXISTS idx_transfers_user_id
		 ON transfers(user_id)`,

		`CREATE INDEX IF NOT EXISTS idx_transfers_status
		 ON transfers(status)`,

		`CREATE INDEX IF NOT EXISTS idx_transfers_operated_at
		 ON transfers(operated_at)`,

		`CREATE INDEX IF NOT EXISTS idx_transfers_movement_id
		 ON transfers(movement_id)`,

		`CREATE INDEX IF NOT EXISTS idx_movements_occurred_at
		 ON movements(occurred_at)`,

		`CREATE INDEX IF NOT EXISTS idx_movements_name_norm
		 ON movements(name_norm)`,

		`CREATE INDEX IF NOT EXISTS idx_movements_tax_id_norm
		 ON movements(tax_id_norm)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// migration002AddSyncRunsTable creates the sync_runs table
func migration002AddSyncRunsTable(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP,
			processed INTEGER DEFAULT 0,
			matched INTEGER DEFAULT 0,
			unmatched INTEGER DEFAULT 0,
			duplicates INTEGER DEFAULT 0,
			cutoff TIMESTAMP,
			status TEXT DEFAULT 'running',
			error TEXT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sync_runs_started
		 ON sync_runs(started_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// migration003AddAuditLogTable creates the audit_log table
func migration003AddAuditLogTable(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transfer_id TEXT NOT NULL,
			action TEXT NOT NULL,
			detail TEXT,
			actor TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_audit_log_transfer
		 ON audit_log(transfer_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// migration004SplitLegacyAnnotations moves the old combined "Turno=X | note"
// annotation out of the note column into the shift_tag column. Rows imported
// from the legacy sheets carry the combined form; rows created through the
// API never do.
func migration004SplitLegacyAnnotations(db *sql.Tx) error {
	rows, err := db.Query(`SELECT id, note FROM transfers WHERE note LIKE 'Turno=%'`)
	if err != nil {
		return err
	}

	type legacyRow struct {
		id   string
		note string
	}
	var pending []legacyRow
	for rows.Next() {
		var r legacyRow
		if err := rows.Scan(&r.id, &r.note); err != nil {
			_ = rows.Close()
			return err
		}
		pending = append(pending, r)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range pending {
		shiftTag, note := splitLegacyNote(r.note)
		if _, err := db.Exec(
			`UPDATE transfers SET shift_tag = ?, note = ? WHERE id = ?`,
			shiftTag, note, r.id,
		); err != nil {
			return err
		}
	}

	return nil
}
