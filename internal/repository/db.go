package repository

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dsn == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS file_sequences (
			tenant TEXT NOT NULL,
			bank_code TEXT NOT NULL,
			last_sequence INTEGER NOT NULL,
			PRIMARY KEY (tenant, bank_code)
		)`,

		`CREATE TABLE IF NOT EXISTS remittance_files (
			id TEXT PRIMARY KEY,
			tenant TEXT NOT NULL,
			bank_code TEXT NOT NULL,
			layout TEXT NOT NULL,
			bank_config TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_sequence INTEGER NOT NULL,
			generated_at DATETIME NOT NULL,
			payment_date DATETIME,
			declared_count INTEGER NOT NULL,
			declared_lines INTEGER NOT NULL,
			declared_total INTEGER NOT NULL,
			content BLOB NOT NULL,
			content_hash TEXT NOT NULL,
			status TEXT NOT NULL,
			UNIQUE (tenant, bank_code, file_sequence)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_remittance_files_tenant ON remittance_files(tenant)`,

		`CREATE TABLE IF NOT EXISTS remittance_records (
			file_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			tenant TEXT NOT NULL,
			control_number TEXT UNIQUE NOT NULL,
			segment TEXT NOT NULL,
			employee_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			payment TEXT NOT NULL,
			PRIMARY KEY (file_id, sequence),
			FOREIGN KEY (file_id) REFERENCES remittance_files(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_remittance_records_tenant_control ON remittance_records(tenant, control_number)`,

		`CREATE TABLE IF NOT EXISTS remittance_lines (
			file_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			position INTEGER NOT NULL,
			segment TEXT NOT NULL,
			raw BLOB NOT NULL,
			PRIMARY KEY (file_id, sequence, position),
			FOREIGN KEY (file_id, sequence) REFERENCES remittance_records(file_id, sequence)
		)`,

		`CREATE TABLE IF NOT EXISTS return_files (
			id TEXT PRIMARY KEY,
			tenant TEXT NOT NULL,
			bank_code TEXT NOT NULL,
			layout TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_sequence INTEGER NOT NULL,
			parsed_at DATETIME NOT NULL,
			declared_lines INTEGER NOT NULL,
			observed_lines INTEGER NOT NULL,
			declared_total INTEGER NOT NULL,
			observed_total INTEGER NOT NULL,
			content_hash TEXT NOT NULL,
			status TEXT NOT NULL,
			UNIQUE (tenant, content_hash)
		)`,

		`CREATE TABLE IF NOT EXISTS return_records (
			return_file_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			line INTEGER NOT NULL,
			control_number TEXT NOT NULL,
			occurrence_code TEXT NOT NULL,
			occurrences TEXT NOT NULL,
			message TEXT NOT NULL,
			scheduled_amount INTEGER NOT NULL,
			settled_amount INTEGER NOT NULL,
			settlement_date DATETIME,
			PRIMARY KEY (return_file_id, sequence),
			FOREIGN KEY (return_file_id) REFERENCES return_files(id)
		)`,

		`CREATE TABLE IF NOT EXISTS reconciliation_results (
			return_file_id TEXT NOT NULL,
			control_number TEXT NOT NULL,
			status TEXT NOT NULL,
			occurrence_code TEXT NOT NULL,
			message TEXT NOT NULL,
			settled_amount INTEGER NOT NULL,
			settlement_date DATETIME,
			applied_at DATETIME NOT NULL,
			PRIMARY KEY (return_file_id, control_number),
			FOREIGN KEY (return_file_id) REFERENCES return_files(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reconciliation_results_control ON reconciliation_results(control_number)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

// Times are stored as RFC 3339 text; the zero time is stored as NULL.

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s.String, err)
	}
	return t, nil
}
