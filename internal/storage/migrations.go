package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS budgets (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					name TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_accounts_budget ON accounts(budget_id)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					name TEXT NOT NULL,
					type TEXT NOT NULL,
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(budget_id, name)
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					account_id TEXT NOT NULL REFERENCES accounts(id),
					category_id TEXT,
					date TEXT NOT NULL,
					description TEXT NOT NULL,
					amount TEXT NOT NULL,
					kind TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS import_sessions (
					id TEXT PRIMARY KEY,
					account_id TEXT NOT NULL REFERENCES accounts(id),
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					filename TEXT NOT NULL,
					file_type TEXT NOT NULL,
					status TEXT NOT NULL,
					error_detail TEXT DEFAULT '',
					total_rows INTEGER DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					processed_at DATETIME
				)`,
				`CREATE INDEX idx_sessions_budget ON import_sessions(budget_id)`,

				`CREATE TABLE IF NOT EXISTS staged_transactions (
					id TEXT PRIMARY KEY,
					session_id TEXT NOT NULL REFERENCES import_sessions(id) ON DELETE CASCADE,
					position INTEGER NOT NULL,
					date TEXT NOT NULL,
					description TEXT NOT NULL,
					amount TEXT NOT NULL,
					kind TEXT NOT NULL,
					source_row TEXT NOT NULL,
					category_id TEXT,
					is_classified BOOLEAN DEFAULT 0,
					is_duplicate BOOLEAN DEFAULT 0,
					duplicate_reason TEXT DEFAULT ''
				)`,
				`CREATE INDEX idx_staged_session ON staged_transactions(session_id)`,

				`CREATE TABLE IF NOT EXISTS import_errors (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT NOT NULL REFERENCES import_sessions(id) ON DELETE CASCADE,
					row_number INTEGER NOT NULL,
					message TEXT NOT NULL
				)`,
				`CREATE INDEX idx_import_errors_session ON import_errors(session_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index transactions for duplicate lookups",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, date)`)
			return err
		},
	},
}

// Migrate applies pending schema migrations, tracked via PRAGMA user_version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Debug("Applied migration",
			"version", m.Version,
			"description", m.Description)
	}

	return nil
}
