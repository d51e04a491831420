package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pcarvalho/dindim/internal/common"
	"github.com/pcarvalho/dindim/internal/model"
)

// CommitBatch promotes the given transactions to permanent storage as a
// single atomic batch. Within one database transaction it flips the session
// CLASSIFIED → COMPLETED, inserts every transaction, and discards the
// session's staged rows. A session in any other state yields ErrConflict and
// nothing is written; any insert failure rolls the whole batch back.
func (s *SQLiteStorage) CommitBatch(ctx context.Context, sessionID string, transactions []model.Transaction) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE import_sessions SET status = ?, processed_at = ?
		WHERE id = ? AND status = ?
	`, string(model.SessionCompleted), now, sessionID, string(model.SessionClassified))
	if err != nil {
		return nil, fmt.Errorf("failed to complete session %s: %w", sessionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, s.transitionFailure(ctx, sessionID, model.SessionCompleted)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, budget_id, account_id, category_id, date, description, amount, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	ids := make([]string, 0, len(transactions))
	for _, txn := range transactions {
		if _, err := stmt.ExecContext(ctx,
			txn.ID, txn.BudgetID, txn.AccountID, nullable(txn.CategoryID),
			dateToDB(txn.Date), txn.Description, txn.Amount.String(), string(txn.Kind), now,
		); err != nil {
			return nil, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
		ids = append(ids, txn.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM staged_transactions WHERE session_id = ?`, sessionID); err != nil {
		return nil, fmt.Errorf("failed to discard staged transactions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return ids, nil
}

// FindExisting returns an account's committed transactions within the given
// date range, inclusive, ordered by date then id.
func (s *SQLiteStorage) FindExisting(ctx context.Context, accountID string, from, to time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidDates, dateToDB(from), dateToDB(to))
	}

	return s.queryTransactions(ctx, `
		SELECT id, budget_id, account_id, category_id, date, description, amount, kind, created_at
		FROM transactions
		WHERE account_id = ? AND date >= ? AND date <= ?
		ORDER BY date, id
	`, accountID, dateToDB(from), dateToDB(to))
}

// GetTransactions returns all committed transactions of an account.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx, `
		SELECT id, budget_id, account_id, category_id, date, description, amount, kind, created_at
		FROM transactions
		WHERE account_id = ?
		ORDER BY date, id
	`, accountID)
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var (
			txn        model.Transaction
			categoryID sql.NullString
			dateStr    string
			amountStr  string
			kind       string
		)
		if err := rows.Scan(&txn.ID, &txn.BudgetID, &txn.AccountID, &categoryID,
			&dateStr, &txn.Description, &amountStr, &kind, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Date, err = dateFromDB(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction date %q: %w", dateStr, err)
		}
		txn.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction amount %q: %w", amountStr, err)
		}
		txn.CategoryID = categoryID.String
		txn.Kind = model.TransactionKind(kind)
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

// GetTransactionByID returns one committed transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	txns, err := s.queryTransactions(ctx, `
		SELECT id, budget_id, account_id, category_id, date, description, amount, kind, created_at
		FROM transactions WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return &txns[0], nil
}
