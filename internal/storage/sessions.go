package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pcarvalho/dindim/internal/common"
	"github.com/pcarvalho/dindim/internal/model"
)

// CreateSession persists a new import session.
func (s *SQLiteStorage) CreateSession(ctx context.Context, session *model.ImportSession) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_sessions (id, account_id, budget_id, filename, file_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.AccountID, session.BudgetID, session.Filename,
		string(session.FileType), string(session.Status), session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session %s: %w", session.ID, err)
	}
	return nil
}

// GetSession loads a session with its row errors.
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*model.ImportSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var (
		session     model.ImportSession
		fileType    string
		status      string
		processedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, budget_id, filename, file_type, status,
		       error_detail, total_rows, created_at, processed_at
		FROM import_sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.AccountID, &session.BudgetID, &session.Filename,
		&fileType, &status, &session.ErrorDetail, &session.TotalRows,
		&session.CreatedAt, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session %s: %w", id, err)
	}

	session.FileType = model.FileType(fileType)
	session.Status = model.SessionStatus(status)
	if processedAt.Valid {
		t := processedAt.Time
		session.ProcessedAt = &t
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_number, message FROM import_errors
		WHERE session_id = ? ORDER BY row_number
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query row errors for session %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var re model.RowError
		if err := rows.Scan(&re.Row, &re.Message); err != nil {
			return nil, fmt.Errorf("failed to scan row error: %w", err)
		}
		session.RowErrors = append(session.RowErrors, re)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate row errors: %w", err)
	}

	return &session, nil
}

// ListSessions returns the sessions of a budget, newest first, without their
// row errors.
func (s *SQLiteStorage) ListSessions(ctx context.Context, budgetID string) ([]model.ImportSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, budget_id, filename, file_type, status,
		       error_detail, total_rows, created_at, processed_at
		FROM import_sessions WHERE budget_id = ?
		ORDER BY created_at DESC, id
	`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.ImportSession
	for rows.Next() {
		var (
			session     model.ImportSession
			fileType    string
			status      string
			processedAt sql.NullTime
		)
		if err := rows.Scan(&session.ID, &session.AccountID, &session.BudgetID, &session.Filename,
			&fileType, &status, &session.ErrorDetail, &session.TotalRows,
			&session.CreatedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		session.FileType = model.FileType(fileType)
		session.Status = model.SessionStatus(status)
		if processedAt.Valid {
			t := processedAt.Time
			session.ProcessedAt = &t
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// TransitionSession conditionally moves a session between lifecycle states.
// The WHERE clause on the current status is the exactly-once guard: a second
// commit or a cancel-after-commit affects zero rows and returns ErrConflict.
func (s *SQLiteStorage) TransitionSession(ctx context.Context, id string, from []model.SessionStatus, to model.SessionStatus, processedAt *time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if len(from) == 0 {
		return ErrEmptyTransition
	}
	for _, st := range from {
		if !st.CanTransition(to) {
			return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, st, to)
		}
	}

	placeholders := strings.Repeat("?,", len(from))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(from)+3)
	args = append(args, string(to))
	if processedAt != nil {
		args = append(args, *processedAt)
	} else {
		args = append(args, nil)
	}
	args = append(args, id)
	for _, st := range from {
		args = append(args, string(st))
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE import_sessions
		SET status = ?, processed_at = COALESCE(?, processed_at)
		WHERE id = ? AND status IN (%s)
	`, placeholders), args...)
	if err != nil {
		return fmt.Errorf("failed to transition session %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return s.transitionFailure(ctx, id, to)
	}
	return nil
}

// transitionFailure distinguishes a missing session from a state conflict.
func (s *SQLiteStorage) transitionFailure(ctx context.Context, id string, to model.SessionStatus) error {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM import_sessions WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query session %s: %w", id, err)
	}
	return fmt.Errorf("session %s is %s, cannot move to %s: %w", id, status, to, common.ErrConflict)
}

// SetSessionError records the fatal error detail on a session.
func (s *SQLiteStorage) SetSessionError(ctx context.Context, id string, detail string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE import_sessions SET error_detail = ? WHERE id = ?`, detail, id)
	if err != nil {
		return fmt.Errorf("failed to set error detail on session %s: %w", id, err)
	}
	return nil
}

// SaveParseResults stores the staged transactions, row errors, and row count
// of one parse pass in a single database transaction.
func (s *SQLiteStorage) SaveParseResults(ctx context.Context, sessionID string, staged []model.StagedTransaction, rowErrors []model.RowError, totalRows int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO staged_transactions (
			id, session_id, position, date, description, amount, kind,
			source_row, category_id, is_classified, is_duplicate, duplicate_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare staged insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, st := range staged {
		sourceRow, err := json.Marshal(st.Canonical.SourceRow)
		if err != nil {
			return fmt.Errorf("failed to marshal source row for %s: %w", st.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			st.ID, sessionID, st.Position,
			dateToDB(st.Canonical.Date), st.Canonical.Description,
			st.Canonical.Amount.String(), string(st.Canonical.Kind),
			string(sourceRow), nullable(st.CategoryID),
			st.IsClassified, st.IsDuplicate, st.DuplicateReason,
		); err != nil {
			return fmt.Errorf("failed to insert staged transaction %s: %w", st.ID, err)
		}
	}

	for _, re := range rowErrors {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO import_errors (session_id, row_number, message) VALUES (?, ?, ?)
		`, sessionID, re.Row, re.Message); err != nil {
			return fmt.Errorf("failed to insert row error: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE import_sessions SET total_rows = ? WHERE id = ?`, totalRows, sessionID); err != nil {
		return fmt.Errorf("failed to update session row count: %w", err)
	}

	return tx.Commit()
}

const stagedColumns = `id, session_id, position, date, description, amount, kind,
	source_row, category_id, is_classified, is_duplicate, duplicate_reason`

// GetStaged returns a session's staged transactions in file order.
func (s *SQLiteStorage) GetStaged(ctx context.Context, sessionID string) ([]model.StagedTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM staged_transactions WHERE session_id = ? ORDER BY position
	`, stagedColumns), sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query staged transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var staged []model.StagedTransaction
	for rows.Next() {
		st, err := scanStaged(rows)
		if err != nil {
			return nil, err
		}
		staged = append(staged, *st)
	}
	return staged, rows.Err()
}

// GetStagedByID returns one staged transaction, scoped to its session.
func (s *SQLiteStorage) GetStagedByID(ctx context.Context, sessionID, stagedID string) (*model.StagedTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}
	if err := validateString(stagedID, "stagedID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM staged_transactions WHERE id = ? AND session_id = ?
	`, stagedColumns), stagedID, sessionID)

	st, err := scanStaged(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("staged transaction %s in session %s: %w", stagedID, sessionID, common.ErrNotFound)
	}
	return st, err
}

// ClassifyStaged sets the category on one staged transaction and marks it
// classified. The session scoping in the WHERE clause ensures a staged id
// from another session reads as not found.
func (s *SQLiteStorage) ClassifyStaged(ctx context.Context, sessionID, stagedID, categoryID string) (*model.StagedTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE staged_transactions SET category_id = ?, is_classified = 1
		WHERE id = ? AND session_id = ?
	`, categoryID, stagedID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to classify staged transaction %s: %w", stagedID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("staged transaction %s in session %s: %w", stagedID, sessionID, common.ErrNotFound)
	}

	return s.GetStagedByID(ctx, sessionID, stagedID)
}

// CancelSession flips a mutable session to CANCELLED and discards its staged
// transactions in one database transaction, so a crash cannot leave staged
// rows attached to a cancelled session. Terminal sessions yield ErrConflict.
func (s *SQLiteStorage) CancelSession(ctx context.Context, id string, processedAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE import_sessions SET status = ?, processed_at = ?
		WHERE id = ? AND status IN (?, ?, ?)
	`, string(model.SessionCancelled), processedAt, id,
		string(model.SessionPending), string(model.SessionProcessing), string(model.SessionClassified))
	if err != nil {
		return fmt.Errorf("failed to cancel session %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return s.transitionFailure(ctx, id, model.SessionCancelled)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM staged_transactions WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to discard staged transactions: %w", err)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaged(r rowScanner) (*model.StagedTransaction, error) {
	var (
		st         model.StagedTransaction
		dateStr    string
		amountStr  string
		kind       string
		sourceRow  string
		categoryID sql.NullString
	)
	if err := r.Scan(&st.ID, &st.SessionID, &st.Position, &dateStr,
		&st.Canonical.Description, &amountStr, &kind, &sourceRow,
		&categoryID, &st.IsClassified, &st.IsDuplicate, &st.DuplicateReason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan staged transaction: %w", err)
	}

	date, err := dateFromDB(dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse staged date %q: %w", dateStr, err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse staged amount %q: %w", amountStr, err)
	}
	if err := json.Unmarshal([]byte(sourceRow), &st.Canonical.SourceRow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source row: %w", err)
	}

	st.Canonical.Date = date
	st.Canonical.Amount = amount
	st.Canonical.Kind = model.TransactionKind(kind)
	st.CategoryID = categoryID.String
	return &st, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
