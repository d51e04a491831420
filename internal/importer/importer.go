// Package importer orchestrates the statement import pipeline: session
// creation, row parsing, duplicate annotation, classification, and the
// commit/cancel protocol.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pcarvalho/dindim/internal/common"
	"github.com/pcarvalho/dindim/internal/dedup"
	"github.com/pcarvalho/dindim/internal/extract"
	"github.com/pcarvalho/dindim/internal/model"
	"github.com/pcarvalho/dindim/internal/service"
	"github.com/pcarvalho/dindim/internal/statement"
)

// Summary aggregates the review state of a session's staged transactions.
type Summary struct {
	Total      int
	Classified int
	Duplicates int
	Pending    int
}

// SessionDetails is the full review view of one import session.
type SessionDetails struct {
	Session *model.ImportSession
	Staged  []model.StagedTransaction
	Summary Summary
}

// ImportResult reports a successful commit.
type ImportResult struct {
	TransactionIDs []string
	ImportedCount  int
}

// Service is the import core exposed to callers. Each session is parsed by a
// single goroutine; distinct sessions may run concurrently because they
// share no mutable state outside the store.
type Service struct {
	store      service.Storage
	extractors *extract.Registry
	formats    *statement.Registry
	detector   *dedup.Detector
	progress   func(done, total int)
}

// Option configures a Service.
type Option func(*Service)

// WithProgress installs a callback invoked after each parsed row.
func WithProgress(fn func(done, total int)) Option {
	return func(s *Service) { s.progress = fn }
}

// WithExtractors replaces the default extraction provider registry.
func WithExtractors(r *extract.Registry) Option {
	return func(s *Service) { s.extractors = r }
}

// WithFormats replaces the default statement format registry.
func WithFormats(r *statement.Registry) Option {
	return func(s *Service) { s.formats = r }
}

// New creates an import service backed by the given store.
func New(store service.Storage, opts ...Option) *Service {
	s := &Service{
		store:      store,
		extractors: extract.DefaultRegistry(),
		formats:    statement.DefaultRegistry(),
		detector:   dedup.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession ingests one statement file for the given account/budget
// pair: it creates the session, extracts and parses the rows, annotates
// duplicates, and leaves the session CLASSIFIED (or ERROR when the file was
// unreadable or yielded nothing). The session is returned even on failure so
// the caller can inspect it.
func (s *Service) CreateSession(ctx context.Context, file []byte, fileType model.FileType, accountID, budgetID, filename string) (*model.ImportSession, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.BudgetID != budgetID {
		return nil, fmt.Errorf("account %s does not belong to budget %s: %w", accountID, budgetID, common.ErrNotFound)
	}

	session := &model.ImportSession{
		ID:        uuid.NewString(),
		AccountID: accountID,
		BudgetID:  budgetID,
		Filename:  filename,
		FileType:  fileType,
		Status:    model.SessionPending,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	common.LogInfo("Import session created", common.Fields{
		"session_id": session.ID,
		"account_id": accountID,
		"filename":   filename,
		"file_type":  fileType,
	})

	provider, err := s.extractors.Get(fileType)
	if err != nil {
		return session, s.failSession(ctx, session, err)
	}

	result, err := provider.ExtractRows(ctx, file)
	if err != nil {
		// Unreadable file: fatal to the whole session, unlike row errors.
		return session, s.failSession(ctx, session, err)
	}

	if err := s.store.TransitionSession(ctx, session.ID,
		[]model.SessionStatus{model.SessionPending}, model.SessionProcessing, nil); err != nil {
		return session, err
	}
	session.Status = model.SessionProcessing

	format := s.formats.Detect(result.Header)
	outcome := s.parseRows(session.ID, format, result.Rows)

	if len(outcome.Staged) > 0 {
		if err := s.annotateDuplicates(ctx, accountID, outcome.Staged); err != nil {
			return session, s.failSession(ctx, session, err)
		}
	}

	if err := s.store.SaveParseResults(ctx, session.ID, outcome.Staged, outcome.Errors, outcome.TotalRows); err != nil {
		return session, s.failSession(ctx, session, err)
	}
	session.TotalRows = outcome.TotalRows
	session.RowErrors = outcome.Errors

	now := time.Now().UTC()
	if len(outcome.Staged) == 0 {
		err := fmt.Errorf("no transactions could be parsed from %s (%d rows, %d errors)",
			filename, outcome.TotalRows, len(outcome.Errors))
		return session, s.failSession(ctx, session, err)
	}

	if err := s.store.TransitionSession(ctx, session.ID,
		[]model.SessionStatus{model.SessionProcessing}, model.SessionClassified, &now); err != nil {
		return session, err
	}
	session.Status = model.SessionClassified
	session.ProcessedAt = &now

	common.LogInfo("Import session parsed", common.Fields{
		"session_id": session.ID,
		"format":     format,
		"staged":     len(outcome.Staged),
		"row_errors": len(outcome.Errors),
		"total_rows": outcome.TotalRows,
	})

	return session, nil
}

// annotateDuplicates loads the account's committed transactions covering the
// staged date range and marks probable duplicates.
func (s *Service) annotateDuplicates(ctx context.Context, accountID string, staged []model.StagedTransaction) error {
	from, to := staged[0].Canonical.Date, staged[0].Canonical.Date
	for _, st := range staged[1:] {
		if st.Canonical.Date.Before(from) {
			from = st.Canonical.Date
		}
		if st.Canonical.Date.After(to) {
			to = st.Canonical.Date
		}
	}

	existing, err := s.store.FindExisting(ctx, accountID, from, to)
	if err != nil {
		return err
	}
	s.detector.Annotate(staged, existing)
	return nil
}

// failSession moves a session to ERROR, recording the cause. The original
// error is returned for the caller.
func (s *Service) failSession(ctx context.Context, session *model.ImportSession, cause error) error {
	now := time.Now().UTC()
	if err := s.store.SetSessionError(ctx, session.ID, cause.Error()); err != nil {
		common.LogError(err, "Failed to record session error", common.Fields{"session_id": session.ID})
	}
	if err := s.store.TransitionSession(ctx, session.ID,
		[]model.SessionStatus{model.SessionPending, model.SessionProcessing, model.SessionClassified},
		model.SessionError, &now); err != nil {
		common.LogError(err, "Failed to mark session errored", common.Fields{"session_id": session.ID})
	}
	session.Status = model.SessionError
	session.ErrorDetail = cause.Error()
	session.ProcessedAt = &now
	return cause
}

// GetSessionDetails returns a session with its staged transactions and
// review summary.
func (s *Service) GetSessionDetails(ctx context.Context, sessionID string) (*SessionDetails, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	staged, err := s.store.GetStaged(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := Summary{Total: len(staged)}
	for _, st := range staged {
		if st.IsClassified {
			summary.Classified++
		} else {
			summary.Pending++
		}
		if st.IsDuplicate {
			summary.Duplicates++
		}
	}

	return &SessionDetails{Session: session, Staged: staged, Summary: summary}, nil
}

// ClassifyTransaction assigns a category to one staged transaction.
func (s *Service) ClassifyTransaction(ctx context.Context, sessionID, stagedID, categoryID string) (*model.StagedTransaction, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch {
	case session.Status == model.SessionProcessing || session.Status == model.SessionClassified:
	case !session.Mutable():
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, session.Status, common.ErrSessionTerminal)
	default:
		return nil, fmt.Errorf("session %s is %s, classification not allowed: %w",
			sessionID, session.Status, common.ErrConflict)
	}

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category.BudgetID != session.BudgetID {
		return nil, fmt.Errorf("category %s: %w", categoryID, common.ErrNotFound)
	}

	return s.store.ClassifyStaged(ctx, sessionID, stagedID, categoryID)
}

// ConfirmImport commits the approved staged transactions as one atomic
// batch: classified rows, plus duplicates only when importDuplicates is set.
// A second confirm on the same session fails with ErrConflict.
func (s *Service) ConfirmImport(ctx context.Context, sessionID string, importDuplicates bool) (*ImportResult, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionClassified {
		return nil, fmt.Errorf("session %s is %s, commit requires %s: %w",
			sessionID, session.Status, model.SessionClassified, common.ErrConflict)
	}

	staged, err := s.store.GetStaged(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	transactions := make([]model.Transaction, 0, len(staged))
	for i := range staged {
		st := &staged[i]
		if !st.IsClassified {
			continue
		}
		if st.IsDuplicate && !importDuplicates {
			continue
		}
		transactions = append(transactions,
			st.ToTransaction(uuid.NewString(), session.BudgetID, session.AccountID))
	}

	ids, err := s.store.CommitBatch(ctx, sessionID, transactions)
	if err != nil {
		if errors.Is(err, common.ErrConflict) || errors.Is(err, common.ErrNotFound) {
			// Lost a commit race or the session is gone; its state is
			// whatever the winner left.
			return nil, err
		}
		// Persistence failure: the batch rolled back, nothing was committed.
		return nil, s.failSession(ctx, session, fmt.Errorf("commit failed: %w", err))
	}

	common.LogInfo("Import session committed", common.Fields{
		"session_id": sessionID,
		"imported":   len(ids),
		"skipped":    len(staged) - len(ids),
	})

	return &ImportResult{ImportedCount: len(ids), TransactionIDs: ids}, nil
}

// CancelSession cancels a non-terminal session and discards its staged data.
// Permanent storage is never touched; cancelling after a completed commit
// fails with ErrConflict.
func (s *Service) CancelSession(ctx context.Context, sessionID string) error {
	if err := s.store.CancelSession(ctx, sessionID, time.Now().UTC()); err != nil {
		return err
	}

	common.LogInfo("Import session cancelled", common.Fields{"session_id": sessionID})
	return nil
}
