// Package service defines the interfaces between the import core and its
// collaborators.
package service

import (
	"context"
	"time"

	"github.com/pcarvalho/dindim/internal/model"
)

// Storage defines the contract for the persistence layer. Implementations
// must provide per-budget transactional writes: CommitBatch is all-or-nothing.
type Storage interface {
	// Import session operations
	CreateSession(ctx context.Context, session *model.ImportSession) error
	GetSession(ctx context.Context, id string) (*model.ImportSession, error)
	ListSessions(ctx context.Context, budgetID string) ([]model.ImportSession, error)
	// TransitionSession moves a session to the given status only if its
	// current status is one of from; otherwise it returns common.ErrConflict.
	// This conditional update is what makes commit and cancel exactly-once.
	// Transitions the lifecycle state machine forbids are rejected outright.
	TransitionSession(ctx context.Context, id string, from []model.SessionStatus, to model.SessionStatus, processedAt *time.Time) error
	SetSessionError(ctx context.Context, id string, detail string) error
	// CancelSession atomically moves a mutable session to CANCELLED and
	// discards its staged transactions.
	CancelSession(ctx context.Context, id string, processedAt time.Time) error

	// Staged transaction operations
	SaveParseResults(ctx context.Context, sessionID string, staged []model.StagedTransaction, rowErrors []model.RowError, totalRows int) error
	GetStaged(ctx context.Context, sessionID string) ([]model.StagedTransaction, error)
	GetStagedByID(ctx context.Context, sessionID, stagedID string) (*model.StagedTransaction, error)
	ClassifyStaged(ctx context.Context, sessionID, stagedID, categoryID string) (*model.StagedTransaction, error)

	// Committed transaction operations
	// CommitBatch atomically inserts the transactions, transitions the
	// session CLASSIFIED → COMPLETED, and discards its staged rows. A
	// session not in CLASSIFIED yields common.ErrConflict and no writes.
	CommitBatch(ctx context.Context, sessionID string, transactions []model.Transaction) ([]string, error)
	FindExisting(ctx context.Context, accountID string, from, to time.Time) ([]model.Transaction, error)
	GetTransactions(ctx context.Context, accountID string) ([]model.Transaction, error)

	// Reference data
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, id string) (*model.Budget, error)
	ListBudgets(ctx context.Context) ([]model.Budget, error)
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListAccounts(ctx context.Context, budgetID string) ([]model.Account, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	ListCategories(ctx context.Context, budgetID string) ([]model.Category, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
