package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcarvalho/dindim/internal/common"
	"github.com/pcarvalho/dindim/internal/model"
	"github.com/pcarvalho/dindim/internal/storage"
	"github.com/pcarvalho/dindim/internal/testutil"
)

func txnFixture(id string, f testutil.Fixtures, date time.Time, amount string, kind model.TransactionKind) model.Transaction {
	return model.Transaction{
		ID:          id,
		BudgetID:    f.Budget.ID,
		AccountID:   f.Account.ID,
		CategoryID:  f.Category.ID,
		Date:        date,
		Description: "Mercado",
		Amount:      decimal.RequireFromString(amount),
		Kind:        kind,
	}
}

func TestCommitBatch(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	f := testutil.SeedFixtures(t, store)

	require.NoError(t, store.CreateSession(ctx, newSession("sess-1", f, model.SessionClassified)))
	require.NoError(t, store.SaveParseResults(ctx, "sess-1",
		[]model.StagedTransaction{stagedFixture("st-1", "sess-1", 1)}, nil, 1))

	batch := []model.Transaction{
		txnFixture("txn-1", f, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), "123.45", model.KindExpense),
		txnFixture("txn-2", f, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), "1500.00", model.KindIncome),
	}

	ids, err := store.CommitBatch(ctx, "sess-1", batch)
	require.NoError(t, err)
	assert.Equal(t, []string{"txn-1", "txn-2"}, ids)

	session, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, session.Status)
	assert.NotNil(t, session.ProcessedAt)

	staged, err := store.GetStaged(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, staged)

	txns, err := store.GetTransactions(ctx, f.Account.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, model.KindExpense, txns[0].Kind)
	assert.True(t, decimal.RequireFromString("123.45").Equal(txns[0].Amount))
}

func TestCommitBatch_StatusGuard(t *testing.T) {
	tests := []struct {
		name    string
		status  model.SessionStatus
		wantErr error
	}{
		{name: "pending", status: model.SessionPending, wantErr: common.ErrConflict},
		{name: "completed", status: model.SessionCompleted, wantErr: common.ErrConflict},
		{name: "cancelled", status: model.SessionCancelled, wantErr: common.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := testutil.SetupTestDB(t)
			f := testutil.SeedFixtures(t, store)

			require.NoError(t, store.CreateSession(ctx, newSession("sess-1", f, tt.status)))

			batch := []model.Transaction{
				txnFixture("txn-1", f, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), "10.00", model.KindExpense),
			}
			_, err := store.CommitBatch(ctx, "sess-1", batch)
			assert.ErrorIs(t, err, tt.wantErr)

			txns, err := store.GetTransactions(ctx, f.Account.ID)
			require.NoError(t, err)
			assert.Empty(t, txns, "guarded commit must not write transactions")
		})
	}

	t.Run("missing session", func(t *testing.T) {
		ctx := context.Background()
		store := testutil.SetupTestDB(t)
		f := testutil.SeedFixtures(t, store)

		batch := []model.Transaction{
			txnFixture("txn-1", f, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), "10.00", model.KindExpense),
		}
		_, err := store.CommitBatch(ctx, "missing", batch)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestCommitBatch_RollsBackOnInsertFailure(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	f := testutil.SeedFixtures(t, store)

	require.NoError(t, store.CreateSession(ctx, newSession("sess-1", f, model.SessionClassified)))
	require.NoError(t, store.SaveParseResults(ctx, "sess-1",
		[]model.StagedTransaction{stagedFixture("st-1", "sess-1", 1)}, nil, 1))

	date := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	batch := []model.Transaction{
		txnFixture("txn-dup", f, date, "10.00", model.KindExpense),
		txnFixture("txn-dup", f, date, "20.00", model.KindExpense),
	}

	_, err := store.CommitBatch(ctx, "sess-1", batch)
	require.Error(t, err)

	// Everything rolled back: session still committable, staged intact.
	session, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionClassified, session.Status)

	staged, err := store.GetStaged(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, staged, 1)

	txns, err := store.GetTransactions(ctx, f.Account.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestCommitBatch_RejectsInvalidTransaction(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	f := testutil.SeedFixtures(t, store)

	require.NoError(t, store.CreateSession(ctx, newSession("sess-1", f, model.SessionClassified)))

	negative := txnFixture("txn-1", f, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), "10.00", model.KindExpense)
	negative.Amount = decimal.RequireFromString("-10.00")

	_, err := store.CommitBatch(ctx, "sess-1", []model.Transaction{negative})
	assert.ErrorIs(t, err, storage.ErrNegativeAmount)

	badKind := txnFixture("txn-2", f, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), "10.00", "TRANSFER")
	_, err = store.CommitBatch(ctx, "sess-1", []model.Transaction{badKind})
	assert.ErrorIs(t, err, storage.ErrInvalidKind)
}

func TestFindExisting(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	f := testutil.SeedFixtures(t, store)

	require.NoError(t, store.CreateSession(ctx, newSession("sess-1", f, model.SessionClassified)))

	batch := []model.Transaction{
		txnFixture("txn-1", f, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), "10.00", model.KindExpense),
		txnFixture("txn-2", f, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), "20.00", model.KindExpense),
		txnFixture("txn-3", f, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), "30.00", model.KindExpense),
	}
	_, err := store.CommitBatch(ctx, "sess-1", batch)
	require.NoError(t, err)

	// Bounds are inclusive on both ends.
	found, err := store.FindExisting(ctx, f.Account.ID,
		time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "txn-1", found[0].ID)
	assert.Equal(t, "txn-2", found[1].ID)

	found, err = store.FindExisting(ctx, f.Account.ID,
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = store.FindExisting(ctx, f.Account.ID,
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, storage.ErrInvalidDates)
}

func TestGetTransactionByID(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	f := testutil.SeedFixtures(t, store)

	require.NoError(t, store.CreateSession(ctx, newSession("sess-1", f, model.SessionClassified)))
	_, err := store.CommitBatch(ctx, "sess-1", []model.Transaction{
		txnFixture("txn-1", f, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), "10.00", model.KindExpense),
	})
	require.NoError(t, err)

	txn, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, f.Category.ID, txn.CategoryID)

	_, err = store.GetTransactionByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
