package importer

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcarvalho/dindim/internal/common"
	"github.com/pcarvalho/dindim/internal/model"
	"github.com/pcarvalho/dindim/internal/storage"
	"github.com/pcarvalho/dindim/internal/testutil"
)

const nubankCSV = `Data;Valor;Descrição
05/01/2025;-123,45;Mercado Pao de Acucar
06/01/2025;1.500,00;Salario Empresa
07/01/2025;-35,90;Uber Trip
`

func setupService(t *testing.T) (*Service, *storage.SQLiteStorage, testutil.Fixtures) {
	t.Helper()
	store := testutil.SetupTestDB(t)
	fixtures := testutil.SeedFixtures(t, store)
	return New(store), store, fixtures
}

func TestCreateSession_ParsesStatement(t *testing.T) {
	ctx := context.Background()
	svc, _, f := setupService(t)

	session, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, model.SessionClassified, session.Status)
	assert.Equal(t, 3, session.TotalRows)
	assert.Empty(t, session.RowErrors)
	require.NotNil(t, session.ProcessedAt)

	details, err := svc.GetSessionDetails(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, details.Staged, 3)
	assert.Equal(t, Summary{Total: 3, Pending: 3}, details.Summary)

	first := details.Staged[0]
	assert.Equal(t, "Mercado Pao de Acucar", first.Canonical.Description)
	assert.Equal(t, model.KindExpense, first.Canonical.Kind)
	assert.True(t, decimal.RequireFromString("123.45").Equal(first.Canonical.Amount),
		"amount stored without sign, got %s", first.Canonical.Amount)
	assert.Equal(t, "2025-01-05", first.Canonical.Date.Format("2006-01-02"))
	raw, ok := first.Canonical.SourceRow.Get("Valor")
	require.True(t, ok)
	assert.Equal(t, "-123,45", raw)

	second := details.Staged[1]
	assert.Equal(t, model.KindIncome, second.Canonical.Kind)
	assert.True(t, decimal.RequireFromString("1500.00").Equal(second.Canonical.Amount))
}

func TestCreateSession_RowErrorsDoNotAbort(t *testing.T) {
	ctx := context.Background()
	svc, _, f := setupService(t)

	file := `Data;Valor;Descrição
05/01/2025;-10,00;Padaria
not-a-date;-20,00;Broken One
06/01/2025;abc;Broken Two
07/01/2025;-30,00;Farmacia
`
	session, err := svc.CreateSession(ctx, []byte(file),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)

	assert.Equal(t, model.SessionClassified, session.Status)
	assert.Equal(t, 4, session.TotalRows)
	require.Len(t, session.RowErrors, 2)
	assert.Equal(t, 2, session.RowErrors[0].Row)
	assert.Equal(t, 3, session.RowErrors[1].Row)

	details, err := svc.GetSessionDetails(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, details.Staged, 2)

	// Row errors survive a reload from the store.
	reloaded, err := svc.GetSessionDetails(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Session.RowErrors, 2)
}

func TestCreateSession_BlankRowsCountedOnly(t *testing.T) {
	ctx := context.Background()
	svc, _, f := setupService(t)

	file := "Data;Valor;Descrição\n05/01/2025;-10,00;Padaria\n;;\n06/01/2025;-20,00;Mercado\n"
	session, err := svc.CreateSession(ctx, []byte(file),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)

	assert.Equal(t, 3, session.TotalRows)
	assert.Empty(t, session.RowErrors)

	details, err := svc.GetSessionDetails(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, details.Staged, 2)
}

func TestCreateSession_NothingParsedFailsSession(t *testing.T) {
	ctx := context.Background()
	svc, store, f := setupService(t)

	file := "Data;Valor;Descrição\nbroken;also;bad\n"
	session, err := svc.CreateSession(ctx, []byte(file),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.Error(t, err)
	require.NotNil(t, session)
	assert.Equal(t, model.SessionError, session.Status)

	persisted, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionError, persisted.Status)
	assert.NotEmpty(t, persisted.ErrorDetail)
}

func TestCreateSession_UnreadableFileFailsSession(t *testing.T) {
	ctx := context.Background()
	svc, store, f := setupService(t)

	session, err := svc.CreateSession(ctx, []byte("%PDF-1.4 garbage"),
		model.FileTypePDF, f.Account.ID, f.Budget.ID, "extrato.pdf")
	require.Error(t, err)
	require.NotNil(t, session)
	assert.Equal(t, model.SessionError, session.Status)

	persisted, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionError, persisted.Status)
}

func TestCreateSession_AccountBudgetMismatch(t *testing.T) {
	ctx := context.Background()
	svc, store, f := setupService(t)

	require.NoError(t, store.CreateBudget(ctx, &model.Budget{ID: "budget-2", Name: "Viagem"}))

	session, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, "budget-2", "extrato.csv")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Nil(t, session)
}

func TestCreateSession_UnknownAccount(t *testing.T) {
	ctx := context.Background()
	svc, _, f := setupService(t)

	session, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, "missing", f.Budget.ID, "extrato.csv")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Nil(t, session)
}

func TestClassifyTransaction(t *testing.T) {
	ctx := context.Background()
	svc, store, f := setupService(t)

	session, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)

	details, err := svc.GetSessionDetails(ctx, session.ID)
	require.NoError(t, err)
	staged := details.Staged[0]

	updated, err := svc.ClassifyTransaction(ctx, session.ID, staged.ID, f.Category.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsClassified)
	assert.Equal(t, f.Category.ID, updated.CategoryID)

	details, err = svc.GetSessionDetails(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, details.Summary.Classified)
	assert.Equal(t, 2, details.Summary.Pending)

	// Category from another budget is invisible to the session.
	require.NoError(t, store.CreateBudget(ctx, &model.Budget{ID: "budget-2", Name: "Viagem"}))
	other := model.Category{ID: "cat-other", BudgetID: "budget-2", Name: "Hotel", Type: model.CategoryTypeExpense, IsActive: true}
	require.NoError(t, store.CreateCategory(ctx, &other))

	_, err = svc.ClassifyTransaction(ctx, session.ID, staged.ID, other.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.ClassifyTransaction(ctx, session.ID, "missing", f.Category.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestClassifyTransaction_TerminalSession(t *testing.T) {
	ctx := context.Background()
	svc, _, f := setupService(t)

	session, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)
	require.NoError(t, svc.CancelSession(ctx, session.ID))

	details, err := svc.GetSessionDetails(ctx, session.ID)
	require.NoError(t, err)
	require.Empty(t, details.Staged)

	_, err = svc.ClassifyTransaction(ctx, session.ID, "anything", f.Category.ID)
	assert.ErrorIs(t, err, common.ErrSessionTerminal)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func classifyAll(t *testing.T, svc *Service, sessionID, categoryID string) []model.StagedTransaction {
	t.Helper()
	ctx := context.Background()

	details, err := svc.GetSessionDetails(ctx, sessionID)
	require.NoError(t, err)
	for _, st := range details.Staged {
		_, err := svc.ClassifyTransaction(ctx, sessionID, st.ID, categoryID)
		require.NoError(t, err)
	}

	details, err = svc.GetSessionDetails(ctx, sessionID)
	require.NoError(t, err)
	return details.Staged
}

func TestConfirmImport_CommitsClassified(t *testing.T) {
	ctx := context.Background()
	svc, store, f := setupService(t)

	session, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)

	details, err := svc.GetSessionDetails(ctx, session.ID)
	require.NoError(t, err)
	// Classify only two of the three rows.
	for _, st := range details.Staged[:2] {
		_, err := svc.ClassifyTransaction(ctx, session.ID, st.ID, f.Category.ID)
		require.NoError(t, err)
	}

	result, err := svc.ConfirmImport(ctx, session.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ImportedCount)
	assert.Len(t, result.TransactionIDs, 2)

	persisted, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, persisted.Status)

	staged, err := store.GetStaged(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, staged, "staged rows discarded on commit")

	txns, err := store.GetTransactions(ctx, f.Account.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, txn := range txns {
		assert.Equal(t, f.Budget.ID, txn.BudgetID)
		assert.Equal(t, f.Category.ID, txn.CategoryID)
	}
}

func TestConfirmImport_Twice(t *testing.T) {
	ctx := context.Background()
	svc, store, f := setupService(t)

	session, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)
	classifyAll(t, svc, session.ID, f.Category.ID)

	_, err = svc.ConfirmImport(ctx, session.ID, false)
	require.NoError(t, err)

	_, err = svc.ConfirmImport(ctx, session.ID, false)
	assert.ErrorIs(t, err, common.ErrConflict)

	txns, err := store.GetTransactions(ctx, f.Account.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 3, "second confirm must not duplicate the batch")
}

func TestConfirmImport_AfterCancel(t *testing.T) {
	ctx := context.Background()
	svc, store, f := setupService(t)

	session, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)
	classifyAll(t, svc, session.ID, f.Category.ID)

	require.NoError(t, svc.CancelSession(ctx, session.ID))

	_, err = svc.ConfirmImport(ctx, session.ID, false)
	assert.ErrorIs(t, err, common.ErrConflict)

	txns, err := store.GetTransactions(ctx, f.Account.ID)
	require.NoError(t, err)
	assert.Empty(t, txns, "cancelled session must not reach permanent storage")
}

func TestCancelSession_Terminal(t *testing.T) {
	ctx := context.Background()
	svc, _, f := setupService(t)

	session, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)
	classifyAll(t, svc, session.ID, f.Category.ID)

	_, err = svc.ConfirmImport(ctx, session.ID, false)
	require.NoError(t, err)

	err = svc.CancelSession(ctx, session.ID)
	assert.ErrorIs(t, err, common.ErrConflict)

	err = svc.CancelSession(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDuplicateAnnotationAcrossImports(t *testing.T) {
	ctx := context.Background()
	svc, _, f := setupService(t)

	// First import commits everything.
	first, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)
	classifyAll(t, svc, first.ID, f.Category.ID)
	_, err = svc.ConfirmImport(ctx, first.ID, false)
	require.NoError(t, err)

	// Second import of the same file: every row matches a committed
	// transaction on date, amount, and kind.
	second, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)
	assert.Equal(t, model.SessionClassified, second.Status)

	details, err := svc.GetSessionDetails(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, details.Staged, 3)
	assert.Equal(t, 3, details.Summary.Duplicates)
	for _, st := range details.Staged {
		assert.True(t, st.IsDuplicate)
		assert.NotEmpty(t, st.DuplicateReason)
	}
}

func TestConfirmImport_DuplicateHandling(t *testing.T) {
	tests := []struct {
		name             string
		importDuplicates bool
		wantImported     int
		wantTotal        int
	}{
		{name: "duplicates skipped by default", importDuplicates: false, wantImported: 0, wantTotal: 3},
		{name: "duplicates forced in", importDuplicates: true, wantImported: 3, wantTotal: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store, f := setupService(t)

			first, err := svc.CreateSession(ctx, []byte(nubankCSV),
				model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
			require.NoError(t, err)
			classifyAll(t, svc, first.ID, f.Category.ID)
			_, err = svc.ConfirmImport(ctx, first.ID, false)
			require.NoError(t, err)

			second, err := svc.CreateSession(ctx, []byte(nubankCSV),
				model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
			require.NoError(t, err)
			classifyAll(t, svc, second.ID, f.Category.ID)

			result, err := svc.ConfirmImport(ctx, second.ID, tt.importDuplicates)
			require.NoError(t, err)
			assert.Equal(t, tt.wantImported, result.ImportedCount)

			persisted, err := store.GetSession(ctx, second.ID)
			require.NoError(t, err)
			assert.Equal(t, model.SessionCompleted, persisted.Status)

			txns, err := store.GetTransactions(ctx, f.Account.ID)
			require.NoError(t, err)
			assert.Len(t, txns, tt.wantTotal)
		})
	}
}

func TestProgressCallback(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	f := testutil.SeedFixtures(t, store)

	var calls int
	svc := New(store, WithProgress(func(done, total int) {
		calls++
		assert.Equal(t, 3, total)
	}))

	_, err := svc.CreateSession(ctx, []byte(nubankCSV),
		model.FileTypeCSV, f.Account.ID, f.Budget.ID, "extrato.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
