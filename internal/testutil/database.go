// Package testutil provides shared helpers for tests that need a real
// database.
package testutil

import (
	"context"
	"testing"

	"github.com/pcarvalho/dindim/internal/model"
	"github.com/pcarvalho/dindim/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite store and registers its
// cleanup with the test.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return store
}

// Fixtures is the minimal reference data most import tests need.
type Fixtures struct {
	Budget   model.Budget
	Account  model.Account
	Category model.Category
}

// SeedFixtures creates one budget, one account, and one expense category.
func SeedFixtures(t *testing.T, store *storage.SQLiteStorage) Fixtures {
	t.Helper()
	ctx := context.Background()

	f := Fixtures{
		Budget:   model.Budget{ID: "budget-1", Name: "Casa"},
		Account:  model.Account{ID: "account-1", BudgetID: "budget-1", Name: "Nubank Conta"},
		Category: model.Category{ID: "cat-mercado", BudgetID: "budget-1", Name: "Mercado", Type: model.CategoryTypeExpense, IsActive: true},
	}

	if err := store.CreateBudget(ctx, &f.Budget); err != nil {
		t.Fatalf("failed to seed budget: %v", err)
	}
	if err := store.CreateAccount(ctx, &f.Account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	if err := store.CreateCategory(ctx, &f.Category); err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	return f
}
