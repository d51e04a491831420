package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pcarvalho/dindim/internal/common"
	"github.com/pcarvalho/dindim/internal/model"
)

// CreateBudget persists a new budget.
func (s *SQLiteStorage) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if err := validateString(budget.ID, "budget id"); err != nil {
		return err
	}
	if err := validateString(budget.Name, "budget name"); err != nil {
		return err
	}

	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, name, created_at) VALUES (?, ?, ?)`,
		budget.ID, budget.Name, budget.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert budget %s: %w", budget.ID, err)
	}
	return nil
}

// GetBudget loads one budget.
func (s *SQLiteStorage) GetBudget(ctx context.Context, id string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var b model.Budget
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM budgets WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query budget %s: %w", id, err)
	}
	return &b, nil
}

// ListBudgets returns all budgets.
func (s *SQLiteStorage) ListBudgets(ctx context.Context) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM budgets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		var b model.Budget
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// CreateAccount persists a new account.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if err := validateString(account.ID, "account id"); err != nil {
		return err
	}
	if err := validateString(account.BudgetID, "account budget id"); err != nil {
		return err
	}
	if err := validateString(account.Name, "account name"); err != nil {
		return err
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, budget_id, name, created_at) VALUES (?, ?, ?, ?)`,
		account.ID, account.BudgetID, account.Name, account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert account %s: %w", account.ID, err)
	}
	return nil
}

// GetAccount loads one account.
func (s *SQLiteStorage) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var a model.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, budget_id, name, created_at FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.BudgetID, &a.Name, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account %s: %w", id, err)
	}
	return &a, nil
}

// ListAccounts returns a budget's accounts.
func (s *SQLiteStorage) ListAccounts(ctx context.Context, budgetID string) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, budget_id, name, created_at FROM accounts WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.BudgetID, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// CreateCategory persists a new category. Names are unique per budget.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if err := validateString(category.ID, "category id"); err != nil {
		return err
	}
	if err := validateString(category.BudgetID, "category budget id"); err != nil {
		return err
	}
	if err := validateString(category.Name, "category name"); err != nil {
		return err
	}
	if category.Type != model.CategoryTypeIncome && category.Type != model.CategoryTypeExpense {
		return fmt.Errorf("invalid category type %q", category.Type)
	}

	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, budget_id, name, type, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, category.ID, category.BudgetID, category.Name, string(category.Type),
		category.IsActive, category.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert category %s: %w", category.ID, err)
	}
	return nil
}

// GetCategory loads one category.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var (
		c     model.Category
		ctype string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, budget_id, name, type, is_active, created_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.BudgetID, &c.Name, &ctype, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category %s: %w", id, err)
	}
	c.Type = model.CategoryType(ctype)
	return &c, nil
}

// ListCategories returns a budget's categories.
func (s *SQLiteStorage) ListCategories(ctx context.Context, budgetID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, budget_id, name, type, is_active, created_at
		FROM categories WHERE budget_id = ? ORDER BY name
	`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var (
			c     model.Category
			ctype string
		)
		if err := rows.Scan(&c.ID, &c.BudgetID, &c.Name, &ctype, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Type = model.CategoryType(ctype)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
