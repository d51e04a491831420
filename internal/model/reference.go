package model

import "time"

// Account is a bank account within a budget.
type Account struct {
	CreatedAt time.Time
	ID        string
	BudgetID  string
	Name      string
}

// Budget is the top-level unit of sharing; every account, category, and
// transaction belongs to exactly one budget.
type Budget struct {
	CreatedAt time.Time
	ID        string
	Name      string
}

// CategoryType indicates whether a category applies to income or expenses.
type CategoryType string

const (
	// CategoryTypeIncome marks categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense marks categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
)

// Category is a user-defined transaction category.
type Category struct {
	CreatedAt time.Time
	ID        string
	BudgetID  string
	Name      string
	Type      CategoryType
	IsActive  bool
}
