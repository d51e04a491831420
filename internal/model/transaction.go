// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind indicates whether a transaction moves money in or out.
type TransactionKind string

const (
	// KindIncome represents money entering the account.
	KindIncome TransactionKind = "INCOME"
	// KindExpense represents money leaving the account.
	KindExpense TransactionKind = "EXPENSE"
)

// KindFromSignedAmount derives the transaction kind from a signed amount.
// Negative amounts are expenses; zero and positive amounts are income.
func KindFromSignedAmount(amount decimal.Decimal) TransactionKind {
	if amount.IsNegative() {
		return KindExpense
	}
	return KindIncome
}

// Transaction is a committed, permanent transaction. Amount is always
// non-negative; the sign lives in Kind.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	ID          string
	BudgetID    string
	AccountID   string
	CategoryID  string
	Description string
	Kind        TransactionKind
	Amount      decimal.Decimal
}

// DuplicateKey returns the key used for duplicate detection: calendar date,
// absolute amount, and kind. Account scoping is handled by the caller, which
// only loads existing transactions for one account.
func (t *Transaction) DuplicateKey() string {
	return fmt.Sprintf("%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.Kind)
}

// CanonicalTransaction is a parsed statement row normalized to the internal
// representation, before it is staged or committed.
type CanonicalTransaction struct {
	Date        time.Time
	Description string
	Kind        TransactionKind
	Amount      decimal.Decimal
	SourceRow   RawRow
}
