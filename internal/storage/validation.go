package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pcarvalho/dindim/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidDates    = errors.New("from date must not be after to date")
	ErrNegativeAmount  = errors.New("amount must be non-negative")
	ErrInvalidKind     = errors.New("kind must be INCOME or EXPENSE")
	ErrInvalidSession  = errors.New("invalid import session")
	ErrUnknownStatus   = errors.New("unknown session status")
	ErrEmptyTransition   = errors.New("transition requires at least one source status")
	ErrIllegalTransition = errors.New("illegal session transition")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateKind(kind model.TransactionKind) error {
	if kind != model.KindIncome && kind != model.KindExpense {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if err := validateString(txn.ID, "transaction id"); err != nil {
		return err
	}
	if err := validateKind(txn.Kind); err != nil {
		return err
	}
	if txn.Amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, txn.Amount)
	}
	return nil
}

func validateSession(session *model.ImportSession) error {
	if session == nil {
		return fmt.Errorf("%w: session", ErrNilParameter)
	}
	if err := validateString(session.ID, "session id"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if err := validateString(session.AccountID, "account id"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if err := validateString(session.BudgetID, "budget id"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	switch session.Status {
	case model.SessionPending, model.SessionProcessing, model.SessionClassified,
		model.SessionCompleted, model.SessionError, model.SessionCancelled:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, session.Status)
	}
	return nil
}
