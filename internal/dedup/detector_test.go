package dedup

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcarvalho/dindim/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stagedTxn(day int, amount string, kind model.TransactionKind) model.StagedTransaction {
	return model.StagedTransaction{
		ID: "staged",
		Canonical: model.CanonicalTransaction{
			Date:   date(2025, time.October, day),
			Amount: decimal.RequireFromString(amount),
			Kind:   kind,
		},
	}
}

func committedTxn(id string, day int, amount string, kind model.TransactionKind) model.Transaction {
	return model.Transaction{
		ID:          id,
		Date:        date(2025, time.October, day),
		Amount:      decimal.RequireFromString(amount),
		Kind:        kind,
		Description: "existing",
	}
}

func TestDetector_Annotate(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		staged   model.StagedTransaction
		existing []model.Transaction
		wantDup  bool
	}{
		{
			name:     "exact match flags duplicate",
			staged:   stagedTxn(5, "350.00", model.KindExpense),
			existing: []model.Transaction{committedTxn("t1", 5, "350.00", model.KindExpense)},
			wantDup:  true,
		},
		{
			name:     "different date is not a duplicate",
			staged:   stagedTxn(6, "350.00", model.KindExpense),
			existing: []model.Transaction{committedTxn("t1", 5, "350.00", model.KindExpense)},
			wantDup:  false,
		},
		{
			name:     "different amount is not a duplicate",
			staged:   stagedTxn(5, "350.01", model.KindExpense),
			existing: []model.Transaction{committedTxn("t1", 5, "350.00", model.KindExpense)},
			wantDup:  false,
		},
		{
			name:     "same amount different kind is not a duplicate",
			staged:   stagedTxn(5, "350.00", model.KindIncome),
			existing: []model.Transaction{committedTxn("t1", 5, "350.00", model.KindExpense)},
			wantDup:  false,
		},
		{
			name:     "amount scale does not matter",
			staged:   stagedTxn(5, "350", model.KindExpense),
			existing: []model.Transaction{committedTxn("t1", 5, "350.00", model.KindExpense)},
			wantDup:  true,
		},
		{
			name:    "no existing transactions",
			staged:  stagedTxn(5, "350.00", model.KindExpense),
			wantDup: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staged := []model.StagedTransaction{tt.staged}
			d.Annotate(staged, tt.existing)

			assert.Equal(t, tt.wantDup, staged[0].IsDuplicate)
			if tt.wantDup {
				assert.Contains(t, staged[0].DuplicateReason, tt.existing[0].ID)
			} else {
				assert.Empty(t, staged[0].DuplicateReason)
			}
		})
	}
}

func TestDetector_AnnotateIsIdempotent(t *testing.T) {
	d := New()

	staged := []model.StagedTransaction{
		stagedTxn(5, "350.00", model.KindExpense),
		stagedTxn(6, "800.00", model.KindIncome),
		stagedTxn(7, "12.34", model.KindExpense),
	}
	existing := []model.Transaction{
		committedTxn("t2", 5, "350.00", model.KindExpense),
		committedTxn("t1", 5, "350.00", model.KindExpense),
		committedTxn("t3", 6, "800.00", model.KindIncome),
	}

	d.Annotate(staged, existing)
	first := make([]model.StagedTransaction, len(staged))
	copy(first, staged)

	// Re-run against the same sets, and against a reordered existing set.
	d.Annotate(staged, existing)
	require.Equal(t, first, staged)

	reordered := []model.Transaction{existing[2], existing[0], existing[1]}
	d.Annotate(staged, reordered)
	require.Equal(t, first, staged)

	// The deterministic match is the lowest (date, id) pair.
	assert.Contains(t, staged[0].DuplicateReason, "t1")
}

func TestDetector_AnnotateClearsStaleFlags(t *testing.T) {
	d := New()

	staged := []model.StagedTransaction{stagedTxn(5, "350.00", model.KindExpense)}
	staged[0].IsDuplicate = true
	staged[0].DuplicateReason = "stale"

	d.Annotate(staged, nil)

	assert.False(t, staged[0].IsDuplicate)
	assert.Empty(t, staged[0].DuplicateReason)
}
