// Package dedup flags staged transactions that likely duplicate committed
// ones. Detection only annotates; whether duplicates are imported anyway is
// decided at commit time.
package dedup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pcarvalho/dindim/internal/model"
)

// Detector matches staged transactions against committed transactions of the
// same account.
type Detector struct{}

// New creates a duplicate detector.
func New() *Detector {
	return &Detector{}
}

// Annotate sets IsDuplicate/DuplicateReason on each staged transaction that
// has a committed counterpart with the same calendar date, absolute amount,
// and kind. It mutates only those two fields and is idempotent: the same
// staged and existing sets always produce the same annotations.
func (d *Detector) Annotate(staged []model.StagedTransaction, existing []model.Transaction) {
	// Sort a copy so the matched transaction (and therefore the reason
	// string) is deterministic regardless of input order.
	sorted := make([]model.Transaction, len(existing))
	copy(sorted, existing)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	index := make(map[string]model.Transaction, len(sorted))
	for _, txn := range sorted {
		key := txn.DuplicateKey()
		if _, ok := index[key]; !ok {
			index[key] = txn
		}
	}

	for i := range staged {
		match, ok := index[staged[i].DuplicateKey()]
		if !ok {
			staged[i].IsDuplicate = false
			staged[i].DuplicateReason = ""
			continue
		}
		staged[i].IsDuplicate = true
		staged[i].DuplicateReason = reason(match)
	}
}

func reason(txn model.Transaction) string {
	return fmt.Sprintf("matches transaction %s: %s %s %q on %s",
		txn.ID,
		strings.ToLower(string(txn.Kind)),
		txn.Amount.StringFixed(2),
		txn.Description,
		txn.Date.Format("2006-01-02"))
}
