package model

// StagedTransaction is a parsed-but-unconfirmed transaction owned by exactly
// one import session, awaiting user review before commit.
type StagedTransaction struct {
	Canonical       CanonicalTransaction
	ID              string
	SessionID       string
	CategoryID      string
	DuplicateReason string
	Position        int
	IsClassified    bool
	IsDuplicate     bool
}

// ToTransaction converts an approved staged transaction into a permanent one.
// The caller supplies the new permanent ID.
func (st *StagedTransaction) ToTransaction(id, budgetID, accountID string) Transaction {
	return Transaction{
		ID:          id,
		BudgetID:    budgetID,
		AccountID:   accountID,
		CategoryID:  st.CategoryID,
		Date:        st.Canonical.Date,
		Description: st.Canonical.Description,
		Amount:      st.Canonical.Amount,
		Kind:        st.Canonical.Kind,
	}
}

// DuplicateKey mirrors Transaction.DuplicateKey for the staged side.
func (st *StagedTransaction) DuplicateKey() string {
	t := Transaction{
		Date:   st.Canonical.Date,
		Amount: st.Canonical.Amount,
		Kind:   st.Canonical.Kind,
	}
	return t.DuplicateKey()
}
