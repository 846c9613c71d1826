package core

// Snapshot is the full ledger bundle a host hands to the engine. Every
// derived value is recomputed from it on read; the engine never retains a
// reference across calls.
type Snapshot struct {
	Accounts     []Account
	Transactions []Transaction
	Budgets      []Budget
	Categories   []Category
	Settings     Settings
}

func (s Snapshot) AccountByID(id string) (Account, bool) {
	for _, a := range s.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

func (s Snapshot) BudgetFor(category string) (Budget, bool) {
	for _, b := range s.Budgets {
		if b.Category == category {
			return b, true
		}
	}
	return Budget{}, false
}

func (s Snapshot) CategoryByID(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
