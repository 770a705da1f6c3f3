package decoder

import (
	"slices"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/copilot-ledger/internal/domain"
)

type transactionKey struct {
	name   string
	amount string
	date   civil.Date
}

// DedupTransactions keeps the first transaction for each
// (display name, amount, date) and returns the number dropped.
func DedupTransactions(txs []domain.Transaction) ([]domain.Transaction, int) {
	seen := make(map[transactionKey]struct{}, len(txs))
	out := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		k := transactionKey{name: t.DisplayName(), amount: t.Amount.String(), date: t.Date}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out, len(txs) - len(out)
}

// SortTransactions orders txs newest first, keeping the relative order of
// transactions on the same date.
func SortTransactions(txs []domain.Transaction) {
	slices.SortStableFunc(txs, func(a, b domain.Transaction) int {
		switch {
		case a.Date.After(b.Date):
			return -1
		case a.Date.Before(b.Date):
			return 1
		}
		return 0
	})
}

type accountKey struct {
	name    string
	mask    string
	hasMask bool
}

// DedupAccounts keeps the first account for each (display name, mask).
func DedupAccounts(accs []domain.Account) ([]domain.Account, int) {
	seen := make(map[accountKey]struct{}, len(accs))
	out := make([]domain.Account, 0, len(accs))
	for _, a := range accs {
		k := accountKey{name: a.DisplayName()}
		if a.Mask != nil {
			k.mask, k.hasMask = *a.Mask, true
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out, len(accs) - len(out)
}
