package store

import (
	"context"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/copilot-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	// DefaultTransactionLimit caps Transactions when no limit is given.
	DefaultTransactionLimit = 1000
	// DefaultSearchLimit caps SearchTransactions when no limit is given.
	DefaultSearchLimit = 50
)

// TransactionFilter narrows a transaction query. Zero values match everything.
type TransactionFilter struct {
	StartDate *civil.Date
	EndDate   *civil.Date
	// Category matches a case-insensitive substring of the category id.
	Category string
	// Merchant matches a case-insensitive substring of the display name.
	Merchant  string
	AccountID string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Limit     int
}

func (f TransactionFilter) match(t domain.Transaction) bool {
	if f.StartDate != nil && t.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && t.Date.After(*f.EndDate) {
		return false
	}
	if f.Category != "" && (t.CategoryID == nil || !containsFold(*t.CategoryID, f.Category)) {
		return false
	}
	if f.Merchant != "" && !containsFold(t.DisplayName(), f.Merchant) {
		return false
	}
	if f.AccountID != "" && (t.AccountID == nil || *t.AccountID != f.AccountID) {
		return false
	}
	if f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && t.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	return true
}

// Transactions returns cached transactions matching f, newest first.
func (db *Database) Transactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error) {
	all, err := db.allTransactions(ctx)
	if err != nil {
		return nil, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	out := []domain.Transaction{}
	for _, t := range all {
		if len(out) >= limit {
			break
		}
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// AllTransactions returns every cached transaction, newest first. The
// returned slice is shared and must not be modified.
func (db *Database) AllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return db.allTransactions(ctx)
}

// SearchTransactions returns transactions whose display name contains query.
func (db *Database) SearchTransactions(ctx context.Context, query string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return db.Transactions(ctx, TransactionFilter{Merchant: query, Limit: limit})
}

// Accounts returns cached accounts, optionally restricted to those whose
// type contains accountType (case-insensitive).
func (db *Database) Accounts(ctx context.Context, accountType string) ([]domain.Account, error) {
	all, err := db.allAccounts(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Account{}
	for _, a := range all {
		if accountType != "" && (a.AccountType == nil || !containsFold(*a.AccountType, accountType)) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Account returns the account with the given id.
func (db *Database) Account(ctx context.Context, id string) (domain.Account, bool, error) {
	all, err := db.allAccounts(ctx)
	if err != nil {
		return domain.Account{}, false, err
	}
	for _, a := range all {
		if a.AccountID == id {
			return a, true, nil
		}
	}
	return domain.Account{}, false, nil
}

// Categories returns the distinct category ids of all transactions in the
// order they first appear.
func (db *Database) Categories(ctx context.Context) ([]domain.Category, error) {
	all, err := db.allTransactions(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := []domain.Category{}
	for _, t := range all {
		if t.CategoryID == nil || *t.CategoryID == "" || seen[*t.CategoryID] {
			continue
		}
		seen[*t.CategoryID] = true
		out = append(out, domain.NewCategory(*t.CategoryID, ""))
	}
	return out, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
