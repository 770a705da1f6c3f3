// Package tools implements the query operations exposed to MCP clients and
// the HTTP API: filtered transaction listings, search, account balances and
// spending summaries.
package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/copilot-ledger/internal/domain"
	"github.com/dvloznov/copilot-ledger/internal/period"
	"github.com/dvloznov/copilot-ledger/internal/store"
	"github.com/shopspring/decimal"
)

const (
	defaultTransactionLimit = 100
	spendingScanLimit       = 10000
	uncategorized           = "Uncategorized"
)

var (
	// ErrAccountNotFound is returned by GetAccountBalance for an unknown id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidArgument wraps malformed tool arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Tools runs queries against a Database.
type Tools struct {
	db  *store.Database
	now func() time.Time
}

// Option configures Tools.
type Option func(*Tools)

// WithClock sets the clock used to resolve named periods.
func WithClock(now func() time.Time) Option {
	return func(t *Tools) { t.now = now }
}

// New creates Tools over db.
func New(db *store.Database, opts ...Option) *Tools {
	t := &Tools{db: db, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Database returns the underlying database.
func (t *Tools) Database() *store.Database {
	return t.db
}

// TransactionParams are the arguments of get_transactions.
type TransactionParams struct {
	Period    string           `json:"period,omitempty"`
	StartDate string           `json:"start_date,omitempty"`
	EndDate   string           `json:"end_date,omitempty"`
	Category  string           `json:"category,omitempty"`
	Merchant  string           `json:"merchant,omitempty"`
	AccountID string           `json:"account_id,omitempty"`
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
	Limit     int              `json:"limit,omitempty"`
}

// TransactionsResult is returned by GetTransactions and SearchTransactions.
type TransactionsResult struct {
	Count        int                  `json:"count"`
	Transactions []domain.Transaction `json:"transactions"`
}

// GetTransactions lists transactions matching p. A period overrides explicit dates.
func (t *Tools) GetTransactions(ctx context.Context, p TransactionParams) (*TransactionsResult, error) {
	start, end, err := t.dateRange(p.Period, p.StartDate, p.EndDate)
	if err != nil {
		return nil, fmt.Errorf("GetTransactions: %w", err)
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	txs, err := t.db.Transactions(ctx, store.TransactionFilter{
		StartDate: start,
		EndDate:   end,
		Category:  p.Category,
		Merchant:  p.Merchant,
		AccountID: p.AccountID,
		MinAmount: p.MinAmount,
		MaxAmount: p.MaxAmount,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("GetTransactions: %w", err)
	}
	return &TransactionsResult{Count: len(txs), Transactions: txs}, nil
}

// SearchParams are the arguments of search_transactions.
type SearchParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchTransactions finds transactions whose display name contains the query.
func (t *Tools) SearchTransactions(ctx context.Context, p SearchParams) (*TransactionsResult, error) {
	if p.Query == "" {
		return nil, fmt.Errorf("SearchTransactions: query is required: %w", ErrInvalidArgument)
	}
	txs, err := t.db.SearchTransactions(ctx, p.Query, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("SearchTransactions: %w", err)
	}
	return &TransactionsResult{Count: len(txs), Transactions: txs}, nil
}

// AccountParams are the arguments of get_accounts.
type AccountParams struct {
	AccountType string `json:"account_type,omitempty"`
}

// AccountsResult is returned by GetAccounts.
type AccountsResult struct {
	Count        int              `json:"count"`
	TotalBalance decimal.Decimal  `json:"total_balance"`
	Accounts     []domain.Account `json:"accounts"`
}

// GetAccounts lists accounts and the sum of their current balances.
func (t *Tools) GetAccounts(ctx context.Context, p AccountParams) (*AccountsResult, error) {
	accs, err := t.db.Accounts(ctx, p.AccountType)
	if err != nil {
		return nil, fmt.Errorf("GetAccounts: %w", err)
	}
	total := decimal.Zero
	for _, a := range accs {
		total = total.Add(a.CurrentBalance)
	}
	return &AccountsResult{Count: len(accs), TotalBalance: total, Accounts: accs}, nil
}

// SpendingParams are the arguments of get_spending_by_category.
type SpendingParams struct {
	Period    string           `json:"period,omitempty"`
	StartDate string           `json:"start_date,omitempty"`
	EndDate   string           `json:"end_date,omitempty"`
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
}

// SpendingPeriod echoes the resolved date range; nil bounds are open.
type SpendingPeriod struct {
	StartDate *civil.Date `json:"start_date"`
	EndDate   *civil.Date `json:"end_date"`
}

// CategorySpending is the spending total of one category.
type CategorySpending struct {
	Category         string          `json:"category"`
	TotalSpending    decimal.Decimal `json:"total_spending"`
	TransactionCount int             `json:"transaction_count"`
}

// SpendingResult is returned by GetSpendingByCategory.
type SpendingResult struct {
	Period        SpendingPeriod     `json:"period"`
	TotalSpending decimal.Decimal    `json:"total_spending"`
	CategoryCount int                `json:"category_count"`
	Categories    []CategorySpending `json:"categories"`
}

// GetSpendingByCategory totals positive amounts per category, largest first.
// Transactions without a category are grouped as "Uncategorized".
func (t *Tools) GetSpendingByCategory(ctx context.Context, p SpendingParams) (*SpendingResult, error) {
	start, end, err := t.dateRange(p.Period, p.StartDate, p.EndDate)
	if err != nil {
		return nil, fmt.Errorf("GetSpendingByCategory: %w", err)
	}
	minAmount := p.MinAmount
	if minAmount == nil {
		zero := decimal.Zero
		minAmount = &zero
	}
	txs, err := t.db.Transactions(ctx, store.TransactionFilter{
		StartDate: start,
		EndDate:   end,
		MinAmount: minAmount,
		Limit:     spendingScanLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("GetSpendingByCategory: %w", err)
	}

	byCategory := make(map[string]*CategorySpending)
	var order []*CategorySpending
	for _, tx := range txs {
		if !tx.Amount.IsPositive() {
			continue
		}
		cat := uncategorized
		if tx.CategoryID != nil && *tx.CategoryID != "" {
			cat = *tx.CategoryID
		}
		cs, ok := byCategory[cat]
		if !ok {
			cs = &CategorySpending{Category: cat}
			byCategory[cat] = cs
			order = append(order, cs)
		}
		cs.TotalSpending = cs.TotalSpending.Add(tx.Amount)
		cs.TransactionCount++
	}

	res := &SpendingResult{
		Period:        SpendingPeriod{StartDate: start, EndDate: end},
		TotalSpending: decimal.Zero,
		Categories:    make([]CategorySpending, 0, len(order)),
	}
	for _, cs := range order {
		cs.TotalSpending = cs.TotalSpending.Round(2)
		res.Categories = append(res.Categories, *cs)
		res.TotalSpending = res.TotalSpending.Add(cs.TotalSpending)
	}
	slices.SortStableFunc(res.Categories, func(a, b CategorySpending) int {
		return b.TotalSpending.Cmp(a.TotalSpending)
	})
	res.TotalSpending = res.TotalSpending.Round(2)
	res.CategoryCount = len(res.Categories)
	return res, nil
}

// BalanceParams are the arguments of get_account_balance.
type BalanceParams struct {
	AccountID string `json:"account_id"`
}

// AccountBalance summarizes a single account.
type AccountBalance struct {
	AccountID        string           `json:"account_id"`
	Name             string           `json:"name"`
	AccountType      *string          `json:"account_type"`
	CurrentBalance   decimal.Decimal  `json:"current_balance"`
	AvailableBalance *decimal.Decimal `json:"available_balance"`
	Mask             *string          `json:"mask"`
	InstitutionName  *string          `json:"institution_name"`
}

// GetAccountBalance returns the balance of one account.
func (t *Tools) GetAccountBalance(ctx context.Context, p BalanceParams) (*AccountBalance, error) {
	if p.AccountID == "" {
		return nil, fmt.Errorf("GetAccountBalance: account_id is required: %w", ErrInvalidArgument)
	}
	acc, ok, err := t.db.Account(ctx, p.AccountID)
	if err != nil {
		return nil, fmt.Errorf("GetAccountBalance: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, p.AccountID)
	}
	return &AccountBalance{
		AccountID:        acc.AccountID,
		Name:             acc.DisplayName(),
		AccountType:      acc.AccountType,
		CurrentBalance:   acc.CurrentBalance,
		AvailableBalance: acc.AvailableBalance,
		Mask:             acc.Mask,
		InstitutionName:  acc.InstitutionName,
	}, nil
}

// dateRange resolves a named period or explicit YYYY-MM-DD bounds.
func (t *Tools) dateRange(name, startStr, endStr string) (*civil.Date, *civil.Date, error) {
	if name != "" {
		r, err := period.Parse(name, t.now())
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		return &r.Start, &r.End, nil
	}
	start, err := optionalDate("start_date", startStr)
	if err != nil {
		return nil, nil, err
	}
	end, err := optionalDate("end_date", endStr)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func optionalDate(field, s string) (*civil.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", field, ErrInvalidArgument, err)
	}
	return &d, nil
}
