package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownTool is returned by Call for a name Schemas does not list.
var ErrUnknownTool = errors.New("unknown tool")

// Schema describes a tool for MCP tools/list.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

const periodHelp = "Period shorthand: this_month, last_month, last_7_days, last_30_days, last_90_days, ytd, this_year, last_year"

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func dateProp(desc string) map[string]any {
	p := prop("string", desc)
	p["pattern"] = `^\d{4}-\d{2}-\d{2}$`
	return p
}

func object(props map[string]any, required ...string) map[string]any {
	o := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

// Schemas returns the descriptors of every tool Call accepts.
func Schemas() []Schema {
	return []Schema{
		{
			Name: "get_transactions",
			Description: "Get transactions with optional filters. Supports date ranges, category, merchant, " +
				"account, and amount filters. Use 'period' for common date ranges (this_month, last_30_days, ytd, etc.).",
			InputSchema: object(map[string]any{
				"period":     prop("string", periodHelp),
				"start_date": dateProp("Start date (YYYY-MM-DD)"),
				"end_date":   dateProp("End date (YYYY-MM-DD)"),
				"category":   prop("string", "Filter by category (case-insensitive substring)"),
				"merchant":   prop("string", "Filter by merchant name (case-insensitive substring)"),
				"account_id": prop("string", "Filter by account ID"),
				"min_amount": prop("number", "Minimum transaction amount"),
				"max_amount": prop("number", "Maximum transaction amount"),
				"limit":      map[string]any{"type": "integer", "description": "Maximum number of results (default: 100)", "default": defaultTransactionLimit},
			}),
		},
		{
			Name:        "search_transactions",
			Description: "Free-text search of transactions by merchant name. Case-insensitive search.",
			InputSchema: object(map[string]any{
				"query": prop("string", "Search query"),
				"limit": map[string]any{"type": "integer", "description": "Maximum number of results (default: 50)", "default": 50},
			}, "query"),
		},
		{
			Name:        "get_accounts",
			Description: "Get all accounts with balances. Optionally filter by account type (checking, savings, credit, investment).",
			InputSchema: object(map[string]any{
				"account_type": prop("string", "Filter by account type"),
			}),
		},
		{
			Name: "get_spending_by_category",
			Description: "Get spending aggregated by category for a date range. Returns total spending per category, " +
				"sorted by amount. Use 'period' for common date ranges.",
			InputSchema: object(map[string]any{
				"period":     prop("string", periodHelp),
				"start_date": dateProp("Start date (YYYY-MM-DD)"),
				"end_date":   dateProp("End date (YYYY-MM-DD)"),
				"min_amount": map[string]any{"type": "number", "description": "Only include expenses >= this amount (default: 0.0)", "default": 0.0},
			}),
		},
		{
			Name:        "get_account_balance",
			Description: "Get balance and details for a specific account by account ID.",
			InputSchema: object(map[string]any{
				"account_id": prop("string", "Account ID to query"),
			}, "account_id"),
		},
	}
}

// Call decodes args for the named tool and runs it.
func (t *Tools) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	switch name {
	case "get_transactions":
		var p TransactionParams
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return t.GetTransactions(ctx, p)
	case "search_transactions":
		var p SearchParams
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return t.SearchTransactions(ctx, p)
	case "get_accounts":
		var p AccountParams
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return t.GetAccounts(ctx, p)
	case "get_spending_by_category":
		var p SpendingParams
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return t.GetSpendingByCategory(ctx, p)
	case "get_account_balance":
		var p BalanceParams
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return t.GetAccountBalance(ctx, p)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}
