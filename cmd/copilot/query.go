package main

import (
	"fmt"
	"strings"

	"github.com/dvloznov/copilot-ledger/internal/period"
	"github.com/dvloznov/copilot-ledger/internal/tools"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// amountFlag is an optional decimal flag.
type amountFlag struct {
	value *decimal.Decimal
}

func (f *amountFlag) String() string {
	if f.value == nil {
		return ""
	}
	return f.value.String()
}

func (f *amountFlag) Set(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q", s)
	}
	f.value = &d
	return nil
}

func (f *amountFlag) Type() string { return "decimal" }

type dateFlags struct {
	period, start, end string
}

func (d *dateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.period, "period", "", "Named period ("+strings.Join(period.Names, ", ")+")")
	cmd.Flags().StringVar(&d.start, "start", "", "Start date YYYY-MM-DD")
	cmd.Flags().StringVar(&d.end, "end", "", "End date YYYY-MM-DD")
}

func newTransactionsCmd(a *app) *cobra.Command {
	var (
		dates                dateFlags
		minAmount, maxAmount amountFlag
		p                    tools.TransactionParams
	)
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Period, p.StartDate, p.EndDate = dates.period, dates.start, dates.end
			p.MinAmount, p.MaxAmount = minAmount.value, maxAmount.value
			res, err := a.tools.GetTransactions(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	dates.register(cmd)
	cmd.Flags().StringVar(&p.Category, "category", "", "Category id substring")
	cmd.Flags().StringVar(&p.Merchant, "merchant", "", "Merchant name substring")
	cmd.Flags().StringVar(&p.AccountID, "account", "", "Account id")
	cmd.Flags().Var(&minAmount, "min", "Minimum amount")
	cmd.Flags().Var(&maxAmount, "max", "Maximum amount")
	cmd.Flags().IntVar(&p.Limit, "limit", 100, "Maximum number of transactions")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search transactions by merchant name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.tools.SearchTransactions(cmd.Context(), tools.SearchParams{Query: args[0], Limit: limit})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of results")
	return cmd
}

func newAccountsCmd(a *app) *cobra.Command {
	var accountType string
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List accounts and their total balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.tools.GetAccounts(cmd.Context(), tools.AccountParams{AccountType: accountType})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&accountType, "type", "", "Account type substring (checking, credit, ...)")
	return cmd
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show the balance of one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.tools.GetAccountBalance(cmd.Context(), tools.BalanceParams{AccountID: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories used by transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := a.db.Categories(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"count": len(cats), "categories": cats})
		},
	}
}

func newSpendingCmd(a *app) *cobra.Command {
	var (
		dates     dateFlags
		minAmount amountFlag
	)
	cmd := &cobra.Command{
		Use:   "spending",
		Short: "Total spending per category, largest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.tools.GetSpendingByCategory(cmd.Context(), tools.SpendingParams{
				Period:    dates.period,
				StartDate: dates.start,
				EndDate:   dates.end,
				MinAmount: minAmount.value,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	dates.register(cmd)
	cmd.Flags().Var(&minAmount, "min", "Ignore transactions below this amount")
	return cmd
}
