package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func TestNewTransaction(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		amount  string
		date    string
		wantErr error
	}{
		{"valid", "tx1", "12.34", "2024-01-15", nil},
		{"negative amount", "tx1", "-99.99", "2024-01-15", nil},
		{"at ceiling", "tx1", "10000000", "2024-01-15", nil},
		{"above ceiling", "tx1", "10000000.01", "2024-01-15", ErrAmountOutOfRange},
		{"below negative ceiling", "tx1", "-10000001", "2024-01-15", ErrAmountOutOfRange},
		{"missing id", "", "1", "2024-01-15", ErrMissingID},
		{"bad date format", "tx1", "1", "2024/01/15", ErrInvalidDate},
		{"short date", "tx1", "1", "2024-1-15", ErrInvalidDate},
		{"impossible date", "tx1", "1", "2024-02-30", ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransaction(tt.id, decimal.RequireFromString(tt.amount), tt.date, TransactionDetails{})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("NewTransaction() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewTransaction() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTransaction_RoundsAmount(t *testing.T) {
	tx, err := NewTransaction("tx1", decimal.RequireFromString("1.005"), "2024-03-01", TransactionDetails{})
	if err != nil {
		t.Fatal(err)
	}
	if got := tx.Amount.String(); got != "1.01" {
		t.Errorf("Amount = %s, want 1.01", got)
	}
	if tx.Date != (civil.Date{Year: 2024, Month: 3, Day: 1}) {
		t.Errorf("Date = %v, want 2024-03-01", tx.Date)
	}
}

func TestTransactionDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		details TransactionDetails
		want    string
	}{
		{"name wins", TransactionDetails{Name: strPtr("Coffee"), OriginalName: strPtr("SQ *COFFEE")}, "Coffee"},
		{"original name fallback", TransactionDetails{OriginalName: strPtr("SQ *COFFEE")}, "SQ *COFFEE"},
		{"empty name falls back", TransactionDetails{Name: strPtr(""), OriginalName: strPtr("X")}, "X"},
		{"unknown", TransactionDetails{}, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Transaction{TransactionDetails: tt.details}
			if got := tx.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransactionMarshalJSON(t *testing.T) {
	tx, err := NewTransaction("tx1", decimal.RequireFromString("5.5"), "2024-01-02", TransactionDetails{
		OriginalName: strPtr("STARBUCKS"),
		CategoryID:   strPtr("food"),
	})
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	for _, want := range []string{`"transaction_id":"tx1"`, `"date":"2024-01-02"`, `"display_name":"STARBUCKS"`, `"category_id":"food"`} {
		if !strings.Contains(out, want) {
			t.Errorf("json = %s, missing %s", out, want)
		}
	}
	if strings.Contains(out, `"city"`) {
		t.Errorf("json = %s, absent fields should be omitted", out)
	}
}

func TestAccount(t *testing.T) {
	if _, err := NewAccount("", decimal.Zero, AccountDetails{}); !errors.Is(err, ErrMissingID) {
		t.Errorf("NewAccount() error = %v, want ErrMissingID", err)
	}

	acc, err := NewAccount("a1", decimal.RequireFromString("100.456"), AccountDetails{OfficialName: strPtr("Chase Checking")})
	if err != nil {
		t.Fatal(err)
	}
	if got := acc.DisplayName(); got != "Chase Checking" {
		t.Errorf("DisplayName() = %q, want Chase Checking", got)
	}
	if got := acc.CurrentBalance.String(); got != "100.46" {
		t.Errorf("CurrentBalance = %s, want 100.46", got)
	}
	if got := (Account{}).DisplayName(); got != "Unknown" {
		t.Errorf("DisplayName() = %q, want Unknown", got)
	}
}

func TestNewCategory(t *testing.T) {
	if c := NewCategory("groceries", ""); c.Name != "groceries" {
		t.Errorf("Name = %q, want groceries", c.Name)
	}
	if c := NewCategory("g", "Groceries"); c.Name != "Groceries" {
		t.Errorf("Name = %q, want Groceries", c.Name)
	}
}
