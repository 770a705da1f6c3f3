package bigquery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/copilot-ledger/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func ptr[T any](v T) *T { return &v }

var exportedAt = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

type fakePutter struct {
	batches []int
	txs     []*TransactionRow
	accs    []*AccountRow
	err     error
}

func (f *fakePutter) Put(ctx context.Context, src interface{}) error {
	if f.err != nil {
		return f.err
	}
	switch rows := src.(type) {
	case []*TransactionRow:
		f.batches = append(f.batches, len(rows))
		f.txs = append(f.txs, rows...)
	case []*AccountRow:
		f.batches = append(f.batches, len(rows))
		f.accs = append(f.accs, rows...)
	default:
		return fmt.Errorf("unexpected rows %T", src)
	}
	return nil
}

func testExporter(tables map[string]*fakePutter) *Exporter {
	return &Exporter{
		dataset: "copilot",
		log:     zerolog.Nop(),
		now:     func() time.Time { return exportedAt },
		inserter: func(table string) putter {
			return tables[table]
		},
	}
}

func transactions(t *testing.T, n int) []domain.Transaction {
	t.Helper()
	out := make([]domain.Transaction, 0, n)
	for i := range n {
		tx, err := domain.NewTransaction(fmt.Sprintf("tx%d", i), decimal.NewFromInt(int64(i+1)), "2024-03-01", domain.TransactionDetails{})
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, tx)
	}
	return out
}

func TestNewTransactionRow(t *testing.T) {
	tx, err := domain.NewTransaction("tx1", decimal.RequireFromString("-12.34"), "2024-03-05", domain.TransactionDetails{
		OriginalName:   ptr("SQ *BLUE BOTTLE"),
		CategoryID:     ptr("coffee"),
		OriginalDate:   ptr("2024-03-04"),
		OriginalAmount: ptr(decimal.RequireFromString("-12.34")),
		Pending:        ptr(false),
		Lat:            ptr(37.77),
	})
	if err != nil {
		t.Fatal(err)
	}

	got := NewTransactionRow("run-1", tx, exportedAt)
	want := &TransactionRow{
		ExportRunID:     "run-1",
		TransactionID:   "tx1",
		CategoryID:      bigquery.NullString{StringVal: "coffee", Valid: true},
		TransactionDate: civil.Date{Year: 2024, Month: 3, Day: 5},
		OriginalDate:    bigquery.NullDate{Date: civil.Date{Year: 2024, Month: 3, Day: 4}, Valid: true},
		Amount:          big.NewRat(-1234, 100),
		OriginalAmount:  big.NewRat(-1234, 100),
		DisplayName:     "SQ *BLUE BOTTLE",
		OriginalName:    bigquery.NullString{StringVal: "SQ *BLUE BOTTLE", Valid: true},
		Pending:         bigquery.NullBool{Bool: false, Valid: true},
		Lat:             bigquery.NullFloat64{Float64: 37.77, Valid: true},
		ExportedTS:      exportedAt,
	}
	ratEqual := cmp.Comparer(func(a, b *big.Rat) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Cmp(b) == 0
	})
	if diff := cmp.Diff(want, got, ratEqual); diff != "" {
		t.Errorf("NewTransactionRow() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewTransactionRow_InvalidOriginalDate(t *testing.T) {
	tx, err := domain.NewTransaction("tx1", decimal.NewFromInt(1), "2024-03-05", domain.TransactionDetails{
		OriginalDate: ptr("yesterday"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if row := NewTransactionRow("run", tx, exportedAt); row.OriginalDate.Valid {
		t.Errorf("OriginalDate = %v, want NULL", row.OriginalDate)
	}
}

func TestNewAccountRow(t *testing.T) {
	acc, err := domain.NewAccount("acc1", decimal.RequireFromString("1500.25"), domain.AccountDetails{
		Name: ptr("Checking"),
		Mask: ptr("1234"),
	})
	if err != nil {
		t.Fatal(err)
	}
	row := NewAccountRow("run-1", acc, exportedAt)
	if row.DisplayName != "Checking" || row.Mask.StringVal != "1234" || !row.Mask.Valid {
		t.Errorf("row = %+v", row)
	}
	if row.CurrentBalance.Cmp(big.NewRat(150025, 100)) != 0 {
		t.Errorf("CurrentBalance = %v", row.CurrentBalance)
	}
	if row.AvailableBalance != nil {
		t.Errorf("AvailableBalance = %v, want nil", row.AvailableBalance)
	}
	if row.OfficialName.Valid {
		t.Error("OfficialName should be NULL")
	}
}

func TestExport_Batches(t *testing.T) {
	txTable, accTable := &fakePutter{}, &fakePutter{}
	e := testExporter(map[string]*fakePutter{TransactionsTable: txTable, AccountsTable: accTable})

	accs := []domain.Account{{AccountID: "a1", CurrentBalance: decimal.NewFromInt(10)}}
	res, err := e.Export(context.Background(), transactions(t, 1201), accs)
	if err != nil {
		t.Fatal(err)
	}

	if res.Transactions != 1201 || res.Accounts != 1 || res.RunID == "" {
		t.Errorf("Result = %+v", res)
	}
	if diff := cmp.Diff([]int{500, 500, 201}, txTable.batches); diff != "" {
		t.Errorf("batches mismatch (-want +got):\n%s", diff)
	}
	for _, row := range txTable.txs {
		if row.ExportRunID != res.RunID {
			t.Fatalf("row %s has run id %s, want %s", row.TransactionID, row.ExportRunID, res.RunID)
		}
	}
	if len(accTable.accs) != 1 || accTable.accs[0].ExportRunID != res.RunID {
		t.Errorf("account rows = %+v", accTable.accs)
	}
}

func TestExport_Empty(t *testing.T) {
	txTable, accTable := &fakePutter{}, &fakePutter{}
	e := testExporter(map[string]*fakePutter{TransactionsTable: txTable, AccountsTable: accTable})

	res, err := e.Export(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(txTable.batches)+len(accTable.batches) != 0 {
		t.Errorf("expected no inserts, got %v %v", txTable.batches, accTable.batches)
	}
	if res.Transactions != 0 || res.Accounts != 0 {
		t.Errorf("Result = %+v", res)
	}
}

func TestExport_InsertError(t *testing.T) {
	boom := errors.New("quota exceeded")
	e := testExporter(map[string]*fakePutter{
		TransactionsTable: {err: boom},
		AccountsTable:     {},
	})

	res, err := e.Export(context.Background(), transactions(t, 3), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Export() error = %v, want %v", err, boom)
	}
	if res.Transactions != 0 {
		t.Errorf("Transactions = %d, want 0", res.Transactions)
	}
}

func TestCountRows_UnknownTable(t *testing.T) {
	e := testExporter(nil)
	if _, err := e.CountRows(context.Background(), "documents", "run"); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("CountRows() error = %v, want ErrUnknownTable", err)
	}
}
