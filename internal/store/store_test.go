package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/copilot-ledger/internal/decoder"
	"github.com/dvloznov/copilot-ledger/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// fakeSource is a Source returning fixed collections and counting decodes.
type fakeSource struct {
	txs      []domain.Transaction
	accs     []domain.Account
	err      error
	release  chan struct{}
	txCalls  atomic.Int32
	accCalls atomic.Int32
}

func (f *fakeSource) DecodeTransactions(string) ([]domain.Transaction, decoder.Report, error) {
	f.txCalls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.txs, decoder.Report{Records: len(f.txs)}, f.err
}

func (f *fakeSource) DecodeAccounts(string) ([]domain.Account, decoder.Report, error) {
	f.accCalls.Add(1)
	return f.accs, decoder.Report{Records: len(f.accs)}, f.err
}

func ptr[T any](v T) *T { return &v }

func tx(t *testing.T, id, name, amount, date, category, account string) domain.Transaction {
	t.Helper()
	d := domain.TransactionDetails{Name: ptr(name)}
	if category != "" {
		d.CategoryID = ptr(category)
	}
	if account != "" {
		d.AccountID = ptr(account)
	}
	out, err := domain.NewTransaction(id, decimal.RequireFromString(amount), date, d)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func fixture(t *testing.T) *fakeSource {
	return &fakeSource{
		txs: []domain.Transaction{
			tx(t, "1", "Starbucks", "5.75", "2024-03-10", "food_and_drink", "chk"),
			tx(t, "2", "Whole Foods", "82.10", "2024-03-05", "groceries", "cc"),
			tx(t, "3", "Payroll", "-2500", "2024-03-01", "income", "chk"),
			tx(t, "4", "STARBUCKS RESERVE", "12.00", "2024-02-20", "Food_And_Drink", "cc"),
			tx(t, "5", "Rent", "1800", "2024-02-01", "", "chk"),
		},
		accs: []domain.Account{
			{AccountID: "chk", CurrentBalance: decimal.NewFromInt(1000), AccountDetails: domain.AccountDetails{Name: ptr("Checking"), AccountType: ptr("depository")}},
			{AccountID: "cc", CurrentBalance: decimal.NewFromInt(-300), AccountDetails: domain.AccountDetails{Name: ptr("Sapphire"), AccountType: ptr("Credit")}},
		},
	}
}

func ids(txs []domain.Transaction) []string {
	out := []string{}
	for _, t := range txs {
		out = append(out, t.TransactionID)
	}
	return out
}

func TestTransactions_Filters(t *testing.T) {
	db := New("unused", fixture(t), zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name   string
		filter TransactionFilter
		want   []string
	}{
		{"all", TransactionFilter{}, []string{"1", "2", "3", "4", "5"}},
		{"start date", TransactionFilter{StartDate: &civil.Date{Year: 2024, Month: 3, Day: 1}}, []string{"1", "2", "3"}},
		{"end date inclusive", TransactionFilter{EndDate: &civil.Date{Year: 2024, Month: 2, Day: 20}}, []string{"4", "5"}},
		{"category case-insensitive", TransactionFilter{Category: "FOOD"}, []string{"1", "4"}},
		{"merchant substring", TransactionFilter{Merchant: "starbucks"}, []string{"1", "4"}},
		{"account exact", TransactionFilter{AccountID: "cc"}, []string{"2", "4"}},
		{"amount range", TransactionFilter{MinAmount: ptr(decimal.NewFromInt(10)), MaxAmount: ptr(decimal.NewFromInt(100))}, []string{"2", "4"}},
		{"limit", TransactionFilter{Limit: 2}, []string{"1", "2"}},
		{"no match", TransactionFilter{Merchant: "nothing"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Transactions(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("Transactions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchTransactions(t *testing.T) {
	db := New("unused", fixture(t), zerolog.Nop())
	got, err := db.SearchTransactions(context.Background(), "foods", 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"2"}, ids(got)); diff != "" {
		t.Errorf("SearchTransactions() mismatch (-want +got):\n%s", diff)
	}
}

func TestAccountsAndCategories(t *testing.T) {
	db := New("unused", fixture(t), zerolog.Nop())
	ctx := context.Background()

	accs, err := db.Accounts(ctx, "credit")
	if err != nil {
		t.Fatal(err)
	}
	if len(accs) != 1 || accs[0].AccountID != "cc" {
		t.Errorf("Accounts(credit) = %+v", accs)
	}
	if all, _ := db.Accounts(ctx, ""); len(all) != 2 {
		t.Errorf("Accounts() len = %d, want 2", len(all))
	}

	if _, ok, _ := db.Account(ctx, "missing"); ok {
		t.Error("Account(missing) found")
	}

	cats, err := db.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, c := range cats {
		got = append(got, c.CategoryID+"="+c.Name)
	}
	want := []string{"food_and_drink=food_and_drink", "groceries=groceries", "income=income", "Food_And_Drink=Food_And_Drink"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Categories() mismatch (-want +got):\n%s", diff)
	}
}

func TestCache_DecodesOnce(t *testing.T) {
	src := fixture(t)
	db := New("unused", src, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := db.Transactions(ctx, TransactionFilter{}); err != nil {
			t.Fatal(err)
		}
		if _, err := db.Categories(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if n := src.txCalls.Load(); n != 1 {
		t.Errorf("decode calls = %d, want 1", n)
	}

	db.Invalidate()
	if _, err := db.Transactions(ctx, TransactionFilter{}); err != nil {
		t.Fatal(err)
	}
	if n := src.txCalls.Load(); n != 2 {
		t.Errorf("decode calls after Invalidate = %d, want 2", n)
	}
}

func TestCache_ConcurrentPopulation(t *testing.T) {
	src := fixture(t)
	src.release = make(chan struct{})
	db := New("unused", src, zerolog.Nop())

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.Transactions(context.Background(), TransactionFilter{})
			errs <- err
		}()
	}
	// Give the goroutines time to join the in-flight decode.
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n := src.txCalls.Load(); n != 1 {
		t.Errorf("decode calls = %d, want 1", n)
	}
}

func TestCache_InvalidateDuringLoad(t *testing.T) {
	src := fixture(t)
	src.release = make(chan struct{})
	db := New("unused", src, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = db.Transactions(context.Background(), TransactionFilter{})
	}()
	for src.txCalls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	db.Invalidate()
	close(src.release)
	<-done

	if _, err := db.Transactions(context.Background(), TransactionFilter{}); err != nil {
		t.Fatal(err)
	}
	if n := src.txCalls.Load(); n != 2 {
		t.Errorf("decode calls = %d, want 2 (stale load must not be cached)", n)
	}
}

func TestCache_LoadAfterInvalidateStartsFreshDecode(t *testing.T) {
	src := fixture(t)
	src.release = make(chan struct{})
	db := New("unused", src, zerolog.Nop())

	waitCalls := func(want int32) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for src.txCalls.Load() < want {
			if time.Now().After(deadline) {
				t.Fatalf("decode calls = %d, want %d", src.txCalls.Load(), want)
			}
			time.Sleep(time.Millisecond)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = db.Transactions(context.Background(), TransactionFilter{})
	}()
	waitCalls(1)

	db.Invalidate()
	go func() {
		defer wg.Done()
		_, _ = db.AllTransactions(context.Background())
	}()
	// Joining the pre-Invalidate decode would leave the count at 1.
	waitCalls(2)
	close(src.release)
	wg.Wait()

	if _, err := db.Transactions(context.Background(), TransactionFilter{}); err != nil {
		t.Fatal(err)
	}
	if n := src.txCalls.Load(); n != 2 {
		t.Errorf("decode calls = %d, want 2 (post-Invalidate load must be cached)", n)
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	src := fixture(t)
	src.err = fmt.Errorf("wrapped: %w", decoder.ErrDatabaseNotFound)
	db := New("/nowhere", src, zerolog.Nop())
	ctx := context.Background()

	_, err := db.Transactions(ctx, TransactionFilter{})
	if !errors.Is(err, ErrDatabaseUnavailable) {
		t.Fatalf("error = %v, want ErrDatabaseUnavailable", err)
	}
	src.err = nil
	if _, err := db.Transactions(ctx, TransactionFilter{}); err != nil {
		t.Fatalf("second call error = %v", err)
	}
	if n := src.txCalls.Load(); n != 2 {
		t.Errorf("decode calls = %d, want 2", n)
	}
}

func TestCache_ContextCanceled(t *testing.T) {
	src := fixture(t)
	src.release = make(chan struct{})
	defer close(src.release)
	db := New("unused", src, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := db.Transactions(ctx, TransactionFilter{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestIsAvailable(t *testing.T) {
	dir := t.TempDir()
	db := New(dir, decoder.New(), zerolog.Nop())
	if db.IsAvailable() {
		t.Error("IsAvailable() = true for empty dir")
	}
	if err := os.WriteFile(filepath.Join(dir, "000001.ldb"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !db.IsAvailable() {
		t.Error("IsAvailable() = false with a table file")
	}
	if New(filepath.Join(dir, "missing"), decoder.New(), zerolog.Nop()).IsAvailable() {
		t.Error("IsAvailable() = true for missing dir")
	}
}

func TestWarm(t *testing.T) {
	db := New("unused", fixture(t), zerolog.Nop())
	nTx, nAcc, err := db.Warm(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if nTx != 5 || nAcc != 2 {
		t.Errorf("Warm() = (%d, %d), want (5, 2)", nTx, nAcc)
	}
}

func TestAllTransactions_IgnoresLimit(t *testing.T) {
	src := fixture(t)
	for i := range DefaultTransactionLimit + 5 {
		src.txs = append(src.txs, tx(t, fmt.Sprintf("extra%d", i), "Coffee", "1", "2023-01-01", "", ""))
	}
	db := New("unused", src, zerolog.Nop())

	all, err := db.AllTransactions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != DefaultTransactionLimit+10 {
		t.Errorf("AllTransactions() = %d rows, want %d", len(all), DefaultTransactionLimit+10)
	}
	limited, err := db.Transactions(context.Background(), TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != DefaultTransactionLimit {
		t.Errorf("Transactions() = %d rows, want %d", len(limited), DefaultTransactionLimit)
	}
}
