// Package bigquery exports decoded transactions and accounts to BigQuery.
// Every export is tagged with a fresh export_run_id so runs can be told apart
// and verified after insertion.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/copilot-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

const (
	// TransactionsTable receives TransactionRow values.
	TransactionsTable = "copilot_transactions"
	// AccountsTable receives AccountRow values.
	AccountsTable = "copilot_accounts"

	// batchSize bounds the rows sent in a single streaming insert.
	batchSize = 500
)

// ErrUnknownTable is returned by CountRows for a table the exporter does not write.
var ErrUnknownTable = errors.New("unknown export table")

// putter is the part of *bigquery.Inserter the exporter uses.
type putter interface {
	Put(ctx context.Context, src interface{}) error
}

// Exporter streams rows into one dataset.
type Exporter struct {
	client    *bigquery.Client
	projectID string
	dataset   string
	log       zerolog.Logger
	now       func() time.Time
	inserter  func(table string) putter
}

// Result summarizes one export run.
type Result struct {
	RunID        string `json:"export_run_id"`
	Transactions int    `json:"transactions"`
	Accounts     int    `json:"accounts"`
}

// NewExporter creates an Exporter with its own BigQuery client.
func NewExporter(ctx context.Context, projectID, dataset string, log zerolog.Logger) (*Exporter, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: creating client: %w", err)
	}
	e := &Exporter{
		client:    client,
		projectID: projectID,
		dataset:   dataset,
		log:       log,
		now:       time.Now,
	}
	e.inserter = func(table string) putter {
		return client.DatasetInProject(projectID, dataset).Table(table).Inserter()
	}
	return e, nil
}

// Close closes the BigQuery client connection.
func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// EnsureTables creates the export tables if they do not exist yet.
func (e *Exporter) EnsureTables(ctx context.Context) error {
	for _, ddl := range []string{transactionsDDL, accountsDDL} {
		q := e.client.Query(fmt.Sprintf(ddl, e.projectID, e.dataset))
		job, err := q.Run(ctx)
		if err != nil {
			return fmt.Errorf("EnsureTables: running query: %w", err)
		}
		status, err := job.Wait(ctx)
		if err != nil {
			return fmt.Errorf("EnsureTables: waiting for job: %w", err)
		}
		if err := status.Err(); err != nil {
			return fmt.Errorf("EnsureTables: job error: %w", err)
		}
	}
	return nil
}

// Export inserts txs and accs under a new export run id.
func (e *Exporter) Export(ctx context.Context, txs []domain.Transaction, accs []domain.Account) (Result, error) {
	res := Result{RunID: uuid.New().String()}
	ts := e.now().UTC()

	txRows := make([]*TransactionRow, 0, len(txs))
	for _, t := range txs {
		txRows = append(txRows, NewTransactionRow(res.RunID, t, ts))
	}
	accRows := make([]*AccountRow, 0, len(accs))
	for _, a := range accs {
		accRows = append(accRows, NewAccountRow(res.RunID, a, ts))
	}

	if err := putBatches(ctx, e.inserter(TransactionsTable), txRows); err != nil {
		return res, fmt.Errorf("Export: inserting transactions: %w", err)
	}
	res.Transactions = len(txRows)

	if err := putBatches(ctx, e.inserter(AccountsTable), accRows); err != nil {
		return res, fmt.Errorf("Export: inserting accounts: %w", err)
	}
	res.Accounts = len(accRows)

	e.log.Info().
		Str("export_run_id", res.RunID).
		Int("transactions", res.Transactions).
		Int("accounts", res.Accounts).
		Msg("Export completed")
	return res, nil
}

func putBatches[T any](ctx context.Context, p putter, rows []*T) error {
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := p.Put(ctx, rows[start:end]); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// CountRows returns the number of rows of run runID in table.
func (e *Exporter) CountRows(ctx context.Context, table, runID string) (int64, error) {
	if table != TransactionsTable && table != AccountsTable {
		return 0, fmt.Errorf("CountRows: %q: %w", table, ErrUnknownTable)
	}
	q := e.client.Query(fmt.Sprintf(
		"SELECT COUNT(*) AS n FROM `%s.%s.%s` WHERE export_run_id = @run_id",
		e.projectID, e.dataset, table,
	))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountRows: query read: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	err = it.Next(&row)
	if err == iterator.Done {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("CountRows: iter next: %w", err)
	}
	return row.N, nil
}

const transactionsDDL = `
	CREATE TABLE IF NOT EXISTS ` + "`%s.%s.copilot_transactions`" + ` (
		export_run_id     STRING NOT NULL,
		transaction_id    STRING NOT NULL,
		account_id        STRING,
		item_id           STRING,
		category_id       STRING,
		transaction_date  DATE NOT NULL,
		original_date     DATE,
		amount            NUMERIC NOT NULL,
		original_amount   NUMERIC,
		display_name      STRING NOT NULL,
		name              STRING,
		original_name     STRING,
		pending           BOOL,
		user_reviewed     BOOL,
		city              STRING,
		region            STRING,
		country           STRING,
		lat               FLOAT64,
		lon               FLOAT64,
		iso_currency_code STRING,
		exported_ts       TIMESTAMP NOT NULL
	)
	PARTITION BY transaction_date
`

const accountsDDL = `
	CREATE TABLE IF NOT EXISTS ` + "`%s.%s.copilot_accounts`" + ` (
		export_run_id     STRING NOT NULL,
		account_id        STRING NOT NULL,
		display_name      STRING NOT NULL,
		name              STRING,
		official_name     STRING,
		mask              STRING,
		account_type      STRING,
		subtype           STRING,
		current_balance   NUMERIC NOT NULL,
		available_balance NUMERIC,
		institution_name  STRING,
		iso_currency_code STRING,
		exported_ts       TIMESTAMP NOT NULL
	)
`
