// Package decoder recovers transactions and accounts from the LevelDB table
// files of the Copilot Money Firestore cache.
//
// The table files hold serialized Firestore documents whose schema is not
// available. Records are located by searching for field-name byte patterns
// and values are read from the bytes that follow them, so results are
// heuristic: unrelated bytes near an anchor can produce false matches, and
// candidates that do not look plausible are dropped rather than reported.
package decoder

import (
	"errors"
	"os"

	"github.com/dvloznov/copilot-ledger/internal/domain"
	"github.com/rs/zerolog"
)

// Decoder scans a database directory. It holds no state between calls and
// may be used from several goroutines.
type Decoder struct {
	limits   Limits
	log      zerolog.Logger
	readFile func(string) ([]byte, error)
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLimits overrides the default thresholds.
func WithLimits(l Limits) Option {
	return func(d *Decoder) { d.limits = l }
}

// WithLogger sets the logger used for per-file diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Decoder) { d.log = log }
}

// New creates a Decoder.
func New(opts ...Option) *Decoder {
	d := &Decoder{
		limits:   DefaultLimits(),
		log:      zerolog.Nop(),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Limits returns the thresholds in use.
func (d *Decoder) Limits() Limits {
	return d.limits
}

// Report counts what happened during one decode pass.
type Report struct {
	Files        int `json:"files"`
	FilesSkipped int `json:"files_skipped"`
	Anchors      int `json:"anchors"`
	NoValue      int `json:"no_value"`
	Incomplete   int `json:"incomplete"`
	Rejected     int `json:"rejected"`
	Duplicates   int `json:"duplicates"`
	Records      int `json:"records"`
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (r Report) MarshalZerologObject(e *zerolog.Event) {
	e.Int("files", r.Files).
		Int("files_skipped", r.FilesSkipped).
		Int("anchors", r.Anchors).
		Int("no_value", r.NoValue).
		Int("incomplete", r.Incomplete).
		Int("rejected", r.Rejected).
		Int("duplicates", r.Duplicates).
		Int("records", r.Records)
}

// DecodeTransactions returns the distinct transactions found under dir,
// newest first. It fails only with ErrDatabaseNotFound or a directory read
// error; undecodable candidates are counted in the report.
func (d *Decoder) DecodeTransactions(dir string) ([]domain.Transaction, Report, error) {
	var (
		r   Report
		out []domain.Transaction
	)
	err := d.scan(dir, transactionKind, &r, func(data []byte, idx int) {
		amount, ok := d.limits.ExtractDouble(data, idx+len(amountAnchor))
		if !ok || amount == 0 {
			r.NoValue++
			return
		}
		w := Carve(data, idx, d.limits.TransactionRadius)
		tx, err := d.limits.assembleTransaction(w.Bytes, amount)
		if err != nil {
			d.count(&r, err)
			return
		}
		out = append(out, tx)
	})
	if err != nil {
		return nil, r, err
	}

	out, r.Duplicates = DedupTransactions(out)
	SortTransactions(out)
	r.Records = len(out)
	d.log.Debug().Str("dir", dir).Object("report", r).Msg("Decoded transactions")
	return out, r, nil
}

// DecodeAccounts returns the distinct accounts found under dir in the order
// they were first seen.
func (d *Decoder) DecodeAccounts(dir string) ([]domain.Account, Report, error) {
	var (
		r   Report
		out []domain.Account
	)
	err := d.scan(dir, accountKind, &r, func(data []byte, idx int) {
		balance, ok := d.limits.ExtractDouble(data, idx+len(balanceAnchor))
		if !ok {
			r.NoValue++
			return
		}
		w := Carve(data, idx, d.limits.AccountRadius)
		acc, err := d.limits.assembleAccount(w.Bytes, balance)
		if err != nil {
			d.count(&r, err)
			return
		}
		out = append(out, acc)
	})
	if err != nil {
		return nil, r, err
	}

	out, r.Duplicates = DedupAccounts(out)
	r.Records = len(out)
	d.log.Debug().Str("dir", dir).Object("report", r).Msg("Decoded accounts")
	return out, r, nil
}

func (d *Decoder) count(r *Report, err error) {
	if errors.Is(err, errIncomplete) {
		r.Incomplete++
		return
	}
	r.Rejected++
	d.log.Debug().Err(err).Msg("Rejected candidate record")
}
