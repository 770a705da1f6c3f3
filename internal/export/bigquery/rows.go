package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/copilot-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionRow represents a transaction record in BigQuery.
type TransactionRow struct {
	ExportRunID   string `bigquery:"export_run_id"`  // REQUIRED
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	AccountID  bigquery.NullString `bigquery:"account_id"`
	ItemID     bigquery.NullString `bigquery:"item_id"`
	CategoryID bigquery.NullString `bigquery:"category_id"`

	TransactionDate civil.Date        `bigquery:"transaction_date"` // REQUIRED
	OriginalDate    bigquery.NullDate `bigquery:"original_date"`

	Amount         *big.Rat `bigquery:"amount"`          // REQUIRED NUMERIC
	OriginalAmount *big.Rat `bigquery:"original_amount"` // NULLABLE NUMERIC

	DisplayName  string              `bigquery:"display_name"` // REQUIRED
	Name         bigquery.NullString `bigquery:"name"`
	OriginalName bigquery.NullString `bigquery:"original_name"`

	Pending      bigquery.NullBool `bigquery:"pending"`
	UserReviewed bigquery.NullBool `bigquery:"user_reviewed"`

	City            bigquery.NullString  `bigquery:"city"`
	Region          bigquery.NullString  `bigquery:"region"`
	Country         bigquery.NullString  `bigquery:"country"`
	Lat             bigquery.NullFloat64 `bigquery:"lat"`
	Lon             bigquery.NullFloat64 `bigquery:"lon"`
	ISOCurrencyCode bigquery.NullString  `bigquery:"iso_currency_code"`

	ExportedTS time.Time `bigquery:"exported_ts"` // REQUIRED
}

// AccountRow represents an account snapshot in BigQuery.
type AccountRow struct {
	ExportRunID string `bigquery:"export_run_id"` // REQUIRED
	AccountID   string `bigquery:"account_id"`    // REQUIRED

	DisplayName  string              `bigquery:"display_name"` // REQUIRED
	Name         bigquery.NullString `bigquery:"name"`
	OfficialName bigquery.NullString `bigquery:"official_name"`
	Mask         bigquery.NullString `bigquery:"mask"`
	AccountType  bigquery.NullString `bigquery:"account_type"`
	Subtype      bigquery.NullString `bigquery:"subtype"`

	CurrentBalance   *big.Rat `bigquery:"current_balance"`   // REQUIRED NUMERIC
	AvailableBalance *big.Rat `bigquery:"available_balance"` // NULLABLE NUMERIC

	InstitutionName bigquery.NullString `bigquery:"institution_name"`
	ISOCurrencyCode bigquery.NullString `bigquery:"iso_currency_code"`

	ExportedTS time.Time `bigquery:"exported_ts"` // REQUIRED
}

// NewTransactionRow converts a decoded transaction into a row of export run runID.
func NewTransactionRow(runID string, t domain.Transaction, ts time.Time) *TransactionRow {
	row := &TransactionRow{
		ExportRunID:     runID,
		TransactionID:   t.TransactionID,
		AccountID:       nullString(t.AccountID),
		ItemID:          nullString(t.ItemID),
		CategoryID:      nullString(t.CategoryID),
		TransactionDate: t.Date,
		Amount:          t.Amount.Rat(),
		OriginalAmount:  rat(t.OriginalAmount),
		DisplayName:     t.DisplayName(),
		Name:            nullString(t.Name),
		OriginalName:    nullString(t.OriginalName),
		Pending:         nullBool(t.Pending),
		UserReviewed:    nullBool(t.UserReviewed),
		City:            nullString(t.City),
		Region:          nullString(t.Region),
		Country:         nullString(t.Country),
		Lat:             nullFloat(t.Lat),
		Lon:             nullFloat(t.Lon),
		ISOCurrencyCode: nullString(t.ISOCurrencyCode),
		ExportedTS:      ts,
	}
	if t.OriginalDate != nil {
		if d, err := domain.ParseDate(*t.OriginalDate); err == nil {
			row.OriginalDate = bigquery.NullDate{Date: d, Valid: true}
		}
	}
	return row
}

// NewAccountRow converts a decoded account into a row of export run runID.
func NewAccountRow(runID string, a domain.Account, ts time.Time) *AccountRow {
	return &AccountRow{
		ExportRunID:      runID,
		AccountID:        a.AccountID,
		DisplayName:      a.DisplayName(),
		Name:             nullString(a.Name),
		OfficialName:     nullString(a.OfficialName),
		Mask:             nullString(a.Mask),
		AccountType:      nullString(a.AccountType),
		Subtype:          nullString(a.Subtype),
		CurrentBalance:   a.CurrentBalance.Rat(),
		AvailableBalance: rat(a.AvailableBalance),
		InstitutionName:  nullString(a.InstitutionName),
		ISOCurrencyCode:  nullString(a.ISOCurrencyCode),
		ExportedTS:       ts,
	}
}

func nullString(s *string) bigquery.NullString {
	if s == nil {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: *s, Valid: true}
}

func nullBool(b *bool) bigquery.NullBool {
	if b == nil {
		return bigquery.NullBool{}
	}
	return bigquery.NullBool{Bool: *b, Valid: true}
}

func nullFloat(f *float64) bigquery.NullFloat64 {
	if f == nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: *f, Valid: true}
}

func rat(d *decimal.Decimal) *big.Rat {
	if d == nil {
		return nil
	}
	return d.Rat()
}
