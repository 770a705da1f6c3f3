package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// MaxAmount is the largest absolute amount a transaction may carry.
var MaxAmount = decimal.NewFromInt(10_000_000)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var (
	// ErrMissingID is returned when a record has no identifier.
	ErrMissingID = errors.New("missing identifier")
	// ErrAmountOutOfRange is returned when an amount exceeds MaxAmount.
	ErrAmountOutOfRange = errors.New("amount out of range")
	// ErrInvalidDate is returned when a date is not a YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("invalid date")
)

// TransactionDetails holds the optional descriptive fields of a transaction.
// Absent values are nil.
type TransactionDetails struct {
	Name                 *string          `json:"name,omitempty"`
	OriginalName         *string          `json:"original_name,omitempty"`
	OriginalCleanName    *string          `json:"original_clean_name,omitempty"`
	AccountID            *string          `json:"account_id,omitempty"`
	ItemID               *string          `json:"item_id,omitempty"`
	UserID               *string          `json:"user_id,omitempty"`
	CategoryID           *string          `json:"category_id,omitempty"`
	PlaidCategoryID      *string          `json:"plaid_category_id,omitempty"`
	CategoryIDSource     *string          `json:"category_id_source,omitempty"`
	OriginalDate         *string          `json:"original_date,omitempty"`
	OriginalAmount       *decimal.Decimal `json:"original_amount,omitempty"`
	Pending              *bool            `json:"pending,omitempty"`
	PendingTransactionID *string          `json:"pending_transaction_id,omitempty"`
	UserReviewed         *bool            `json:"user_reviewed,omitempty"`
	PlaidDeleted         *bool            `json:"plaid_deleted,omitempty"`
	PaymentMethod        *string          `json:"payment_method,omitempty"`
	PaymentProcessor     *string          `json:"payment_processor,omitempty"`
	City                 *string          `json:"city,omitempty"`
	Region               *string          `json:"region,omitempty"`
	Address              *string          `json:"address,omitempty"`
	PostalCode           *string          `json:"postal_code,omitempty"`
	Country              *string          `json:"country,omitempty"`
	Lat                  *float64         `json:"lat,omitempty"`
	Lon                  *float64         `json:"lon,omitempty"`
	ISOCurrencyCode      *string          `json:"iso_currency_code,omitempty"`
	PlaidTransactionType *string          `json:"plaid_transaction_type,omitempty"`
	IsAmazon             *bool            `json:"is_amazon,omitempty"`
	ReferenceNumber      *string          `json:"reference_number,omitempty"`
}

// Transaction is a single financial transaction recovered from the local cache.
// Values are built with NewTransaction and are not modified afterwards.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          civil.Date      `json:"date"`
	TransactionDetails
}

// NewTransaction validates its inputs and returns a Transaction.
// The amount is rounded to two decimal places.
func NewTransaction(id string, amount decimal.Decimal, date string, details TransactionDetails) (Transaction, error) {
	if id == "" {
		return Transaction{}, fmt.Errorf("NewTransaction: transaction_id: %w", ErrMissingID)
	}
	if amount.Abs().GreaterThan(MaxAmount) {
		return Transaction{}, fmt.Errorf("NewTransaction: %s: %w", amount, ErrAmountOutOfRange)
	}
	d, err := ParseDate(date)
	if err != nil {
		return Transaction{}, fmt.Errorf("NewTransaction: %w", err)
	}
	return Transaction{
		TransactionID:      id,
		Amount:             amount.Round(2),
		Date:               d,
		TransactionDetails: details,
	}, nil
}

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (civil.Date, error) {
	if !datePattern.MatchString(s) {
		return civil.Date{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	return d, nil
}

// DisplayName returns the name shown to users: name, then original name, then "Unknown".
func (t Transaction) DisplayName() string {
	return displayName(t.Name, t.OriginalName)
}

// MarshalJSON adds the computed display_name to the encoded transaction.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		DisplayName string `json:"display_name"`
	}{plain(t), t.DisplayName()})
}

func displayName(primary, fallback *string) string {
	if primary != nil && *primary != "" {
		return *primary
	}
	if fallback != nil && *fallback != "" {
		return *fallback
	}
	return "Unknown"
}
