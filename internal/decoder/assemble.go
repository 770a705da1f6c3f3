package decoder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dvloznov/copilot-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// errIncomplete marks a candidate missing a required field.
var errIncomplete = errors.New("incomplete record")

func (l Limits) assembleTransaction(w []byte, amount float64) (domain.Transaction, error) {
	d := domain.TransactionDetails{
		Name:                 l.optString(w, txName),
		OriginalName:         l.optString(w, txOriginalName),
		OriginalCleanName:    l.optString(w, txOriginalCleanName),
		AccountID:            l.optString(w, txAccountID),
		ItemID:               l.optString(w, txItemID),
		UserID:               l.optString(w, txUserID),
		CategoryID:           l.optString(w, txCategoryID),
		PlaidCategoryID:      l.optString(w, txPlaidCategoryID),
		CategoryIDSource:     l.optString(w, txCategoryIDSource),
		OriginalDate:         l.optString(w, txOriginalDate),
		OriginalAmount:       l.optDecimal(w, txOriginalAmount),
		Pending:              l.optBool(w, txPending),
		PendingTransactionID: l.optString(w, txPendingTransactionID),
		UserReviewed:         l.optBool(w, txUserReviewed),
		PlaidDeleted:         l.optBool(w, txPlaidDeleted),
		PaymentMethod:        l.optString(w, txPaymentMethod),
		PaymentProcessor:     l.optString(w, txPaymentProcessor),
		City:                 l.optString(w, txCity),
		Region:               l.optString(w, txRegion),
		Address:              l.optString(w, txAddress),
		PostalCode:           l.optString(w, txPostalCode),
		Country:              l.optString(w, txCountry),
		Lat:                  l.optDouble(w, txLat),
		Lon:                  l.optDouble(w, txLon),
		ISOCurrencyCode:      l.optString(w, txCurrency),
		PlaidTransactionType: l.optString(w, txTransactionType),
		IsAmazon:             l.optBool(w, txIsAmazon),
		ReferenceNumber:      l.optString(w, txReferenceNumber),
	}

	id := l.optString(w, txTransactionID)
	switch {
	case d.Name == nil && d.OriginalName == nil:
		return domain.Transaction{}, fmt.Errorf("transaction: no name: %w", errIncomplete)
	case id == nil:
		return domain.Transaction{}, fmt.Errorf("transaction: no transaction_id: %w", errIncomplete)
	case d.OriginalDate == nil:
		return domain.Transaction{}, fmt.Errorf("transaction %s: no date: %w", *id, errIncomplete)
	}
	return domain.NewTransaction(*id, decimal.NewFromFloat(amount), *d.OriginalDate, d)
}

func (l Limits) assembleAccount(w []byte, balance float64) (domain.Account, error) {
	d := domain.AccountDetails{
		Name:             l.optString(w, accName),
		OfficialName:     l.optString(w, accOfficialName),
		Mask:             l.optString(w, accMask),
		AccountType:      l.optString(w, accType),
		Subtype:          l.optString(w, accSubtype),
		AvailableBalance: l.optDecimal(w, accAvailableBalance),
		ItemID:           l.optString(w, accItemID),
		InstitutionID:    l.optString(w, accInstitutionID),
		InstitutionName:  l.optString(w, accInstitutionName),
		ISOCurrencyCode:  l.optString(w, accCurrency),
	}

	id := l.optString(w, accAccountID)
	switch {
	case id == nil:
		return domain.Account{}, fmt.Errorf("account: no account_id: %w", errIncomplete)
	case d.Name == nil && d.OfficialName == nil:
		return domain.Account{}, fmt.Errorf("account %s: no name: %w", *id, errIncomplete)
	}
	return domain.NewAccount(*id, decimal.NewFromFloat(balance), d)
}

func (l Limits) optString(w, field []byte) *string {
	if s, ok := l.ExtractString(w, field); ok {
		return &s
	}
	return nil
}

func (l Limits) optBool(w, field []byte) *bool {
	if b, ok := l.ExtractBool(w, field); ok {
		return &b
	}
	return nil
}

// optDouble reads the double that follows the first occurrence of field.
func (l Limits) optDouble(w, field []byte) *float64 {
	idx := bytes.Index(w, field)
	if idx < 0 {
		return nil
	}
	if v, ok := l.ExtractDouble(w, idx+len(field)); ok {
		return &v
	}
	return nil
}

func (l Limits) optDecimal(w, field []byte) *decimal.Decimal {
	v := l.optDouble(w, field)
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
