package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountDetails holds the optional fields of an account.
type AccountDetails struct {
	Name             *string          `json:"name,omitempty"`
	OfficialName     *string          `json:"official_name,omitempty"`
	Mask             *string          `json:"mask,omitempty"`
	AccountType      *string          `json:"account_type,omitempty"`
	Subtype          *string          `json:"subtype,omitempty"`
	AvailableBalance *decimal.Decimal `json:"available_balance,omitempty"`
	ItemID           *string          `json:"item_id,omitempty"`
	InstitutionID    *string          `json:"institution_id,omitempty"`
	InstitutionName  *string          `json:"institution_name,omitempty"`
	ISOCurrencyCode  *string          `json:"iso_currency_code,omitempty"`
}

// Account is a financial account (checking, credit card, investment...).
type Account struct {
	AccountID      string          `json:"account_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	AccountDetails
}

// NewAccount returns an Account with its balance rounded to two decimal places.
func NewAccount(id string, balance decimal.Decimal, details AccountDetails) (Account, error) {
	if id == "" {
		return Account{}, fmt.Errorf("NewAccount: account_id: %w", ErrMissingID)
	}
	return Account{
		AccountID:      id,
		CurrentBalance: balance.Round(2),
		AccountDetails: details,
	}, nil
}

// DisplayName returns name, then official name, then "Unknown".
func (a Account) DisplayName() string {
	return displayName(a.Name, a.OfficialName)
}

// MarshalJSON adds the computed display_name to the encoded account.
func (a Account) MarshalJSON() ([]byte, error) {
	type plain Account
	return json.Marshal(struct {
		plain
		DisplayName string `json:"display_name"`
	}{plain(a), a.DisplayName()})
}

// Category is a spending category derived from transaction category ids.
type Category struct {
	CategoryID       string  `json:"category_id"`
	Name             string  `json:"name"`
	ParentCategoryID *string `json:"parent_category_id,omitempty"`
	Icon             *string `json:"icon,omitempty"`
	Color            *string `json:"color,omitempty"`
}

// NewCategory returns a Category named after its id when name is empty.
func NewCategory(id, name string) Category {
	if name == "" {
		name = id
	}
	return Category{CategoryID: id, Name: name}
}
