package models

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// Account holds the funds of one currency.
type Account struct {
	Free  decimal.NullDecimal `json:"free"`
	Used  decimal.NullDecimal `json:"used"`
	Total decimal.NullDecimal `json:"total"`
}

// Complete fills the missing members so that Total == Free + Used holds.
// With two members known the third is derived. A lone Total counts as free.
// A lone Free or Used zeroes the other. Nothing known is all zero.
func (a Account) Complete() Account {
	zero := decimal.NewNullDecimal(decimal.Zero)
	switch {
	case a.Free.Valid && a.Used.Valid:
		a.Total = decimal.NewNullDecimal(a.Free.Decimal.Add(a.Used.Decimal))
	case a.Total.Valid && a.Free.Valid:
		a.Used = decimal.NewNullDecimal(a.Total.Decimal.Sub(a.Free.Decimal))
	case a.Total.Valid && a.Used.Valid:
		a.Free = decimal.NewNullDecimal(a.Total.Decimal.Sub(a.Used.Decimal))
	case a.Total.Valid:
		a.Free, a.Used = a.Total, zero
	case a.Free.Valid:
		a.Used, a.Total = zero, a.Free
	case a.Used.Valid:
		a.Free, a.Total = zero, a.Used
	default:
		a.Free, a.Used, a.Total = zero, zero, zero
	}
	return a
}

// Balance maps currency codes to accounts.
type Balance struct {
	Accounts map[string]Account `json:"accounts"`
	Info     json.RawMessage    `json:"info,omitempty"`
}

// Get returns the account for currency, or a zeroed account.
func (b Balance) Get(currency string) Account {
	if acc, ok := b.Accounts[currency]; ok {
		return acc
	}
	return Account{}.Complete()
}

// Currencies lists the balance's currencies in sorted order.
func (b Balance) Currencies() []string {
	out := make([]string, 0, len(b.Accounts))
	for c := range b.Accounts {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
