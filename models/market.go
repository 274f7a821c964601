package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// MinMax is an optional numeric range. Either bound may be unknown.
type MinMax struct {
	Min decimal.NullDecimal `json:"min"`
	Max decimal.NullDecimal `json:"max"`
}

type Limits struct {
	Amount MinMax `json:"amount"`
	Price  MinMax `json:"price"`
	Cost   MinMax `json:"cost"`
}

// Precision holds the number of decimal places for amounts and prices.
// A nil field means the exchange did not supply it.
type Precision struct {
	Amount *int `json:"amount,omitempty"`
	Price  *int `json:"price,omitempty"`
}

// Market describes one tradable pair as listed by an exchange.
type Market struct {
	ID        string              `json:"id"`
	Symbol    string              `json:"symbol"`
	Base      string              `json:"base"`
	Quote     string              `json:"quote"`
	Precision Precision           `json:"precision"`
	Lot       decimal.NullDecimal `json:"lot"`
	Limits    Limits              `json:"limits"`
	Active    bool                `json:"active"`
	Taker     decimal.NullDecimal `json:"taker"`
	Maker     decimal.NullDecimal `json:"maker"`
	Info      json.RawMessage     `json:"info,omitempty"`
}

// Symbol builds the unified "BASE/QUOTE" symbol.
func Symbol(base, quote string) string {
	return strings.ToUpper(base) + "/" + strings.ToUpper(quote)
}

// SplitSymbol is the inverse of Symbol.
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	base, quote, ok = strings.Cut(symbol, "/")
	if !ok || base == "" || quote == "" {
		return "", "", false
	}
	return base, quote, true
}

// PrecisionStep returns 10^-places, the smallest increment for the given
// number of decimal places.
func PrecisionStep(places int) decimal.Decimal {
	return decimal.New(1, int32(-places))
}
