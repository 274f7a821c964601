package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

func (t OrderType) Valid() bool {
	return t == OrderTypeLimit || t == OrderTypeMarket
}

// Trade is a single public or private execution.
type Trade struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Order     string          `json:"order,omitempty"`
	Info      json.RawMessage `json:"info,omitempty"`
}

// Cost is price times amount.
func (t Trade) Cost() decimal.Decimal {
	return t.Price.Mul(t.Amount)
}
