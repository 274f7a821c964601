package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Status is the unified order lifecycle state. Values other than the three
// constants are native exchange states passed through unchanged.
type Status string

const (
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
	StatusCanceled Status = "canceled"
)

// Known reports whether s is one of the unified states.
func (s Status) Known() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusCanceled:
		return true
	default:
		return false
	}
}

// Order is the unified order record. Every response kind an exchange returns
// for an order normalizes into this one shape.
type Order struct {
	ID            string              `json:"id"`
	ClientOrderID string              `json:"clientOrderId,omitempty"`
	Timestamp     int64               `json:"timestamp"`
	Symbol        string              `json:"symbol"`
	Type          OrderType           `json:"type"`
	Side          Side                `json:"side"`
	Status        Status              `json:"status"`
	Price         decimal.NullDecimal `json:"price"`
	Average       decimal.NullDecimal `json:"average"`
	Amount        decimal.NullDecimal `json:"amount"`
	Filled        decimal.NullDecimal `json:"filled"`
	Remaining     decimal.NullDecimal `json:"remaining"`
	Fee           decimal.NullDecimal `json:"fee"`
	Trades        []Trade             `json:"trades,omitempty"`
	Info          json.RawMessage     `json:"info,omitempty"`
}

// Consistent reports whether filled + remaining == amount. Orders that do not
// report all three are considered consistent.
func (o Order) Consistent() bool {
	if !o.Amount.Valid || !o.Filled.Valid || !o.Remaining.Valid {
		return true
	}
	return o.Filled.Decimal.Add(o.Remaining.Decimal).Equal(o.Amount.Decimal)
}
