package models

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// PriceLevel represents a single price level in the order book
type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// OrderBook represents the unified order book snapshot.
// Bids are kept best-first (descending), asks ascending.
type OrderBook struct {
	Symbol    string          `json:"symbol"`
	Timestamp int64           `json:"timestamp"` // unix ms, 0 when the exchange does not report one
	Bids      []PriceLevel    `json:"bids"`
	Asks      []PriceLevel    `json:"asks"`
	Info      json.RawMessage `json:"info,omitempty"`
}

// Sort orders both sides of the book in place.
func (b *OrderBook) Sort() {
	sort.SliceStable(b.Bids, func(i, j int) bool {
		return b.Bids[i].Price.GreaterThan(b.Bids[j].Price)
	})
	sort.SliceStable(b.Asks, func(i, j int) bool {
		return b.Asks[i].Price.LessThan(b.Asks[j].Price)
	})
}

// BestBid returns the highest bid, if any.
func (b *OrderBook) BestBid() (PriceLevel, bool) {
	if len(b.Bids) == 0 {
		return PriceLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest ask, if any.
func (b *OrderBook) BestAsk() (PriceLevel, bool) {
	if len(b.Asks) == 0 {
		return PriceLevel{}, false
	}
	return b.Asks[0], true
}

// Spread returns ask minus bid when both sides are present.
func (b *OrderBook) Spread() decimal.NullDecimal {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(ask.Price.Sub(bid.Price))
}
