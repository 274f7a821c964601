package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Ticker is a point-in-time market summary. Fields the exchange does not
// report stay invalid rather than zero.
type Ticker struct {
	Symbol      string              `json:"symbol"`
	Timestamp   int64               `json:"timestamp"`
	Bid         decimal.NullDecimal `json:"bid"`
	Ask         decimal.NullDecimal `json:"ask"`
	Last        decimal.NullDecimal `json:"last"`
	High        decimal.NullDecimal `json:"high"`
	Low         decimal.NullDecimal `json:"low"`
	Open        decimal.NullDecimal `json:"open"`
	VWAP        decimal.NullDecimal `json:"vwap"`
	BaseVolume  decimal.NullDecimal `json:"baseVolume"`
	QuoteVolume decimal.NullDecimal `json:"quoteVolume"`
	Info        json.RawMessage     `json:"info,omitempty"`
}
