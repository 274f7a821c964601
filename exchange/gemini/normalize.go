package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"cryptobridge/exchange"
	"cryptobridge/models"

	"github.com/shopspring/decimal"
)

type tickerResponse struct {
	Bid    exchange.Decimal           `json:"bid"`
	Ask    exchange.Decimal           `json:"ask"`
	Last   exchange.Decimal           `json:"last"`
	Volume map[string]json.RawMessage `json:"volume"`
}

// parseTicker reads pubticker. Volumes are keyed by currency code next to a
// millisecond timestamp.
func parseTicker(raw []byte, m models.Market) (*models.Ticker, error) {
	var r tickerResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	t := &models.Ticker{
		Symbol: m.Symbol,
		Bid:    r.Bid.Null(),
		Ask:    r.Ask.Null(),
		Last:   r.Last.Null(),
		Info:   raw,
	}
	if v, ok := r.Volume["timestamp"]; ok {
		var ts exchange.Int
		if err := json.Unmarshal(v, &ts); err != nil {
			return nil, fmt.Errorf("volume.timestamp: %w", err)
		}
		t.Timestamp = ts.Value
	}
	var err error
	if t.BaseVolume, err = volume(r.Volume, m.Base); err != nil {
		return nil, err
	}
	if t.QuoteVolume, err = volume(r.Volume, m.Quote); err != nil {
		return nil, err
	}
	return t, nil
}

func volume(volumes map[string]json.RawMessage, currency string) (decimal.NullDecimal, error) {
	v, ok := volumes[currency]
	if !ok {
		return decimal.NullDecimal{}, nil
	}
	var d exchange.Decimal
	if err := json.Unmarshal(v, &d); err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("volume.%s: %w", currency, err)
	}
	return d.Null(), nil
}

type bookLevel struct {
	Price  exchange.Decimal `json:"price"`
	Amount exchange.Decimal `json:"amount"`
}

type bookResponse struct {
	Bids []bookLevel `json:"bids"`
	Asks []bookLevel `json:"asks"`
}

func parseOrderBook(raw []byte, symbol string) (*models.OrderBook, error) {
	var r bookResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	bids, err := levels(r.Bids)
	if err != nil {
		return nil, err
	}
	asks, err := levels(r.Asks)
	if err != nil {
		return nil, err
	}
	book := &models.OrderBook{Symbol: symbol, Bids: bids, Asks: asks, Info: raw}
	book.Sort()
	return book, nil
}

func levels(in []bookLevel) ([]models.PriceLevel, error) {
	out := make([]models.PriceLevel, 0, len(in))
	for _, l := range in {
		price, err := l.Price.Require("price")
		if err != nil {
			return nil, err
		}
		amount, err := l.Amount.Require("amount")
		if err != nil {
			return nil, err
		}
		out = append(out, models.PriceLevel{Price: price, Amount: amount})
	}
	return out, nil
}

type tradeResponse struct {
	TID         exchange.Text    `json:"tid"`
	Timestamp   exchange.Int     `json:"timestamp"`
	TimestampMS exchange.Int     `json:"timestampms"`
	Price       exchange.Decimal `json:"price"`
	Amount      exchange.Decimal `json:"amount"`
	Type        string           `json:"type"`
	OrderID     exchange.Text    `json:"order_id"`
	Symbol      string           `json:"symbol"`
}

func parseSide(s string) (models.Side, error) {
	side := models.Side(strings.ToLower(s))
	if !side.Valid() {
		return "", fmt.Errorf("unknown side %q", s)
	}
	return side, nil
}

// tradeSide keeps auction and block prints with their native type as the side.
func tradeSide(s string) (models.Side, error) {
	if s == "" {
		return "", exchange.MissingField("type")
	}
	return models.Side(strings.ToLower(s)), nil
}

func resolveSymbol(snap *exchange.CatalogSnapshot, id, fallback string) string {
	if id == "" {
		return fallback
	}
	if snap != nil {
		if m, ok := snap.ByID(id); ok {
			return m.Symbol
		}
	}
	return id
}

func parseTrade(raw json.RawMessage, snap *exchange.CatalogSnapshot, symbol string) (models.Trade, error) {
	var r tradeResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.Trade{}, err
	}
	id, err := r.TID.Require("tid")
	if err != nil {
		return models.Trade{}, err
	}
	var ts int64
	switch {
	case r.TimestampMS.Set:
		ts = r.TimestampMS.Value
	case r.Timestamp.Set:
		ts = r.Timestamp.Value * 1000
	default:
		return models.Trade{}, exchange.MissingField("timestampms")
	}
	side, err := tradeSide(r.Type)
	if err != nil {
		return models.Trade{}, err
	}
	price, err := r.Price.Require("price")
	if err != nil {
		return models.Trade{}, err
	}
	amount, err := r.Amount.Require("amount")
	if err != nil {
		return models.Trade{}, err
	}
	return models.Trade{
		ID:        id,
		Timestamp: ts,
		Symbol:    resolveSymbol(snap, r.Symbol, symbol),
		Side:      side,
		Price:     price,
		Amount:    amount,
		Order:     r.OrderID.Value,
		Info:      raw,
	}, nil
}

func parseTrades(raw []byte, snap *exchange.CatalogSnapshot, symbol string) ([]models.Trade, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]models.Trade, 0, len(items))
	for _, item := range items {
		t, err := parseTrade(item, snap, symbol)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

type balanceEntry struct {
	Type      string           `json:"type"`
	Currency  string           `json:"currency"`
	Amount    exchange.Decimal `json:"amount"`
	Available exchange.Decimal `json:"available"`
}

// parseBalance reads the balances list: amount is the total, available the
// free part. Registry currencies absent from the list get zero accounts.
func parseBalance(raw []byte, registry []string) (*models.Balance, error) {
	var entries []balanceEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	accounts := make(map[string]models.Account, len(registry)+len(entries))
	for _, c := range registry {
		accounts[strings.ToUpper(c)] = models.Account{}.Complete()
	}
	for _, e := range entries {
		if e.Currency == "" {
			return nil, exchange.MissingField("currency")
		}
		acc := models.Account{Free: e.Available.Null(), Total: e.Amount.Null()}
		accounts[strings.ToUpper(e.Currency)] = acc.Complete()
	}
	return &models.Balance{Accounts: accounts, Info: raw}, nil
}

type orderResponse struct {
	OrderID           exchange.Text    `json:"order_id"`
	ClientOrderID     string           `json:"client_order_id"`
	Symbol            string           `json:"symbol"`
	Side              string           `json:"side"`
	Type              string           `json:"type"`
	Timestamp         exchange.Int     `json:"timestamp"`
	TimestampMS       exchange.Int     `json:"timestampms"`
	Price             exchange.Decimal `json:"price"`
	AvgExecutionPrice exchange.Decimal `json:"avg_execution_price"`
	OriginalAmount    exchange.Decimal `json:"original_amount"`
	ExecutedAmount    exchange.Decimal `json:"executed_amount"`
	RemainingAmount   exchange.Decimal `json:"remaining_amount"`
	IsLive            *bool            `json:"is_live"`
	IsCancelled       *bool            `json:"is_cancelled"`
}

func orderType(native string) models.OrderType {
	switch {
	case strings.Contains(native, "limit"):
		return models.OrderTypeLimit
	case strings.Contains(native, "market"):
		return models.OrderTypeMarket
	default:
		return models.OrderType(native)
	}
}

func parseOrder(raw []byte, snap *exchange.CatalogSnapshot) (*models.Order, error) {
	var r orderResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	id, err := r.OrderID.Require("order_id")
	if err != nil {
		return nil, err
	}
	if r.IsLive == nil {
		return nil, exchange.MissingField("is_live")
	}
	if r.IsCancelled == nil {
		return nil, exchange.MissingField("is_cancelled")
	}
	side, err := parseSide(r.Side)
	if err != nil {
		return nil, err
	}
	o := &models.Order{
		ID:            id,
		ClientOrderID: r.ClientOrderID,
		Timestamp:     r.TimestampMS.Value,
		Symbol:        resolveSymbol(snap, r.Symbol, strings.ToUpper(r.Symbol)),
		Type:          orderType(r.Type),
		Side:          side,
		Status:        mapStatus(*r.IsCancelled, *r.IsLive),
		Price:         r.Price.Null(),
		Average:       r.AvgExecutionPrice.Null(),
		Amount:        r.OriginalAmount.Null(),
		Filled:        r.ExecutedAmount.Null(),
		Remaining:     r.RemainingAmount.Null(),
		Info:          raw,
	}
	if !r.TimestampMS.Set && r.Timestamp.Set {
		o.Timestamp = r.Timestamp.Value * 1000
	}
	return o, nil
}

func parseOrders(raw []byte, snap *exchange.CatalogSnapshot) ([]models.Order, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(items))
	for _, item := range items {
		o, err := parseOrder(item, snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}

// errorMessage detects {"result": "error", "reason": ..., "message": ...}.
func errorMessage(body []byte) (string, bool) {
	var r struct {
		Result  string `json:"result"`
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &r); err != nil || r.Result != "error" {
		return "", false
	}
	if r.Message != "" {
		return r.Message, true
	}
	return r.Reason, true
}
