package bitstamp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"cryptobridge/exchange"
	"cryptobridge/models"

	"github.com/shopspring/decimal"
)

type tickerResponse struct {
	Timestamp exchange.Int     `json:"timestamp"`
	High      exchange.Decimal `json:"high"`
	Low       exchange.Decimal `json:"low"`
	Bid       exchange.Decimal `json:"bid"`
	Ask       exchange.Decimal `json:"ask"`
	VWAP      exchange.Decimal `json:"vwap"`
	Open      exchange.Decimal `json:"open"`
	Last      exchange.Decimal `json:"last"`
	Volume    exchange.Decimal `json:"volume"`
}

func parseTicker(raw []byte, symbol string) (*models.Ticker, error) {
	var r tickerResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	ts, err := r.Timestamp.Require("timestamp")
	if err != nil {
		return nil, err
	}
	t := &models.Ticker{
		Symbol:     symbol,
		Timestamp:  ts * 1000,
		Bid:        r.Bid.Null(),
		Ask:        r.Ask.Null(),
		Last:       r.Last.Null(),
		High:       r.High.Null(),
		Low:        r.Low.Null(),
		Open:       r.Open.Null(),
		VWAP:       r.VWAP.Null(),
		BaseVolume: r.Volume.Null(),
		Info:       raw,
	}
	if r.Volume.Set && r.VWAP.Set {
		t.QuoteVolume = decimal.NewNullDecimal(r.Volume.Value.Mul(r.VWAP.Value))
	}
	return t, nil
}

type orderBookResponse struct {
	Timestamp exchange.Int          `json:"timestamp"`
	Bids      [][2]exchange.Decimal `json:"bids"`
	Asks      [][2]exchange.Decimal `json:"asks"`
}

func parseOrderBook(raw []byte, symbol string) (*models.OrderBook, error) {
	var r orderBookResponse
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
	if r.Timestamp.Set {
		book.Timestamp = r.Timestamp.Value * 1000
	}
	book.Sort()
	return book, nil
}

func levels(in [][2]exchange.Decimal) ([]models.PriceLevel, error) {
	out := make([]models.PriceLevel, 0, len(in))
	for _, l := range in {
		price, err := l[0].Require("price")
		if err != nil {
			return nil, err
		}
		amount, err := l[1].Require("amount")
		if err != nil {
			return nil, err
		}
		out = append(out, models.PriceLevel{Price: price, Amount: amount})
	}
	return out, nil
}

type tradeResponse struct {
	Date         exchange.Int     `json:"date"`
	Datetime     string           `json:"datetime"`
	TID          exchange.Text    `json:"tid"`
	ID           exchange.Text    `json:"id"`
	OrderID      exchange.Text    `json:"order_id"`
	Type         exchange.Int     `json:"type"`
	Price        exchange.Decimal `json:"price"`
	Amount       exchange.Decimal `json:"amount"`
	CurrencyPair string           `json:"currency_pair"`
	Market       string           `json:"market"`
}

// nativePair returns the native pair a payload names, preferring currency_pair.
func nativePair(currencyPair, market string) string {
	if currencyPair != "" {
		return currencyPair
	}
	return market
}

// side codes: 0 is buy, anything else sell.
func sideFromCode(code int64) models.Side {
	if code == 0 {
		return models.SideBuy
	}
	return models.SideSell
}

// parseDatetime reads Bitstamp's "2006-01-02 15:04:05[.ffffff]" UTC
// datetimes and returns unix milliseconds.
func parseDatetime(s string) (int64, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("invalid datetime %q", s)
}

// resolveSymbol maps a native pair to a unified symbol. Unknown pairs are
// returned verbatim, an empty pair yields fallback.
func resolveSymbol(snap *exchange.CatalogSnapshot, pair, fallback string) string {
	if pair == "" {
		return fallback
	}
	if snap != nil {
		if m, ok := snap.ByID(pair); ok {
			return m.Symbol
		}
		if m, ok := snap.BySymbol(pair); ok {
			return m.Symbol
		}
	}
	return pair
}

func parseTrade(raw json.RawMessage, snap *exchange.CatalogSnapshot, symbol string) (models.Trade, error) {
	var r tradeResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.Trade{}, err
	}
	id := r.TID
	if !id.Set {
		id = r.ID
	}
	tradeID, err := id.Require("tid")
	if err != nil {
		return models.Trade{}, err
	}
	var ts int64
	switch {
	case r.Date.Set:
		ts = r.Date.Value * 1000
	case r.Datetime != "":
		if ts, err = parseDatetime(r.Datetime); err != nil {
			return models.Trade{}, err
		}
	default:
		return models.Trade{}, exchange.MissingField("date")
	}
	code, err := r.Type.Require("type")
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
		ID:        tradeID,
		Timestamp: ts,
		Symbol:    resolveSymbol(snap, nativePair(r.CurrencyPair, r.Market), symbol),
		Side:      sideFromCode(code),
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

var balanceSuffixes = map[string]string{
	"_available": "free",
	"_reserved":  "used",
	"_balance":   "total",
}

// parseBalance reads the flat "<cur>_available/_reserved/_balance" layout.
// Every currency in registry gets an account even if the response omits it.
func parseBalance(raw []byte, registry []string) (*models.Balance, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	accounts := make(map[string]models.Account, len(registry))
	for _, c := range registry {
		accounts[strings.ToUpper(c)] = models.Account{}
	}
	for key, value := range fields {
		for suffix, member := range balanceSuffixes {
			cur, ok := strings.CutSuffix(key, suffix)
			if !ok || cur == "" {
				continue
			}
			var v exchange.Decimal
			if err := json.Unmarshal(value, &v); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			cur = strings.ToUpper(cur)
			acc := accounts[cur]
			switch member {
			case "free":
				acc.Free = v.Null()
			case "used":
				acc.Used = v.Null()
			case "total":
				acc.Total = v.Null()
			}
			accounts[cur] = acc
		}
	}
	for cur, acc := range accounts {
		accounts[cur] = acc.Complete()
	}
	return &models.Balance{Accounts: accounts, Info: raw}, nil
}

type orderResponse struct {
	ID              exchange.Text     `json:"id"`
	Datetime        string            `json:"datetime"`
	Type            exchange.Int      `json:"type"`
	Price           exchange.Decimal  `json:"price"`
	Amount          exchange.Decimal  `json:"amount"`
	AmountRemaining exchange.Decimal  `json:"amount_remaining"`
	Status          *string           `json:"status"`
	CurrencyPair    string            `json:"currency_pair"`
	Market          string            `json:"market"`
	ClientOrderID   string            `json:"client_order_id"`
	Transactions    []json.RawMessage `json:"transactions"`
}

// nonCurrencyKeys are transaction members that never name a currency.
var nonCurrencyKeys = map[string]bool{
	"tid": true, "id": true, "price": true, "fee": true, "datetime": true,
	"type": true, "order_id": true,
}

func catalogMarket(snap *exchange.CatalogSnapshot, pair string) *models.Market {
	if snap == nil {
		return nil
	}
	if m, ok := snap.ByID(pair); ok {
		return &m
	}
	if m, ok := snap.BySymbol(pair); ok {
		return &m
	}
	return nil
}

// marketFromTransaction picks the catalog market whose base and quote both
// appear as amount keys, as on order_status transactions.
func marketFromTransaction(snap *exchange.CatalogSnapshot, tx map[string]json.RawMessage) (models.Market, bool) {
	if snap == nil {
		return models.Market{}, false
	}
	for _, m := range snap.Markets() {
		_, hasBase := tx[strings.ToLower(m.Base)]
		_, hasQuote := tx[strings.ToLower(m.Quote)]
		if hasBase && hasQuote {
			return m, true
		}
	}
	return models.Market{}, false
}

// pairFromTransaction finds the "<base>_<quote>" price key Bitstamp puts on
// order transactions.
func pairFromTransaction(tx map[string]json.RawMessage) (base, quote string, ok bool) {
	keys := make([]string, 0, len(tx))
	for k := range tx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if nonCurrencyKeys[k] {
			continue
		}
		b, q, found := strings.Cut(k, "_")
		if found && b != "" && q != "" && !strings.Contains(q, "_") {
			if _, hasBase := tx[b]; hasBase {
				return b, q, true
			}
		}
	}
	return "", "", false
}

// parseOrder normalizes every Bitstamp order payload (placement, status,
// open-order listing, cancellation) into one Order shape. market may be
// nil when the caller did not name a symbol.
func parseOrder(raw []byte, snap *exchange.CatalogSnapshot, market *models.Market) (*models.Order, error) {
	var r orderResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	id, err := r.ID.Require("id")
	if err != nil {
		return nil, err
	}
	o := &models.Order{
		ID:            id,
		ClientOrderID: r.ClientOrderID,
		Status:        mapStatus(r.Status),
		Price:         r.Price.Null(),
		Amount:        r.Amount.Null(),
		Remaining:     r.AmountRemaining.Null(),
		Info:          raw,
	}
	if r.Type.Set {
		o.Side = sideFromCode(r.Type.Value)
	}
	if r.Datetime != "" {
		if o.Timestamp, err = parseDatetime(r.Datetime); err != nil {
			return nil, err
		}
	}
	if market != nil {
		o.Symbol = market.Symbol
	}
	if p := nativePair(r.CurrencyPair, r.Market); p != "" {
		o.Symbol = resolveSymbol(snap, p, o.Symbol)
		if market == nil {
			market = catalogMarket(snap, p)
		}
	}

	if len(r.Transactions) > 0 {
		if err := applyTransactions(o, r.Transactions, snap, market); err != nil {
			return nil, err
		}
	}

	switch {
	case !o.Filled.Valid && o.Amount.Valid && o.Remaining.Valid:
		o.Filled = decimal.NewNullDecimal(o.Amount.Decimal.Sub(o.Remaining.Decimal))
	case o.Filled.Valid && o.Remaining.Valid && !o.Amount.Valid:
		o.Amount = decimal.NewNullDecimal(o.Filled.Decimal.Add(o.Remaining.Decimal))
	case o.Filled.Valid && o.Amount.Valid && !o.Remaining.Valid:
		o.Remaining = decimal.NewNullDecimal(o.Amount.Decimal.Sub(o.Filled.Decimal))
	}
	return o, nil
}

func applyTransactions(o *models.Order, txs []json.RawMessage, snap *exchange.CatalogSnapshot, market *models.Market) error {
	var base string
	if market != nil {
		base = strings.ToLower(market.Base)
	}
	filled, cost, fee := decimal.Zero, decimal.Zero, decimal.Zero
	feeSeen := false
	trades := make([]models.Trade, 0, len(txs))
	for _, raw := range txs {
		var tx map[string]json.RawMessage
		if err := json.Unmarshal(raw, &tx); err != nil {
			return err
		}
		if base == "" {
			if b, q, ok := pairFromTransaction(tx); ok {
				base = b
				if o.Symbol == "" {
					o.Symbol = resolveSymbol(snap, b+q, models.Symbol(b, q))
				}
			} else if m, ok := marketFromTransaction(snap, tx); ok {
				base = strings.ToLower(m.Base)
				if o.Symbol == "" {
					o.Symbol = m.Symbol
				}
			} else {
				// Without a base currency the fill amount cannot be read.
				return nil
			}
		}
		var r struct {
			TID      exchange.Text    `json:"tid"`
			Price    exchange.Decimal `json:"price"`
			Fee      exchange.Decimal `json:"fee"`
			Datetime string           `json:"datetime"`
		}
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		var amount exchange.Decimal
		if v, ok := tx[base]; ok {
			if err := json.Unmarshal(v, &amount); err != nil {
				return fmt.Errorf("%s: %w", base, err)
			}
		}
		qty, err := amount.Require(base)
		if err != nil {
			return err
		}
		price, err := r.Price.Require("price")
		if err != nil {
			return err
		}
		qty = qty.Abs()
		filled = filled.Add(qty)
		cost = cost.Add(qty.Mul(price))
		if r.Fee.Set {
			fee = fee.Add(r.Fee.Value)
			feeSeen = true
		}
		t := models.Trade{
			ID:     r.TID.Value,
			Symbol: o.Symbol,
			Side:   o.Side,
			Price:  price,
			Amount: qty,
			Order:  o.ID,
			Info:   raw,
		}
		if r.Datetime != "" {
			if t.Timestamp, err = parseDatetime(r.Datetime); err != nil {
				return err
			}
		}
		trades = append(trades, t)
	}
	o.Trades = trades
	o.Filled = decimal.NewNullDecimal(filled)
	if filled.IsPositive() {
		o.Average = decimal.NewNullDecimal(cost.Div(filled))
	}
	if feeSeen {
		o.Fee = decimal.NewNullDecimal(fee)
	}
	return nil
}

type errorResponse struct {
	Status string          `json:"status"`
	Reason json.RawMessage `json:"reason"`
	Error  json.RawMessage `json:"error"`
}

// errorMessage detects Bitstamp's error payloads: {"status": "error",
// "reason": ...} and the older {"error": ...}.
func errorMessage(body []byte) (string, bool) {
	var r errorResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return "", false
	}
	switch {
	case r.Status == "error":
		return reasonText(r.Reason), true
	case len(r.Error) > 0 && string(r.Error) != "null":
		return reasonText(r.Error), true
	}
	return "", false
}

func reasonText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
