// Package gemini adapts the Gemini REST API to the unified exchange
// contract.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"cryptobridge/exchange"
	"cryptobridge/logger"
	"cryptobridge/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Adapter struct {
	*exchange.Base
}

var (
	_ exchange.Exchange              = (*Adapter)(nil)
	_ exchange.OpenOrdersFetcher     = (*Adapter)(nil)
	_ exchange.MyTradesFetcher       = (*Adapter)(nil)
	_ exchange.Withdrawer            = (*Adapter)(nil)
	_ exchange.DepositAddressFetcher = (*Adapter)(nil)
)

func New(rt exchange.Runtime, opts exchange.Options) *Adapter {
	a := &Adapter{}
	a.Base = exchange.NewBase(description, rt, opts, a.FetchMarkets)
	a.SetErrorProbe(errorMessage)
	return a
}

func (a *Adapter) request(ctx context.Context, e exchange.Endpoint, params exchange.Params) ([]byte, error) {
	if params == nil {
		params = exchange.Params{}
	}
	req, err := a.sign(e, params)
	if err != nil {
		return nil, err
	}
	return a.Send(ctx, req)
}

func (a *Adapter) FetchMarkets(ctx context.Context) ([]models.Market, error) {
	body, err := a.request(ctx, epSymbols, nil)
	if err != nil {
		return nil, err
	}
	markets, err := parseMarkets(body)
	if err != nil {
		return nil, a.ParseError("markets", body, err)
	}
	return markets, nil
}

func (a *Adapter) FetchOrderBook(ctx context.Context, symbol string) (*models.OrderBook, error) {
	m, err := a.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	body, err := a.request(ctx, epBook, exchange.Params{"symbol": m.ID})
	if err != nil {
		return nil, err
	}
	book, err := parseOrderBook(body, m.Symbol)
	if err != nil {
		return nil, a.ParseError("order_book", body, err)
	}
	return book, nil
}

func (a *Adapter) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	m, err := a.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	body, err := a.request(ctx, epTicker, exchange.Params{"symbol": m.ID})
	if err != nil {
		return nil, err
	}
	t, err := parseTicker(body, m)
	if err != nil {
		return nil, a.ParseError("ticker", body, err)
	}
	return t, nil
}

func (a *Adapter) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]models.Trade, error) {
	m, err := a.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	params := exchange.Params{"symbol": m.ID}
	if since > 0 {
		params["timestamp"] = since
	}
	if limit > 0 {
		params["limit_trades"] = limit
	}
	body, err := a.request(ctx, epTrades, params)
	if err != nil {
		return nil, err
	}
	trades, err := parseTrades(body, a.Catalog().Snapshot(), m.Symbol)
	if err != nil {
		return nil, a.ParseError("trades", body, err)
	}
	return exchange.FilterTrades(trades, since, limit), nil
}

// FetchMyTrades lists the account's own fills for symbol.
func (a *Adapter) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int) ([]models.Trade, error) {
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	m, err := a.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	params := exchange.Params{"symbol": m.ID}
	if since > 0 {
		params["timestamp"] = since
	}
	if limit > 0 {
		params["limit_trades"] = limit
	}
	body, err := a.request(ctx, epMyTrades, params)
	if err != nil {
		return nil, err
	}
	trades, err := parseTrades(body, a.Catalog().Snapshot(), m.Symbol)
	if err != nil {
		return nil, a.ParseError("trades", body, err)
	}
	return exchange.FilterTrades(trades, since, limit), nil
}

func (a *Adapter) FetchBalance(ctx context.Context) (*models.Balance, error) {
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	snap, err := a.LoadMarkets(ctx, false)
	if err != nil {
		return nil, err
	}
	body, err := a.request(ctx, epBalances, nil)
	if err != nil {
		return nil, err
	}
	bal, err := parseBalance(body, snap.Currencies())
	if err != nil {
		return nil, a.ParseError("balance", body, err)
	}
	return bal, nil
}

// CreateOrder places a limit order. Gemini's API has no market orders.
func (a *Adapter) CreateOrder(ctx context.Context, symbol string, typ models.OrderType, side models.Side, amount decimal.Decimal, price decimal.NullDecimal) (*models.Order, error) {
	wireType, ok := orderTypes[typ]
	if !ok {
		return nil, fmt.Errorf("%s: %s orders: %w", ID, typ, exchange.ErrNotSupported)
	}
	if !side.Valid() {
		return nil, fmt.Errorf("%s: %w: unsupported side %q", ID, exchange.ErrInvalidOrder, side)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w: amount must be positive", ID, exchange.ErrInvalidOrder)
	}
	if !price.Valid {
		return nil, fmt.Errorf("%s: %w: limit order requires a price", ID, exchange.ErrInvalidOrder)
	}
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	m, err := a.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	params := exchange.Params{
		"client_order_id": uuid.NewString(),
		"symbol":          m.ID,
		"amount":          amount.String(),
		"price":           price.Decimal.String(),
		"side":            string(side),
		"type":            wireType,
	}
	body, err := a.request(ctx, epNewOrder, params)
	if err != nil {
		return nil, err
	}
	o, err := parseOrder(body, a.Catalog().Snapshot())
	if err != nil {
		return nil, a.ParseError("order", body, err)
	}
	a.Log().WithFields(logger.Fields{"order_id": o.ID, "symbol": m.Symbol, "side": side}).Info("order created")
	return o, nil
}

func orderIDParam(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: order id %q is not numeric", ID, exchange.ErrInvalidOrder, id)
	}
	return n, nil
}

// CancelOrder cancels by id; the symbol is not needed.
func (a *Adapter) CancelOrder(ctx context.Context, id, symbol string) (*models.Order, error) {
	return a.orderCall(ctx, epCancelOrder, id)
}

func (a *Adapter) FetchOrder(ctx context.Context, id, symbol string) (*models.Order, error) {
	return a.orderCall(ctx, epOrderStatus, id)
}

func (a *Adapter) orderCall(ctx context.Context, e exchange.Endpoint, id string) (*models.Order, error) {
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	orderID, err := orderIDParam(id)
	if err != nil {
		return nil, err
	}
	body, err := a.request(ctx, e, exchange.Params{"order_id": orderID})
	if err != nil {
		return nil, err
	}
	o, err := parseOrder(body, a.Catalog().Snapshot())
	if err != nil {
		return nil, a.ParseError("order", body, err)
	}
	return o, nil
}

func (a *Adapter) FetchOpenOrders(ctx context.Context, symbol string) ([]models.Order, error) {
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	snap, err := a.LoadMarkets(ctx, false)
	if err != nil {
		return nil, err
	}
	if symbol != "" {
		if _, ok := snap.BySymbol(symbol); !ok {
			return nil, fmt.Errorf("%s: %w: %s", ID, exchange.ErrBadSymbol, symbol)
		}
	}
	body, err := a.request(ctx, epOrders, nil)
	if err != nil {
		return nil, err
	}
	orders, err := parseOrders(body, snap)
	if err != nil {
		return nil, a.ParseError("open_orders", body, err)
	}
	if symbol == "" {
		return orders, nil
	}
	out := orders[:0]
	for _, o := range orders {
		if o.Symbol == symbol {
			out = append(out, o)
		}
	}
	return out, nil
}

func (a *Adapter) Withdraw(ctx context.Context, currency string, amount decimal.Decimal, address string, params exchange.Params) (*models.Withdrawal, error) {
	req := exchange.Omit(params)
	req["currency"] = strings.ToLower(currency)
	req["amount"] = amount.String()
	req["address"] = address
	body, err := a.request(ctx, epWithdraw, req)
	if err != nil {
		return nil, err
	}
	var r struct {
		WithdrawalID exchange.Text `json:"withdrawalId"`
		TxHash       string        `json:"txHash"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, a.ParseError("withdrawal", body, err)
	}
	id := r.WithdrawalID.Value
	if id == "" {
		id = r.TxHash
	}
	return &models.Withdrawal{
		ID:       id,
		Currency: strings.ToUpper(currency),
		Amount:   amount,
		Address:  address,
		TxHash:   r.TxHash,
		Info:     body,
	}, nil
}

// FetchDepositAddress asks Gemini for a new deposit address. An optional
// "label" in params names it.
func (a *Adapter) FetchDepositAddress(ctx context.Context, currency string, params exchange.Params) (*models.DepositAddress, error) {
	req := exchange.Omit(params)
	req["currency"] = strings.ToLower(currency)
	body, err := a.request(ctx, epNewAddress, req)
	if err != nil {
		return nil, err
	}
	var r struct {
		Address string `json:"address"`
		Label   string `json:"label"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, a.ParseError("deposit_address", body, err)
	}
	if r.Address == "" {
		return nil, a.ParseError("deposit_address", body, exchange.MissingField("address"))
	}
	return &models.DepositAddress{
		Currency: strings.ToUpper(currency),
		Address:  r.Address,
		Label:    r.Label,
		Info:     body,
	}, nil
}
