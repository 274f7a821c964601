// Package bitstamp adapts the Bitstamp REST API to the unified exchange
// contract.
package bitstamp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cryptobridge/exchange"
	"cryptobridge/logger"
	"cryptobridge/models"

	"github.com/shopspring/decimal"
)

type Adapter struct {
	*exchange.Base
}

var (
	_ exchange.Exchange              = (*Adapter)(nil)
	_ exchange.OpenOrdersFetcher     = (*Adapter)(nil)
	_ exchange.OrderStatusFetcher    = (*Adapter)(nil)
	_ exchange.Withdrawer            = (*Adapter)(nil)
	_ exchange.DepositAddressFetcher = (*Adapter)(nil)
)

func New(rt exchange.Runtime, opts exchange.Options) *Adapter {
	a := &Adapter{}
	a.Base = exchange.NewBase(description, rt, opts, a.FetchMarkets)
	a.SetErrorProbe(errorMessage)
	return a
}

// request signs, sends and error-checks one call and returns the raw body.
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
	body, err := a.request(ctx, epPairsInfo, nil)
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
	body, err := a.request(ctx, epOrderBook, exchange.Params{"pair": m.ID})
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
	body, err := a.request(ctx, epTicker, exchange.Params{"pair": m.ID})
	if err != nil {
		return nil, err
	}
	t, err := parseTicker(body, m.Symbol)
	if err != nil {
		return nil, a.ParseError("ticker", body, err)
	}
	return t, nil
}

// FetchTrades returns the public trades of the last minute, filtered by
// since and limit.
func (a *Adapter) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]models.Trade, error) {
	m, err := a.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	body, err := a.request(ctx, epTransactions, exchange.Params{"pair": m.ID, "time": "minute"})
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
	body, err := a.request(ctx, epBalance, nil)
	if err != nil {
		return nil, err
	}
	bal, err := parseBalance(body, snap.Currencies())
	if err != nil {
		return nil, a.ParseError("balance", body, err)
	}
	return bal, nil
}

func (a *Adapter) CreateOrder(ctx context.Context, symbol string, typ models.OrderType, side models.Side, amount decimal.Decimal, price decimal.NullDecimal) (*models.Order, error) {
	route, ok := orderRoutes[orderRoute{side: side, kind: typ}]
	if !ok {
		return nil, fmt.Errorf("%s: %w: unsupported side %q or type %q", ID, exchange.ErrInvalidOrder, side, typ)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w: amount must be positive", ID, exchange.ErrInvalidOrder)
	}
	if typ == models.OrderTypeLimit && !price.Valid {
		return nil, fmt.Errorf("%s: %w: limit order requires a price", ID, exchange.ErrInvalidOrder)
	}
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	m, err := a.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	params := exchange.Params{"pair": m.ID, "amount": amount.String()}
	if typ == models.OrderTypeLimit {
		params["price"] = price.Decimal.String()
	}
	body, err := a.request(ctx, route, params)
	if err != nil {
		return nil, err
	}
	o, err := parseOrder(body, a.Catalog().Snapshot(), &m)
	if err != nil {
		return nil, a.ParseError("order", body, err)
	}
	o.Type = typ
	o.Side = side
	if !o.Amount.Valid {
		o.Amount = decimal.NewNullDecimal(amount)
	}
	a.Log().WithFields(logger.Fields{"order_id": o.ID, "symbol": m.Symbol, "side": side, "type": typ}).Info("order created")
	return o, nil
}

// CancelOrder cancels by id; Bitstamp does not need the symbol.
func (a *Adapter) CancelOrder(ctx context.Context, id, symbol string) (*models.Order, error) {
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	market, err := a.optionalMarket(ctx, symbol)
	if err != nil {
		return nil, err
	}
	body, err := a.request(ctx, epCancelOrder, exchange.Params{"id": id})
	if err != nil {
		return nil, err
	}
	o, err := parseOrder(body, a.Catalog().Snapshot(), market)
	if err != nil {
		return nil, a.ParseError("order", body, err)
	}
	o.Status = models.StatusCanceled
	return o, nil
}

func (a *Adapter) FetchOrder(ctx context.Context, id, symbol string) (*models.Order, error) {
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	market, err := a.optionalMarket(ctx, symbol)
	if err != nil {
		return nil, err
	}
	body, err := a.request(ctx, epOrderStatus, exchange.Params{"id": id})
	if err != nil {
		return nil, err
	}
	o, err := parseOrder(body, a.Catalog().Snapshot(), market)
	if err != nil {
		return nil, a.ParseError("order", body, err)
	}
	return o, nil
}

func (a *Adapter) FetchOrderStatus(ctx context.Context, id string) (models.Status, error) {
	body, err := a.request(ctx, epOrderStatus, exchange.Params{"id": id})
	if err != nil {
		return "", err
	}
	var r struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return "", a.ParseError("order_status", body, err)
	}
	return mapStatus(r.Status), nil
}

func (a *Adapter) FetchOpenOrders(ctx context.Context, symbol string) ([]models.Order, error) {
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	market, err := a.optionalMarket(ctx, symbol)
	if err != nil {
		return nil, err
	}
	e, params := epOpenOrdersAll, exchange.Params{}
	if market != nil {
		e, params = epOpenOrders, exchange.Params{"pair": market.ID}
	}
	body, err := a.request(ctx, e, params)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, a.ParseError("open_orders", body, err)
	}
	snap := a.Catalog().Snapshot()
	out := make([]models.Order, 0, len(items))
	for _, item := range items {
		o, err := parseOrder(item, snap, market)
		if err != nil {
			return nil, a.ParseError("open_orders", body, err)
		}
		o.Type = models.OrderTypeLimit
		out = append(out, *o)
	}
	return out, nil
}

// Withdraw supports the crypto currencies Bitstamp exposes dedicated
// withdrawal endpoints for. XRP accepts a destination_tag in params.
func (a *Adapter) Withdraw(ctx context.Context, currency string, amount decimal.Decimal, address string, params exchange.Params) (*models.Withdrawal, error) {
	currency = strings.ToUpper(currency)
	routes, ok := fundingRoutes[currency]
	if !ok {
		return nil, fmt.Errorf("%s: withdraw %s: %w", ID, currency, exchange.ErrNotSupported)
	}
	req := exchange.Omit(params)
	req["amount"] = amount.String()
	req["address"] = address
	body, err := a.request(ctx, routes.withdraw, req)
	if err != nil {
		return nil, err
	}
	var r struct {
		ID exchange.Text `json:"id"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, a.ParseError("withdrawal", body, err)
	}
	return &models.Withdrawal{
		ID:       r.ID.Value,
		Currency: currency,
		Amount:   amount,
		Address:  address,
		Info:     body,
	}, nil
}

func (a *Adapter) FetchDepositAddress(ctx context.Context, currency string, params exchange.Params) (*models.DepositAddress, error) {
	currency = strings.ToUpper(currency)
	routes, ok := fundingRoutes[currency]
	if !ok {
		return nil, fmt.Errorf("%s: deposit address %s: %w", ID, currency, exchange.ErrNotSupported)
	}
	body, err := a.request(ctx, routes.address, exchange.Omit(params))
	if err != nil {
		return nil, err
	}
	addr, err := parseDepositAddress(body, currency)
	if err != nil {
		return nil, a.ParseError("deposit_address", body, err)
	}
	return addr, nil
}

// parseDepositAddress accepts the legacy bare-string form and the
// {"address": ..., "destination_tag": ...} object.
func parseDepositAddress(body []byte, currency string) (*models.DepositAddress, error) {
	out := &models.DepositAddress{Currency: currency, Info: body}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		out.Address = s
	} else {
		var r struct {
			Address        string        `json:"address"`
			DestinationTag exchange.Text `json:"destination_tag"`
		}
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, err
		}
		out.Address, out.Label = r.Address, r.DestinationTag.Value
	}
	if out.Address == "" {
		return nil, exchange.MissingField("address")
	}
	return out, nil
}

// optionalMarket resolves symbol when given. Without one the catalog is
// still loaded, best effort, so the pair can be inferred from the payload.
func (a *Adapter) optionalMarket(ctx context.Context, symbol string) (*models.Market, error) {
	if symbol == "" {
		if _, err := a.LoadMarkets(ctx, false); err != nil {
			a.Log().WithError(err).Debug("catalog unavailable; order symbol may stay unresolved")
		}
		return nil, nil
	}
	m, err := a.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
