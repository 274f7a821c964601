package exchange

import (
	"context"
	"time"

	"cryptobridge/models"

	"github.com/shopspring/decimal"
)

// Exchange is the unified trading-client contract every adapter implements.
// All methods are safe for concurrent use.
type Exchange interface {
	ID() string
	Describe() Description

	LoadMarkets(ctx context.Context, reload bool) (*CatalogSnapshot, error)
	FetchMarkets(ctx context.Context) ([]models.Market, error)
	FetchOrderBook(ctx context.Context, symbol string) (*models.OrderBook, error)
	FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error)
	// since is a unix ms lower bound and limit a maximum count; zero disables either.
	FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]models.Trade, error)
	FetchBalance(ctx context.Context) (*models.Balance, error)

	// price must be valid for limit orders.
	CreateOrder(ctx context.Context, symbol string, typ models.OrderType, side models.Side, amount decimal.Decimal, price decimal.NullDecimal) (*models.Order, error)
	// symbol may be empty when the exchange identifies orders by id alone.
	CancelOrder(ctx context.Context, id, symbol string) (*models.Order, error)
	FetchOrder(ctx context.Context, id, symbol string) (*models.Order, error)
}

// OpenOrdersFetcher is implemented by exchanges that can list open orders.
// An empty symbol lists orders across all markets.
type OpenOrdersFetcher interface {
	FetchOpenOrders(ctx context.Context, symbol string) ([]models.Order, error)
}

// OrderStatusFetcher is implemented by exchanges with a status-only lookup.
type OrderStatusFetcher interface {
	FetchOrderStatus(ctx context.Context, id string) (models.Status, error)
}

// MyTradesFetcher is implemented by exchanges that list the account's own fills.
type MyTradesFetcher interface {
	FetchMyTrades(ctx context.Context, symbol string, since int64, limit int) ([]models.Trade, error)
}

type Withdrawer interface {
	Withdraw(ctx context.Context, currency string, amount decimal.Decimal, address string, params Params) (*models.Withdrawal, error)
}

type DepositAddressFetcher interface {
	FetchDepositAddress(ctx context.Context, currency string, params Params) (*models.DepositAddress, error)
}

// Credentials are the secrets used to sign private requests.
type Credentials struct {
	APIKey string
	Secret string
	UID    string
}

type RequiredCredentials struct {
	APIKey bool
	Secret bool
	UID    bool
}

type URLs struct {
	API  string
	Test string
	WWW  string
	Doc  []string
}

// Capabilities lists the optional features an exchange offers.
type Capabilities struct {
	CORS            bool
	FetchOrder      bool
	FetchOpenOrders bool
	MarketOrders    bool
	Withdraw        bool
	DepositAddress  bool
}

// Description is the static configuration of one exchange.
type Description struct {
	ID                  string
	Name                string
	Countries           []string
	Version             string
	RateLimit           time.Duration
	URLs                URLs
	RequiredCredentials RequiredCredentials
	Has                 Capabilities
	Fees                models.FeeSchedule
	Endpoints           []Endpoint
}

// Endpoint looks up a row of the endpoint table.
func (d Description) Endpoint(scope Scope, method, path string) (Endpoint, bool) {
	for _, e := range d.Endpoints {
		if e.Scope == scope && e.Method == method && e.Path == path {
			return e, true
		}
	}
	return Endpoint{}, false
}

// Missing returns the names of required credentials absent from c.
func (r RequiredCredentials) Missing(c Credentials) []string {
	var out []string
	if r.APIKey && c.APIKey == "" {
		out = append(out, "apiKey")
	}
	if r.Secret && c.Secret == "" {
		out = append(out, "secret")
	}
	if r.UID && c.UID == "" {
		out = append(out, "uid")
	}
	return out
}
