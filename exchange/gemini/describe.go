package gemini

import (
	"net/http"
	"time"

	"cryptobridge/exchange"
	"cryptobridge/models"

	"github.com/shopspring/decimal"
)

const (
	ID      = "gemini"
	version = "v1"
)

func public(path string) exchange.Endpoint {
	return exchange.Endpoint{Scope: exchange.ScopePublic, Method: http.MethodGet, Path: path}
}

func private(path string) exchange.Endpoint {
	return exchange.Endpoint{Scope: exchange.ScopePrivate, Method: http.MethodPost, Path: path}
}

var (
	epSymbols        = public("symbols")
	epTicker         = public("pubticker/{symbol}")
	epBook           = public("book/{symbol}")
	epTrades         = public("trades/{symbol}")
	epAuction        = public("auction/{symbol}")
	epAuctionHistory = public("auction/{symbol}/history")
	epNewOrder       = private("order/new")
	epCancelOrder    = private("order/cancel")
	epCancelSession  = private("order/cancel/session")
	epCancelAll      = private("order/cancel/all")
	epOrderStatus    = private("order/status")
	epOrders         = private("orders")
	epMyTrades       = private("mytrades")
	epTradeVolume    = private("tradevolume")
	epBalances       = private("balances")
	epNewAddress     = private("deposit/{currency}/newAddress")
	epWithdraw       = private("withdraw/{currency}")
	epHeartbeat      = private("heartbeat")
)

var endpoints = []exchange.Endpoint{
	epSymbols, epTicker, epBook, epTrades, epAuction, epAuctionHistory,
	epNewOrder, epCancelOrder, epCancelSession, epCancelAll, epOrderStatus,
	epOrders, epMyTrades, epTradeVolume, epBalances, epNewAddress, epWithdraw,
	epHeartbeat,
}

// orderTypes maps a unified order kind to Gemini's wire type. Gemini only
// accepts limit orders through the API.
var orderTypes = map[models.OrderType]string{
	models.OrderTypeLimit: "exchange limit",
}

var takerFee = decimal.RequireFromString("0.0025")

var description = exchange.Description{
	ID:        ID,
	Name:      "Gemini",
	Countries: []string{"US"},
	Version:   version,
	RateLimit: 1500 * time.Millisecond,
	URLs: exchange.URLs{
		API:  "https://api.gemini.com",
		Test: "https://api.sandbox.gemini.com",
		WWW:  "https://gemini.com",
		Doc:  []string{"https://docs.gemini.com/rest-api"},
	},
	RequiredCredentials: exchange.RequiredCredentials{APIKey: true, Secret: true},
	Has: exchange.Capabilities{
		FetchOrder:      true,
		FetchOpenOrders: true,
		Withdraw:        true,
		DepositAddress:  true,
	},
	Fees: models.FeeSchedule{
		Trading: models.TradingFees{
			Percentage: true,
			Taker:      takerFee,
			Maker:      takerFee,
		},
	},
	Endpoints: endpoints,
}

func Describe() exchange.Description {
	return description
}
