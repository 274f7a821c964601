package bitstamp

import (
	"net/http"
	"time"

	"cryptobridge/exchange"
	"cryptobridge/models"

	"github.com/shopspring/decimal"
)

const (
	ID      = "bitstamp"
	version = "v2"
)

func ep(scope exchange.Scope, method, path string) exchange.Endpoint {
	return exchange.Endpoint{Scope: scope, Method: method, Path: path}
}

func public(path string) exchange.Endpoint {
	return ep(exchange.ScopePublic, http.MethodGet, path)
}

func private(path string) exchange.Endpoint {
	return ep(exchange.ScopePrivate, http.MethodPost, path)
}

func v1(path string) exchange.Endpoint {
	return ep(exchange.ScopeV1, http.MethodPost, path)
}

var (
	epOrderBook     = public("order_book/{pair}/")
	epTickerHour    = public("ticker_hour/{pair}/")
	epTicker        = public("ticker/{pair}/")
	epTransactions  = public("transactions/{pair}/")
	epPairsInfo     = public("trading-pairs-info/")
	epBalance       = private("balance/")
	epBalancePair   = private("balance/{pair}/")
	epUserTx        = private("user_transactions/")
	epUserTxPair    = private("user_transactions/{pair}/")
	epOpenOrdersAll = private("open_orders/all/")
	epOpenOrders    = private("open_orders/{pair}")
	epOrderStatus   = private("order_status/")
	epCancelOrder   = private("cancel_order/")
	epBuy           = private("buy/{pair}/")
	epBuyMarket     = private("buy/market/{pair}/")
	epSell          = private("sell/{pair}/")
	epSellMarket    = private("sell/market/{pair}/")
	epLtcWithdrawal = private("ltc_withdrawal/")
	epLtcAddress    = private("ltc_address/")
	epEthWithdrawal = private("eth_withdrawal/")
	epEthAddress    = private("eth_address/")
	epXrpWithdrawal = private("xrp_withdrawal/")
	epXrpAddress    = private("xrp_address/")
	epBtcAddress    = v1("bitcoin_deposit_address/")
	epBtcWithdrawal = v1("bitcoin_withdrawal/")
)

var endpoints = []exchange.Endpoint{
	epOrderBook, epTickerHour, epTicker, epTransactions, epPairsInfo,
	epBalance, epBalancePair, epUserTx, epUserTxPair,
	epOpenOrdersAll, epOpenOrders, epOrderStatus, epCancelOrder,
	epBuy, epBuyMarket, epSell, epSellMarket,
	epLtcWithdrawal, epLtcAddress, epEthWithdrawal, epEthAddress,
	private("transfer-to-main/"), private("transfer-from-main/"),
	epXrpWithdrawal, epXrpAddress,
	private("withdrawal/open/"), private("withdrawal/status/"), private("withdrawal/cancel/"),
	private("liquidation_address/new/"), private("liquidation_address/info/"),
	epBtcAddress, v1("unconfirmed_btc/"), epBtcWithdrawal,
}

type orderRoute struct {
	side models.Side
	kind models.OrderType
}

// orderRoutes resolves the placement endpoint for a side and order kind.
var orderRoutes = map[orderRoute]exchange.Endpoint{
	{models.SideBuy, models.OrderTypeLimit}:   epBuy,
	{models.SideBuy, models.OrderTypeMarket}:  epBuyMarket,
	{models.SideSell, models.OrderTypeLimit}:  epSell,
	{models.SideSell, models.OrderTypeMarket}: epSellMarket,
}

type currencyRoutes struct {
	withdraw exchange.Endpoint
	address  exchange.Endpoint
}

var fundingRoutes = map[string]currencyRoutes{
	"BTC": {withdraw: epBtcWithdrawal, address: epBtcAddress},
	"LTC": {withdraw: epLtcWithdrawal, address: epLtcAddress},
	"ETH": {withdraw: epEthWithdrawal, address: epEthAddress},
	"XRP": {withdraw: epXrpWithdrawal, address: epXrpAddress},
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tiers(rates ...string) []models.FeeTier {
	volumes := []string{"0", "20000", "100000", "400000", "600000", "1000000", "2000000", "4000000", "20000000", "20000001"}
	out := make([]models.FeeTier, len(rates))
	for i, r := range rates {
		out[i] = models.FeeTier{Volume: d(volumes[i]), Rate: d(r)}
	}
	return out
}

var tierRates = []string{"0.0025", "0.0024", "0.0022", "0.0020", "0.0015", "0.0014", "0.0013", "0.0012", "0.0011", "0.0010"}

var fees = models.FeeSchedule{
	Trading: models.TradingFees{
		TierBased:  true,
		Percentage: true,
		Maker:      d("0.0025"),
		Taker:      d("0.0025"),
		MakerTiers: tiers(tierRates...),
		TakerTiers: tiers(tierRates...),
	},
	Funding: models.FundingFees{
		TierBased:  false,
		Percentage: false,
		Withdraw: map[string]decimal.Decimal{
			"BTC": d("0"), "LTC": d("0"), "ETH": d("0"), "XRP": d("0"),
			"USD": d("25"), "EUR": d("0.90"),
		},
		Deposit: map[string]decimal.Decimal{
			"BTC": d("0"), "LTC": d("0"), "ETH": d("0"), "XRP": d("0"),
			"USD": d("25"), "EUR": d("0"),
		},
	},
}

var description = exchange.Description{
	ID:        ID,
	Name:      "Bitstamp",
	Countries: []string{"GB"},
	Version:   version,
	RateLimit: time.Second,
	URLs: exchange.URLs{
		API: "https://www.bitstamp.net/api",
		WWW: "https://www.bitstamp.net",
		Doc: []string{"https://www.bitstamp.net/api"},
	},
	RequiredCredentials: exchange.RequiredCredentials{APIKey: true, Secret: true, UID: true},
	Has: exchange.Capabilities{
		CORS:            false,
		FetchOrder:      true,
		FetchOpenOrders: true,
		MarketOrders:    true,
		Withdraw:        true,
		DepositAddress:  true,
	},
	Fees:      fees,
	Endpoints: endpoints,
}

// Describe returns the static Bitstamp description.
func Describe() exchange.Description {
	return description
}
