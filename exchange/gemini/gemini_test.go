package gemini

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"cryptobridge/exchange"
	"cryptobridge/exchange/exchangetest"
	"cryptobridge/models"

	"github.com/shopspring/decimal"
)

const symbolsJSON = `["btcusd", "ethbtc", "ethusd", "zecltc"]`

var fixedClock = func() time.Time { return time.UnixMilli(1609459200000) }

var testCreds = exchange.Credentials{APIKey: "KEY", Secret: "SECRET"}

func newTestAdapter(creds exchange.Credentials, rt *exchangetest.Runtime) *Adapter {
	return New(rt, exchange.Options{Credentials: creds, Clock: fixedClock})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decodePayload(t *testing.T, req exchange.Request) map[string]any {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(req.Headers.Get("X-GEMINI-PAYLOAD"))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()
	var out map[string]any
	if err := d.Decode(&out); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return out
}

func TestSignPrivate(t *testing.T) {
	a := newTestAdapter(testCreds, exchangetest.NewRuntime())
	req, err := a.sign(epOrderStatus, exchange.Params{"order_id": int64(42)})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if req.URL != "https://api.gemini.com/v1/order/status" || req.Method != "POST" || len(req.Body) != 0 {
		t.Fatalf("unexpected request %+v", req)
	}
	payload := req.Headers.Get("X-GEMINI-PAYLOAD")
	mac := hmac.New(sha512.New384, []byte("SECRET"))
	mac.Write([]byte(payload))
	if got, want := req.Headers.Get("X-GEMINI-SIGNATURE"), hex.EncodeToString(mac.Sum(nil)); got != want {
		t.Errorf("signature = %s, want %s", got, want)
	}
	if req.Headers.Get("X-GEMINI-APIKEY") != "KEY" || req.Headers.Get("Content-Type") != "text/plain" {
		t.Errorf("unexpected headers %v", req.Headers)
	}
	body := decodePayload(t, req)
	if body["request"] != "/v1/order/status" {
		t.Errorf("request = %v", body["request"])
	}
	if body["nonce"] != json.Number("1609459200000") {
		t.Errorf("nonce = %v", body["nonce"])
	}
	if body["order_id"] != json.Number("42") {
		t.Errorf("order_id = %v", body["order_id"])
	}
}

func TestSignPublicQuery(t *testing.T) {
	a := newTestAdapter(exchange.Credentials{}, exchangetest.NewRuntime())
	req, err := a.sign(epTrades, exchange.Params{"symbol": "btcusd", "limit_trades": 5, "timestamp": int64(100)})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	want := "https://api.gemini.com/v1/trades/btcusd?limit_trades=5&timestamp=100"
	if req.URL != want {
		t.Fatalf("url = %s, want %s", req.URL, want)
	}
}

func TestSandboxURL(t *testing.T) {
	a := New(exchangetest.NewRuntime(), exchange.Options{Sandbox: true})
	if a.BaseURL() != "https://api.sandbox.gemini.com" {
		t.Fatalf("unexpected sandbox url %s", a.BaseURL())
	}
}

func TestParseMarkets(t *testing.T) {
	markets, err := parseMarkets([]byte(symbolsJSON))
	if err != nil {
		t.Fatalf("parseMarkets: %v", err)
	}
	if len(markets) != 4 {
		t.Fatalf("expected 4 markets, got %d", len(markets))
	}
	for _, m := range markets {
		if m.Symbol != m.Base+"/"+m.Quote {
			t.Errorf("symbol %s != %s/%s", m.Symbol, m.Base, m.Quote)
		}
		if m.Base+m.Quote != strings.ToUpper(m.ID) {
			t.Errorf("base+quote %s%s != %s", m.Base, m.Quote, strings.ToUpper(m.ID))
		}
		if m.Precision.Amount != nil || m.Precision.Price != nil || m.Lot.Valid {
			t.Errorf("precision should be unknown for %s", m.ID)
		}
		if !m.Taker.Valid || !m.Taker.Decimal.Equal(dec("0.0025")) {
			t.Errorf("unexpected taker fee %+v", m.Taker)
		}
	}
	if markets[1].Symbol != "ETH/BTC" {
		t.Errorf("unexpected symbol %s", markets[1].Symbol)
	}
	if _, err := parseMarkets([]byte(`["btc"]`)); err == nil {
		t.Errorf("expected error for short id")
	}
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		cancelled, live bool
		want            models.Status
	}{
		{true, true, models.StatusCanceled},
		{true, false, models.StatusCanceled},
		{false, false, models.StatusClosed},
		{false, true, models.StatusOpen},
	}
	for _, tt := range tests {
		if got := mapStatus(tt.cancelled, tt.live); got != tt.want {
			t.Errorf("mapStatus(%v, %v) = %s, want %s", tt.cancelled, tt.live, got, tt.want)
		}
	}
}

func TestFetchTicker(t *testing.T) {
	rt := exchangetest.NewRuntime().
		On("/symbols", symbolsJSON).
		On("/pubticker/btcusd", `{"bid": "977.59", "ask": "977.35", "last": "977.65",
			"volume": {"BTC": "2210.505328803", "USD": "2135477.463379586263", "timestamp": 1483018200000}}`)
	a := newTestAdapter(exchange.Credentials{}, rt)
	tk, err := a.FetchTicker(context.Background(), "BTC/USD")
	if err != nil {
		t.Fatalf("FetchTicker: %v", err)
	}
	if tk.Timestamp != 1483018200000 {
		t.Errorf("timestamp = %d", tk.Timestamp)
	}
	if !tk.BaseVolume.Decimal.Equal(dec("2210.505328803")) || !tk.QuoteVolume.Decimal.Equal(dec("2135477.463379586263")) {
		t.Errorf("unexpected volumes %+v %+v", tk.BaseVolume, tk.QuoteVolume)
	}
	if tk.High.Valid || tk.Low.Valid || tk.VWAP.Valid {
		t.Errorf("unreported fields must stay unknown")
	}
}

func TestFetchTrades(t *testing.T) {
	rt := exchangetest.NewRuntime().
		On("/symbols", symbolsJSON).
		On("/trades/btcusd", `[
			{"timestamp": 1609459201, "timestampms": 1609459201000, "tid": 2, "price": "101", "amount": "0.2", "exchange": "gemini", "type": "sell"},
			{"timestamp": 1609459200, "timestampms": 1609459200000, "tid": 1, "price": "100.5", "amount": "0.01", "exchange": "gemini", "type": "Buy"}
		]`)
	a := newTestAdapter(exchange.Credentials{}, rt)
	trades, err := a.FetchTrades(context.Background(), "BTC/USD", 0, 0)
	if err != nil {
		t.Fatalf("FetchTrades: %v", err)
	}
	if len(trades) != 2 || trades[0].Timestamp != 1609459200000 || trades[0].Side != models.SideBuy || trades[0].ID != "1" {
		t.Fatalf("unexpected trades %+v", trades)
	}
	if trades[1].Side != models.SideSell || trades[1].Symbol != "BTC/USD" {
		t.Errorf("unexpected second trade %+v", trades[1])
	}

	if _, err := a.FetchTrades(context.Background(), "BTC/USD", 1609459200500, 10); err != nil {
		t.Fatalf("FetchTrades: %v", err)
	}
	req, _ := rt.Last("/trades/btcusd")
	if !strings.Contains(req.URL, "limit_trades=10") || !strings.Contains(req.URL, "timestamp=1609459200500") {
		t.Errorf("since/limit not forwarded: %s", req.URL)
	}
}

func TestFetchTradesNativeSide(t *testing.T) {
	rt := exchangetest.NewRuntime().
		On("/symbols", symbolsJSON).
		On("/trades/btcusd", `[
			{"timestampms": 2, "tid": 2, "price": "1", "amount": "1", "type": "auction"},
			{"timestampms": 1, "tid": 1, "price": "1", "amount": "2", "type": "Buy"}
		]`)
	a := newTestAdapter(exchange.Credentials{}, rt)
	trades, err := a.FetchTrades(context.Background(), "BTC/USD", 0, 0)
	if err != nil {
		t.Fatalf("FetchTrades: %v", err)
	}
	sides := map[string]models.Side{}
	for _, tr := range trades {
		sides[tr.ID] = tr.Side
	}
	if sides["2"] != models.Side("auction") || sides["1"] != models.SideBuy {
		t.Errorf("unexpected sides %v", sides)
	}

	rt = exchangetest.NewRuntime().
		On("/symbols", symbolsJSON).
		On("/trades/btcusd", `[{"timestampms": 1, "tid": 1, "price": "1", "amount": "1"}]`)
	a = newTestAdapter(exchange.Credentials{}, rt)
	_, err = a.FetchTrades(context.Background(), "BTC/USD", 0, 0)
	var parseErr *exchange.ParseError
	if !errors.As(err, &parseErr) || !errors.Is(err, exchange.ErrMissingField) {
		t.Fatalf("expected missing type ParseError, got %v", err)
	}
}

func TestFetchBalance(t *testing.T) {
	rt := exchangetest.NewRuntime().
		On("/symbols", symbolsJSON).
		On("/balances", `[
			{"type": "exchange", "currency": "BTC", "amount": "2.0", "available": "1.5"},
			{"type": "exchange", "currency": "USD", "amount": "100", "available": "100"}
		]`)
	a := newTestAdapter(testCreds, rt)
	bal, err := a.FetchBalance(context.Background())
	if err != nil {
		t.Fatalf("FetchBalance: %v", err)
	}
	btc := bal.Get("BTC")
	if !btc.Used.Decimal.Equal(dec("0.5")) || !btc.Total.Decimal.Equal(dec("2")) {
		t.Errorf("unexpected btc %+v", btc)
	}
	for _, cur := range []string{"ETH", "ZEC", "LTC"} {
		acc, ok := bal.Accounts[cur]
		if !ok || !acc.Total.Valid || !acc.Total.Decimal.IsZero() {
			t.Errorf("registry currency %s should have a zero account: %+v", cur, acc)
		}
	}
}

const orderJSON = `{"order_id": "106817811", "id": "106817811", "symbol": "btcusd", "exchange": "gemini",
  "avg_execution_price": "3632.8508430064554", "side": "buy", "type": "exchange limit",
  "timestamp": "1547220404", "timestampms": 1547220404836, "is_live": %s, "is_cancelled": %s,
  "is_hidden": false, "was_forced": false, "executed_amount": "3.7567928949", "remaining_amount": "1.2432071051",
  "client_order_id": "20190110-4738721", "price": "3633.00", "original_amount": "5"}`

func orderBody(live, cancelled bool) string {
	b := func(v bool) string {
		if v {
			return "true"
		}
		return "false"
	}
	return strings.Replace(strings.Replace(orderJSON, "%s", b(live), 1), "%s", b(cancelled), 1)
}

func TestFetchOrder(t *testing.T) {
	rt := exchangetest.NewRuntime().
		On("/symbols", symbolsJSON).
		On("/order/status", orderBody(true, false))
	a := newTestAdapter(testCreds, rt)
	if _, err := a.LoadMarkets(context.Background(), false); err != nil {
		t.Fatalf("LoadMarkets: %v", err)
	}
	o, err := a.FetchOrder(context.Background(), "106817811", "")
	if err != nil {
		t.Fatalf("FetchOrder: %v", err)
	}
	if o.Status != models.StatusOpen || o.Symbol != "BTC/USD" || o.Type != models.OrderTypeLimit || o.Side != models.SideBuy {
		t.Errorf("unexpected order %+v", o)
	}
	if o.Timestamp != 1547220404836 {
		t.Errorf("timestamp = %d", o.Timestamp)
	}
	if !o.Consistent() || !o.Amount.Decimal.Equal(dec("5")) {
		t.Errorf("filled + remaining should equal amount: %+v", o)
	}
	if _, err := a.FetchOrder(context.Background(), "abc", ""); !errors.Is(err, exchange.ErrInvalidOrder) {
		t.Errorf("expected ErrInvalidOrder for non-numeric id, got %v", err)
	}
}

func TestCancelOrder(t *testing.T) {
	rt := exchangetest.NewRuntime().On("/order/cancel", orderBody(true, true))
	a := newTestAdapter(testCreds, rt)
	o, err := a.CancelOrder(context.Background(), "106817811", "BTC/USD")
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if o.Status != models.StatusCanceled {
		t.Errorf("cancellation must take precedence, got %s", o.Status)
	}
	if o.Symbol != "btcusd" {
		t.Errorf("unresolved id should pass through, got %s", o.Symbol)
	}
}

func TestCreateOrder(t *testing.T) {
	rt := exchangetest.NewRuntime().
		On("/symbols", symbolsJSON).
		On("/order/new", orderBody(true, false))
	a := newTestAdapter(testCreds, rt)
	ctx := context.Background()

	_, err := a.CreateOrder(ctx, "BTC/USD", models.OrderTypeMarket, models.SideBuy, dec("1"), decimal.NullDecimal{})
	if !errors.Is(err, exchange.ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
	if rt.Calls() != 0 {
		t.Fatalf("market order must not reach the runtime")
	}

	o, err := a.CreateOrder(ctx, "BTC/USD", models.OrderTypeLimit, models.SideBuy, dec("5"), decimal.NewNullDecimal(dec("3633")))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.ID != "106817811" {
		t.Errorf("unexpected order id %s", o.ID)
	}
	req, err := rt.Last("/order/new")
	if err != nil {
		t.Fatal(err)
	}
	payload := decodePayload(t, req)
	if payload["type"] != "exchange limit" || payload["symbol"] != "btcusd" || payload["amount"] != "5" || payload["price"] != "3633" {
		t.Errorf("unexpected payload %v", payload)
	}
	if id, _ := payload["client_order_id"].(string); id == "" {
		t.Errorf("client_order_id missing")
	}
}

func TestPrivateWithoutCredentials(t *testing.T) {
	rt := exchangetest.NewRuntime().On("/symbols", symbolsJSON)
	a := newTestAdapter(exchange.Credentials{APIKey: "KEY"}, rt)
	ctx := context.Background()
	calls := []func() error{
		func() error { _, err := a.FetchBalance(ctx); return err },
		func() error { _, err := a.FetchOrder(ctx, "1", ""); return err },
		func() error { _, err := a.FetchOpenOrders(ctx, "BTC/USD"); return err },
		func() error { _, err := a.Withdraw(ctx, "BTC", dec("1"), "addr", nil); return err },
		func() error {
			_, err := a.CreateOrder(ctx, "BTC/USD", models.OrderTypeLimit, models.SideSell, dec("1"), decimal.NewNullDecimal(dec("1")))
			return err
		},
	}
	for i, call := range calls {
		var authErr *exchange.AuthError
		if err := call(); !errors.As(err, &authErr) {
			t.Fatalf("call %d: expected AuthError, got %v", i, err)
		}
	}
	if rt.Calls() != 0 {
		t.Fatalf("runtime called %d times", rt.Calls())
	}
}

func TestErrorPayload(t *testing.T) {
	rt := exchangetest.NewRuntime(exchangetest.Reply{
		Match:  "/balances",
		Status: 400,
		Body:   `{"result": "error", "reason": "InvalidSignature", "message": "InvalidSignature"}`,
	}, exchangetest.Reply{Match: "/symbols", Body: symbolsJSON})
	a := newTestAdapter(testCreds, rt)
	_, err := a.FetchBalance(context.Background())
	var exErr *exchange.ExchangeError
	if !errors.As(err, &exErr) || exErr.Message != "InvalidSignature" || exErr.Status != 400 {
		t.Fatalf("expected ExchangeError, got %v", err)
	}
}

func TestFetchOpenOrdersFiltersSymbol(t *testing.T) {
	eth := strings.Replace(orderBody(true, false), `"symbol": "btcusd"`, `"symbol": "ethusd"`, 1)
	rt := exchangetest.NewRuntime().
		On("/symbols", symbolsJSON).
		On("/orders", "["+orderBody(true, false)+","+eth+"]")
	a := newTestAdapter(testCreds, rt)
	orders, err := a.FetchOpenOrders(context.Background(), "ETH/USD")
	if err != nil {
		t.Fatalf("FetchOpenOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].Symbol != "ETH/USD" {
		t.Fatalf("unexpected orders %+v", orders)
	}
	all, err := a.FetchOpenOrders(context.Background(), "")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d (%v)", len(all), err)
	}
}

func TestFetchOrderBook(t *testing.T) {
	rt := exchangetest.NewRuntime().
		On("/symbols", symbolsJSON).
		On("/book/btcusd", `{"bids": [{"price": "3607.85", "amount": "6.643373", "timestamp": "1547147541"}],
			"asks": [{"price": "3609.5", "amount": "1", "timestamp": "1547147541"}, {"price": "3608", "amount": "2", "timestamp": "1547147541"}]}`)
	a := newTestAdapter(exchange.Credentials{}, rt)
	book, err := a.FetchOrderBook(context.Background(), "BTC/USD")
	if err != nil {
		t.Fatalf("FetchOrderBook: %v", err)
	}
	if book.Timestamp != 0 || len(book.Bids) != 1 || !book.Asks[0].Price.Equal(dec("3608")) {
		t.Errorf("unexpected book %+v", book)
	}
}

func TestWithdrawAndDepositAddress(t *testing.T) {
	rt := exchangetest.NewRuntime().
		On("/withdraw/btc", `{"address": "mi98Z9brJ3TgaKsmvXatuRahbFRUFKRUdR", "amount": "1", "txHash": "7f8c"}`).
		On("/deposit/btc/newAddress", `{"currency": "BTC", "address": "n2saq73aDTu42bRgEHd8gd4to1gCzHxrdj", "label": "savings"}`)
	a := newTestAdapter(testCreds, rt)
	ctx := context.Background()
	w, err := a.Withdraw(ctx, "BTC", dec("1"), "mi98Z9brJ3TgaKsmvXatuRahbFRUFKRUdR", nil)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if w.TxHash != "7f8c" || w.ID != "7f8c" {
		t.Errorf("unexpected withdrawal %+v", w)
	}
	addr, err := a.FetchDepositAddress(ctx, "BTC", exchange.Params{"label": "savings"})
	if err != nil {
		t.Fatalf("FetchDepositAddress: %v", err)
	}
	if addr.Label != "savings" || addr.Currency != "BTC" {
		t.Errorf("unexpected address %+v", addr)
	}
	req, _ := rt.Last("/deposit/btc/newAddress")
	if decodePayload(t, req)["label"] != "savings" {
		t.Errorf("label not sent")
	}
}
