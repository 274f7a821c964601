package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cryptobridge/exchange"
	"cryptobridge/exchange/gemini"
	"cryptobridge/logger"
)

func quietLogger() *logger.Log {
	log := logger.Logger()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func fastConfig() Config {
	return Config{
		Timeout:           2 * time.Second,
		UserAgent:         "bridge-test/1.0",
		RequestsPerSecond: 1000,
		Burst:             100,
		Log:               quietLogger(),
	}
}

func TestFetchForwardsRequest(t *testing.T) {
	var gotAgent, gotType, gotBody, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("X-Test", "yes")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rt := New("bitstamp", fastConfig())
	headers := http.Header{}
	headers.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := rt.Fetch(context.Background(), exchange.Request{
		Method:  http.MethodPost,
		URL:     srv.URL + "/v2/balance/",
		Headers: headers,
		Body:    []byte("key=K&nonce=1"),
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.Status != http.StatusOK || string(resp.Body) != `{"ok":true}` {
		t.Fatalf("unexpected response: %d %s", resp.Status, resp.Body)
	}
	if resp.Header.Get("X-Test") != "yes" {
		t.Fatalf("response headers not returned")
	}
	if gotMethod != http.MethodPost || gotBody != "key=K&nonce=1" {
		t.Fatalf("request not forwarded: %s %q", gotMethod, gotBody)
	}
	if gotAgent != "bridge-test/1.0" {
		t.Fatalf("User-Agent = %q", gotAgent)
	}
	if gotType != "application/x-www-form-urlencoded" {
		t.Fatalf("Content-Type = %q", gotType)
	}
}

func TestFetchReturnsErrorStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"result":"error","reason":"RateLimited"}`))
	}))
	defer srv.Close()

	rt := New("gemini", fastConfig())
	resp, err := rt.Fetch(context.Background(), exchange.Request{Method: http.MethodGet, URL: srv.URL + "/v1/symbols"})
	if err != nil {
		t.Fatalf("error statuses must not fail the transport: %v", err)
	}
	if resp.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d", resp.Status)
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	rt := New("bitstamp", fastConfig())
	_, err := rt.Fetch(context.Background(), exchange.Request{Method: http.MethodGet, URL: url + "/v2/trading-pairs-info/"})
	var netErr *exchange.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.Exchange != "bitstamp" || netErr.Method != http.MethodGet {
		t.Fatalf("unexpected error fields: %+v", netErr)
	}
}

func TestFetchHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	rt := New("gemini", fastConfig())
	_, err := rt.Fetch(ctx, exchange.Request{Method: http.MethodGet, URL: srv.URL})
	var netErr *exchange.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestLimiterPacesRequests(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.RequestsPerSecond = 0.01
	cfg.Burst = 1
	rt := New("bitstamp", cfg)

	if _, err := rt.Fetch(context.Background(), exchange.Request{Method: http.MethodGet, URL: srv.URL}); err != nil {
		t.Fatalf("first request: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := rt.Fetch(ctx, exchange.Request{Method: http.MethodGet, URL: srv.URL})
	var netErr *exchange.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected limiter to refuse the second request, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("server hits = %d, want 1", n)
	}
}

func TestRequestsPerSecond(t *testing.T) {
	if got := RequestsPerSecond(time.Second); got != 1 {
		t.Fatalf("1s spacing = %v", got)
	}
	if got := RequestsPerSecond(500 * time.Millisecond); got != 2 {
		t.Fatalf("500ms spacing = %v", got)
	}
	if got := RequestsPerSecond(0); got != 0 {
		t.Fatalf("zero spacing = %v", got)
	}
}

func TestAdapterOverHTTP(t *testing.T) {
	var payload string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/symbols", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["btcusd","ethusd"]`))
	})
	mux.HandleFunc("/v1/pubticker/btcusd", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bid":"977.59","ask":"977.35","last":"977.65","volume":{"BTC":"10","USD":"9776.5","timestamp":1483018200000}}`))
	})
	mux.HandleFunc("/v1/balances", func(w http.ResponseWriter, r *http.Request) {
		payload = r.Header.Get("X-GEMINI-PAYLOAD")
		w.Write([]byte(`[{"type":"exchange","currency":"BTC","amount":"2","available":"1.5"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rt := New(gemini.ID, fastConfig())
	a := gemini.New(rt, exchange.Options{
		BaseURL:     srv.URL,
		Credentials: exchange.Credentials{APIKey: "key", Secret: "secret"},
		Log:         quietLogger(),
	})

	tk, err := a.FetchTicker(context.Background(), "BTC/USD")
	if err != nil {
		t.Fatalf("FetchTicker: %v", err)
	}
	if tk.Symbol != "BTC/USD" || tk.Timestamp != 1483018200000 {
		t.Fatalf("unexpected ticker: %+v", tk)
	}

	bal, err := a.FetchBalance(context.Background())
	if err != nil {
		t.Fatalf("FetchBalance: %v", err)
	}
	if payload == "" {
		t.Fatalf("private request was not signed")
	}
	if !bal.Get("BTC").Total.Valid {
		t.Fatalf("BTC balance missing: %+v", bal.Accounts)
	}
}
