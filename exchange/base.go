package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cryptobridge/internal/metrics"
	ratelimit "cryptobridge/internal/metrics/rate"
	"cryptobridge/logger"
	"cryptobridge/models"
)

// Options configure an adapter instance.
type Options struct {
	Credentials Credentials
	// BaseURL overrides the API root, mainly for tests.
	BaseURL string
	// Sandbox selects the exchange's test environment when it has one.
	Sandbox bool
	// Clock feeds the nonce generator. Defaults to time.Now.
	Clock func() time.Time
	Log   *logger.Log
}

// Base carries the state shared by every adapter: description, runtime,
// credentials, nonce generator and market catalog. Adapters embed it.
type Base struct {
	desc         Description
	runtime      Runtime
	creds        Credentials
	baseURL      string
	nonce        *Nonce
	catalog      *Catalog
	log          *logger.Entry
	rootLog      *logger.Log
	fetchMarkets func(ctx context.Context) ([]models.Market, error)
	errorProbe   func(body []byte) (message string, isError bool)
}

// NewBase wires the shared adapter state. fetch is the adapter's catalog
// source and is called by LoadMarkets.
func NewBase(desc Description, rt Runtime, opts Options, fetch func(ctx context.Context) ([]models.Market, error)) *Base {
	log := opts.Log
	if log == nil {
		log = logger.GetLogger()
	}
	baseURL := desc.URLs.API
	if opts.Sandbox && desc.URLs.Test != "" {
		baseURL = desc.URLs.Test
	}
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	return &Base{
		desc:         desc,
		runtime:      rt,
		creds:        opts.Credentials,
		baseURL:      strings.TrimRight(baseURL, "/"),
		nonce:        NewNonce(opts.Clock),
		catalog:      NewCatalog(),
		log:          log.WithComponent(desc.ID),
		rootLog:      log,
		fetchMarkets: fetch,
	}
}

// SetErrorProbe installs the exchange's detector for error payloads that
// arrive with a success status.
func (b *Base) SetErrorProbe(probe func(body []byte) (string, bool)) {
	b.errorProbe = probe
}

func (b *Base) ID() string { return b.desc.ID }

func (b *Base) Describe() Description { return b.desc }

func (b *Base) Catalog() *Catalog { return b.catalog }

func (b *Base) BaseURL() string { return b.baseURL }

func (b *Base) Credentials() Credentials { return b.creds }

func (b *Base) Log() *logger.Entry { return b.log }

func (b *Base) NextNonce() int64 { return b.nonce.Next() }

// LoadMarkets returns the cached catalog, fetching it first when nothing is
// loaded yet or reload is set. A failed refresh leaves the old catalog in place.
func (b *Base) LoadMarkets(ctx context.Context, reload bool) (*CatalogSnapshot, error) {
	if !reload {
		if s := b.catalog.Snapshot(); s != nil {
			return s, nil
		}
	}
	start := time.Now()
	markets, err := b.fetchMarkets(ctx)
	if err != nil {
		b.log.WithError(err).Warn("failed to load markets")
		return nil, err
	}
	snap := b.catalog.Replace(markets)
	metrics.SetCatalogMarkets(b.desc.ID, snap.Len())
	logger.LogPerformanceEntry(b.log, b.desc.ID, "load_markets", time.Since(start), logger.Fields{
		"markets": snap.Len(),
	})
	return snap, nil
}

// Market resolves a unified symbol through the catalog, loading it on demand.
func (b *Base) Market(ctx context.Context, symbol string) (models.Market, error) {
	snap, err := b.LoadMarkets(ctx, false)
	if err != nil {
		return models.Market{}, err
	}
	m, ok := snap.BySymbol(symbol)
	if !ok {
		return models.Market{}, fmt.Errorf("%s: %w: %s", b.desc.ID, ErrBadSymbol, symbol)
	}
	return m, nil
}

// CheckCredentials returns an AuthError when a required credential is empty.
func (b *Base) CheckCredentials() error {
	if missing := b.desc.RequiredCredentials.Missing(b.creds); len(missing) > 0 {
		return &AuthError{
			Exchange: b.desc.ID,
			Reason:   "missing credentials: " + strings.Join(missing, ", "),
		}
	}
	return nil
}

// Send hands req to the runtime. HTTP error statuses and error payloads
// recognised by the probe become ExchangeError carrying the raw body.
func (b *Base) Send(ctx context.Context, req Request) ([]byte, error) {
	resp, err := b.runtime.Fetch(ctx, req)
	if err != nil {
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			err = &NetworkError{Exchange: b.desc.ID, Method: req.Method, URL: req.URL, Err: err}
		}
		return nil, err
	}
	var message string
	isError := resp.Status >= 400
	if b.errorProbe != nil {
		if msg, ok := b.errorProbe(resp.Body); ok {
			message, isError = msg, true
			// Statuses from 400 up are reported by the runtime.
			if resp.Status < 400 {
				ratelimit.ReportLimitFromMessage(b.rootLog, b.desc.ID, requestPath(req.URL), resp.Status, msg)
			}
		}
	}
	if isError {
		b.log.WithFields(logger.Fields{"status": resp.Status, "url": req.URL, "reason": message}).Warn("exchange returned an error")
		return nil, &ExchangeError{Exchange: b.desc.ID, Status: resp.Status, Message: message, Body: resp.Body}
	}
	return resp.Body, nil
}

func requestPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

// ParseError records and builds a ParseError for this exchange.
func (b *Base) ParseError(kind string, raw []byte, err error) *ParseError {
	metrics.IncrementParseError(b.desc.ID, kind)
	b.log.WithError(err).WithFields(logger.Fields{"kind": kind}).Warn("failed to parse response")
	return NewParseError(b.desc.ID, kind, raw, err)
}
