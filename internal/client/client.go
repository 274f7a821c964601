// Package client provides the HTTP runtime the exchange adapters send their
// signed requests through.
package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"cryptobridge/exchange"
	"cryptobridge/internal/metrics"
	ratelimit "cryptobridge/internal/metrics/rate"
	"cryptobridge/logger"
)

const defaultUserAgent = "cryptobridge/1.0"

// Config tunes one exchange runtime. Zero values fall back to defaults.
type Config struct {
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	MaxIdleConns      int
	MaxConnsPerHost   int
	IdleConnTimeout   time.Duration
	Log               *logger.Log
}

// Runtime implements exchange.Runtime on top of resty. Requests are paced by
// a token bucket and never retried.
type Runtime struct {
	exchange string
	http     *resty.Client
	limiter  *rate.Limiter
	log      *logger.Log
}

// RequestsPerSecond converts an exchange's minimum request spacing into a
// limiter rate.
func RequestsPerSecond(spacing time.Duration) float64 {
	if spacing <= 0 {
		return 0
	}
	return float64(time.Second) / float64(spacing)
}

// New builds the runtime used for exchangeID.
func New(exchangeID string, cfg Config) *Runtime {
	log := cfg.Log
	if log == nil {
		log = logger.GetLogger()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = defaultUserAgent
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	httpClient := resty.New().
		SetTransport(userAgentTransport{agent: agent, base: transport}).
		SetTimeout(timeout).
		SetRetryCount(0)

	return &Runtime{
		exchange: exchangeID,
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		log:      log,
	}
}

// Fetch sends req and returns the response for any HTTP status. Transport
// failures, cancellation and limiter waits that cannot complete are
// reported as *exchange.NetworkError.
func (r *Runtime) Fetch(ctx context.Context, req exchange.Request) (*exchange.Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, r.networkError(req, err)
	}

	start := time.Now()
	request := r.http.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		request.SetHeaderMultiValues(req.Headers)
	}
	if len(req.Body) > 0 {
		request.SetBody(req.Body)
	}

	resp, err := request.Execute(req.Method, req.URL)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveRequest(r.exchange, "error", duration)
		r.log.WithComponent(r.exchange+"_http").WithError(err).WithFields(logger.Fields{
			"method": req.Method,
			"url":    req.URL,
		}).Warn("request failed")
		return nil, r.networkError(req, err)
	}

	body := resp.Body()
	status := resp.StatusCode()
	metrics.ObserveRequest(r.exchange, strconv.Itoa(status), duration)
	logger.RecordRequest(r.exchange+"_http", len(body))
	ratelimit.ReportLimitFromResponse(r.log, r.exchange, endpointPath(req.URL), status, body)

	r.log.WithComponent(r.exchange + "_http").WithFields(logger.Fields{
		"method":      req.Method,
		"url":         req.URL,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}).Debug("request completed")

	return &exchange.Response{
		Status: status,
		Header: resp.Header(),
		Body:   body,
	}, nil
}

func (r *Runtime) networkError(req exchange.Request, err error) error {
	return &exchange.NetworkError{
		Exchange: r.exchange,
		Method:   req.Method,
		URL:      req.URL,
		Err:      err,
	}
}

func endpointPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
