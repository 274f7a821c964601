package rate

import (
	"fmt"
	"net/http"
	"strings"

	"cryptobridge/internal/metrics"
	"cryptobridge/logger"
)

func limitFields(exchange, endpoint string, status int) (string, logger.Fields) {
	component := fmt.Sprintf("%s_http", strings.ToLower(exchange))
	return component, logger.Fields{
		"exchange": strings.ToLower(exchange),
		"endpoint": endpoint,
		"status":   status,
	}
}

// ReportRateLimitExceeded emits a rate_limit_exceeded counter for the
// exchange and logs a warning.
func ReportRateLimitExceeded(log *logger.Log, exchange, endpoint string, status int) {
	if log == nil {
		log = logger.GetLogger()
	}
	component, fields := limitFields(exchange, endpoint, status)
	metrics.EmitMetric(log, component, "rate_limit_exceeded", int64(1), "counter", fields)
	log.WithComponent(component).WithFields(fields).Warn("rate limit exceeded")
}

// ReportIPBan emits an ip_ban counter for the exchange and logs an error.
func ReportIPBan(log *logger.Log, exchange, endpoint string, status int) {
	if log == nil {
		log = logger.GetLogger()
	}
	component, fields := limitFields(exchange, endpoint, status)
	metrics.EmitMetric(log, component, "ip_ban", int64(1), "counter", fields)
	log.WithComponent(component).WithFields(fields).Error("ip banned")
}

// detectLimit inspects an error message and reports whether it signals a
// rate limit or an IP ban. Wording differs per exchange.
func detectLimit(exchange, msg string) (rateLimit bool, ipBan bool) {
	lowerMsg := strings.ToLower(msg)
	switch strings.ToLower(exchange) {
	case "bitstamp":
		rateLimit = strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests")
		ipBan = strings.Contains(lowerMsg, "ip") && (strings.Contains(lowerMsg, "ban") || strings.Contains(lowerMsg, "blocked"))
	case "gemini":
		rateLimit = strings.Contains(lowerMsg, "ratelimit") || strings.Contains(lowerMsg, "rate limit")
		ipBan = strings.Contains(lowerMsg, "ipisbanned") || (strings.Contains(lowerMsg, "ip") && strings.Contains(lowerMsg, "ban"))
	default:
		rateLimit = strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests")
		ipBan = strings.Contains(lowerMsg, "ip") && strings.Contains(lowerMsg, "ban")
	}
	return
}

// ReportLimitFromResponse records rate limit and IP ban events found in an
// exchange response. A 429 status always counts as a rate limit. Nothing is
// recorded for ordinary responses.
func ReportLimitFromResponse(log *logger.Log, exchange, endpoint string, status int, body []byte) (rateLimit bool, ipBan bool) {
	if status < http.StatusBadRequest {
		return false, false
	}
	return ReportLimitFromMessage(log, exchange, endpoint, status, string(body))
}

// ReportLimitFromMessage records rate limit and IP ban events found in an
// exchange error message whatever the status. Exchanges that answer errors
// with HTTP 200 are reported through it.
func ReportLimitFromMessage(log *logger.Log, exchange, endpoint string, status int, msg string) (rateLimit bool, ipBan bool) {
	rateLimit, ipBan = detectLimit(exchange, msg)
	if status == http.StatusTooManyRequests {
		rateLimit = true
	}
	if ipBan {
		rateLimit = false
		ReportIPBan(log, exchange, endpoint, status)
	}
	if rateLimit {
		ReportRateLimitExceeded(log, exchange, endpoint, status)
	}
	return rateLimit, ipBan
}
