package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRecord(t *testing.T) {
	Init(nil, "")

	ObserveRequest("bitstamp", "ok", 20*time.Millisecond)
	ObserveRequest("bitstamp", "ok", 30*time.Millisecond)
	IncrementParseError("gemini", "ticker")
	SetCatalogMarkets("bitstamp", 7)

	if got := testutil.ToFloat64(requestsTotal.WithLabelValues("bitstamp", "ok")); got != 2 {
		t.Fatalf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(parseErrors.WithLabelValues("gemini", "ticker")); got != 1 {
		t.Fatalf("parse errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(catalogMarkets.WithLabelValues("bitstamp")); got != 7 {
		t.Fatalf("catalog markets = %v, want 7", got)
	}

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cryptobridge_catalog_markets") {
		t.Fatalf("exposition missing catalog gauge")
	}
}
