package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/history"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/oracle"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/valuation"
)

type stubPrices struct {
	mu       sync.Mutex
	price    float64
	meta     oracle.Metadata
	err      error
	twap     float64
	hasTWAP  bool
	override float64
	refreshs int
}

func (s *stubPrices) GetPrice(context.Context) (float64, oracle.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.price, s.meta, s.err
}

func (s *stubPrices) Refresh(ctx context.Context) (float64, oracle.Metadata, error) {
	s.mu.Lock()
	s.refreshs++
	s.mu.Unlock()
	return s.GetPrice(ctx)
}

func (s *stubPrices) GetPriceAge() int64 { return 1500 }

func (s *stubPrices) IsPriceStale() bool { return false }

func (s *stubPrices) GetPriceSource() oracle.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.override != 0 {
		return oracle.Metadata{Name: "DC", Price: s.override, TimestampMs: 42, Source: oracle.SourceTagManual}
	}
	return s.meta
}

func (s *stubPrices) GetTWAPPrice() (float64, bool) { return s.twap, s.hasTWAP }

func (s *stubPrices) SetCachedPrice(p float64) {
	s.mu.Lock()
	s.override = p
	s.mu.Unlock()
}

type stubHistory struct {
	records []history.Record
	limit   int
}

func (h *stubHistory) Recent(_ context.Context, limit int) ([]history.Record, error) {
	h.limit = limit
	if limit < len(h.records) {
		return h.records[:limit], nil
	}
	return h.records, nil
}

func okPrices() *stubPrices {
	return &stubPrices{
		price: 0.00001,
		meta:  oracle.Metadata{Name: "DC", Price: 0.00001, TimestampMs: 1700000000000, Source: "pool"},
	}
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type healthPrices struct {
	*stubPrices
	statuses []oracle.SourceStatus
}

func (h healthPrices) SourceHealth() []oracle.SourceStatus { return h.statuses }

type stubProvider struct {
	price float64
	err   error
}

func (p stubProvider) GetDCPriceUSD(context.Context) (float64, error) { return p.price, p.err }

func (p stubProvider) GetTWAPPrice() (float64, bool) { return 0, false }

func TestHealth(t *testing.T) {
	s := NewServer(":0", okPrices(), nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_SourceStatuses(t *testing.T) {
	prices := healthPrices{
		stubPrices: okPrices(),
		statuses: []oracle.SourceStatus{
			{Name: "pool", Type: "evm", Healthy: false, LastError: "upstream down"},
			{Name: "dexscreener", Type: "dexagg", Healthy: true, LastUpdateMs: 1700000000000},
		},
	}
	s := NewServer(":0", prices, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, prices.statuses, resp.Sources)
}

func TestValue(t *testing.T) {
	s := NewServer(":0", okPrices(), nil)
	rec := do(t, s.Handler(), http.MethodGet, "/v1/price/value?amount=1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "valuation disabled")

	s.SetValuation(valuation.NewEstimator(stubProvider{price: 0.00001}))
	h := s.Handler()

	tests := []struct {
		name   string
		query  string
		want   int
		amount string
		usd    string
	}{
		{"amount to usd", "amount=1000000", http.StatusOK, "1000000", "10"},
		{"usd to amount", "usd=10", http.StatusOK, "1000000", "10"},
		{"market cap", "supply=2", http.StatusOK, "2", "0.00002"},
		{"negative", "amount=-1", http.StatusBadRequest, "", ""},
		{"not a number", "amount=lots", http.StatusBadRequest, "", ""},
		{"nothing", "", http.StatusBadRequest, "", ""},
		{"two params", "amount=1&usd=1", http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/v1/price/value?"+tt.query, "", nil)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want != http.StatusOK {
				return
			}
			var resp ValueResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, ValueResponse{Amount: tt.amount, USD: tt.usd}, resp)
		})
	}
}

func TestValue_PriceUnavailable(t *testing.T) {
	s := NewServer(":0", okPrices(), nil)
	s.SetValuation(valuation.NewEstimator(stubProvider{err: oracle.ErrCacheTooOld}))

	rec := do(t, s.Handler(), http.MethodGet, "/v1/price/value?amount=5", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, valuation.ErrPriceUnavailable.Error(), resp.Error)
}

func TestGetPrice(t *testing.T) {
	s := NewServer(":0", okPrices(), nil)
	rec := do(t, s.Handler(), http.MethodGet, "/v1/price", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp PriceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, PriceResponse{
		Price:       "0.00001",
		Source:      "pool",
		TimestampMs: 1700000000000,
		AgeMs:       1500,
	}, resp)
}

func TestGetPrice_Unavailable(t *testing.T) {
	prices := &stubPrices{err: oracle.ErrNoDataAvailable}
	s := NewServer(":0", prices, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/v1/price", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no price data available", resp.Error)
}

func TestRefresh(t *testing.T) {
	prices := okPrices()
	s := NewServer(":0", prices, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/v1/price/refresh", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, prices.refreshs)

	rec = do(t, h, http.MethodGet, "/v1/price/refresh", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSource(t *testing.T) {
	s := NewServer(":0", okPrices(), nil)
	rec := do(t, s.Handler(), http.MethodGet, "/v1/price/source", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SourceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DC", resp.Name)
	assert.Equal(t, "0.00001", resp.Price)
	assert.Equal(t, "pool", resp.Source)

	empty := NewServer(":0", &stubPrices{meta: oracle.Metadata{Name: "DC"}}, nil)
	rec = do(t, empty.Handler(), http.MethodGet, "/v1/price/source", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"price"`)
}

func TestTWAP(t *testing.T) {
	prices := okPrices()
	s := NewServer(":0", prices, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/v1/price/twap", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	prices.twap, prices.hasTWAP = 0.0000125, true
	rec = do(t, s.Handler(), http.MethodGet, "/v1/price/twap", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"twap":"0.0000125"}`, rec.Body.String())
}

func TestHistory(t *testing.T) {
	s := NewServer(":0", okPrices(), nil)
	rec := do(t, s.Handler(), http.MethodGet, "/v1/price/history", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "history disabled")

	hist := &stubHistory{records: []history.Record{
		{ID: "b", Price: 0.000011, Source: "dexscreener", RecordedAt: time.UnixMilli(2000).UTC()},
		{ID: "a", Price: 0.00001, Source: "pool", RecordedAt: time.UnixMilli(1000).UTC()},
	}}
	s.SetHistory(hist)
	h := s.Handler()

	rec = do(t, h, http.MethodGet, "/v1/price/history?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []history.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "dexscreener", got[0].Source)

	rec = do(t, h, http.MethodGet, "/v1/price/history", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultHistoryLimit, hist.limit)

	rec = do(t, h, http.MethodGet, "/v1/price/history?limit=100000", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxHistoryLimit, hist.limit)

	for _, bad := range []string{"0", "-3", "abc"} {
		rec = do(t, h, http.MethodGet, "/v1/price/history?limit="+bad, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestOverride(t *testing.T) {
	prices := okPrices()
	s := NewServer(":0", prices, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/v1/price/override", `{"price":0.00004}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "admin disabled")

	s.SetAdmin(AdminConfig{Enabled: true, Token: "s3cret"})
	h := s.Handler()
	auth := map[string]string{"Authorization": "Bearer s3cret"}

	tests := []struct {
		name    string
		body    string
		headers map[string]string
		want    int
	}{
		{"no token", `{"price":0.00004}`, nil, http.StatusUnauthorized},
		{"wrong token", `{"price":0.00004}`, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"bad json", `{"price":`, auth, http.StatusBadRequest},
		{"zero", `{"price":0}`, auth, http.StatusBadRequest},
		{"negative", `{"price":-1}`, auth, http.StatusBadRequest},
		{"ok", `{"price":0.00004}`, auth, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/price/override", tt.body, tt.headers)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, 0.00004, prices.override)
}

func TestOverride_EmptyTokenRejectsEverything(t *testing.T) {
	s := NewServer(":0", okPrices(), nil)
	s.SetAdmin(AdminConfig{Enabled: true})

	rec := do(t, s.Handler(), http.MethodPost, "/v1/price/override", `{"price":1}`,
		map[string]string{"Authorization": "Bearer "})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
