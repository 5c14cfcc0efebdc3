// Package api exposes the price oracle over HTTP and WebSocket.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/logging"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/metrics"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/history"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/oracle"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/valuation"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
	maxBodyBytes        = 1 << 12
)

// PriceService is the oracle surface served over HTTP.
type PriceService interface {
	GetPrice(ctx context.Context) (float64, oracle.Metadata, error)
	Refresh(ctx context.Context) (float64, oracle.Metadata, error)
	GetPriceAge() int64
	IsPriceStale() bool
	GetPriceSource() oracle.Metadata
	GetTWAPPrice() (float64, bool)
	SetCachedPrice(price float64)
}

// SourceHealthReader is implemented by price services that can report the
// health of their sources. /health includes it when available.
type SourceHealthReader interface {
	SourceHealth() []oracle.SourceStatus
}

// Valuer converts between DC amounts and USD.
type Valuer interface {
	EstimateUSDValue(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
	EstimateTokensForUSD(ctx context.Context, usd decimal.Decimal) (decimal.Decimal, error)
	MarketCapUSD(ctx context.Context, supply decimal.Decimal) (decimal.Decimal, error)
}

// HistoryReader serves stored prices.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// AdminConfig guards the override endpoint.
type AdminConfig struct {
	Enabled bool
	Token   string
}

// Server represents the HTTP API server.
type Server struct {
	addr     string
	prices   PriceService
	history  HistoryReader
	valuer   Valuer
	admin    AdminConfig
	server   *http.Server
	logger   *logging.Logger
	wsServer *WebSocketServer // Optional WebSocket server for streaming
}

// PriceResponse is returned by the price endpoints.
type PriceResponse struct {
	Price       string `json:"price"`
	Source      string `json:"source"`
	TimestampMs int64  `json:"timestamp_ms"`
	AgeMs       int64  `json:"age_ms"`
	Stale       bool   `json:"stale"`
}

// SourceResponse describes the cached price.
type SourceResponse struct {
	Name        string `json:"name"`
	Price       string `json:"price,omitempty"`
	TimestampMs int64  `json:"timestamp_ms"`
	Source      string `json:"source"`
	AgeMs       int64  `json:"age_ms"`
	Stale       bool   `json:"stale"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string                `json:"status"`
	Sources []oracle.SourceStatus `json:"sources,omitempty"`
}

// ValueResponse pairs a DC amount with its USD value.
type ValueResponse struct {
	Amount string `json:"amount"`
	USD    string `json:"usd"`
}

// TWAPResponse carries the time-weighted average.
type TWAPResponse struct {
	TWAP string `json:"twap"`
}

// OverrideRequest is the body of POST /v1/price/override.
type OverrideRequest struct {
	Price float64 `json:"price"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, prices PriceService, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Server{
		addr:   addr,
		prices: prices,
		logger: logger,
	}
}

// SetHistory enables GET /v1/price/history.
func (s *Server) SetHistory(h HistoryReader) {
	s.history = h
}

// SetValuation enables GET /v1/price/value.
func (s *Server) SetValuation(v Valuer) {
	s.valuer = v
}

// SetAdmin enables POST /v1/price/override when cfg.Enabled is set.
func (s *Server) SetAdmin(cfg AdminConfig) {
	s.admin = cfg
}

// SetWebSocketServer mounts ws on /ws.
func (s *Server) SetWebSocketServer(ws *WebSocketServer) {
	s.wsServer = ws
}

// Handler builds the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/price", s.handlePrice)
	mux.HandleFunc("POST /v1/price/refresh", s.handleRefresh)
	mux.HandleFunc("GET /v1/price/source", s.handleSource)
	mux.HandleFunc("GET /v1/price/twap", s.handleTWAP)
	if s.valuer != nil {
		mux.HandleFunc("GET /v1/price/value", s.handleValue)
	}
	if s.history != nil {
		mux.HandleFunc("GET /v1/price/history", s.handleHistory)
	}
	if s.admin.Enabled {
		mux.HandleFunc("POST /v1/price/override", s.handleOverride)
	}
	if s.wsServer != nil {
		mux.Handle("GET /ws", s.wsServer)
	}
	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleHealth handles /health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RecordHTTPRequest("/health", "200", time.Since(start))
	}()

	resp := HealthResponse{Status: "ok"}
	if hr, ok := s.prices.(SourceHealthReader); ok {
		resp.Sources = hr.SourceHealth()
	}
	s.sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	s.servePrice(w, r, "/v1/price", s.prices.GetPrice)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.servePrice(w, r, "/v1/price/refresh", s.prices.Refresh)
}

func (s *Server) servePrice(w http.ResponseWriter, r *http.Request, endpoint string,
	get func(context.Context) (float64, oracle.Metadata, error),
) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		metrics.RecordHTTPRequest(endpoint, strconv.Itoa(status), time.Since(start))
	}()

	price, meta, err := get(r.Context())
	if err != nil {
		status = http.StatusServiceUnavailable
		s.logger.Warn("Price unavailable", "endpoint", endpoint, "error", err)
		s.sendError(w, status, err)
		return
	}

	s.sendJSON(w, status, PriceResponse{
		Price:       formatPrice(price),
		Source:      meta.Source,
		TimestampMs: meta.TimestampMs,
		AgeMs:       s.prices.GetPriceAge(),
		Stale:       s.prices.IsPriceStale(),
	})
}

func (s *Server) handleSource(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RecordHTTPRequest("/v1/price/source", "200", time.Since(start))
	}()

	meta := s.prices.GetPriceSource()
	resp := SourceResponse{
		Name:        meta.Name,
		TimestampMs: meta.TimestampMs,
		Source:      meta.Source,
		AgeMs:       s.prices.GetPriceAge(),
		Stale:       s.prices.IsPriceStale(),
	}
	if meta.Source != "" {
		resp.Price = formatPrice(meta.Price)
	}
	s.sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTWAP(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		metrics.RecordHTTPRequest("/v1/price/twap", strconv.Itoa(status), time.Since(start))
	}()

	v, ok := s.prices.GetTWAPPrice()
	if !ok {
		status = http.StatusServiceUnavailable
		s.sendError(w, status, oracle.ErrNoDataAvailable)
		return
	}
	s.sendJSON(w, status, TWAPResponse{TWAP: formatPrice(v)})
}

// handleValue converts exactly one of ?amount= (DC to USD), ?usd= (USD to
// DC) or ?supply= (market cap).
func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		metrics.RecordHTTPRequest("/v1/price/value", strconv.Itoa(status), time.Since(start))
	}()

	q := r.URL.Query()
	var (
		param string
		raw   string
	)
	for _, name := range []string{"amount", "usd", "supply"} {
		if v := q.Get(name); v != "" {
			if param != "" {
				status = http.StatusBadRequest
				s.sendError(w, status, errors.New("pass exactly one of amount, usd, supply"))
				return
			}
			param, raw = name, v
		}
	}
	if param == "" {
		status = http.StatusBadRequest
		s.sendError(w, status, errors.New("pass exactly one of amount, usd, supply"))
		return
	}

	in, err := decimal.NewFromString(raw)
	if err != nil {
		status = http.StatusBadRequest
		s.sendError(w, status, fmt.Errorf("invalid %s %q", param, raw))
		return
	}

	var (
		out  decimal.Decimal
		resp ValueResponse
	)
	switch param {
	case "amount":
		out, err = s.valuer.EstimateUSDValue(r.Context(), in)
		resp = ValueResponse{Amount: in.String(), USD: out.String()}
	case "usd":
		out, err = s.valuer.EstimateTokensForUSD(r.Context(), in)
		resp = ValueResponse{Amount: out.String(), USD: in.String()}
	default:
		out, err = s.valuer.MarketCapUSD(r.Context(), in)
		resp = ValueResponse{Amount: in.String(), USD: out.String()}
	}

	switch {
	case errors.Is(err, valuation.ErrInvalidAmount):
		status = http.StatusBadRequest
		s.sendError(w, status, err)
	case errors.Is(err, valuation.ErrPriceUnavailable):
		status = http.StatusServiceUnavailable
		s.logger.Warn("Valuation unavailable", "error", err)
		s.sendError(w, status, valuation.ErrPriceUnavailable)
	case err != nil:
		status = http.StatusInternalServerError
		s.logger.Error("Valuation failed", "error", err)
		s.sendError(w, status, errors.New("valuation failed"))
	default:
		s.sendJSON(w, status, resp)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		metrics.RecordHTTPRequest("/v1/price/history", strconv.Itoa(status), time.Since(start))
	}()

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			status = http.StatusBadRequest
			s.sendError(w, status, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		status = http.StatusInternalServerError
		s.logger.Error("Failed to read price history", "error", err)
		s.sendError(w, status, errors.New("failed to read price history"))
		return
	}
	s.sendJSON(w, status, records)
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		metrics.RecordHTTPRequest("/v1/price/override", strconv.Itoa(status), time.Since(start))
	}()

	if !s.authorized(r) {
		status = http.StatusUnauthorized
		s.sendError(w, status, errors.New("unauthorized"))
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		status = http.StatusBadRequest
		s.sendError(w, status, fmt.Errorf("invalid body: %w", err))
		return
	}
	if req.Price <= 0 || math.IsInf(req.Price, 0) || math.IsNaN(req.Price) {
		status = http.StatusBadRequest
		s.sendError(w, status, errors.New("price must be a positive number"))
		return
	}

	s.prices.SetCachedPrice(req.Price)
	s.logger.Warn("Price overridden via API", "price", req.Price, "remote", r.RemoteAddr)

	meta := s.prices.GetPriceSource()
	s.sendJSON(w, status, PriceResponse{
		Price:       formatPrice(meta.Price),
		Source:      meta.Source,
		TimestampMs: meta.TimestampMs,
		AgeMs:       s.prices.GetPriceAge(),
		Stale:       s.prices.IsPriceStale(),
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.admin.Token == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.admin.Token)) == 1
}

// formatPrice renders a price without exponent notation.
func formatPrice(p float64) string {
	return decimal.NewFromFloat(p).String()
}

// sendJSON sends a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, err error) {
	s.sendJSON(w, status, ErrorResponse{Error: err.Error()})
}
