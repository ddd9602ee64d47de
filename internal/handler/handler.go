package handler

import (
	"context"
	"errors"
	"net/http"

	"coinpulse/internal/domain"
	"coinpulse/internal/market"
	"coinpulse/internal/provider"
	"coinpulse/internal/ta"
	"coinpulse/internal/upstream"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// MarketData is the read side of market.Service used by the API.
type MarketData interface {
	FearGreed(ctx context.Context) (*domain.FearGreedIndex, error)
	Dominance(ctx context.Context) (*domain.DominanceIndex, error)
	Ticker(ctx context.Context, exchange, symbol string) (*domain.Ticker, error)
	Spread(ctx context.Context, symbol string) (*domain.SpreadQuote, error)
	FundingRate(ctx context.Context, exchange, symbol string) (*domain.FundingRate, error)
	Derivatives(ctx context.Context, symbol string) (*domain.Derivatives, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
}

type Snapshotter interface {
	Snapshot(ctx context.Context) (*domain.MarketIndicators, error)
}

type StatusMonitor interface {
	Statuses() []domain.APIStatus
	CheckAll(ctx context.Context) []domain.APIStatus
}

type EndpointChecker interface {
	CheckEndpoint(ctx context.Context, url string) domain.HealthCheckResult
}

type SnapshotHistory interface {
	ListSnapshots(ctx context.Context, limit int) ([]domain.MarketIndicators, error)
}

type Handler struct {
	tracer     trace.Tracer
	market     MarketData
	aggregator Snapshotter
	monitor    StatusMonitor
	checker    EndpointChecker
	history    SnapshotHistory
	metrics    http.Handler
	adminKey   string
}

func New(tracer trace.Tracer, marketData MarketData, aggregator Snapshotter, monitor StatusMonitor, checker EndpointChecker) *Handler {
	return &Handler{
		tracer:     tracer,
		market:     marketData,
		aggregator: aggregator,
		monitor:    monitor,
		checker:    checker,
	}
}

// SetHistory enables /api/indicators/history.
func (h *Handler) SetHistory(history SnapshotHistory) { h.history = history }

// SetMetricsHandler exposes the Prometheus registry at /metrics.
func (h *Handler) SetMetricsHandler(m http.Handler) { h.metrics = m }

// SetAdminKey protects the probe-triggering routes with X-API-Key.
func (h *Handler) SetAdminKey(key string) { h.adminKey = key }

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	api := r.Group("/api")
	api.GET("/indicators", h.GetIndicators)
	api.GET("/indicators/history", h.GetIndicatorHistory)
	api.GET("/feargreed", h.GetFearGreed)
	api.GET("/dominance", h.GetDominance)
	api.GET("/ticker/:exchange/:symbol", h.GetTicker)
	api.GET("/spread/:symbol", h.GetSpread)
	api.GET("/funding/:exchange/:symbol", h.GetFunding)
	api.GET("/derivatives/:symbol", h.GetDerivatives)
	api.GET("/klines/:symbol", h.GetKlines)
	api.GET("/analysis/:symbol", h.GetAnalysis)
	api.GET("/status", h.GetStatus)

	admin := api.Group("", APIKeyAuth(h.adminKey))
	admin.POST("/status/check", h.TriggerStatusCheck)
	admin.GET("/health/check", h.CheckEndpoint)
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, market.ErrUnsupportedExchange):
		return http.StatusBadRequest
	case errors.Is(err, ta.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, provider.ErrDisabled), errors.Is(err, market.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return 499
	}
	var fe *upstream.FetchError
	if errors.As(err, &fe) {
		switch fe.Kind {
		case upstream.KindTimeout:
			return http.StatusGatewayTimeout
		case upstream.KindNetwork:
			return http.StatusServiceUnavailable
		default:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
