package handler

import (
	"net/http"
	"strconv"
	"strings"

	"coinpulse/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

func symbolParam(c *gin.Context) string {
	return domain.PairSymbol(c.Param("symbol"))
}

// GetIndicators godoc
// @Summary      Market indicators snapshot
// @Description  Fear & Greed index and BTC dominance. Failed constituents are null and listed in errors.
// @Tags         indicators
// @Produce      json
// @Success      200  {object}  domain.MarketIndicators
// @Failure      502  {object}  map[string]string
// @Router       /api/indicators [get]
func (h *Handler) GetIndicators(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-indicators")
	defer span.End()

	snap, err := h.aggregator.Snapshot(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetIndicatorHistory godoc
// @Summary      Stored snapshots
// @Description  Most recent persisted indicator snapshots, newest first
// @Tags         indicators
// @Produce      json
// @Param        limit  query  int  false  "Number of snapshots (max 500)"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/indicators/history [get]
func (h *Handler) GetIndicatorHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-indicator-history")
	defer span.End()

	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot history disabled: DATABASE_URL not configured"})
		return
	}
	limit := 50
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	snaps, err := h.history.ListSnapshots(ctx, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}

// GetFearGreed godoc
// @Summary      Fear & Greed index
// @Tags         indicators
// @Produce      json
// @Success      200  {object}  domain.FearGreedIndex
// @Failure      502  {object}  map[string]string
// @Router       /api/feargreed [get]
func (h *Handler) GetFearGreed(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-fear-greed")
	defer span.End()

	fg, err := h.market.FearGreed(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fg)
}

// GetDominance godoc
// @Summary      Market dominance
// @Tags         indicators
// @Produce      json
// @Success      200  {object}  domain.DominanceIndex
// @Failure      502  {object}  map[string]string
// @Router       /api/dominance [get]
func (h *Handler) GetDominance(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-dominance")
	defer span.End()

	d, err := h.market.Dominance(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetTicker godoc
// @Summary      24h ticker
// @Tags         market
// @Produce      json
// @Param        exchange  path  string  true  "binance or bitget"
// @Param        symbol    path  string  true  "Asset symbol (e.g., BTC)"
// @Success      200  {object}  domain.Ticker
// @Failure      400  {object}  map[string]string
// @Router       /api/ticker/{exchange}/{symbol} [get]
func (h *Handler) GetTicker(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-ticker")
	defer span.End()

	exchange := strings.ToLower(c.Param("exchange"))
	symbol := symbolParam(c)
	span.SetAttributes(attribute.String("exchange", exchange), attribute.String("symbol", symbol))

	if !domain.IsSupportedExchange(exchange) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported exchange: " + exchange,
			"supported_exchanges": domain.SupportedExchanges,
		})
		return
	}
	t, err := h.market.Ticker(ctx, exchange, symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GetSpread godoc
// @Summary      Cross-exchange spread
// @Description  Last price on every exchange with the absolute and percentage spread
// @Tags         market
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol (e.g., BTC)"
// @Success      200  {object}  domain.SpreadQuote
// @Router       /api/spread/{symbol} [get]
func (h *Handler) GetSpread(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-spread")
	defer span.End()

	q, err := h.market.Spread(ctx, symbolParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetFunding godoc
// @Summary      Funding rate
// @Description  Current perpetual funding rate as fraction and percentage with its bias
// @Tags         derivatives
// @Produce      json
// @Param        exchange  path  string  true  "binance or bitget"
// @Param        symbol    path  string  true  "Asset symbol (e.g., BTC)"
// @Success      200  {object}  domain.FundingRate
// @Failure      400  {object}  map[string]string
// @Router       /api/funding/{exchange}/{symbol} [get]
func (h *Handler) GetFunding(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-funding")
	defer span.End()

	exchange := strings.ToLower(c.Param("exchange"))
	if !domain.IsSupportedExchange(exchange) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported exchange: " + exchange,
			"supported_exchanges": domain.SupportedExchanges,
		})
		return
	}
	fr, err := h.market.FundingRate(ctx, exchange, symbolParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fr)
}

// GetDerivatives godoc
// @Summary      Derivatives overview
// @Description  Funding on every exchange, open interest and long/short ratio
// @Tags         derivatives
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol (e.g., BTC)"
// @Success      200  {object}  domain.Derivatives
// @Router       /api/derivatives/{symbol} [get]
func (h *Handler) GetDerivatives(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-derivatives")
	defer span.End()

	d, err := h.market.Derivatives(ctx, symbolParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// parseInterval validates the interval query parameter, writing a 400 when
// it is not supported.
func parseInterval(c *gin.Context, def string) (string, bool) {
	interval := c.DefaultQuery("interval", def)
	if !domain.IsSupportedInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported interval: " + interval,
			"supported_intervals": domain.SupportedIntervals,
		})
		return "", false
	}
	return interval, true
}

// GetKlines godoc
// @Summary      OHLCV candles
// @Tags         market
// @Produce      json
// @Param        symbol    path   string  true   "Asset symbol (e.g., BTC)"
// @Param        interval  query  string  false  "Candle interval (5m, 15m, 1h, 4h, 1d, 1w)"  default(1h)
// @Param        limit     query  int     false  "Number of candles (max 1000)"  default(100)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/klines/{symbol} [get]
func (h *Handler) GetKlines(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-klines")
	defer span.End()

	symbol := symbolParam(c)
	interval, ok := parseInterval(c, "1h")
	if !ok {
		return
	}
	limit := 100
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	candles, err := h.market.Klines(ctx, symbol, interval, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":   symbol,
		"interval": interval,
		"candles":  candles,
	})
}
