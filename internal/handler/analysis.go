package handler

import (
	"net/http"

	"coinpulse/internal/domain"
	"coinpulse/internal/ta"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const analysisCandles = 200

// GetAnalysis godoc
// @Summary      Technical analysis
// @Description  MACD, RSI, Bollinger and EMA on the requested interval plus a triple-screen signal (1d/4h/1h)
// @Tags         analysis
// @Produce      json
// @Param        symbol    path   string  true   "Asset symbol (e.g., BTC)"
// @Param        interval  query  string  false  "Interval for the indicator set"  default(1h)
// @Success      200  {object}  map[string]interface{}
// @Failure      422  {object}  map[string]string
// @Router       /api/analysis/{symbol} [get]
func (h *Handler) GetAnalysis(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-analysis")
	defer span.End()

	symbol := symbolParam(c)
	interval, ok := parseInterval(c, ta.EntryInterval)
	if !ok {
		return
	}

	intervals := []string{ta.TrendInterval, ta.OscillatorInterval, ta.EntryInterval}
	if interval != ta.TrendInterval && interval != ta.OscillatorInterval && interval != ta.EntryInterval {
		intervals = append(intervals, interval)
	}
	series := make([][]domain.Candle, len(intervals))
	g, gctx := errgroup.WithContext(ctx)
	for i, iv := range intervals {
		g.Go(func() error {
			candles, err := h.market.Klines(gctx, symbol, iv, analysisCandles)
			series[i] = candles
			return err
		})
	}
	if err := g.Wait(); err != nil {
		respondError(c, err)
		return
	}
	byInterval := make(map[string][]domain.Candle, len(intervals))
	for i, iv := range intervals {
		byInterval[iv] = series[i]
	}

	indicators, err := ta.Compute(byInterval[interval])
	if err != nil {
		respondError(c, err)
		return
	}
	screen, err := ta.AnalyzeTripleScreen(symbol, byInterval[ta.TrendInterval], byInterval[ta.OscillatorInterval], byInterval[ta.EntryInterval])
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":        symbol,
		"interval":      interval,
		"indicators":    indicators,
		"triple_screen": screen,
	})
}
