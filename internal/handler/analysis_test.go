package handler

import (
	"net/http"
	"testing"
	"time"

	"coinpulse/internal/domain"
	"coinpulse/internal/ta"
)

func risingCandles(n int, interval string) []domain.Candle {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, n)
	for i := range out {
		p := 100 + float64(i)
		out[i] = domain.Candle{Symbol: "BTCUSDT", Interval: interval, OpenTime: start.Add(time.Duration(i) * time.Hour), Close: p, Open: p - 0.5, High: p + 1, Low: p - 1}
	}
	return out
}

func TestGetAnalysis(t *testing.T) {
	m := &stubMarket{klines: map[string][]domain.Candle{
		"1d": risingCandles(60, "1d"),
		"4h": risingCandles(60, "4h"),
		"1h": risingCandles(60, "1h"),
		"5m": risingCandles(60, "5m"),
	}}
	r := newTestRouter(New(testTracer, m, stubAggregator{}, nil, nil))

	w := doRequest(r, http.MethodGet, "/api/analysis/btc?interval=5m", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode[struct {
		Symbol       string           `json:"symbol"`
		Interval     string           `json:"interval"`
		Indicators   []map[string]any `json:"indicators"`
		TripleScreen ta.TripleScreen  `json:"triple_screen"`
	}](t, w)
	if body.Symbol != "BTCUSDT" || body.Interval != "5m" {
		t.Fatalf("unexpected header fields %+v", body)
	}
	if len(body.Indicators) != 5 {
		t.Fatalf("expected MACD, RSI, BB, EMA20 and EMA50, got %d", len(body.Indicators))
	}
	if body.Indicators[0]["type"] != string(ta.KindMACD) {
		t.Fatalf("first indicator should be MACD, got %v", body.Indicators[0]["type"])
	}
	// a steady rise never pulls back on the 4h RSI
	if body.TripleScreen.Direction != domain.DirectionHold {
		t.Fatalf("expected hold, got %s", body.TripleScreen.Direction)
	}
}

func TestGetAnalysisInsufficientData(t *testing.T) {
	m := &stubMarket{klines: map[string][]domain.Candle{
		"1d": risingCandles(10, "1d"),
		"4h": risingCandles(60, "4h"),
		"1h": risingCandles(60, "1h"),
	}}
	r := newTestRouter(New(testTracer, m, stubAggregator{}, nil, nil))

	w := doRequest(r, http.MethodGet, "/api/analysis/btc", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetAnalysisBadInterval(t *testing.T) {
	r := newTestRouter(New(testTracer, &stubMarket{}, stubAggregator{}, nil, nil))
	if w := doRequest(r, http.MethodGet, "/api/analysis/btc?interval=2h", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
