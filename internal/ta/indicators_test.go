package ta

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"coinpulse/internal/domain"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func geometric(n int, start, ratio float64) []float64 {
	out := make([]float64, n)
	v := start
	for i := range out {
		out[i] = v
		v *= ratio
	}
	return out
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func candlesFrom(closes []float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{Symbol: "BTCUSDT", Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func TestEMASeededWithSMA(t *testing.T) {
	got := EMA([]float64{1, 2, 3, 4, 5}, 3)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("expected NaN before the seed, got %v", got[:2])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !almostEqual(got[i+2], w) {
			t.Fatalf("ema[%d] = %v, want %v", i+2, got[i+2], w)
		}
	}
}

func TestEMAShortSeries(t *testing.T) {
	for _, v := range EMA([]float64{1, 2}, 3) {
		if !math.IsNaN(v) {
			t.Fatalf("expected all NaN, got %v", v)
		}
	}
}

func TestRSIExtremes(t *testing.T) {
	if v, _ := last(RSI(linear(30, 1, 1), 14)); v != 100 {
		t.Fatalf("rising series RSI = %v, want 100", v)
	}
	if v, _ := last(RSI(linear(30, 100, -1), 14)); v != 0 {
		t.Fatalf("falling series RSI = %v, want 0", v)
	}
	if v, _ := last(RSI(linear(30, 5, 0), 14)); v != 50 {
		t.Fatalf("flat series RSI = %v, want 50", v)
	}
}

func TestRSIFirstValueAtPeriod(t *testing.T) {
	s := RSI(linear(20, 1, 1), 14)
	if !math.IsNaN(s[13]) || math.IsNaN(s[14]) {
		t.Fatalf("expected first RSI at index 14, got %v / %v", s[13], s[14])
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	r, err := NewBollinger(linear(25, 10, 0), 20, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Upper != 10 || r.Middle != 10 || r.Lower != 10 || r.Bandwidth != 0 || r.PercentB != 0 {
		t.Fatalf("unexpected flat bands %+v", r)
	}
}

func TestMACDFlatSeries(t *testing.T) {
	r, err := NewMACD(linear(40, 50, 0), 12, 26, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.MACD != 0 || r.Histogram != 0 || r.Crossover != "" {
		t.Fatalf("expected zero MACD on flat series, got %+v", r)
	}
}

func TestComputeNeedsHistory(t *testing.T) {
	_, err := Compute(candlesFrom(linear(MinCandles-1, 1, 1)))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestComputeIndicators(t *testing.T) {
	out, err := Compute(candlesFrom(geometric(60, 100, 1.01)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kinds := []Kind{KindMACD, KindRSI, KindBollinger, KindEMA, KindEMA}
	if len(out) != len(kinds) {
		t.Fatalf("expected %d indicators, got %d", len(kinds), len(out))
	}
	for i, ind := range out {
		if ind.Kind() != kinds[i] {
			t.Fatalf("indicator %d kind %s, want %s", i, ind.Kind(), kinds[i])
		}
	}

	for _, ind := range out {
		switch v := ind.(type) {
		case MACDResult:
			if v.MACD <= 0 {
				t.Fatalf("rising series should have positive MACD, got %v", v.MACD)
			}
		case RSIResult:
			if v.Zone != "overbought" {
				t.Fatalf("steady rise should be overbought, got %s (%v)", v.Zone, v.Value)
			}
		case EMAResult:
			if v.Period != 20 && v.Period != 50 {
				t.Fatalf("unexpected EMA period %d", v.Period)
			}
		}
	}

	b, err := json.Marshal(out[1])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var tagged struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(b, &tagged); err != nil || tagged.Type != KindRSI {
		t.Fatalf("expected type tag rsi, got %s (%v)", b, err)
	}
}

func TestComputeSkipsEMA50WithoutHistory(t *testing.T) {
	out, err := Compute(candlesFrom(geometric(40, 100, 1.01)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 indicators, got %d", len(out))
	}
}
