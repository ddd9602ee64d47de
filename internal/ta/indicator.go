package ta

import (
	"errors"
	"fmt"
	"math"

	"coinpulse/internal/domain"
)

var ErrInsufficientData = errors.New("not enough candles")

type Kind string

const (
	KindMACD      Kind = "macd"
	KindRSI       Kind = "rsi"
	KindBollinger Kind = "bollinger"
	KindEMA       Kind = "ema"
)

// Indicator is one computed indicator value. The set of implementations is
// closed; switch on the concrete type to read the payload.
type Indicator interface {
	Kind() Kind
	indicator()
}

type MACDResult struct {
	Type      Kind    `json:"type"`
	Fast      int     `json:"fast"`
	Slow      int     `json:"slow"`
	Signal    int     `json:"signal"`
	MACD      float64 `json:"macd"`
	SignalVal float64 `json:"signal_value"`
	Histogram float64 `json:"histogram"`
	// Crossover is "bullish" or "bearish" when the histogram changed sign
	// on the last candle.
	Crossover string `json:"crossover,omitempty"`
}

type RSIResult struct {
	Type   Kind    `json:"type"`
	Period int     `json:"period"`
	Value  float64 `json:"value"`
	Zone   string  `json:"zone"`
}

type BollingerResult struct {
	Type      Kind    `json:"type"`
	Period    int     `json:"period"`
	StdDevs   float64 `json:"std_devs"`
	Upper     float64 `json:"upper"`
	Middle    float64 `json:"middle"`
	Lower     float64 `json:"lower"`
	Bandwidth float64 `json:"bandwidth"`
	PercentB  float64 `json:"percent_b"`
}

type EMAResult struct {
	Type   Kind    `json:"type"`
	Period int     `json:"period"`
	Value  float64 `json:"value"`
}

func (MACDResult) Kind() Kind      { return KindMACD }
func (RSIResult) Kind() Kind       { return KindRSI }
func (BollingerResult) Kind() Kind { return KindBollinger }
func (EMAResult) Kind() Kind       { return KindEMA }

func (MACDResult) indicator()      {}
func (RSIResult) indicator()       {}
func (BollingerResult) indicator() {}
func (EMAResult) indicator()       {}

const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

func rsiZone(v float64) string {
	switch {
	case v >= RSIOverbought:
		return "overbought"
	case v <= RSIOversold:
		return "oversold"
	default:
		return "neutral"
	}
}

// MinCandles is the shortest series Compute accepts: MACD(12,26,9) needs
// two defined histogram points.
const MinCandles = 26 + 9

func NewMACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	line, sig, hist := MACD(closes, fast, slow, signal)
	cur, prev := last(hist)
	if math.IsNaN(cur) {
		return MACDResult{}, fmt.Errorf("macd(%d,%d,%d): %w", fast, slow, signal, ErrInsufficientData)
	}
	r := MACDResult{
		Type:      KindMACD,
		Fast:      fast,
		Slow:      slow,
		Signal:    signal,
		MACD:      line[len(line)-1],
		SignalVal: sig[len(sig)-1],
		Histogram: cur,
	}
	if !math.IsNaN(prev) {
		switch {
		case prev <= 0 && cur > 0:
			r.Crossover = "bullish"
		case prev >= 0 && cur < 0:
			r.Crossover = "bearish"
		}
	}
	return r, nil
}

func NewRSI(closes []float64, period int) (RSIResult, error) {
	v, _ := last(RSI(closes, period))
	if math.IsNaN(v) {
		return RSIResult{}, fmt.Errorf("rsi(%d): %w", period, ErrInsufficientData)
	}
	return RSIResult{Type: KindRSI, Period: period, Value: v, Zone: rsiZone(v)}, nil
}

func NewBollinger(closes []float64, period int, stdDevs float64) (BollingerResult, error) {
	mid, up, low := Bollinger(closes, period, stdDevs)
	m, _ := last(mid)
	if math.IsNaN(m) {
		return BollingerResult{}, fmt.Errorf("bollinger(%d): %w", period, ErrInsufficientData)
	}
	u, l := up[len(up)-1], low[len(low)-1]
	r := BollingerResult{
		Type:    KindBollinger,
		Period:  period,
		StdDevs: stdDevs,
		Upper:   u,
		Middle:  m,
		Lower:   l,
	}
	if m != 0 {
		r.Bandwidth = (u - l) / m
	}
	if u != l {
		r.PercentB = (closes[len(closes)-1] - l) / (u - l)
	}
	return r, nil
}

func NewEMA(closes []float64, period int) (EMAResult, error) {
	v, _ := last(EMA(closes, period))
	if math.IsNaN(v) {
		return EMAResult{}, fmt.Errorf("ema(%d): %w", period, ErrInsufficientData)
	}
	return EMAResult{Type: KindEMA, Period: period, Value: v}, nil
}

// Compute returns MACD(12,26,9), RSI(14), Bollinger(20,2) and EMA(20) for
// the candle series, plus EMA(50) when there is enough history.
func Compute(candles []domain.Candle) ([]Indicator, error) {
	if len(candles) < MinCandles {
		return nil, fmt.Errorf("%d candles, need %d: %w", len(candles), MinCandles, ErrInsufficientData)
	}
	closes := domain.Closes(candles)

	macd, err := NewMACD(closes, 12, 26, 9)
	if err != nil {
		return nil, err
	}
	rsi, err := NewRSI(closes, 14)
	if err != nil {
		return nil, err
	}
	bb, err := NewBollinger(closes, 20, 2)
	if err != nil {
		return nil, err
	}
	ema20, err := NewEMA(closes, 20)
	if err != nil {
		return nil, err
	}
	out := []Indicator{macd, rsi, bb, ema20}
	if ema50, err := NewEMA(closes, 50); err == nil {
		out = append(out, ema50)
	}
	return out, nil
}
