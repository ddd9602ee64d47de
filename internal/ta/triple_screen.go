package ta

import (
	"fmt"
	"math"

	"coinpulse/internal/domain"
)

// Timeframes used by each screen.
const (
	TrendInterval      = "1d"
	OscillatorInterval = "4h"
	EntryInterval      = "1h"
)

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// TripleScreen is the outcome of the three-timeframe analysis.
type TripleScreen struct {
	Symbol     string                 `json:"symbol"`
	Trend      Trend                  `json:"trend"`
	TrendMACD  MACDResult             `json:"trend_macd"`
	Oscillator RSIResult              `json:"oscillator"`
	EntryEMA   EMAResult              `json:"entry_ema"`
	EntryPrice float64                `json:"entry_price"`
	Direction  domain.SignalDirection `json:"direction"`
	Reasons    []string               `json:"reasons"`
}

// RSI bounds for a pullback against the prevailing trend.
const (
	pullbackBuyBelow  = 45.0
	pullbackSellAbove = 55.0
)

// AnalyzeTripleScreen reads the tide from the daily MACD histogram slope,
// looks for a counter-trend RSI pullback on 4h and confirms entry when the
// last 1h close is on the trend side of its 13-period EMA. Anything short of
// all three agreeing is a hold.
func AnalyzeTripleScreen(symbol string, daily, fourHour, hourly []domain.Candle) (*TripleScreen, error) {
	trendMACD, err := NewMACD(domain.Closes(daily), 12, 26, 9)
	if err != nil {
		return nil, fmt.Errorf("trend screen: %w", err)
	}
	_, _, hist := MACD(domain.Closes(daily), 12, 26, 9)
	cur, prev := last(hist)

	osc, err := NewRSI(domain.Closes(fourHour), 14)
	if err != nil {
		return nil, fmt.Errorf("oscillator screen: %w", err)
	}

	entryCloses := domain.Closes(hourly)
	entryEMA, err := NewEMA(entryCloses, 13)
	if err != nil {
		return nil, fmt.Errorf("entry screen: %w", err)
	}
	price := entryCloses[len(entryCloses)-1]

	r := &TripleScreen{
		Symbol:     domain.PairSymbol(symbol),
		Trend:      TrendFlat,
		TrendMACD:  trendMACD,
		Oscillator: osc,
		EntryEMA:   entryEMA,
		EntryPrice: price,
		Direction:  domain.DirectionHold,
	}
	if !math.IsNaN(prev) {
		switch {
		case cur > prev:
			r.Trend = TrendUp
		case cur < prev:
			r.Trend = TrendDown
		}
	}
	r.Reasons = append(r.Reasons, fmt.Sprintf("daily MACD histogram %.4f -> %.4f: trend %s", prev, cur, r.Trend))

	switch r.Trend {
	case TrendUp:
		if osc.Value >= pullbackBuyBelow {
			r.Reasons = append(r.Reasons, fmt.Sprintf("4h RSI %.1f shows no pullback", osc.Value))
			return r, nil
		}
		r.Reasons = append(r.Reasons, fmt.Sprintf("4h RSI %.1f pullback in uptrend", osc.Value))
		if price <= entryEMA.Value {
			r.Reasons = append(r.Reasons, "1h close below EMA13, waiting for entry")
			return r, nil
		}
		r.Reasons = append(r.Reasons, "1h close above EMA13")
		r.Direction = domain.DirectionLong
	case TrendDown:
		if osc.Value <= pullbackSellAbove {
			r.Reasons = append(r.Reasons, fmt.Sprintf("4h RSI %.1f shows no rally", osc.Value))
			return r, nil
		}
		r.Reasons = append(r.Reasons, fmt.Sprintf("4h RSI %.1f rally in downtrend", osc.Value))
		if price >= entryEMA.Value {
			r.Reasons = append(r.Reasons, "1h close above EMA13, waiting for entry")
			return r, nil
		}
		r.Reasons = append(r.Reasons, "1h close below EMA13")
		r.Direction = domain.DirectionShort
	}
	return r, nil
}
