package ta

import (
	"errors"
	"testing"

	"coinpulse/internal/domain"
)

func TestTripleScreenLong(t *testing.T) {
	daily := candlesFrom(geometric(200, 100, 1.02))
	fourHour := candlesFrom(linear(30, 200, -1))
	hourly := candlesFrom(linear(30, 100, 1))

	r, err := AnalyzeTripleScreen("btc", daily, fourHour, hourly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Trend != TrendUp {
		t.Fatalf("expected up trend, got %s", r.Trend)
	}
	if r.Direction != domain.DirectionLong {
		t.Fatalf("expected long, got %s (%v)", r.Direction, r.Reasons)
	}
	if r.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected symbol %s", r.Symbol)
	}
}

func TestTripleScreenShort(t *testing.T) {
	daily := candlesFrom(geometric(200, 1000, 0.98))
	fourHour := candlesFrom(linear(30, 100, 1))
	hourly := candlesFrom(linear(30, 200, -1))

	r, err := AnalyzeTripleScreen("ETH", daily, fourHour, hourly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Trend != TrendDown {
		t.Fatalf("expected down trend, got %s", r.Trend)
	}
	if r.Direction != domain.DirectionShort {
		t.Fatalf("expected short, got %s (%v)", r.Direction, r.Reasons)
	}
}

func TestTripleScreenHoldsWithoutPullback(t *testing.T) {
	daily := candlesFrom(geometric(200, 100, 1.02))
	fourHour := candlesFrom(linear(30, 100, 1))
	hourly := candlesFrom(linear(30, 100, 1))

	r, err := AnalyzeTripleScreen("SOL", daily, fourHour, hourly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Direction != domain.DirectionHold {
		t.Fatalf("expected hold, got %s", r.Direction)
	}
}

func TestTripleScreenInsufficientData(t *testing.T) {
	_, err := AnalyzeTripleScreen("BTC", candlesFrom(linear(10, 1, 1)), nil, nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}
