package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"coinpulse/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

type fakeMarket struct {
	err        error
	lastSymbol string
}

func (f *fakeMarket) FearGreed(context.Context) (*domain.FearGreedIndex, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.FearGreedIndex{Value: 23, Classification: domain.SentimentExtremeFear}, nil
}

func (f *fakeMarket) Dominance(context.Context) (*domain.DominanceIndex, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.DominanceIndex{BTC: 54.3, ETH: 17.1, TotalMarketCapUSD: 2.5e12}, nil
}

func (f *fakeMarket) Spread(_ context.Context, symbol string) (*domain.SpreadQuote, error) {
	f.lastSymbol = symbol
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SpreadQuote{
		Symbol: "BTCUSDT",
		Quotes: []domain.Ticker{
			{Exchange: "binance", LastPrice: 64000, Change24hPct: 1.5},
			{Exchange: "bitget", LastPrice: 64010, Change24hPct: 1.6},
		},
		Spread:    10,
		SpreadPct: 0.0156,
	}, nil
}

func (f *fakeMarket) Derivatives(_ context.Context, symbol string) (*domain.Derivatives, error) {
	f.lastSymbol = symbol
	if f.err != nil {
		return nil, f.err
	}
	fr := domain.NewFundingRate("binance", "BTCUSDT", decimal.RequireFromString("0.0003"), time.Now())
	return &domain.Derivatives{
		Symbol:         "BTCUSDT",
		Funding:        []domain.FundingRate{fr},
		LongShortRatio: &domain.LongShortRatio{Ratio: 1.8},
	}, nil
}

type fakeStatus []domain.APIStatus

func (f fakeStatus) Statuses() []domain.APIStatus { return f }

func newTestBot(m MarketData) *Bot {
	status := fakeStatus{
		{Name: "Binance Spot", Status: domain.APIOnline, Latency: 42 * time.Millisecond},
		{Name: "Bitget", Status: domain.APIOffline, Error: "HTTP 503"},
		{Name: "CoinGlass", Status: domain.APIDisabled, Reason: "COINGLASS_API_KEY not configured"},
	}
	return New(trace.NewNoopTracerProvider().Tracer("test"), m, status, []string{"BTC", "ETH"})
}

func TestStartSkipsWithoutToken(t *testing.T) {
	newTestBot(&fakeMarket{}).Start("")
}

func TestReply(t *testing.T) {
	b := newTestBot(&fakeMarket{})
	ctx := context.Background()

	cases := []struct {
		command string
		args    []string
		want    []string
	}{
		{"/ping", nil, []string{"pong"}},
		{"/fng", nil, []string{"23", "Extreme Fear"}},
		{"/dominance", nil, []string{"BTC dominance: 54.30%", "ETH dominance: 17.10%"}},
		{"/price", []string{"btc"}, []string{"binance: $64000.00", "bitget: $64010.00", "Spread: $10.00"}},
		{"/funding", []string{"BTC"}, []string{"binance: 0.0300% (long_heavy)", "Long/short: 1.80"}},
		{"/status", nil, []string{"Binance Spot: online (42ms)", "Bitget: offline (HTTP 503)", "CoinGlass: disabled (COINGLASS_API_KEY not configured)"}},
	}
	for _, tc := range cases {
		got := b.Reply(ctx, tc.command, tc.args)
		for _, w := range tc.want {
			if !strings.Contains(got, w) {
				t.Errorf("%s: reply %q missing %q", tc.command, got, w)
			}
		}
	}
}

func TestReplySymbolValidation(t *testing.T) {
	m := &fakeMarket{}
	b := newTestBot(m)
	ctx := context.Background()

	if got := b.Reply(ctx, "/price", nil); !strings.HasPrefix(got, "Usage: /price BTC") {
		t.Fatalf("expected usage, got %q", got)
	}
	if got := b.Reply(ctx, "/funding", []string{"PEPE"}); !strings.HasPrefix(got, "Unknown symbol: PEPE") {
		t.Fatalf("expected unknown symbol, got %q", got)
	}
	b.Reply(ctx, "/price", []string{"ethusdt"})
	if m.lastSymbol != "ETH" {
		t.Fatalf("expected base symbol ETH, got %q", m.lastSymbol)
	}
}

func TestReplyErrors(t *testing.T) {
	b := newTestBot(&fakeMarket{err: errors.New("coingecko_global: timeout")})
	got := b.Reply(context.Background(), "/dominance", nil)
	if !strings.Contains(got, "Error fetching dominance") || !strings.Contains(got, "timeout") {
		t.Fatalf("unexpected error reply %q", got)
	}
}
