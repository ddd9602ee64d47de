package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"coinpulse/internal/domain"
	"coinpulse/internal/upstream"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

const (
	bitgetBaseURL     = "https://api.bitget.com"
	bitgetSuccessCode = "00000"
	bitgetProductType = "USDT-FUTURES"
)

// BitgetProvider reads Bitget v2 public spot tickers and futures funding.
type BitgetProvider struct {
	client  *upstream.Client
	baseURL string
	tracer  trace.Tracer
}

func NewBitgetProvider(tracer trace.Tracer, client *upstream.Client) *BitgetProvider {
	if client == nil {
		client = upstream.NewClient()
	}
	return &BitgetProvider{client: client, baseURL: bitgetBaseURL, tracer: tracer}
}

// BitgetTicker is the ticker row shared by the REST API and the public WebSocket.
type BitgetTicker struct {
	Symbol      string    `json:"symbol"`
	InstID      string    `json:"instId"`
	LastPr      string    `json:"lastPr"`
	High24h     string    `json:"high24h"`
	Low24h      string    `json:"low24h"`
	Change24h   string    `json:"change24h"`
	BaseVolume  string    `json:"baseVolume"`
	QuoteVolume string    `json:"quoteVolume"`
	Ts          flexInt64 `json:"ts"`
}

// Normalize converts the row into a domain ticker. Bitget reports the
// 24h change as a fraction; it is converted to percent.
func (r BitgetTicker) Normalize(source string) (*domain.Ticker, error) {
	sym := r.Symbol
	if sym == "" {
		sym = r.InstID
	}
	if r.LastPr == "" {
		return nil, upstream.Malformed(source, "lastPr missing for %s", sym)
	}
	t := &domain.Ticker{Exchange: domain.ExchangeBitget, Symbol: strings.ToUpper(sym)}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"lastPr", r.LastPr, &t.LastPrice},
		{"high24h", r.High24h, &t.High24h},
		{"low24h", r.Low24h, &t.Low24h},
		{"change24h", r.Change24h, &t.Change24hPct},
		{"baseVolume", r.BaseVolume, &t.Volume24h},
		{"quoteVolume", r.QuoteVolume, &t.QuoteVolume24h},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		v, err := parseFloat(source, f.name, f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	t.Change24hPct *= 100
	t.Timestamp = time.Now().UTC()
	if r.Ts > 0 {
		t.Timestamp = unixMillis(int64(r.Ts))
	}
	return t, nil
}

type bitgetEnvelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

func (e bitgetEnvelope[T]) check(source string) error {
	if e.Code != bitgetSuccessCode {
		return &upstream.FetchError{Source: source, Kind: upstream.KindUpstream, Err: fmt.Errorf("bitget code %s: %s", e.Code, e.Msg)}
	}
	if len(e.Data) == 0 {
		return upstream.Malformed(source, "response has no data rows")
	}
	return nil
}

func (p *BitgetProvider) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	ctx, span := p.tracer.Start(ctx, "bitget.fetch-ticker")
	defer span.End()

	pair := domain.PairSymbol(symbol)
	u := fmt.Sprintf("%s/api/v2/spot/market/tickers?symbol=%s", p.baseURL, url.QueryEscape(pair))

	var env bitgetEnvelope[BitgetTicker]
	if err := p.client.GetJSON(ctx, SourceBitgetTicker, u, nil, &env); err != nil {
		return nil, err
	}
	if err := env.check(SourceBitgetTicker); err != nil {
		return nil, err
	}
	return env.Data[0].Normalize(SourceBitgetTicker)
}

func (p *BitgetProvider) FetchFundingRate(ctx context.Context, symbol string) (*domain.FundingRate, error) {
	ctx, span := p.tracer.Start(ctx, "bitget.fetch-funding-rate")
	defer span.End()

	pair := domain.PairSymbol(symbol)
	u := fmt.Sprintf("%s/api/v2/mix/market/current-fund-rate?symbol=%s&productType=%s",
		p.baseURL, url.QueryEscape(pair), bitgetProductType)

	var env bitgetEnvelope[struct {
		Symbol      string `json:"symbol"`
		FundingRate string `json:"fundingRate"`
	}]
	if err := p.client.GetJSON(ctx, SourceBitgetFunding, u, nil, &env); err != nil {
		return nil, err
	}
	if err := env.check(SourceBitgetFunding); err != nil {
		return nil, err
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(env.Data[0].FundingRate))
	if err != nil {
		return nil, upstream.Malformed(SourceBitgetFunding, "parse fundingRate %q: %v", env.Data[0].FundingRate, err)
	}
	fr := domain.NewFundingRate(domain.ExchangeBitget, pair, rate, time.Now().UTC())
	return &fr, nil
}
