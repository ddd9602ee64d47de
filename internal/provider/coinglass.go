package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coinpulse/internal/domain"
	"coinpulse/internal/upstream"

	"go.opentelemetry.io/otel/trace"
)

const (
	coinglassBaseURL   = "https://open-api-v3.coinglass.com"
	coinglassKeyHeader = "CG-API-KEY"
	coinglassAll       = "All"
)

// ErrDisabled is returned by integrations that need a key nobody configured.
var ErrDisabled = errors.New("integration disabled: API key not configured")

// CoinGlassProvider reads aggregated derivatives data. It needs an API key
// and is disabled without one.
type CoinGlassProvider struct {
	client  *upstream.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
}

func NewCoinGlassProvider(tracer trace.Tracer, client *upstream.Client, apiKey string) *CoinGlassProvider {
	if client == nil {
		client = upstream.NewClient()
	}
	return &CoinGlassProvider{
		client:  client,
		baseURL: coinglassBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		tracer:  tracer,
	}
}

func (p *CoinGlassProvider) Enabled() bool { return p != nil && p.apiKey != "" }

// FetchAggregatedOpenInterest returns the open interest summed over all exchanges, in USD.
func (p *CoinGlassProvider) FetchAggregatedOpenInterest(ctx context.Context, symbol string) (*domain.OpenInterest, error) {
	if !p.Enabled() {
		return nil, ErrDisabled
	}
	ctx, span := p.tracer.Start(ctx, "coinglass.fetch-open-interest")
	defer span.End()

	base := domain.BaseSymbol(symbol)
	u := fmt.Sprintf("%s/api/futures/openInterest/exchange-list?symbol=%s", p.baseURL, url.QueryEscape(base))
	header := http.Header{}
	header.Set(coinglassKeyHeader, p.apiKey)

	var payload struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			Exchange     string  `json:"exchange"`
			OpenInterest float64 `json:"openInterest"`
		} `json:"data"`
	}
	if err := p.client.GetJSON(ctx, SourceCoinGlassOI, u, header, &payload); err != nil {
		return nil, err
	}
	if payload.Code != "0" {
		return nil, &upstream.FetchError{Source: SourceCoinGlassOI, Kind: upstream.KindUpstream, Err: fmt.Errorf("coinglass code %s: %s", payload.Code, payload.Msg)}
	}

	for _, row := range payload.Data {
		if strings.EqualFold(row.Exchange, coinglassAll) {
			return &domain.OpenInterest{
				Exchange:  "all",
				Symbol:    domain.PairSymbol(base),
				ValueUSD:  row.OpenInterest,
				Timestamp: time.Now().UTC(),
			}, nil
		}
	}
	return nil, upstream.Malformed(SourceCoinGlassOI, "no aggregate row for %s", base)
}
