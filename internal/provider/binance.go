package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coinpulse/internal/domain"
	"coinpulse/internal/upstream"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

const (
	binanceSpotBaseURL    = "https://api.binance.com"
	binanceFuturesBaseURL = "https://fapi.binance.com"
)

// BinanceProvider reads public spot and USD-M futures market data.
type BinanceProvider struct {
	client         *upstream.Client
	spotBaseURL    string
	futuresBaseURL string
	tracer         trace.Tracer
}

func NewBinanceProvider(tracer trace.Tracer, client *upstream.Client) *BinanceProvider {
	if client == nil {
		client = upstream.NewClient()
	}
	return &BinanceProvider{
		client:         client,
		spotBaseURL:    binanceSpotBaseURL,
		futuresBaseURL: binanceFuturesBaseURL,
		tracer:         tracer,
	}
}

func (p *BinanceProvider) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-ticker")
	defer span.End()

	pair := domain.PairSymbol(symbol)
	u := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", p.spotBaseURL, url.QueryEscape(pair))

	var raw struct {
		Symbol             string `json:"symbol"`
		PriceChangePercent string `json:"priceChangePercent"`
		LastPrice          string `json:"lastPrice"`
		HighPrice          string `json:"highPrice"`
		LowPrice           string `json:"lowPrice"`
		Volume             string `json:"volume"`
		QuoteVolume        string `json:"quoteVolume"`
		CloseTime          int64  `json:"closeTime"`
	}
	if err := p.client.GetJSON(ctx, SourceBinanceTicker, u, nil, &raw); err != nil {
		return nil, err
	}
	if raw.LastPrice == "" {
		return nil, upstream.Malformed(SourceBinanceTicker, "lastPrice missing for %s", pair)
	}

	t := &domain.Ticker{Exchange: domain.ExchangeBinance, Symbol: pair}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"lastPrice", raw.LastPrice, &t.LastPrice},
		{"highPrice", raw.HighPrice, &t.High24h},
		{"lowPrice", raw.LowPrice, &t.Low24h},
		{"priceChangePercent", raw.PriceChangePercent, &t.Change24hPct},
		{"volume", raw.Volume, &t.Volume24h},
		{"quoteVolume", raw.QuoteVolume, &t.QuoteVolume24h},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		v, err := parseFloat(SourceBinanceTicker, f.name, f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	t.Timestamp = time.Now().UTC()
	if raw.CloseTime > 0 {
		t.Timestamp = unixMillis(raw.CloseTime)
	}
	return t, nil
}

// FetchKlines returns up to limit candles, oldest first.
func (p *BinanceProvider) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-klines")
	defer span.End()

	if limit <= 0 || limit > 1000 {
		limit = 500
	}
	pair := domain.PairSymbol(symbol)
	u := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		p.spotBaseURL, url.QueryEscape(pair), url.QueryEscape(interval), limit)

	// Each row: [openTime, "open", "high", "low", "close", "volume", closeTime, ...]
	var rows [][]json.RawMessage
	if err := p.client.GetJSON(ctx, SourceBinanceKlines, u, nil, &rows); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(rows))
	for i, row := range rows {
		c, err := parseKline(pair, interval, row)
		if err != nil {
			return nil, upstream.Malformed(SourceBinanceKlines, "row %d: %v", i, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseKline(pair, interval string, row []json.RawMessage) (domain.Candle, error) {
	if len(row) < 7 {
		return domain.Candle{}, fmt.Errorf("expected at least 7 fields, got %d", len(row))
	}
	var openMs, closeMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return domain.Candle{}, fmt.Errorf("open time: %w", err)
	}
	if err := json.Unmarshal(row[6], &closeMs); err != nil {
		return domain.Candle{}, fmt.Errorf("close time: %w", err)
	}
	var vals [5]float64
	for i := 0; i < 5; i++ {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return domain.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return domain.Candle{
		Symbol:    pair,
		Interval:  interval,
		OpenTime:  time.UnixMilli(openMs).UTC(),
		CloseTime: time.UnixMilli(closeMs).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

// FetchFundingRate reads the last funding rate from the premium index.
func (p *BinanceProvider) FetchFundingRate(ctx context.Context, symbol string) (*domain.FundingRate, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-funding-rate")
	defer span.End()

	pair := domain.PairSymbol(symbol)
	u := fmt.Sprintf("%s/fapi/v1/premiumIndex?symbol=%s", p.futuresBaseURL, url.QueryEscape(pair))

	var raw struct {
		Symbol          string `json:"symbol"`
		MarkPrice       string `json:"markPrice"`
		LastFundingRate string `json:"lastFundingRate"`
		NextFundingTime int64  `json:"nextFundingTime"`
		Time            int64  `json:"time"`
	}
	if err := p.client.GetJSON(ctx, SourceBinanceFunding, u, nil, &raw); err != nil {
		return nil, err
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(raw.LastFundingRate))
	if err != nil {
		return nil, upstream.Malformed(SourceBinanceFunding, "parse lastFundingRate %q: %v", raw.LastFundingRate, err)
	}

	ts := time.Now().UTC()
	if raw.Time > 0 {
		ts = unixMillis(raw.Time)
	}
	fr := domain.NewFundingRate(domain.ExchangeBinance, pair, rate, ts)
	if raw.MarkPrice != "" {
		mark, err := parseFloat(SourceBinanceFunding, "markPrice", raw.MarkPrice)
		if err != nil {
			return nil, err
		}
		fr.MarkPrice = mark
	}
	if raw.NextFundingTime > 0 {
		fr.NextFundingTime = unixMillis(raw.NextFundingTime)
	}
	return &fr, nil
}

func (p *BinanceProvider) FetchOpenInterest(ctx context.Context, symbol string) (*domain.OpenInterest, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-open-interest")
	defer span.End()

	pair := domain.PairSymbol(symbol)
	u := fmt.Sprintf("%s/fapi/v1/openInterest?symbol=%s", p.futuresBaseURL, url.QueryEscape(pair))

	var raw struct {
		OpenInterest string `json:"openInterest"`
		Symbol       string `json:"symbol"`
		Time         int64  `json:"time"`
	}
	if err := p.client.GetJSON(ctx, SourceBinanceOpenInterest, u, nil, &raw); err != nil {
		return nil, err
	}
	oi, err := parseFloat(SourceBinanceOpenInterest, "openInterest", raw.OpenInterest)
	if err != nil {
		return nil, err
	}
	ts := time.Now().UTC()
	if raw.Time > 0 {
		ts = unixMillis(raw.Time)
	}
	return &domain.OpenInterest{
		Exchange:     domain.ExchangeBinance,
		Symbol:       pair,
		OpenInterest: oi,
		Timestamp:    ts,
	}, nil
}

// FetchLongShortRatio reads the latest global account ratio for period (5m, 15m, 1h, 4h, 1d).
func (p *BinanceProvider) FetchLongShortRatio(ctx context.Context, symbol, period string) (*domain.LongShortRatio, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-long-short-ratio")
	defer span.End()

	if period == "" {
		period = "1h"
	}
	pair := domain.PairSymbol(symbol)
	u := fmt.Sprintf("%s/futures/data/globalLongShortAccountRatio?symbol=%s&period=%s&limit=1",
		p.futuresBaseURL, url.QueryEscape(pair), url.QueryEscape(period))

	var rows []struct {
		Symbol         string    `json:"symbol"`
		LongShortRatio string    `json:"longShortRatio"`
		LongAccount    string    `json:"longAccount"`
		ShortAccount   string    `json:"shortAccount"`
		Timestamp      flexInt64 `json:"timestamp"`
	}
	if err := p.client.GetJSON(ctx, SourceBinanceLongShort, u, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, upstream.Malformed(SourceBinanceLongShort, "no rows for %s", pair)
	}
	row := rows[len(rows)-1]

	ratio, err := parseFloat(SourceBinanceLongShort, "longShortRatio", row.LongShortRatio)
	if err != nil {
		return nil, err
	}
	long, err := parseFloat(SourceBinanceLongShort, "longAccount", row.LongAccount)
	if err != nil {
		return nil, err
	}
	short, err := parseFloat(SourceBinanceLongShort, "shortAccount", row.ShortAccount)
	if err != nil {
		return nil, err
	}
	return &domain.LongShortRatio{
		Exchange:     domain.ExchangeBinance,
		Symbol:       pair,
		Period:       period,
		Ratio:        ratio,
		LongAccount:  long,
		ShortAccount: short,
		Timestamp:    unixMillis(int64(row.Timestamp)),
	}, nil
}
