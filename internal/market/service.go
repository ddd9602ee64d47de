package market

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"coinpulse/internal/cache"
	"coinpulse/internal/domain"
	"coinpulse/internal/metrics"
	"coinpulse/internal/provider"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnsupportedExchange = errors.New("unsupported exchange")
	ErrNotConfigured       = errors.New("source not configured")
)

type FearGreedSource interface {
	FetchLatest(ctx context.Context) (*domain.FearGreedIndex, error)
}

type DominanceSource interface {
	FetchDominance(ctx context.Context) (*domain.DominanceIndex, error)
}

type TickerSource interface {
	FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error)
}

type FundingSource interface {
	FetchFundingRate(ctx context.Context, symbol string) (*domain.FundingRate, error)
}

type KlineSource interface {
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
}

type FuturesSource interface {
	FetchOpenInterest(ctx context.Context, symbol string) (*domain.OpenInterest, error)
	FetchLongShortRatio(ctx context.Context, symbol, period string) (*domain.LongShortRatio, error)
}

type AggregateSource interface {
	Enabled() bool
	FetchAggregatedOpenInterest(ctx context.Context, symbol string) (*domain.OpenInterest, error)
}

type IndexPriceSource interface {
	FetchPrices(ctx context.Context, symbols []string) (map[string]domain.Ticker, error)
}

// Sources are the upstream clients the service reads from. Nil sources
// make the matching methods return ErrNotConfigured.
type Sources struct {
	FearGreed   FearGreedSource
	Dominance   DominanceSource
	Tickers     map[string]TickerSource
	Funding     map[string]FundingSource
	Klines      KlineSource
	Futures     FuturesSource
	Aggregate   AggregateSource
	IndexPrices IndexPriceSource
}

type Options struct {
	TTL      time.Duration
	Coalesce bool
	// Redis backs every cache when set; otherwise caches are in-memory.
	Redis   cache.RedisClient
	Metrics *metrics.Metrics
}

// Service exposes each upstream record through a cache-first fetcher.
type Service struct {
	tracer trace.Tracer
	src    Sources

	fearGreed   *Fetcher[*domain.FearGreedIndex]
	dominance   *Fetcher[*domain.DominanceIndex]
	tickerStore cache.Store[*domain.Ticker]
	tickers     map[string]*Fetcher[*domain.Ticker]
	funding     map[string]*Fetcher[*domain.FundingRate]
	klines      *Fetcher[[]domain.Candle]
	openInt     *Fetcher[*domain.OpenInterest]
	longShort   *Fetcher[*domain.LongShortRatio]
	aggregate   *Fetcher[*domain.OpenInterest]
	indexPrices *Fetcher[*domain.Ticker]
}

const redisPrefix = "coinpulse:"

func NewService(tracer trace.Tracer, src Sources, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = cache.DefaultTTL
	}
	m := opts.Metrics
	s := &Service{
		tracer:      tracer,
		src:         src,
		tickerStore: cache.New[*domain.Ticker](opts.Redis, redisPrefix, opts.TTL),
		tickers:     make(map[string]*Fetcher[*domain.Ticker]),
		funding:     make(map[string]*Fetcher[*domain.FundingRate]),
	}
	s.fearGreed = NewFetcher(provider.SourceFearGreed, cache.New[*domain.FearGreedIndex](opts.Redis, redisPrefix, opts.TTL), opts.Coalesce, m)
	s.dominance = NewFetcher(provider.SourceDominance, cache.New[*domain.DominanceIndex](opts.Redis, redisPrefix, opts.TTL), opts.Coalesce, m)
	s.klines = NewFetcher(provider.SourceBinanceKlines, cache.New[[]domain.Candle](opts.Redis, redisPrefix, opts.TTL), opts.Coalesce, m)
	s.openInt = NewFetcher(provider.SourceBinanceOpenInterest, cache.New[*domain.OpenInterest](opts.Redis, redisPrefix, opts.TTL), opts.Coalesce, m)
	s.longShort = NewFetcher(provider.SourceBinanceLongShort, cache.New[*domain.LongShortRatio](opts.Redis, redisPrefix, opts.TTL), opts.Coalesce, m)
	s.aggregate = NewFetcher(provider.SourceCoinGlassOI, cache.New[*domain.OpenInterest](opts.Redis, redisPrefix, opts.TTL), opts.Coalesce, m)
	s.indexPrices = NewFetcher(provider.SourcePrices, cache.New[*domain.Ticker](opts.Redis, redisPrefix, opts.TTL), opts.Coalesce, m)

	fundingStore := cache.New[*domain.FundingRate](opts.Redis, redisPrefix, opts.TTL)
	for _, ex := range domain.SupportedExchanges {
		s.tickers[ex] = NewFetcher(ex+"_ticker", s.tickerStore, opts.Coalesce, m)
		s.funding[ex] = NewFetcher(ex+"_funding", fundingStore, opts.Coalesce, m)
	}
	return s
}

// TickerKey is the cache key under which both REST and stream tickers live.
func TickerKey(exchange, symbol string) string {
	return "ticker:" + exchange + ":" + domain.PairSymbol(symbol)
}

// TickerStore is shared with the WebSocket stream so pushed tickers
// satisfy REST reads while fresh.
func (s *Service) TickerStore() cache.Store[*domain.Ticker] { return s.tickerStore }

func (s *Service) FearGreed(ctx context.Context) (*domain.FearGreedIndex, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.fear-greed")
	defer span.End()

	if s.src.FearGreed == nil {
		return nil, fmt.Errorf("%s: %w", provider.SourceFearGreed, ErrNotConfigured)
	}
	return s.fearGreed.Fetch(ctx, s.fearGreed.Key(), s.src.FearGreed.FetchLatest)
}

func (s *Service) Dominance(ctx context.Context) (*domain.DominanceIndex, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.dominance")
	defer span.End()

	if s.src.Dominance == nil {
		return nil, fmt.Errorf("%s: %w", provider.SourceDominance, ErrNotConfigured)
	}
	return s.dominance.Fetch(ctx, s.dominance.Key(), s.src.Dominance.FetchDominance)
}

func (s *Service) Ticker(ctx context.Context, exchange, symbol string) (*domain.Ticker, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.ticker")
	defer span.End()
	span.SetAttributes(attribute.String("exchange", exchange), attribute.String("symbol", symbol))

	f, ok := s.tickers[exchange]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, exchange)
	}
	src, ok := s.src.Tickers[exchange]
	if !ok || src == nil {
		return nil, fmt.Errorf("%s ticker: %w", exchange, ErrNotConfigured)
	}
	pair := domain.PairSymbol(symbol)
	return f.Fetch(ctx, TickerKey(exchange, pair), func(ctx context.Context) (*domain.Ticker, error) {
		return src.FetchTicker(ctx, pair)
	})
}

func (s *Service) Klines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.klines")
	defer span.End()

	if s.src.Klines == nil {
		return nil, fmt.Errorf("%s: %w", provider.SourceBinanceKlines, ErrNotConfigured)
	}
	pair := domain.PairSymbol(symbol)
	key := s.klines.Key(pair, interval, strconv.Itoa(limit))
	return s.klines.Fetch(ctx, key, func(ctx context.Context) ([]domain.Candle, error) {
		return s.src.Klines.FetchKlines(ctx, pair, interval, limit)
	})
}

func (s *Service) FundingRate(ctx context.Context, exchange, symbol string) (*domain.FundingRate, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.funding-rate")
	defer span.End()

	f, ok := s.funding[exchange]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, exchange)
	}
	src, ok := s.src.Funding[exchange]
	if !ok || src == nil {
		return nil, fmt.Errorf("%s funding: %w", exchange, ErrNotConfigured)
	}
	pair := domain.PairSymbol(symbol)
	return f.Fetch(ctx, f.Key(pair), func(ctx context.Context) (*domain.FundingRate, error) {
		return src.FetchFundingRate(ctx, pair)
	})
}

func (s *Service) OpenInterest(ctx context.Context, symbol string) (*domain.OpenInterest, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.open-interest")
	defer span.End()

	if s.src.Futures == nil {
		return nil, fmt.Errorf("%s: %w", provider.SourceBinanceOpenInterest, ErrNotConfigured)
	}
	pair := domain.PairSymbol(symbol)
	return s.openInt.Fetch(ctx, s.openInt.Key(pair), func(ctx context.Context) (*domain.OpenInterest, error) {
		return s.src.Futures.FetchOpenInterest(ctx, pair)
	})
}

func (s *Service) LongShortRatio(ctx context.Context, symbol, period string) (*domain.LongShortRatio, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.long-short-ratio")
	defer span.End()

	if s.src.Futures == nil {
		return nil, fmt.Errorf("%s: %w", provider.SourceBinanceLongShort, ErrNotConfigured)
	}
	if period == "" {
		period = "1h"
	}
	pair := domain.PairSymbol(symbol)
	return s.longShort.Fetch(ctx, s.longShort.Key(pair, period), func(ctx context.Context) (*domain.LongShortRatio, error) {
		return s.src.Futures.FetchLongShortRatio(ctx, pair, period)
	})
}

// AggregatedOpenInterest returns provider.ErrDisabled when no API key is set.
func (s *Service) AggregatedOpenInterest(ctx context.Context, symbol string) (*domain.OpenInterest, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.aggregated-open-interest")
	defer span.End()

	if s.src.Aggregate == nil || !s.src.Aggregate.Enabled() {
		return nil, provider.ErrDisabled
	}
	pair := domain.PairSymbol(symbol)
	return s.aggregate.Fetch(ctx, s.aggregate.Key(pair), func(ctx context.Context) (*domain.OpenInterest, error) {
		return s.src.Aggregate.FetchAggregatedOpenInterest(ctx, pair)
	})
}

// IndexPrice returns the CoinGecko USD index price as a ticker.
func (s *Service) IndexPrice(ctx context.Context, symbol string) (*domain.Ticker, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.index-price")
	defer span.End()

	if s.src.IndexPrices == nil {
		return nil, fmt.Errorf("%s: %w", provider.SourcePrices, ErrNotConfigured)
	}
	base := domain.BaseSymbol(symbol)
	return s.indexPrices.Fetch(ctx, s.indexPrices.Key(base), func(ctx context.Context) (*domain.Ticker, error) {
		prices, err := s.src.IndexPrices.FetchPrices(ctx, []string{base})
		if err != nil {
			return nil, err
		}
		t, ok := prices[base]
		if !ok {
			return nil, fmt.Errorf("no index price for %s", base)
		}
		return &t, nil
	})
}

// Derivatives gathers funding from every exchange, Binance open interest and
// long/short ratio, and the CoinGlass aggregate when enabled. Individual failures are listed in Errors; the call
// fails only when nothing could be fetched.
func (s *Service) Derivatives(ctx context.Context, symbol string) (*domain.Derivatives, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.derivatives")
	defer span.End()

	pair := domain.PairSymbol(symbol)
	out := &domain.Derivatives{Symbol: pair, Timestamp: time.Now().UTC()}

	var mu sync.Mutex
	var errs []error
	fail := func(err error) {
		mu.Lock()
		out.Errors = append(out.Errors, err.Error())
		errs = append(errs, err)
		mu.Unlock()
	}

	var g errgroup.Group
	for _, ex := range domain.SupportedExchanges {
		ex := ex
		g.Go(func() error {
			fr, err := s.FundingRate(ctx, ex, pair)
			if err != nil {
				fail(err)
				return nil
			}
			mu.Lock()
			out.Funding = append(out.Funding, *fr)
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		oi, err := s.OpenInterest(ctx, pair)
		if err != nil {
			fail(err)
			return nil
		}
		mu.Lock()
		out.OpenInterest = oi
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		ls, err := s.LongShortRatio(ctx, pair, "")
		if err != nil {
			fail(err)
			return nil
		}
		mu.Lock()
		out.LongShortRatio = ls
		mu.Unlock()
		return nil
	})
	if s.src.Aggregate != nil && s.src.Aggregate.Enabled() {
		g.Go(func() error {
			agg, err := s.AggregatedOpenInterest(ctx, pair)
			if err != nil {
				fail(err)
				return nil
			}
			mu.Lock()
			out.Aggregated = agg
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(out.Funding, func(i, j int) bool { return out.Funding[i].Exchange < out.Funding[j].Exchange })
	sort.Strings(out.Errors)
	if len(out.Funding) == 0 && out.OpenInterest == nil && out.LongShortRatio == nil {
		return nil, fmt.Errorf("derivatives for %s unavailable: %w", pair, errors.Join(errs...))
	}
	return out, nil
}
