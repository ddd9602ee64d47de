package market

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"coinpulse/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Spread compares the last price of symbol across every supported exchange.
// SpreadPct is relative to the lowest quote. The CoinGecko index price is
// attached when available but never counts towards the spread.
func (s *Service) Spread(ctx context.Context, symbol string) (*domain.SpreadQuote, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.spread")
	defer span.End()

	pair := domain.PairSymbol(symbol)
	out := &domain.SpreadQuote{Symbol: pair, Timestamp: time.Now().UTC()}

	var mu sync.Mutex
	var errs []error
	var g errgroup.Group
	for _, ex := range domain.SupportedExchanges {
		ex := ex
		g.Go(func() error {
			t, err := s.Ticker(ctx, ex, pair)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Errors = append(out.Errors, err.Error())
				errs = append(errs, err)
				return nil
			}
			out.Quotes = append(out.Quotes, *t)
			return nil
		})
	}
	if s.src.IndexPrices != nil {
		g.Go(func() error {
			t, err := s.IndexPrice(ctx, pair)
			if err != nil {
				return nil
			}
			mu.Lock()
			out.Index = t
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(out.Errors)
	if len(out.Quotes) == 0 {
		return nil, fmt.Errorf("spread for %s unavailable: %w", pair, errors.Join(errs...))
	}
	computeSpread(out)
	return out, nil
}

func computeSpread(q *domain.SpreadQuote) {
	sort.Slice(q.Quotes, func(i, j int) bool { return q.Quotes[i].LastPrice < q.Quotes[j].LastPrice })
	low := q.Quotes[0]
	high := q.Quotes[len(q.Quotes)-1]
	q.Low = &low
	q.High = &high
	q.Spread = high.LastPrice - low.LastPrice
	if low.LastPrice > 0 {
		q.SpreadPct = q.Spread / low.LastPrice * 100
	}
}
