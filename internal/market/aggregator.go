package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coinpulse/internal/domain"
	"coinpulse/internal/metrics"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Policy decides how Snapshot treats a failed constituent.
type Policy string

const (
	// PolicyPartial returns whatever could be fetched. Failed constituents
	// are nil and their errors are listed; only a total failure is an error.
	PolicyPartial Policy = "partial"
	// PolicyStrict fails the snapshot when any constituent fails.
	PolicyStrict Policy = "strict"
)

var ErrSnapshotUnavailable = errors.New("market snapshot unavailable")

// ParsePolicy accepts "partial" or "strict", case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyPartial, "":
		return PolicyPartial, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("unknown aggregator policy %q", s)
}

type snapshotSource interface {
	FearGreed(ctx context.Context) (*domain.FearGreedIndex, error)
	Dominance(ctx context.Context) (*domain.DominanceIndex, error)
}

// Aggregator composes MarketIndicators from the cache-first constituents.
type Aggregator struct {
	src     snapshotSource
	policy  Policy
	tracer  trace.Tracer
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAggregator(tracer trace.Tracer, src snapshotSource, policy Policy, m *metrics.Metrics) *Aggregator {
	if policy == "" {
		policy = PolicyPartial
	}
	return &Aggregator{
		src:     src,
		policy:  policy,
		tracer:  tracer,
		metrics: m,
		now:     time.Now,
	}
}

func (a *Aggregator) Policy() Policy { return a.policy }

func (a *Aggregator) Snapshot(ctx context.Context) (*domain.MarketIndicators, error) {
	ctx, span := a.tracer.Start(ctx, "aggregator.snapshot")
	defer span.End()

	var (
		fg     *domain.FearGreedIndex
		dom    *domain.DominanceIndex
		fgErr  error
		domErr error
		g      errgroup.Group
	)

	g.Go(func() error {
		fg, fgErr = a.src.FearGreed(ctx)
		return nil
	})
	g.Go(func() error {
		dom, domErr = a.src.Dominance(ctx)
		return nil
	})
	_ = g.Wait()

	out := &domain.MarketIndicators{
		FearGreed:    fg,
		BTCDominance: dom,
		Timestamp:    a.now().UTC(),
	}
	for _, err := range []error{fgErr, domErr} {
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
		}
	}

	switch {
	case fgErr != nil && domErr != nil:
		a.metrics.Snapshot("failed")
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, errors.Join(fgErr, domErr))
	case a.policy == PolicyStrict && len(out.Errors) > 0:
		a.metrics.Snapshot("failed")
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, errors.Join(fgErr, domErr))
	case len(out.Errors) > 0:
		a.metrics.Snapshot("partial")
	default:
		a.metrics.Snapshot("complete")
	}
	return out, nil
}
