package job

import (
	"context"
	"log"
	"time"

	"coinpulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type Snapshotter interface {
	Snapshot(ctx context.Context) (*domain.MarketIndicators, error)
}

type DerivativesFetcher interface {
	Derivatives(ctx context.Context, symbol string) (*domain.Derivatives, error)
}

// SnapshotStore persists poller output. A nil store disables history.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, s *domain.MarketIndicators) error
	InsertFundingRates(ctx context.Context, rates []domain.FundingRate) error
}

// SnapshotPoller keeps the indicator caches warm and records history.
type SnapshotPoller struct {
	tracer       trace.Tracer
	aggregator   Snapshotter
	derivatives  DerivativesFetcher
	store        SnapshotStore
	symbols      []string
	pollInterval time.Duration
	fundingDelay time.Duration
}

func NewSnapshotPoller(tracer trace.Tracer, aggregator Snapshotter, derivatives DerivativesFetcher, store SnapshotStore, symbols []string, pollIntervalSecs int) *SnapshotPoller {
	if pollIntervalSecs <= 0 {
		pollIntervalSecs = 60
	}
	return &SnapshotPoller{
		tracer:       tracer,
		aggregator:   aggregator,
		derivatives:  derivatives,
		store:        store,
		symbols:      symbols,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
		fundingDelay: 10 * time.Second,
	}
}

// Start launches the polling goroutines and blocks until ctx is cancelled.
func (p *SnapshotPoller) Start(ctx context.Context) {
	log.Println("Snapshot poller starting...")

	go p.pollLoop(ctx, "market-snapshot", 0, p.pollInterval, p.takeSnapshot)

	// One symbol per tick, offset from the snapshot to spread upstream load.
	if p.derivatives != nil && len(p.symbols) > 0 {
		idx := 0
		go p.pollLoop(ctx, "funding", p.fundingDelay, p.pollInterval, func(ctx context.Context) error {
			symbol := p.symbols[idx%len(p.symbols)]
			idx++
			return p.recordFunding(ctx, symbol)
		})
	}

	<-ctx.Done()
	log.Println("Snapshot poller stopped")
}

func (p *SnapshotPoller) pollLoop(ctx context.Context, name string, delay, interval time.Duration, fn func(context.Context) error) {
	if delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	if err := fn(ctx); err != nil {
		log.Printf("poller %s initial run error: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Printf("poller %s error: %v", name, err)
			}
		}
	}
}

func (p *SnapshotPoller) takeSnapshot(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "snapshot-poller.take-snapshot")
	defer span.End()

	snap, err := p.aggregator.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(snap.Errors) > 0 {
		log.Printf("partial snapshot: %v", snap.Errors)
	}
	if p.store == nil {
		return nil
	}
	return p.store.InsertSnapshot(ctx, snap)
}

func (p *SnapshotPoller) recordFunding(ctx context.Context, symbol string) error {
	ctx, span := p.tracer.Start(ctx, "snapshot-poller.record-funding")
	defer span.End()

	d, err := p.derivatives.Derivatives(ctx, symbol)
	if err != nil {
		return err
	}
	if p.store == nil {
		return nil
	}
	return p.store.InsertFundingRates(ctx, d.Funding)
}
