package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coinpulse/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubAggregator struct {
	mu    sync.Mutex
	calls int
	snap  *domain.MarketIndicators
	err   error
}

func (s *stubAggregator) Snapshot(context.Context) (*domain.MarketIndicators, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.snap, s.err
}

func (s *stubAggregator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubDerivatives struct {
	mu      sync.Mutex
	symbols []string
}

func (s *stubDerivatives) Derivatives(_ context.Context, symbol string) (*domain.Derivatives, error) {
	s.mu.Lock()
	s.symbols = append(s.symbols, symbol)
	s.mu.Unlock()
	fr := domain.NewFundingRate(domain.ExchangeBinance, symbol, decimal.RequireFromString("0.0001"), time.Now())
	return &domain.Derivatives{Symbol: symbol, Funding: []domain.FundingRate{fr}}, nil
}

type stubStore struct {
	mu        sync.Mutex
	snapshots []*domain.MarketIndicators
	funding   []domain.FundingRate
}

func (s *stubStore) InsertSnapshot(_ context.Context, snap *domain.MarketIndicators) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *stubStore) InsertFundingRates(_ context.Context, rates []domain.FundingRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funding = append(s.funding, rates...)
	return nil
}

func TestNewSnapshotPollerInterval(t *testing.T) {
	p := NewSnapshotPoller(testTracer, &stubAggregator{}, nil, nil, nil, 2)
	if p.pollInterval != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", p.pollInterval)
	}
	p = NewSnapshotPoller(testTracer, &stubAggregator{}, nil, nil, nil, 0)
	if p.pollInterval != time.Minute {
		t.Fatalf("expected default 60s interval, got %v", p.pollInterval)
	}
}

func TestSnapshotPollerStart(t *testing.T) {
	agg := &stubAggregator{snap: &domain.MarketIndicators{Timestamp: time.Now()}}
	p := NewSnapshotPoller(testTracer, agg, nil, nil, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	eventually(t, func() bool { return agg.Calls() > 0 })
	cancel()
	<-done
}

func TestTakeSnapshotPersists(t *testing.T) {
	snap := &domain.MarketIndicators{Timestamp: time.Now(), Errors: []string{"fear_greed: timeout"}}
	store := &stubStore{}
	p := NewSnapshotPoller(testTracer, &stubAggregator{snap: snap}, nil, store, nil, 1)

	if err := p.takeSnapshot(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.snapshots) != 1 || store.snapshots[0] != snap {
		t.Fatalf("expected snapshot to be stored, got %+v", store.snapshots)
	}
}

func TestTakeSnapshotError(t *testing.T) {
	store := &stubStore{}
	p := NewSnapshotPoller(testTracer, &stubAggregator{err: errors.New("unavailable")}, nil, store, nil, 1)

	if err := p.takeSnapshot(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(store.snapshots) != 0 {
		t.Fatal("failed snapshot must not be stored")
	}
}

func TestTakeSnapshotWithoutStore(t *testing.T) {
	p := NewSnapshotPoller(testTracer, &stubAggregator{snap: &domain.MarketIndicators{}}, nil, nil, nil, 1)
	if err := p.takeSnapshot(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFundingRoundRobin(t *testing.T) {
	deriv := &stubDerivatives{}
	store := &stubStore{}
	p := NewSnapshotPoller(testTracer, &stubAggregator{snap: &domain.MarketIndicators{}}, deriv, store, []string{"BTC", "ETH"}, 1)
	p.fundingDelay = time.Millisecond
	p.pollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go p.Start(ctx)
	eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.funding) >= 3
	})
	cancel()

	deriv.mu.Lock()
	got := append([]string(nil), deriv.symbols[:3]...)
	deriv.mu.Unlock()
	if got[0] != "BTC" || got[1] != "ETH" || got[2] != "BTC" {
		t.Fatalf("unexpected symbol order %v", got)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}
