package health

import (
	"context"
	"log"
	"sync"
	"time"

	"coinpulse/internal/domain"
	"coinpulse/internal/metrics"

	"go.opentelemetry.io/otel/trace"
)

// Probe describes one monitored API. A probe with a non-empty
// DisabledReason is never checked and stays disabled.
type Probe struct {
	Name           string
	Description    string
	Free           bool
	DisabledReason string
	Check          func(ctx context.Context) domain.HealthCheckResult
}

// DefaultProbes lists the public APIs the service depends on. CoinGlass is
// disabled unless an API key is supplied.
func DefaultProbes(c *Checker, coinglassKey string) []Probe {
	probes := []Probe{
		{Name: "Binance Spot", Description: "Spot tickers and klines", Free: true, Check: c.PingBinance},
		{Name: "Binance Futures", Description: "Funding, open interest and long/short ratio", Free: true, Check: c.PingBinanceFutures},
		{Name: "Bitget", Description: "Spot tickers, funding and WebSocket stream", Free: true, Check: c.PingBitget},
		{Name: "Fear & Greed", Description: "alternative.me sentiment index", Free: true, Check: c.CheckFearGreed},
		{Name: "CoinGecko", Description: "Market dominance and index prices", Free: true, Check: c.CheckCoinGecko},
	}
	coinglass := Probe{Name: "CoinGlass", Description: "Aggregated derivatives data"}
	if coinglassKey == "" {
		coinglass.DisabledReason = "COINGLASS_API_KEY not configured"
	} else {
		coinglass.Check = func(ctx context.Context) domain.HealthCheckResult {
			return c.CheckCoinGlass(ctx, coinglassKey)
		}
	}
	return append(probes, coinglass)
}

// Monitor owns the API status table. Only CheckAll mutates it; readers get
// copies from Statuses.
type Monitor struct {
	tracer   trace.Tracer
	probes   []Probe
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time

	mu       sync.RWMutex
	statuses []domain.APIStatus
}

func NewMonitor(tracer trace.Tracer, probes []Probe, pollIntervalSecs int, m *metrics.Metrics) *Monitor {
	if pollIntervalSecs <= 0 {
		pollIntervalSecs = 60
	}
	statuses := make([]domain.APIStatus, len(probes))
	for i, p := range probes {
		statuses[i] = domain.APIStatus{
			Name:        p.Name,
			Status:      domain.APIOffline,
			Description: p.Description,
			Free:        p.Free,
		}
		if p.DisabledReason != "" || p.Check == nil {
			statuses[i].Status = domain.APIDisabled
			statuses[i].Reason = p.DisabledReason
		}
	}
	return &Monitor{
		tracer:   tracer,
		probes:   probes,
		interval: time.Duration(pollIntervalSecs) * time.Second,
		metrics:  m,
		now:      time.Now,
		statuses: statuses,
	}
}

// Statuses returns a snapshot of the table.
func (m *Monitor) Statuses() []domain.APIStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.APIStatus, len(m.statuses))
	for i, s := range m.statuses {
		if s.LastCheck != nil {
			t := *s.LastCheck
			s.LastCheck = &t
		}
		out[i] = s
	}
	return out
}

// CheckAll marks every enabled API as checking, probes them concurrently
// and records the outcome.
func (m *Monitor) CheckAll(ctx context.Context) []domain.APIStatus {
	ctx, span := m.tracer.Start(ctx, "health-monitor.check-all")
	defer span.End()

	m.mu.Lock()
	for i := range m.statuses {
		if m.statuses[i].Status != domain.APIDisabled {
			m.statuses[i].Status = domain.APIChecking
		}
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for i, p := range m.probes {
		if p.DisabledReason != "" || p.Check == nil {
			continue
		}
		wg.Add(1)
		go func(i int, p Probe) {
			defer wg.Done()
			res := p.Check(ctx)
			m.metrics.ObserveProbe(p.Name, res.Online(), res.Latency)
			m.record(i, res)
		}(i, p)
	}
	wg.Wait()

	return m.Statuses()
}

func (m *Monitor) record(i int, res domain.HealthCheckResult) {
	checked := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	s := &m.statuses[i]
	s.LastCheck = &checked
	s.Latency = res.Latency
	s.Error = res.Error
	if res.Online() {
		s.Status = domain.APIOnline
	} else {
		s.Status = domain.APIOffline
	}
}

// Start checks immediately and then on every interval until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	log.Printf("Health monitor starting (every %s)", m.interval)
	m.logResults(m.CheckAll(ctx))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Health monitor stopped")
			return
		case <-ticker.C:
			m.logResults(m.CheckAll(ctx))
		}
	}
}

func (m *Monitor) logResults(statuses []domain.APIStatus) {
	for _, s := range statuses {
		if s.Status == domain.APIOffline {
			log.Printf("health: %s offline: %s", s.Name, s.Error)
		}
	}
}
