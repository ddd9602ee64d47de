package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"coinpulse/internal/domain"
	"coinpulse/internal/upstream"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 8 * time.Second

const networkErrorMessage = "Network error: endpoint unreachable (connectivity or CORS failure)"

// Endpoints are the base URLs probed by the named wrappers.
type Endpoints struct {
	BinanceSpot    string
	BinanceFutures string
	Bitget         string
	FearGreed      string
	CoinGecko      string
	CoinGlass      string
}

var DefaultEndpoints = Endpoints{
	BinanceSpot:    "https://api.binance.com",
	BinanceFutures: "https://fapi.binance.com",
	Bitget:         "https://api.bitget.com",
	FearGreed:      "https://api.alternative.me",
	CoinGecko:      "https://api.coingecko.com/api/v3",
	CoinGlass:      "https://open-api-v3.coinglass.com",
}

// Checker probes upstream endpoints. It holds no mutable state, so one
// instance is built at startup and shared by every consumer.
type Checker struct {
	client    *upstream.Client
	endpoints Endpoints
	tracer    trace.Tracer
}

func NewChecker(tracer trace.Tracer, httpClient *http.Client, timeout time.Duration, endpoints Endpoints) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Checker{
		client:    &upstream.Client{HTTP: httpClient, Timeout: timeout},
		endpoints: endpoints,
		tracer:    tracer,
	}
}

func (c *Checker) Timeout() time.Duration { return c.client.Timeout }

// CheckEndpoint issues a GET against url and reports whether it answered
// with a 2xx. Latency is only set for online results.
func (c *Checker) CheckEndpoint(ctx context.Context, url string) domain.HealthCheckResult {
	return c.check(ctx, url, nil)
}

func (c *Checker) check(ctx context.Context, url string, header http.Header) domain.HealthCheckResult {
	ctx, span := c.tracer.Start(ctx, "health.check-endpoint")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	start := time.Now()
	_, err := c.client.Get(ctx, "health", url, header)
	if err != nil {
		msg := describe(err)
		span.SetAttributes(attribute.String("error", msg))
		return domain.HealthCheckResult{Status: domain.HealthOffline, Error: msg}
	}
	return domain.HealthCheckResult{Status: domain.HealthOnline, Latency: time.Since(start)}
}

func describe(err error) string {
	var fe *upstream.FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.Kind == upstream.KindUpstream && fe.StatusCode != 0:
			return fmt.Sprintf("HTTP %d", fe.StatusCode)
		case fe.Kind == upstream.KindTimeout:
			return "Timeout"
		}
		if fe.Err != nil {
			err = fe.Err
		}
	}
	if upstream.IsNetworkMessage(err.Error()) {
		return networkErrorMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Timeout"
}

func (c *Checker) PingBinance(ctx context.Context) domain.HealthCheckResult {
	return c.CheckEndpoint(ctx, c.endpoints.BinanceSpot+"/api/v3/ping")
}

func (c *Checker) PingBinanceFutures(ctx context.Context) domain.HealthCheckResult {
	return c.CheckEndpoint(ctx, c.endpoints.BinanceFutures+"/fapi/v1/ping")
}

func (c *Checker) PingBitget(ctx context.Context) domain.HealthCheckResult {
	return c.CheckEndpoint(ctx, c.endpoints.Bitget+"/api/v2/public/time")
}

func (c *Checker) CheckFearGreed(ctx context.Context) domain.HealthCheckResult {
	return c.CheckEndpoint(ctx, c.endpoints.FearGreed+"/fng/?limit=1")
}

func (c *Checker) CheckCoinGecko(ctx context.Context) domain.HealthCheckResult {
	return c.CheckEndpoint(ctx, c.endpoints.CoinGecko+"/simple/price?ids=bitcoin&vs_currencies=usd")
}

// CheckCoinGlass needs the API key; CoinGlass rejects anonymous calls.
func (c *Checker) CheckCoinGlass(ctx context.Context, apiKey string) domain.HealthCheckResult {
	h := http.Header{}
	h.Set("CG-API-KEY", apiKey)
	return c.check(ctx, c.endpoints.CoinGlass+"/api/futures/supported-coins", h)
}
