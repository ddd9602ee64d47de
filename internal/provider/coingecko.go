package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"coinpulse/internal/domain"
	"coinpulse/internal/upstream"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoID maps base assets to CoinGecko API identifiers.
var CoinGeckoID = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"XRP":  "ripple",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
	"DOT":  "polkadot",
	"AVAX": "avalanche-2",
	"LINK": "chainlink",
	"BNB":  "binancecoin",
}

// CoinGeckoProvider reads the global market and USD index prices from the free API.
type CoinGeckoProvider struct {
	client  *upstream.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider limited to 8 requests per minute
// (one token every 7.5 seconds), the free-tier budget.
func NewCoinGeckoProvider(tracer trace.Tracer, client *upstream.Client) *CoinGeckoProvider {
	if client == nil {
		client = upstream.NewClient()
	}
	return &CoinGeckoProvider{
		client:  client,
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// FetchDominance returns the BTC and ETH market-cap share.
func (p *CoinGeckoProvider) FetchDominance(ctx context.Context) (*domain.DominanceIndex, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-dominance")
	defer span.End()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, upstream.Wrap(SourceDominance, fmt.Errorf("rate limit wait: %w", err))
	}

	// Response shape: {"data": {"market_cap_percentage": {"btc": 52.1, ...}, "total_market_cap": {"usd": ...}, "updated_at": 1700000000}}
	var payload struct {
		Data *struct {
			MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
			TotalMarketCap      map[string]float64 `json:"total_market_cap"`
			UpdatedAt           int64              `json:"updated_at"`
		} `json:"data"`
	}
	if err := p.client.GetJSON(ctx, SourceDominance, p.baseURL+"/global", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return nil, upstream.Malformed(SourceDominance, "response has no data object")
	}
	btc, ok := payload.Data.MarketCapPercentage["btc"]
	if !ok {
		return nil, upstream.Malformed(SourceDominance, "market_cap_percentage.btc missing")
	}

	updated := time.Now().UTC()
	if payload.Data.UpdatedAt > 0 {
		updated = unixMillis(payload.Data.UpdatedAt)
	}
	return &domain.DominanceIndex{
		BTC:               btc,
		ETH:               payload.Data.MarketCapPercentage["eth"],
		TotalMarketCapUSD: payload.Data.TotalMarketCap["usd"],
		UpdatedAt:         updated,
	}, nil
}

// FetchPrices returns USD index prices for the given base assets in one call,
// as tickers tagged with exchange "coingecko". Unknown assets are skipped.
func (p *CoinGeckoProvider) FetchPrices(ctx context.Context, symbols []string) (map[string]domain.Ticker, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-prices")
	defer span.End()

	ids := make([]string, 0, len(symbols))
	idToSymbol := make(map[string]string, len(symbols))
	for _, s := range symbols {
		base := domain.BaseSymbol(s)
		if id, ok := CoinGeckoID[base]; ok {
			ids = append(ids, id)
			idToSymbol[id] = base
		}
	}
	if len(ids) == 0 {
		return map[string]domain.Ticker{}, nil
	}
	sort.Strings(ids)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, upstream.Wrap(SourcePrices, fmt.Errorf("rate limit wait: %w", err))
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_vol=true&include_24hr_change=true",
		p.baseURL, strings.Join(ids, ","))

	// Response shape: {"bitcoin": {"usd": 97000, "usd_24h_vol": 45000000000, "usd_24h_change": 2.34}, ...}
	var raw map[string]map[string]float64
	if err := p.client.GetJSON(ctx, SourcePrices, url, nil, &raw); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := make(map[string]domain.Ticker, len(raw))
	for cgID, data := range raw {
		base, ok := idToSymbol[cgID]
		if !ok {
			continue
		}
		result[base] = domain.Ticker{
			Exchange:     ExchangeCoinGecko,
			Symbol:       domain.PairSymbol(base),
			LastPrice:    data["usd"],
			Volume24h:    data["usd_24h_vol"],
			Change24hPct: data["usd_24h_change"],
			Timestamp:    now,
		}
	}
	return result, nil
}
