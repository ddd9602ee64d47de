package domain

import (
	"strings"
	"time"
)

type SignalDirection string

const (
	DirectionLong  SignalDirection = "long"
	DirectionShort SignalDirection = "short"
	DirectionHold  SignalDirection = "hold"
)

// Exchange identifiers used in cache keys and API paths.
const (
	ExchangeBinance = "binance"
	ExchangeBitget  = "bitget"
)

// SupportedExchanges lists the exchanges tickers and funding rates are read from.
var SupportedExchanges = []string{ExchangeBinance, ExchangeBitget}

// QuoteAsset is the quote currency every tracked pair is priced in.
const QuoteAsset = "USDT"

// DefaultSymbols are the base assets tracked when TRACKED_SYMBOLS is unset.
var DefaultSymbols = []string{"BTC", "ETH", "SOL", "XRP", "DOGE"}

// PairSymbol turns a base asset ("btc") into an exchange pair ("BTCUSDT").
// Symbols that already carry the quote asset are returned upper-cased.
func PairSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || strings.HasSuffix(s, QuoteAsset) {
		return s
	}
	return s + QuoteAsset
}

// BaseSymbol is the inverse of PairSymbol.
func BaseSymbol(pair string) string {
	s := strings.ToUpper(strings.TrimSpace(pair))
	if s == QuoteAsset {
		return s
	}
	return strings.TrimSuffix(s, QuoteAsset)
}

func IsSupportedExchange(exchange string) bool {
	for _, e := range SupportedExchanges {
		if e == exchange {
			return true
		}
	}
	return false
}

// Ticker is a normalized 24h ticker from one exchange.
type Ticker struct {
	Exchange       string    `json:"exchange"`
	Symbol         string    `json:"symbol"`
	LastPrice      float64   `json:"last_price"`
	High24h        float64   `json:"high_24h"`
	Low24h         float64   `json:"low_24h"`
	Change24hPct   float64   `json:"change_24h_pct"`
	Volume24h      float64   `json:"volume_24h"`
	QuoteVolume24h float64   `json:"quote_volume_24h"`
	Timestamp      time.Time `json:"timestamp"`
}

// OpenInterest is the outstanding contract amount for a perpetual.
type OpenInterest struct {
	Exchange     string    `json:"exchange"`
	Symbol       string    `json:"symbol"`
	OpenInterest float64   `json:"open_interest"`
	ValueUSD     float64   `json:"value_usd,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// LongShortRatio is the account ratio of longs to shorts over Period.
type LongShortRatio struct {
	Exchange     string    `json:"exchange"`
	Symbol       string    `json:"symbol"`
	Period       string    `json:"period"`
	Ratio        float64   `json:"ratio"`
	LongAccount  float64   `json:"long_account"`
	ShortAccount float64   `json:"short_account"`
	Timestamp    time.Time `json:"timestamp"`
}

// DominanceIndex is the market-cap share of the largest assets, in percent.
type DominanceIndex struct {
	BTC               float64   `json:"btc"`
	ETH               float64   `json:"eth"`
	TotalMarketCapUSD float64   `json:"total_market_cap_usd"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Derivatives groups the futures-side records for one symbol.
type Derivatives struct {
	Symbol         string          `json:"symbol"`
	Funding        []FundingRate   `json:"funding"`
	OpenInterest   *OpenInterest   `json:"open_interest"`
	LongShortRatio *LongShortRatio `json:"long_short_ratio"`
	// Aggregated is the cross-exchange open interest, present only when
	// CoinGlass is enabled.
	Aggregated *OpenInterest `json:"aggregated_open_interest,omitempty"`
	Errors     []string      `json:"errors,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// SpreadQuote compares the last price of one symbol across exchanges.
type SpreadQuote struct {
	Symbol    string    `json:"symbol"`
	Quotes    []Ticker  `json:"quotes"`
	Low       *Ticker   `json:"low"`
	High      *Ticker   `json:"high"`
	Spread    float64   `json:"spread"`
	SpreadPct float64   `json:"spread_pct"`
	Index     *Ticker   `json:"index,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketIndicators is a point-in-time composite. A nil constituent means
// its fetch failed in this cycle; the reason is listed in Errors.
type MarketIndicators struct {
	FearGreed    *FearGreedIndex `json:"fear_greed"`
	BTCDominance *DominanceIndex `json:"btc_dominance"`
	Errors       []string        `json:"errors,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Complete reports whether every constituent was fetched.
func (m MarketIndicators) Complete() bool {
	return m.FearGreed != nil && m.BTCDominance != nil
}
