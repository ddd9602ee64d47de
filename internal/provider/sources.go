package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"coinpulse/internal/upstream"
)

// ExchangeCoinGecko tags index prices so they can sit next to exchange quotes.
const ExchangeCoinGecko = "coingecko"

// Source names used in cache keys, metrics and FetchError.
const (
	SourceFearGreed           = "fear_greed"
	SourceDominance           = "coingecko_global"
	SourcePrices              = "coingecko_prices"
	SourceBinanceTicker       = "binance_ticker"
	SourceBinanceKlines       = "binance_klines"
	SourceBinanceFunding      = "binance_funding"
	SourceBinanceOpenInterest = "binance_open_interest"
	SourceBinanceLongShort    = "binance_long_short"
	SourceBitgetTicker        = "bitget_ticker"
	SourceBitgetFunding       = "bitget_funding"
	SourceCoinGlassOI         = "coinglass_open_interest"
)

func parseFloat(source, field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, upstream.Malformed(source, "parse %s %q: %v", field, raw, err)
	}
	return v, nil
}

// unixMillis converts a millisecond timestamp; second-resolution values are accepted too.
func unixMillis(ms int64) time.Time {
	if ms < 1_000_000_000_000 {
		return time.Unix(ms, 0).UTC()
	}
	return time.UnixMilli(ms).UTC()
}

// flexInt64 decodes integers that some exchanges send as JSON strings.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		var fl float64
		if ferr := json.Unmarshal(b, &fl); ferr != nil {
			return err
		}
		n = int64(fl)
	}
	*f = flexInt64(n)
	return nil
}
