package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sentiment string

const (
	SentimentExtremeFear  Sentiment = "Extreme Fear"
	SentimentFear         Sentiment = "Fear"
	SentimentNeutral      Sentiment = "Neutral"
	SentimentGreed        Sentiment = "Greed"
	SentimentExtremeGreed Sentiment = "Extreme Greed"
)

// ClassifyFearGreed maps an index value in [0,100] to its bucket:
//
//	0-24 Extreme Fear, 25-49 Fear, 50 Neutral, 51-74 Greed, 75-100 Extreme Greed
//
// Values outside the range are clamped.
func ClassifyFearGreed(value int) Sentiment {
	switch {
	case value <= 24:
		return SentimentExtremeFear
	case value <= 49:
		return SentimentFear
	case value == 50:
		return SentimentNeutral
	case value <= 74:
		return SentimentGreed
	default:
		return SentimentExtremeGreed
	}
}

// FearGreedIndex is the latest alternative.me reading.
type FearGreedIndex struct {
	Value           int       `json:"value"`
	Classification  Sentiment `json:"classification"`
	Timestamp       time.Time `json:"timestamp"`
	TimeUntilUpdate int       `json:"time_until_update_s"`
}

type FundingBias string

const (
	FundingBiasLong    FundingBias = "long_heavy"
	FundingBiasShort   FundingBias = "short_heavy"
	FundingBiasNeutral FundingBias = "neutral"
)

// FundingBiasThreshold is the fraction (0.01%) beyond which funding counts as one-sided.
var FundingBiasThreshold = decimal.RequireFromString("0.0001")

var hundred = decimal.NewFromInt(100)

// FundingRate carries the rate both as a fraction and as a percentage.
type FundingRate struct {
	Exchange        string          `json:"exchange"`
	Symbol          string          `json:"symbol"`
	Rate            decimal.Decimal `json:"rate"`
	RatePct         decimal.Decimal `json:"rate_pct"`
	Bias            FundingBias     `json:"bias"`
	MarkPrice       float64         `json:"mark_price,omitempty"`
	NextFundingTime time.Time       `json:"next_funding_time,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// NewFundingRate normalizes a raw fractional rate.
func NewFundingRate(exchange, symbol string, rate decimal.Decimal, ts time.Time) FundingRate {
	return FundingRate{
		Exchange:  exchange,
		Symbol:    symbol,
		Rate:      rate,
		RatePct:   rate.Mul(hundred),
		Bias:      ClassifyFunding(rate),
		Timestamp: ts,
	}
}

func ClassifyFunding(rate decimal.Decimal) FundingBias {
	switch {
	case rate.GreaterThan(FundingBiasThreshold):
		return FundingBiasLong
	case rate.LessThan(FundingBiasThreshold.Neg()):
		return FundingBiasShort
	default:
		return FundingBiasNeutral
	}
}
