package provider

import (
	"context"
	"strconv"
	"strings"

	"coinpulse/internal/domain"
	"coinpulse/internal/upstream"

	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://api.alternative.me"

type FearGreedProvider struct {
	client  *upstream.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedProvider(tracer trace.Tracer, client *upstream.Client) *FearGreedProvider {
	if client == nil {
		client = upstream.NewClient()
	}
	return &FearGreedProvider{
		client:  client,
		baseURL: fearGreedBaseURL,
		tracer:  tracer,
	}
}

// FetchLatest returns the current index. The classification is derived from
// the value with the fixed bucket table rather than trusted from the payload.
func (p *FearGreedProvider) FetchLatest(ctx context.Context) (*domain.FearGreedIndex, error) {
	ctx, span := p.tracer.Start(ctx, "feargreed.fetch-latest")
	defer span.End()

	url := strings.TrimRight(p.baseURL, "/") + "/fng/?limit=1"

	var payload struct {
		Data []struct {
			Value            string `json:"value"`
			Classification   string `json:"value_classification"`
			Timestamp        string `json:"timestamp"`
			TimeUntilUpdateS string `json:"time_until_update"`
		} `json:"data"`
	}
	if err := p.client.GetJSON(ctx, SourceFearGreed, url, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, upstream.Malformed(SourceFearGreed, "response has no rows")
	}

	row := payload.Data[0]
	value, err := strconv.Atoi(strings.TrimSpace(row.Value))
	if err != nil {
		return nil, upstream.Malformed(SourceFearGreed, "parse value %q: %v", row.Value, err)
	}
	if value < 0 || value > 100 {
		return nil, upstream.Malformed(SourceFearGreed, "value %d outside [0,100]", value)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(row.Timestamp), 10, 64)
	if err != nil {
		return nil, upstream.Malformed(SourceFearGreed, "parse timestamp %q: %v", row.Timestamp, err)
	}
	updateS := 0
	if row.TimeUntilUpdateS != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(row.TimeUntilUpdateS)); err == nil && n >= 0 {
			updateS = n
		}
	}

	return &domain.FearGreedIndex{
		Value:           value,
		Classification:  domain.ClassifyFearGreed(value),
		Timestamp:       unixMillis(ts),
		TimeUntilUpdate: updateS,
	}, nil
}
