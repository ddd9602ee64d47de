package stream

import (
	"context"
	"encoding/json"
	"log"

	"coinpulse/internal/cache"
	"coinpulse/internal/domain"
	"coinpulse/internal/market"
	"coinpulse/internal/metrics"
	"coinpulse/internal/provider"
)

const BitgetPublicURL = "wss://ws.bitget.com/v2/ws/public"

type bitgetArg struct {
	InstType string `json:"instType"`
	Channel  string `json:"channel"`
	InstID   string `json:"instId"`
}

type bitgetRequest struct {
	Op   string      `json:"op"`
	Args []bitgetArg `json:"args"`
}

type bitgetPush struct {
	Action string                  `json:"action"`
	Arg    bitgetArg               `json:"arg"`
	Data   []provider.BitgetTicker `json:"data"`
	Event  string                  `json:"event"`
	Code   any                     `json:"code"`
	Msg    string                  `json:"msg"`
}

// BitgetTickers subscribes to Bitget spot tickers and writes every update
// into the shared ticker store.
type BitgetTickers struct {
	url     string
	symbols []string
	store   cache.Store[*domain.Ticker]
	metrics *metrics.Metrics
	worker  *Worker
}

func NewBitgetTickers(symbols []string, store cache.Store[*domain.Ticker], m *metrics.Metrics) *BitgetTickers {
	pairs := make([]string, 0, len(symbols))
	for _, s := range symbols {
		pairs = append(pairs, domain.PairSymbol(s))
	}
	b := &BitgetTickers{
		url:     BitgetPublicURL,
		symbols: pairs,
		store:   store,
		metrics: m,
	}
	b.worker = NewWorker(b, func() { m.StreamReconnect(domain.ExchangeBitget) })
	return b
}

func (b *BitgetTickers) ID() string  { return "bitget-spot-ticker" }
func (b *BitgetTickers) URL() string { return b.url }

func (b *BitgetTickers) Start(ctx context.Context) { b.worker.Start(ctx) }
func (b *BitgetTickers) Stop()                    { b.worker.Stop() }

func (b *BitgetTickers) OnConnect(_ context.Context, w *Worker) error {
	req := bitgetRequest{Op: "subscribe"}
	for _, s := range b.symbols {
		req.Args = append(req.Args, bitgetArg{InstType: "SPOT", Channel: "ticker", InstID: s})
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return w.WriteText(payload)
}

func (b *BitgetTickers) Ping(_ context.Context, w *Worker) error {
	return w.WriteText([]byte("ping"))
}

func (b *BitgetTickers) OnMessage(ctx context.Context, msg []byte) {
	if string(msg) == "pong" {
		return
	}
	var push bitgetPush
	if err := json.Unmarshal(msg, &push); err != nil {
		log.Printf("stream %s: undecodable message: %v", b.ID(), err)
		return
	}
	if push.Event == "error" {
		log.Printf("stream %s: subscription error: %v %s", b.ID(), push.Code, push.Msg)
		return
	}
	if push.Arg.Channel != "ticker" || len(push.Data) == 0 {
		return
	}
	for _, row := range push.Data {
		if row.InstID == "" {
			row.InstID = push.Arg.InstID
		}
		t, err := row.Normalize(provider.SourceBitgetTicker)
		if err != nil {
			log.Printf("stream %s: %v", b.ID(), err)
			continue
		}
		b.store.Set(ctx, market.TickerKey(domain.ExchangeBitget, t.Symbol), t)
		b.metrics.StreamMessage(domain.ExchangeBitget)
	}
}
