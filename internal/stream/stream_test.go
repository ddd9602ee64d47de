package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"coinpulse/internal/cache"
	"coinpulse/internal/domain"
	"coinpulse/internal/market"
	"coinpulse/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func wsServer(t *testing.T, handle func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL string) string { return strings.Replace(httpURL, "http://", "ws://", 1) }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBitgetTickersSubscribeAndCache(t *testing.T) {
	subscribed := make(chan bitgetRequest, 1)
	srv := wsServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req bitgetRequest
		json.Unmarshal(msg, &req)
		subscribed <- req

		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"subscribe","arg":{"instType":"SPOT","channel":"ticker","instId":"BTCUSDT"}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"snapshot","arg":{"instType":"SPOT","channel":"ticker","instId":"BTCUSDT"},"data":[{"instId":"BTCUSDT","lastPr":"64000.5","high24h":"65000","low24h":"63000","change24h":"0.0125","baseVolume":"1200","quoteVolume":"76800000","ts":"1735689600000"}],"ts":1735689600000}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	store := cache.NewTTLCache[*domain.Ticker](time.Minute)
	m := metrics.New(prometheus.NewRegistry())
	b := NewBitgetTickers([]string{"btc"}, store, m)
	b.url = wsURL(srv.URL)

	b.Start(context.Background())
	defer b.Stop()

	select {
	case req := <-subscribed:
		if req.Op != "subscribe" || len(req.Args) != 1 {
			t.Fatalf("unexpected subscription %+v", req)
		}
		if a := req.Args[0]; a.InstType != "SPOT" || a.Channel != "ticker" || a.InstID != "BTCUSDT" {
			t.Fatalf("unexpected arg %+v", a)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription received")
	}

	key := market.TickerKey(domain.ExchangeBitget, "BTC")
	waitFor(t, func() bool { return store.IsValid(context.Background(), key) })

	got, _ := store.Get(context.Background(), key)
	if got.LastPrice != 64000.5 || got.Exchange != domain.ExchangeBitget || got.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected ticker %+v", got)
	}
	if got.Change24hPct != 1.25 {
		t.Fatalf("expected change 1.25%%, got %v", got.Change24hPct)
	}
	if v := testutil.ToFloat64(m.StreamMessages.WithLabelValues(domain.ExchangeBitget)); v != 1 {
		t.Fatalf("expected 1 stream message, got %v", v)
	}
}

func TestBitgetTickersIgnoresNoise(t *testing.T) {
	store := cache.NewTTLCache[*domain.Ticker](time.Minute)
	b := NewBitgetTickers([]string{"ETH"}, store, nil)

	for _, msg := range []string{
		"pong",
		"not json",
		`{"event":"error","code":30001,"msg":"instId doesn't exist"}`,
		`{"arg":{"channel":"books"},"data":[{"instId":"ETHUSDT","lastPr":"1"}]}`,
		`{"arg":{"channel":"ticker"},"data":[{"instId":"ETHUSDT","lastPr":""}]}`,
	} {
		b.OnMessage(context.Background(), []byte(msg))
	}
	if store.Len() != 0 {
		t.Fatalf("expected nothing cached, got %d entries", store.Len())
	}
}

func TestWorkerReconnects(t *testing.T) {
	var connects atomic.Int32
	srv := wsServer(t, func(conn *websocket.Conn) {
		connects.Add(1)
	})

	var retries atomic.Int32
	h := &recordingHandler{url: wsURL(srv.URL)}
	w := NewWorker(h, func() { retries.Add(1) })
	w.backoff = func(int) time.Duration { return 10 * time.Millisecond }
	w.PingInterval = 0

	w.Start(context.Background())
	waitFor(t, func() bool { return connects.Load() >= 2 })
	w.Stop()
}

func TestWorkerRetriesFailedDial(t *testing.T) {
	var retries atomic.Int32
	h := &recordingHandler{url: "ws://127.0.0.1:1/unreachable"}
	w := NewWorker(h, func() { retries.Add(1) })
	w.backoff = func(int) time.Duration { return 5 * time.Millisecond }

	w.Start(context.Background())
	waitFor(t, func() bool { return retries.Load() >= 2 })
	w.Stop()
}

func TestWorkerPings(t *testing.T) {
	pings := make(chan string, 4)
	srv := wsServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			pings <- string(msg)
		}
	})

	store := cache.NewTTLCache[*domain.Ticker](time.Minute)
	b := NewBitgetTickers(nil, store, nil)
	b.url = wsURL(srv.URL)
	b.worker.PingInterval = 20 * time.Millisecond

	b.Start(context.Background())
	defer b.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-pings:
			if msg == "ping" {
				return
			}
		case <-deadline:
			t.Fatal("no ping received")
		}
	}
}

func TestBackoff(t *testing.T) {
	cases := map[int]time.Duration{
		0:   time.Second,
		1:   2 * time.Second,
		3:   8 * time.Second,
		6:   maxDelay,
		100: maxDelay,
	}
	for retry, want := range cases {
		if got := Backoff(retry); got != want {
			t.Fatalf("Backoff(%d) = %v, want %v", retry, got, want)
		}
	}
}

type recordingHandler struct {
	url      string
	messages atomic.Int32
}

func (h *recordingHandler) ID() string                               { return "test" }
func (h *recordingHandler) URL() string                              { return h.url }
func (h *recordingHandler) OnConnect(context.Context, *Worker) error { return nil }
func (h *recordingHandler) OnMessage(context.Context, []byte)        { h.messages.Add(1) }
func (h *recordingHandler) Ping(context.Context, *Worker) error      { return nil }
