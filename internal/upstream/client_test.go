package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing accept header")
		}
		if r.Header.Get("X-Test") != "1" {
			t.Errorf("missing custom header")
		}
		w.Write([]byte(`{"value":42}`))
	}))
	defer srv.Close()

	var out struct {
		Value int `json:"value"`
	}
	header := http.Header{}
	header.Set("X-Test", "1")
	if err := NewClient().GetJSON(context.Background(), "test", srv.URL, header, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value != 42 {
		t.Fatalf("expected 42, got %d", out.Value)
	}
}

func TestGetJSONUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient().GetJSON(context.Background(), "binance ticker", srv.URL, nil, &out)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Kind != KindUpstream || fe.StatusCode != 500 || fe.Source != "binance ticker" {
		t.Fatalf("unexpected fetch error: %+v", fe)
	}
	if !errors.Is(err, ErrUpstream) || errors.Is(err, ErrTimeout) {
		t.Fatalf("sentinel matching broken for %v", err)
	}
}

func TestGetJSONMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient().GetJSON(context.Background(), "fng", srv.URL, nil, &out)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestGetJSONTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient()
	c.Timeout = 20 * time.Millisecond

	start := time.Now()
	var out map[string]any
	err := c.GetJSON(context.Background(), "slow", srv.URL, nil, &out)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout not enforced")
	}
}

func TestGetJSONNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var out map[string]any
	err := NewClient().GetJSON(context.Background(), "down", url, nil, &out)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestWrapKeepsInnerSource(t *testing.T) {
	inner := &FetchError{Source: "coingecko global", Kind: KindUpstream, StatusCode: 429}
	if got := Wrap("dominance", inner); got != inner {
		t.Fatalf("expected inner error to be preserved, got %v", got)
	}
	wrapped := Wrap("dominance", context.DeadlineExceeded)
	if KindOf(wrapped) != KindTimeout {
		t.Fatalf("expected timeout kind, got %s", KindOf(wrapped))
	}
	if Wrap("x", nil) != nil {
		t.Fatal("wrapping nil should return nil")
	}
}

func TestIsNetworkMessage(t *testing.T) {
	if !IsNetworkMessage("dial tcp 127.0.0.1:1: connect: connection refused") {
		t.Fatal("expected connection refused to match")
	}
	if IsNetworkMessage("unexpected value") {
		t.Fatal("unexpected match")
	}
}
