// Package stream keeps the ticker cache warm from exchange WebSockets.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// Backoff doubles from one second per failed attempt, capped at a minute.
func Backoff(retry int) time.Duration {
	if retry <= 0 {
		return baseDelay
	}
	if retry > 16 {
		return maxDelay
	}
	d := baseDelay << retry
	if d > maxDelay {
		return maxDelay
	}
	return d
}

// Handler supplies the exchange-specific parts of a connection.
type Handler interface {
	ID() string
	URL() string
	OnConnect(ctx context.Context, w *Worker) error
	OnMessage(ctx context.Context, msg []byte)
	Ping(ctx context.Context, w *Worker) error
}

// Worker owns one WebSocket connection and reconnects it until stopped.
type Worker struct {
	handler Handler
	onRetry func()

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	ReadTimeout  time.Duration
	PingInterval time.Duration
	backoff      func(int) time.Duration
}

func NewWorker(h Handler, onRetry func()) *Worker {
	return &Worker{
		handler:      h,
		onRetry:      onRetry,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
		backoff:      Backoff,
	}
}

func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop cancels the worker and waits for its goroutines to exit.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.close()
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	retry := 0
	for ctx.Err() == nil {
		if err := w.connect(ctx); err != nil {
			log.Printf("stream %s: connect failed (attempt %d): %v", w.handler.ID(), retry+1, err)
			delay := w.backoff(retry)
			retry++
			if w.onRetry != nil {
				w.onRetry()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		retry = 0
		w.read(ctx)
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	header.Set("User-Agent", "coinpulse/1.0")

	conn, _, err := dialer.DialContext(ctx, w.handler.URL(), header)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	if err := w.handler.OnConnect(ctx, w); err != nil {
		w.close()
		return fmt.Errorf("subscribe: %w", err)
	}
	if w.PingInterval > 0 {
		w.wg.Add(1)
		go w.keepAlive(ctx, conn)
	}
	log.Printf("stream %s: connected", w.handler.ID())
	return nil
}

func (w *Worker) read(ctx context.Context) {
	for {
		w.mu.RLock()
		c := w.conn
		w.mu.RUnlock()
		if c == nil {
			return
		}
		if w.ReadTimeout > 0 {
			c.SetReadDeadline(time.Now().Add(w.ReadTimeout))
		}
		_, msg, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("stream %s: read error: %v", w.handler.ID(), err)
			}
			w.close()
			return
		}
		w.handler.OnMessage(ctx, msg)
	}
}

func (w *Worker) keepAlive(ctx context.Context, conn *websocket.Conn) {
	defer w.wg.Done()
	t := time.NewTicker(w.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.mu.RLock()
			current := w.conn
			w.mu.RUnlock()
			if current != conn {
				return
			}
			if err := w.handler.Ping(ctx, w); err != nil {
				log.Printf("stream %s: ping failed: %v", w.handler.ID(), err)
				w.close()
				return
			}
		}
	}
}

var errNotConnected = errors.New("websocket not connected")

// WriteText sends a text frame on the current connection.
func (w *Worker) WriteText(data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	c := w.conn
	w.mu.RUnlock()
	if c == nil {
		return errNotConnected
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

func (w *Worker) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
}
