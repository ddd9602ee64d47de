package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"coinpulse/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

const replyTimeout = 15 * time.Second

type MarketData interface {
	FearGreed(ctx context.Context) (*domain.FearGreedIndex, error)
	Dominance(ctx context.Context) (*domain.DominanceIndex, error)
	Spread(ctx context.Context, symbol string) (*domain.SpreadQuote, error)
	Derivatives(ctx context.Context, symbol string) (*domain.Derivatives, error)
}

type StatusSource interface {
	Statuses() []domain.APIStatus
}

// Bot answers chat commands from the same services as the HTTP API.
type Bot struct {
	tracer  trace.Tracer
	market  MarketData
	status  StatusSource
	symbols []string
}

func New(tracer trace.Tracer, market MarketData, status StatusSource, symbols []string) *Bot {
	if len(symbols) == 0 {
		symbols = domain.DefaultSymbols
	}
	return &Bot{tracer: tracer, market: market, status: status, symbols: symbols}
}

var commands = []string{"/ping", "/fng", "/dominance", "/price", "/funding", "/status"}

// Start connects to Telegram and serves commands in the background. An empty
// token disables the bot.
func (b *Bot) Start(token string) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	tb, err := tele.NewBot(pref)
	if err != nil {
		log.Printf("failed to create Telegram bot: %v", err)
		return
	}

	for _, cmd := range commands {
		tb.Handle(cmd, func(c tele.Context) error {
			ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
			defer cancel()
			return c.Send(b.Reply(ctx, cmd, c.Args()))
		})
	}

	log.Println("Telegram bot started")
	go tb.Start()
}

// Reply renders the response text for one command.
func (b *Bot) Reply(ctx context.Context, command string, args []string) string {
	ctx, span := b.tracer.Start(ctx, "bot.reply")
	defer span.End()
	span.SetAttributes(attribute.String("command", command))

	switch command {
	case "/ping":
		return "pong"
	case "/fng":
		return b.fearGreed(ctx)
	case "/dominance":
		return b.dominance(ctx)
	case "/price":
		symbol, usage := b.symbolArg("/price", args)
		if symbol == "" {
			return usage
		}
		return b.price(ctx, symbol)
	case "/funding":
		symbol, usage := b.symbolArg("/funding", args)
		if symbol == "" {
			return usage
		}
		return b.funding(ctx, symbol)
	case "/status":
		return b.apiStatus()
	}
	return "Commands: " + strings.Join(commands, ", ")
}

func (b *Bot) symbolArg(command string, args []string) (string, string) {
	supported := strings.Join(b.symbols, ", ")
	if len(args) == 0 {
		return "", fmt.Sprintf("Usage: %s BTC\nSupported: %s", command, supported)
	}
	base := domain.BaseSymbol(args[0])
	for _, s := range b.symbols {
		if s == base {
			return base, ""
		}
	}
	return "", fmt.Sprintf("Unknown symbol: %s\nSupported: %s", base, supported)
}

func (b *Bot) fearGreed(ctx context.Context) string {
	fg, err := b.market.FearGreed(ctx)
	if err != nil {
		return fmt.Sprintf("Error fetching Fear & Greed index: %v", err)
	}
	return fmt.Sprintf("Fear & Greed: %d (%s)", fg.Value, fg.Classification)
}

func (b *Bot) dominance(ctx context.Context) string {
	d, err := b.market.Dominance(ctx)
	if err != nil {
		return fmt.Sprintf("Error fetching dominance: %v", err)
	}
	return fmt.Sprintf("BTC dominance: %.2f%%\nETH dominance: %.2f%%\nTotal market cap: $%.0f", d.BTC, d.ETH, d.TotalMarketCapUSD)
}

func (b *Bot) price(ctx context.Context, symbol string) string {
	q, err := b.market.Spread(ctx, symbol)
	if err != nil {
		return fmt.Sprintf("Error fetching price for %s: %v", symbol, err)
	}
	var sb strings.Builder
	sb.WriteString(q.Symbol)
	for _, t := range q.Quotes {
		fmt.Fprintf(&sb, "\n%s: $%.2f (%+.2f%% 24h)", t.Exchange, t.LastPrice, t.Change24hPct)
	}
	if q.Index != nil {
		fmt.Fprintf(&sb, "\nindex: $%.2f", q.Index.LastPrice)
	}
	if len(q.Quotes) > 1 {
		fmt.Fprintf(&sb, "\nSpread: $%.2f (%.3f%%)", q.Spread, q.SpreadPct)
	}
	return sb.String()
}

func (b *Bot) funding(ctx context.Context, symbol string) string {
	d, err := b.market.Derivatives(ctx, symbol)
	if err != nil {
		return fmt.Sprintf("Error fetching funding for %s: %v", symbol, err)
	}
	if len(d.Funding) == 0 {
		return fmt.Sprintf("No funding data for %s", d.Symbol)
	}
	var sb strings.Builder
	sb.WriteString(d.Symbol + " funding")
	for _, f := range d.Funding {
		fmt.Fprintf(&sb, "\n%s: %s%% (%s)", f.Exchange, f.RatePct.StringFixed(4), f.Bias)
	}
	if d.OpenInterest != nil {
		fmt.Fprintf(&sb, "\nOpen interest: %.0f", d.OpenInterest.OpenInterest)
	}
	if d.LongShortRatio != nil {
		fmt.Fprintf(&sb, "\nLong/short: %.2f", d.LongShortRatio.Ratio)
	}
	return sb.String()
}

func (b *Bot) apiStatus() string {
	var sb strings.Builder
	sb.WriteString("API status")
	for _, s := range b.status.Statuses() {
		fmt.Fprintf(&sb, "\n%s: %s", s.Name, s.Status)
		switch {
		case s.Latency > 0:
			fmt.Fprintf(&sb, " (%dms)", s.Latency.Milliseconds())
		case s.Error != "":
			fmt.Fprintf(&sb, " (%s)", s.Error)
		case s.Reason != "":
			fmt.Fprintf(&sb, " (%s)", s.Reason)
		}
	}
	return sb.String()
}
