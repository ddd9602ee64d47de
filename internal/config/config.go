package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"coinpulse/internal/domain"
)

type Config struct {
	HTTPAddr         string
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string
	AdminAPIKey      string

	CacheBackend    string
	CacheTTLSecs    int
	CoalesceFetches bool

	HealthTimeoutSecs int
	HealthPollSecs    int
	SnapshotPollSecs  int
	AggregatorPolicy  string
	TrackedSymbols    []string

	CoinGlassAPIKey string
	StreamEnabled   bool
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		AdminAPIKey:      strings.TrimSpace(os.Getenv("ADMIN_API_KEY")),
		CoinGlassAPIKey:  strings.TrimSpace(os.Getenv("COINGLASS_API_KEY")),
	}

	cfg.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, bot disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, snapshot history disabled")
	}
	if cfg.CoinGlassAPIKey == "" {
		log.Println("Warning: COINGLASS_API_KEY not set, CoinGlass disabled")
	}

	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(os.Getenv("CACHE_BACKEND")))
	switch cfg.CacheBackend {
	case "":
		cfg.CacheBackend = CacheBackendMemory
	case CacheBackendMemory, CacheBackendRedis:
	default:
		log.Printf("Warning: unsupported CACHE_BACKEND=%q, defaulting to memory", cfg.CacheBackend)
		cfg.CacheBackend = CacheBackendMemory
	}
	if cfg.CacheBackend == CacheBackendRedis && cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.CacheTTLSecs = positiveInt("CACHE_TTL_SECS", 300)
	cfg.CoalesceFetches = boolEnv("COALESCE_FETCHES", true)
	cfg.HealthTimeoutSecs = positiveInt("HEALTH_TIMEOUT_SECS", 8)
	cfg.HealthPollSecs = positiveInt("HEALTH_POLL_SECS", 60)
	cfg.SnapshotPollSecs = positiveInt("SNAPSHOT_POLL_SECS", 60)
	cfg.StreamEnabled = boolEnv("STREAM_ENABLED", false)

	cfg.AggregatorPolicy = strings.ToLower(strings.TrimSpace(os.Getenv("AGGREGATOR_POLICY")))
	if cfg.AggregatorPolicy == "" {
		cfg.AggregatorPolicy = "partial"
	}
	if cfg.AggregatorPolicy != "partial" && cfg.AggregatorPolicy != "strict" {
		log.Printf("Warning: unsupported AGGREGATOR_POLICY=%q, defaulting to partial", cfg.AggregatorPolicy)
		cfg.AggregatorPolicy = "partial"
	}

	cfg.TrackedSymbols = parseSymbols(os.Getenv("TRACKED_SYMBOLS"))
	if len(cfg.TrackedSymbols) == 0 {
		cfg.TrackedSymbols = append([]string(nil), domain.DefaultSymbols...)
	}

	return cfg
}

func positiveInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
	}
	return def
}

func boolEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %t", key, v, def)
		return def
	}
	return b
}

func parseSymbols(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = domain.BaseSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
