package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is nil when no DATABASE_URL is configured; persistence is then off.
var Pool *pgxpool.Pool

var (
	newPool = pgxpool.New
	pingDB  = func(ctx context.Context, p *pgxpool.Pool) error { return p.Ping(ctx) }
)

// InitPostgres opens the shared pool. An empty url leaves Pool nil.
func InitPostgres(ctx context.Context, url string) error {
	if url == "" {
		log.Println("DATABASE_URL not set, snapshot history disabled")
		return nil
	}
	p, err := newPool(ctx, url)
	if err != nil {
		return fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pingDB(ctx, p); err != nil {
		p.Close()
		return fmt.Errorf("connect to postgres: %w", err)
	}
	Pool = p
	log.Println("Connected to Postgres")
	return nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
