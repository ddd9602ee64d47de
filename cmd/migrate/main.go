package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"coinpulse/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const usage = "usage: go run ./cmd/migrate [up|down|version] [steps]"

var (
	loadEnvFunc = godotenv.Load
	openPool    = func(ctx context.Context, dsn string) (db.TxPool, func(), error) {
		p, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}
	exitFunc = log.Fatal
)

func main() {
	loadEnvFunc()
	if err := run(context.Background(), os.Args[1:], os.Getenv("DATABASE_URL")); err != nil {
		exitFunc(err)
	}
}

func run(ctx context.Context, args []string, dsn string) error {
	if len(args) < 1 {
		return fmt.Errorf(usage)
	}
	steps := 1
	switch args[0] {
	case "up", "version":
	case "down":
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid down steps: %q", args[1])
			}
			steps = n
		}
	default:
		return fmt.Errorf("unknown command %q. %s", args[0], usage)
	}
	if strings.TrimSpace(dsn) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	pool, closePool, err := openPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer closePool()

	if err := db.EnsureMigrationTable(ctx, pool); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}
	migrations, err := db.Migrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	switch args[0] {
	case "up":
		n, err := db.MigrateUp(ctx, pool, migrations)
		if err != nil {
			return fmt.Errorf("apply migrations up: %w", err)
		}
		log.Printf("migrations up complete (%d applied)", n)
	case "down":
		n, err := db.MigrateDown(ctx, pool, migrations, steps)
		if err != nil {
			return fmt.Errorf("apply migrations down: %w", err)
		}
		log.Printf("migrations down complete (%d rolled back)", n)
	case "version":
		v, name, err := db.CurrentVersion(ctx, pool)
		if err != nil {
			return fmt.Errorf("read current version: %w", err)
		}
		if v == 0 {
			log.Println("no migrations applied")
			return nil
		}
		log.Printf("current version: %d (%s)", v, name)
	}
	return nil
}
