package repository

import (
	"context"
	"fmt"
	"time"

	"coinpulse/internal/db"
	"coinpulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// IndicatorRepository stores MarketIndicators snapshots and funding rate
// observations.
type IndicatorRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewIndicatorRepository(pool PgxPool, tracer trace.Tracer) *IndicatorRepository {
	return &IndicatorRepository{pool: pool, tracer: tracer}
}

// RunMigrations applies the embedded schema. Every statement is
// idempotent, so this is safe on each start.
func (r *IndicatorRepository) RunMigrations(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "indicator-repo.run-migrations")
	defer span.End()

	migrations, err := db.Migrations()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := r.pool.Exec(ctx, m.UpSQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func (r *IndicatorRepository) InsertSnapshot(ctx context.Context, s *domain.MarketIndicators) error {
	ctx, span := r.tracer.Start(ctx, "indicator-repo.insert-snapshot")
	defer span.End()

	var (
		fgValue *int
		fgClass *string
		btc     *float64
		eth     *float64
		mcap    *float64
	)
	if s.FearGreed != nil {
		v := s.FearGreed.Value
		c := string(s.FearGreed.Classification)
		fgValue, fgClass = &v, &c
	}
	if s.BTCDominance != nil {
		b, e, m := s.BTCDominance.BTC, s.BTCDominance.ETH, s.BTCDominance.TotalMarketCapUSD
		btc, eth, mcap = &b, &e, &m
	}
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO market_snapshots
		     (taken_at, fear_greed_value, fear_greed_class, btc_dominance, eth_dominance, total_market_cap, errors)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.Timestamp, fgValue, fgClass, btc, eth, mcap, errs,
	)
	return err
}

// ListSnapshots returns the newest snapshots first.
func (r *IndicatorRepository) ListSnapshots(ctx context.Context, limit int) ([]domain.MarketIndicators, error) {
	ctx, span := r.tracer.Start(ctx, "indicator-repo.list-snapshots")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT taken_at, fear_greed_value, fear_greed_class, btc_dominance, eth_dominance, total_market_cap, errors
		 FROM market_snapshots
		 ORDER BY taken_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MarketIndicators
	for rows.Next() {
		var (
			takenAt time.Time
			fgValue *int
			fgClass *string
			btc     *float64
			eth     *float64
			mcap    *float64
			errs    []string
		)
		if err := rows.Scan(&takenAt, &fgValue, &fgClass, &btc, &eth, &mcap, &errs); err != nil {
			return nil, err
		}
		s := domain.MarketIndicators{Timestamp: takenAt, Errors: errs}
		if fgValue != nil {
			s.FearGreed = &domain.FearGreedIndex{Value: *fgValue, Classification: domain.ClassifyFearGreed(*fgValue), Timestamp: takenAt}
			if fgClass != nil {
				s.FearGreed.Classification = domain.Sentiment(*fgClass)
			}
		}
		if btc != nil {
			s.BTCDominance = &domain.DominanceIndex{BTC: *btc, UpdatedAt: takenAt}
			if eth != nil {
				s.BTCDominance.ETH = *eth
			}
			if mcap != nil {
				s.BTCDominance.TotalMarketCapUSD = *mcap
			}
		}
		if len(s.Errors) == 0 {
			s.Errors = nil
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertFundingRates records one observation per rate; repeated
// observations with the same timestamp are ignored.
func (r *IndicatorRepository) InsertFundingRates(ctx context.Context, rates []domain.FundingRate) error {
	if len(rates) == 0 {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "indicator-repo.insert-funding-rates")
	defer span.End()

	batch := &pgx.Batch{}
	for _, fr := range rates {
		batch.Queue(
			`INSERT INTO funding_rates (exchange, symbol, observed_at, rate, bias, mark_price)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (exchange, symbol, observed_at) DO NOTHING`,
			fr.Exchange, fr.Symbol, fr.Timestamp, fr.Rate.InexactFloat64(), string(fr.Bias), fr.MarkPrice,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range rates {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
