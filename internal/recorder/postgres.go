package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS chart_snapshots (
	id         BIGSERIAL PRIMARY KEY,
	symbol     TEXT        NOT NULL,
	bars       INTEGER     NOT NULL,
	last_date  DATE,
	rsi        DOUBLE PRECISION,
	sma20      DOUBLE PRECISION,
	sma50      DOUBLE PRECISION,
	served_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS chart_snapshots_symbol_idx ON chart_snapshots (symbol, served_at DESC)`,
}

// PostgresRecorder writes snapshots to the chart_snapshots table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder ensures the schema exists. The recorder owns pool
// and closes it on Close.
func NewPostgresRecorder(ctx context.Context, pool *pgxpool.Pool) (*PostgresRecorder, error) {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create chart_snapshots: %w", err)
		}
	}
	return &PostgresRecorder{pool: pool}, nil
}

func (r *PostgresRecorder) RecordChart(ctx context.Context, snap *ChartSnapshot) error {
	var lastDate *time.Time
	if snap.LastDate != "" {
		d, err := time.Parse("2006-01-02", snap.LastDate)
		if err != nil {
			return fmt.Errorf("last date: %w", err)
		}
		lastDate = &d
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO chart_snapshots (symbol, bars, last_date, rsi, sma20, sma50, served_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snap.Symbol, snap.Bars, lastDate,
		snap.Indicators.RSI, snap.Indicators.SMA20, snap.Indicators.SMA50,
		snap.ServedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chart snapshot: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Close() {
	r.pool.Close()
}
