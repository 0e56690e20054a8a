// Package recorder keeps an append-only audit trail of served charts.
// Nothing here is read back to answer requests.
package recorder

import (
	"context"
	"time"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/models"
)

// ChartSnapshot describes one served chart response.
type ChartSnapshot struct {
	Symbol     string
	Bars       int
	LastDate   string // YYYY-MM-DD of the newest bar, empty when Bars == 0
	Indicators models.IndicatorResult
	ServedAt   time.Time
}

// Recorder persists chart snapshots.
type Recorder interface {
	RecordChart(ctx context.Context, snap *ChartSnapshot) error
	Close()
}

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordChart(_ context.Context, _ *ChartSnapshot) error { return nil }
func (n *NoopRecorder) Close()                                              {}
