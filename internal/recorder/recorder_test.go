package recorder_test

import (
	"context"
	"testing"
	"time"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/models"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/recorder"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/testutil"
)

func TestNoopRecorder(t *testing.T) {
	var r recorder.Recorder = recorder.NewNoopRecorder()
	if err := r.RecordChart(context.Background(), &recorder.ChartSnapshot{Symbol: "AAPL"}); err != nil {
		t.Fatalf("noop RecordChart: %v", err)
	}
	r.Close()
}

func TestPostgresRecorder(t *testing.T) {
	pool := testutil.SetupPool(t)
	ctx := context.Background()

	rec, err := recorder.NewPostgresRecorder(ctx, pool)
	if err != nil {
		t.Fatalf("NewPostgresRecorder: %v", err)
	}

	symbol := "TEST" + time.Now().Format("150405")
	rsi := 61.25
	sma20 := 182.4
	err = rec.RecordChart(ctx, &recorder.ChartSnapshot{
		Symbol:     symbol,
		Bars:       50,
		LastDate:   "2024-05-03",
		Indicators: models.IndicatorResult{RSI: &rsi, SMA20: &sma20},
		ServedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("RecordChart: %v", err)
	}

	var (
		bars     int
		gotRSI   *float64
		gotSMA50 *float64
	)
	err = pool.QueryRow(ctx,
		`SELECT bars, rsi, sma50 FROM chart_snapshots WHERE symbol = $1 ORDER BY id DESC LIMIT 1`,
		symbol,
	).Scan(&bars, &gotRSI, &gotSMA50)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if bars != 50 || gotRSI == nil || *gotRSI != rsi {
		t.Fatalf("unexpected row: bars=%d rsi=%v", bars, gotRSI)
	}
	if gotSMA50 != nil {
		t.Fatalf("absent sma50 should be NULL, got %v", *gotSMA50)
	}

	if _, err := pool.Exec(ctx, `DELETE FROM chart_snapshots WHERE symbol = $1`, symbol); err != nil {
		t.Logf("cleanup: %v", err)
	}
}

func TestPostgresRecorder_EmptyChart(t *testing.T) {
	pool := testutil.SetupPool(t)
	ctx := context.Background()

	rec, err := recorder.NewPostgresRecorder(ctx, pool)
	if err != nil {
		t.Fatalf("NewPostgresRecorder: %v", err)
	}
	symbol := "EMPTY" + time.Now().Format("150405")
	if err := rec.RecordChart(ctx, &recorder.ChartSnapshot{Symbol: symbol, ServedAt: time.Now()}); err != nil {
		t.Fatalf("RecordChart without bars: %v", err)
	}
	pool.Exec(ctx, `DELETE FROM chart_snapshots WHERE symbol = $1`, symbol)
}
