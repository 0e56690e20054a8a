// Package indicators computes technical indicators over a daily price
// series. Every function is pure: no I/O, no logging, no shared state.
// Insufficient history is reported as absence, never as an error.
package indicators

import (
	"math"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/models"
)

const (
	DefaultRSIPeriod = 14
	ShortSMAPeriod   = 20
	LongSMAPeriod    = 50
)

// SMA returns the mean close of the last period bars, rounded to cents.
// ok is false when the series is shorter than period.
func SMA(series models.PriceSeries, period int) (value float64, ok bool) {
	if period <= 0 || len(series) < period {
		return 0, false
	}

	sum := 0.0
	for _, b := range series[len(series)-period:] {
		sum += b.Close
	}
	return round2(sum / float64(period)), true
}

// RSI is a single-window relative strength index: gains and losses are
// summed over the last period day-over-day changes and averaged once, with
// no Wilder smoothing. A window with no losses uses rs = 100, so the result
// tops out at 99.01 rather than 100.
//
// ok is false when the series has fewer than period+1 bars.
func RSI(series models.PriceSeries, period int) (value float64, ok bool) {
	if period <= 0 || len(series) < period+1 {
		return 0, false
	}

	var gains, losses float64
	for i := len(series) - period; i < len(series); i++ {
		diff := series[i].Close - series[i-1].Close
		if diff > 0 {
			gains += diff
		} else {
			losses += math.Abs(diff)
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	rs := 100.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return round2(100 - 100/(1+rs)), true
}

// Compute derives the chart indicator set. Callers truncate the series to
// the display window first; the indicators describe that window only.
func Compute(series models.PriceSeries) models.IndicatorResult {
	var res models.IndicatorResult
	if v, ok := RSI(series, DefaultRSIPeriod); ok {
		res.RSI = &v
	}
	if v, ok := SMA(series, ShortSMAPeriod); ok {
		res.SMA20 = &v
	}
	if v, ok := SMA(series, LongSMAPeriod); ok {
		res.SMA50 = &v
	}
	return res
}

// round2 scales to cents, rounds half away from zero, and scales back.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
