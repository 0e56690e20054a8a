package models

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// PriceBar is one trading day's summary.
type PriceBar struct {
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume int64   `json:"volume"`
}

// PriceSeries is ordered ascending by date with no duplicate dates.
type PriceSeries []PriceBar

// NewPriceSeries sorts bars ascending by date and drops repeated dates,
// keeping the first occurrence. Bars with unparsable dates are left out;
// skipped counts them.
func NewPriceSeries(bars []PriceBar) (series PriceSeries, skipped int) {
	type dated struct {
		t   time.Time
		bar PriceBar
	}

	items := make([]dated, 0, len(bars))
	for _, b := range bars {
		t, err := time.Parse(dateLayout, b.Date)
		if err != nil {
			skipped++
			continue
		}
		items = append(items, dated{t: t, bar: b})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].t.Before(items[j].t)
	})

	out := make(PriceSeries, 0, len(items))
	for i, it := range items {
		if i > 0 && it.t.Equal(items[i-1].t) {
			continue
		}
		out = append(out, it.bar)
	}
	return out, skipped
}

// Tail returns the n most recent bars. The result shares storage with s.
func (s PriceSeries) Tail(n int) PriceSeries {
	if n <= 0 {
		return PriceSeries{}
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
