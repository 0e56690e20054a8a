package models

// IndicatorResult holds the technical indicators for a chart. A nil field
// means there was not enough history to compute it.
type IndicatorResult struct {
	RSI   *float64 `json:"rsi"`
	SMA20 *float64 `json:"sma20"`
	SMA50 *float64 `json:"sma50"`
}
