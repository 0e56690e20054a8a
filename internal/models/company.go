package models

// CompanyMatch is one entry of a symbol search.
type CompanyMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Type     string `json:"type"`
	Source   string `json:"source"`
}

// StockSnapshot merges a company profile with its latest quote.
type StockSnapshot struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percentChange"`
	Volume        int64   `json:"volume"`
	MarketCap     float64 `json:"marketCap"`
	PE            float64 `json:"pe"`
	Sector        string  `json:"sector"`
	Website       string  `json:"website"`
	Description   string  `json:"description"`
}

// ChartData is the chart payload: the truncated series plus its indicators.
type ChartData struct {
	Symbol     string          `json:"symbol"`
	ChartData  PriceSeries     `json:"chartData"`
	Indicators IndicatorResult `json:"indicators"`
}
