package external

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/models"
)

const (
	fmpBaseURL     = "https://financialmodelingprep.com/api/v3"
	fmpSearchLimit = 10
	fmpSource      = "FMP"
)

// FMPClient talks to the Financial Modeling Prep v3 API.
type FMPClient struct {
	baseClient
}

func NewFMPClient(opts Options) *FMPClient {
	return &FMPClient{baseClient: newBaseClient("fmp", fmpBaseURL, opts)}
}

type fmpSearchItem struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	ExchangeShortName string `json:"exchangeShortName"`
}

// FMPProfile is the subset of /profile the relay uses.
type FMPProfile struct {
	CompanyName string  `json:"companyName"`
	MktCap      float64 `json:"mktCap"`
	PE          float64 `json:"pe"`
	Sector      string  `json:"sector"`
	Website     string  `json:"website"`
	Description string  `json:"description"`
}

// FMPQuote is the subset of /quote the relay uses.
type FMPQuote struct {
	Price             float64 `json:"price"`
	Change            float64 `json:"change"`
	ChangesPercentage float64 `json:"changesPercentage"`
	Volume            float64 `json:"volume"`
	PE                float64 `json:"pe"`
}

type fmpHistoricalBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// SearchCompanies returns FMP ticker matches for query, in provider order.
func (c *FMPClient) SearchCompanies(ctx context.Context, query string) ([]models.CompanyMatch, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", fmt.Sprint(fmpSearchLimit))

	var items []fmpSearchItem
	if err := c.get(ctx, "search", c.url("/search", q), &items); err != nil {
		return nil, fmt.Errorf("fmp search: %w", err)
	}

	out := make([]models.CompanyMatch, 0, len(items))
	for _, it := range items {
		out = append(out, models.CompanyMatch{
			Symbol:   it.Symbol,
			Name:     it.Name,
			Exchange: it.ExchangeShortName,
			Type:     "stock",
			Source:   fmpSource,
		})
	}
	return out, nil
}

// Profile returns the company profile, or a zero profile when FMP knows
// nothing about the symbol.
func (c *FMPClient) Profile(ctx context.Context, symbol string) (FMPProfile, error) {
	var items []FMPProfile
	if err := c.get(ctx, "profile", c.url("/profile/"+url.PathEscape(symbol), nil), &items); err != nil {
		return FMPProfile{}, fmt.Errorf("fmp profile: %w", err)
	}
	if len(items) == 0 {
		return FMPProfile{}, nil
	}
	return items[0], nil
}

// Quote returns the latest quote, or a zero quote for unknown symbols.
func (c *FMPClient) Quote(ctx context.Context, symbol string) (FMPQuote, error) {
	var items []FMPQuote
	if err := c.get(ctx, "quote", c.url("/quote/"+url.PathEscape(symbol), nil), &items); err != nil {
		return FMPQuote{}, fmt.Errorf("fmp quote: %w", err)
	}
	if len(items) == 0 {
		return FMPQuote{}, nil
	}
	return items[0], nil
}

// Historical returns the daily bars FMP has for symbol in provider order
// (newest first). An unknown symbol yields no bars.
func (c *FMPClient) Historical(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	var data struct {
		Symbol     string             `json:"symbol"`
		Historical []fmpHistoricalBar `json:"historical"`
	}
	if err := c.get(ctx, "historical", c.url("/historical-price-full/"+url.PathEscape(symbol), nil), &data); err != nil {
		return nil, fmt.Errorf("fmp historical: %w", err)
	}

	bars := make([]models.PriceBar, 0, len(data.Historical))
	for _, h := range data.Historical {
		bars = append(bars, models.PriceBar{
			Date:   h.Date,
			Open:   h.Open,
			High:   h.High,
			Low:    h.Low,
			Close:  h.Close,
			Volume: int64(math.Round(h.Volume)),
		})
	}
	return bars, nil
}

func (c *FMPClient) url(path string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("apikey", c.apiKey)
	return strings.TrimRight(c.baseURL, "/") + path + "?" + q.Encode()
}
