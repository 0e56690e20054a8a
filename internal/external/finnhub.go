package external

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/models"
)

const (
	finnhubBaseURL = "https://finnhub.io/api/v1"
	finnhubSource  = "Finnhub"
)

// FinnhubClient covers the Finnhub symbol lookup endpoint.
type FinnhubClient struct {
	baseClient
}

func NewFinnhubClient(opts Options) *FinnhubClient {
	return &FinnhubClient{baseClient: newBaseClient("finnhub", finnhubBaseURL, opts)}
}

// SearchCompanies returns Finnhub symbol lookup matches for query. Finnhub
// does not report an exchange, so Exchange is left empty.
func (c *FinnhubClient) SearchCompanies(ctx context.Context, query string) ([]models.CompanyMatch, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("token", c.apiKey)

	var data struct {
		Count  int `json:"count"`
		Result []struct {
			Description   string `json:"description"`
			DisplaySymbol string `json:"displaySymbol"`
			Symbol        string `json:"symbol"`
			Type          string `json:"type"`
		} `json:"result"`
	}
	u := strings.TrimRight(c.baseURL, "/") + "/search?" + q.Encode()
	if err := c.get(ctx, "search", u, &data); err != nil {
		return nil, fmt.Errorf("finnhub search: %w", err)
	}

	out := make([]models.CompanyMatch, 0, len(data.Result))
	for _, r := range data.Result {
		sym := r.DisplaySymbol
		if sym == "" {
			sym = r.Symbol
		}
		out = append(out, models.CompanyMatch{
			Symbol: sym,
			Name:   r.Description,
			Type:   "stock",
			Source: finnhubSource,
		})
	}
	return out, nil
}
