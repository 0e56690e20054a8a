package external_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/external"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/metrics"
)

// fakeFMP serves canned bodies keyed by request path and records the
// last query string seen.
func fakeFMP(t *testing.T, bodies map[string]string, lastQuery *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lastQuery != nil {
			*lastQuery = r.URL.RawQuery
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFMPSearchCompanies(t *testing.T) {
	var query string
	srv := fakeFMP(t, map[string]string{
		"/search": `[
			{"symbol":"AAPL","name":"Apple Inc.","currency":"USD","stockExchange":"NASDAQ Global Select","exchangeShortName":"NASDAQ"},
			{"symbol":"APLE","name":"Apple Hospitality REIT","exchangeShortName":"NYSE"}
		]`,
	}, &query)

	client := external.NewFMPClient(external.Options{APIKey: "k1", BaseURL: srv.URL})
	got, err := client.SearchCompanies(context.Background(), "apple inc")
	if err != nil {
		t.Fatalf("SearchCompanies: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].Symbol != "AAPL" || got[0].Exchange != "NASDAQ" || got[0].Type != "stock" || got[0].Source != "FMP" {
		t.Fatalf("unexpected first match: %+v", got[0])
	}
	for _, want := range []string{"query=apple+inc", "limit=10", "apikey=k1"} {
		if !strings.Contains(query, want) {
			t.Fatalf("query %q missing %q", query, want)
		}
	}
}

func TestFMPProfileAndQuote(t *testing.T) {
	srv := fakeFMP(t, map[string]string{
		"/profile/MSFT": `[{"companyName":"Microsoft Corporation","mktCap":3100000000000,"sector":"Technology","website":"https://www.microsoft.com","description":"Software."}]`,
		"/quote/MSFT":   `[{"price":415.5,"change":-2.25,"changesPercentage":-0.54,"volume":19876543,"pe":36.1}]`,
	}, nil)

	client := external.NewFMPClient(external.Options{APIKey: "k", BaseURL: srv.URL})
	ctx := context.Background()

	p, err := client.Profile(ctx, "MSFT")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.CompanyName != "Microsoft Corporation" || p.Sector != "Technology" {
		t.Fatalf("profile: %+v", p)
	}

	q, err := client.Quote(ctx, "MSFT")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Price != 415.5 || q.ChangesPercentage != -0.54 || q.PE != 36.1 {
		t.Fatalf("quote: %+v", q)
	}
}

func TestFMPProfile_UnknownSymbol(t *testing.T) {
	srv := fakeFMP(t, map[string]string{"/profile/ZZZZ": `[]`}, nil)

	client := external.NewFMPClient(external.Options{APIKey: "k", BaseURL: srv.URL})
	p, err := client.Profile(context.Background(), "ZZZZ")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p != (external.FMPProfile{}) {
		t.Fatalf("expected zero profile, got %+v", p)
	}
}

func TestFMPHistorical(t *testing.T) {
	srv := fakeFMP(t, map[string]string{
		"/historical-price-full/AAPL": `{"symbol":"AAPL","historical":[
			{"date":"2024-05-03","open":186.6,"high":187,"low":182.66,"close":183.38,"volume":163224109.0},
			{"date":"2024-05-02","open":172.51,"high":173.42,"low":170.89,"close":173.03,"volume":94214915}
		]}`,
	}, nil)

	client := external.NewFMPClient(external.Options{APIKey: "k", BaseURL: srv.URL})
	bars, err := client.Historical(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Historical: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Date != "2024-05-03" || bars[0].Volume != 163224109 || bars[0].Close != 183.38 {
		t.Fatalf("first bar: %+v", bars[0])
	}
}

func TestFMPHistorical_EmptyForUnknownSymbol(t *testing.T) {
	srv := fakeFMP(t, map[string]string{"/historical-price-full/ZZZZ": `{}`}, nil)

	client := external.NewFMPClient(external.Options{APIKey: "k", BaseURL: srv.URL})
	bars, err := client.Historical(context.Background(), "ZZZZ")
	if err != nil {
		t.Fatalf("Historical: %v", err)
	}
	if len(bars) != 0 {
		t.Fatalf("expected no bars, got %d", len(bars))
	}
}

func TestFMP_ErrorMessageBody(t *testing.T) {
	srv := fakeFMP(t, map[string]string{
		"/quote/AAPL": `{"Error Message":"Invalid API KEY. Please retry or visit our documentation."}`,
	}, nil)

	client := external.NewFMPClient(external.Options{APIKey: "bad", BaseURL: srv.URL})
	_, err := client.Quote(context.Background(), "AAPL")
	if err == nil || !strings.Contains(err.Error(), "Invalid API KEY") {
		t.Fatalf("expected provider error message, got %v", err)
	}
}

func TestFMP_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("Limit Reach"))
	}))
	defer srv.Close()

	m := metrics.New()
	client := external.NewFMPClient(external.Options{APIKey: "k", BaseURL: srv.URL, Metrics: m})
	_, err := client.SearchCompanies(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 error, got %v", err)
	}
	if got := testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("fmp", "search", "error")); got != 1 {
		t.Fatalf("error metric = %v, want 1", got)
	}
}

func TestFMP_MissingAPIKey(t *testing.T) {
	client := external.NewFMPClient(external.Options{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.Quote(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestFMP_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := external.NewFMPClient(external.Options{APIKey: "k", BaseURL: srv.URL, Timeout: 100 * time.Millisecond})
	if _, err := client.Quote(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFinnhubSearchCompanies(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		query = r.URL.RawQuery
		w.Write([]byte(`{"count":2,"result":[
			{"description":"APPLE INC","displaySymbol":"AAPL","symbol":"AAPL","type":"Common Stock"},
			{"description":"APPLE INC","displaySymbol":"","symbol":"AAPL.SW","type":"Common Stock"}
		]}`))
	}))
	defer srv.Close()

	client := external.NewFinnhubClient(external.Options{APIKey: "tok", BaseURL: srv.URL})
	got, err := client.SearchCompanies(context.Background(), "apple")
	if err != nil {
		t.Fatalf("SearchCompanies: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].Symbol != "AAPL" || got[0].Name != "APPLE INC" || got[0].Source != "Finnhub" {
		t.Fatalf("first match: %+v", got[0])
	}
	if got[1].Symbol != "AAPL.SW" {
		t.Fatalf("fallback to symbol when displaySymbol empty, got %q", got[1].Symbol)
	}
	if !strings.Contains(query, "token=tok") || !strings.Contains(query, "q=apple") {
		t.Fatalf("unexpected query %q", query)
	}
}

func TestProviderKeysNotInTransportErrors(t *testing.T) {
	ctx := context.Background()

	fmp := external.NewFMPClient(external.Options{APIKey: "SECRET-KEY-123", BaseURL: "http://127.0.0.1:1"})
	if _, err := fmp.Historical(ctx, "AAPL"); err == nil {
		t.Fatal("expected connection error")
	} else if strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Fatalf("fmp API key leaked in error: %v", err)
	}

	finnhub := external.NewFinnhubClient(external.Options{APIKey: "SECRET-TOKEN-456", BaseURL: "http://127.0.0.1:1"})
	if _, err := finnhub.SearchCompanies(ctx, "apple"); err == nil {
		t.Fatal("expected connection error")
	} else if strings.Contains(err.Error(), "SECRET-TOKEN-456") {
		t.Fatalf("finnhub token leaked in error: %v", err)
	}
}
