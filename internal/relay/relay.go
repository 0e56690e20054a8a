// Package relay turns client requests into provider calls and shapes the
// provider responses into the screener's envelopes.
package relay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/external"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/indicators"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/metrics"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/models"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/recorder"
)

const (
	// ChartWindow is the number of most recent bars a chart carries.
	// Indicators are computed over this window only.
	ChartWindow = 50

	MaxSearchResults = 5
	DefaultPeriod    = "3mo"

	recordTimeout = 2 * time.Second
)

var (
	ErrEmptyQuery    = errors.New("query parameter is required")
	ErrInvalidSymbol = errors.New("invalid symbol")
)

var symbolRegexp = regexp.MustCompile(`^[A-Za-z0-9.\-^=]{1,20}$`)

// knownPeriods are the ranges the frontend offers. period never changes the
// chart window; any value is accepted.
var knownPeriods = map[string]bool{"1mo": true, "3mo": true, "1y": true, "5y": true}

type CompanySearcher interface {
	SearchCompanies(ctx context.Context, query string) ([]models.CompanyMatch, error)
}

type StockSource interface {
	Profile(ctx context.Context, symbol string) (external.FMPProfile, error)
	Quote(ctx context.Context, symbol string) (external.FMPQuote, error)
}

type HistorySource interface {
	Historical(ctx context.Context, symbol string) ([]models.PriceBar, error)
}

// Deps wires a Service. Recorder and Metrics are optional.
type Deps struct {
	Searcher CompanySearcher
	Stocks   StockSource
	History  HistorySource
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
}

type Service struct {
	searcher CompanySearcher
	stocks   StockSource
	history  HistorySource
	recorder recorder.Recorder
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(d Deps) *Service {
	rec := d.Recorder
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{
		searcher: d.Searcher,
		stocks:   d.Stocks,
		history:  d.History,
		recorder: rec,
		metrics:  d.Metrics,
		logger:   log.With().Str("component", "relay").Logger(),
		now:      time.Now,
	}
}

// NormalizeSymbol validates a ticker and upper-cases it.
func NormalizeSymbol(symbol string) (string, error) {
	symbol = strings.TrimSpace(symbol)
	if !symbolRegexp.MatchString(symbol) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return strings.ToUpper(symbol), nil
}

// Search returns at most MaxSearchResults matches for query.
func (s *Service) Search(ctx context.Context, query string) ([]models.CompanyMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	matches, err := s.searcher.SearchCompanies(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(matches) > MaxSearchResults {
		matches = matches[:MaxSearchResults]
	}
	if matches == nil {
		matches = []models.CompanyMatch{}
	}
	return matches, nil
}

// Stock fetches profile and quote concurrently and merges them. Fields the
// provider does not know stay at their zero value.
func (s *Service) Stock(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	var (
		profile external.FMPProfile
		quote   external.FMPQuote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.stocks.Profile(gctx, sym)
		return err
	})
	g.Go(func() error {
		var err error
		quote, err = s.stocks.Quote(gctx, sym)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pe := profile.PE
	if pe == 0 {
		pe = quote.PE
	}

	return &models.StockSnapshot{
		Symbol:        sym,
		Name:          profile.CompanyName,
		Price:         quote.Price,
		Change:        quote.Change,
		PercentChange: quote.ChangesPercentage,
		Volume:        int64(math.Round(quote.Volume)),
		MarketCap:     profile.MktCap,
		PE:            pe,
		Sector:        profile.Sector,
		Website:       profile.Website,
		Description:   profile.Description,
	}, nil
}

// Chart fetches daily history, keeps the ChartWindow most recent bars in
// ascending date order, and computes indicators over that window. Bars with
// unparsable dates are skipped.
func (s *Service) Chart(ctx context.Context, symbol, period string) (*models.ChartData, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = DefaultPeriod
	}
	if !knownPeriods[period] {
		s.logger.Debug().Str("symbol", sym).Str("period", period).Msg("unrecognised chart period, ignoring")
	}

	raw, err := s.history.Historical(ctx, sym)
	if err != nil {
		return nil, err
	}

	series, skipped := models.NewPriceSeries(raw)
	if skipped > 0 {
		s.logger.Warn().Str("symbol", sym).Int("skipped", skipped).Msg("dropped bars with invalid dates")
	}
	window := series.Tail(ChartWindow)
	ind := indicators.Compute(window)

	s.observeAbsent(ind)
	s.record(ctx, sym, window, ind)

	return &models.ChartData{
		Symbol:     sym,
		ChartData:  window,
		Indicators: ind,
	}, nil
}

func (s *Service) observeAbsent(ind models.IndicatorResult) {
	if s.metrics == nil {
		return
	}
	if ind.RSI == nil {
		s.metrics.IndicatorsAbsent.WithLabelValues("rsi").Inc()
	}
	if ind.SMA20 == nil {
		s.metrics.IndicatorsAbsent.WithLabelValues("sma20").Inc()
	}
	if ind.SMA50 == nil {
		s.metrics.IndicatorsAbsent.WithLabelValues("sma50").Inc()
	}
}

// record never fails the request; errors are logged and counted.
func (s *Service) record(ctx context.Context, sym string, window models.PriceSeries, ind models.IndicatorResult) {
	snap := &recorder.ChartSnapshot{
		Symbol:     sym,
		Bars:       len(window),
		Indicators: ind,
		ServedAt:   s.now().UTC(),
	}
	if len(window) > 0 {
		snap.LastDate = window[len(window)-1].Date
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.recorder.RecordChart(rctx, snap); err != nil {
		s.logger.Warn().Err(err).Str("symbol", sym).Msg("chart snapshot not recorded")
		if s.metrics != nil {
			s.metrics.RecorderErrors.Inc()
		}
	}
}
