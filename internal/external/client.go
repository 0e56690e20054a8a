package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/httputil"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/metrics"
)

const defaultTimeout = 10 * time.Second

// Options configures a provider client. Zero values fall back to defaults.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Metrics *metrics.Metrics
}

// baseClient is shared by the provider clients: one http.Client, one
// logger, and per-endpoint metrics.
type baseClient struct {
	provider   string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func newBaseClient(provider, defaultBaseURL string, opts Options) baseClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return baseClient{
		provider:   provider,
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    opts.Metrics,
		logger:     log.With().Str("component", provider+"_client").Logger(),
	}
}

// get fetches url and decodes it into out. endpoint labels metrics and logs
// and must not contain secrets.
func (c *baseClient) get(ctx context.Context, endpoint, url string, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%s API key not configured", c.provider)
	}

	start := time.Now()
	var raw json.RawMessage
	err := httputil.GetJSON(ctx, c.httpClient, url, &raw)
	if err == nil {
		err = c.checkErrorBody(raw)
	}
	if err == nil {
		if uerr := json.Unmarshal(raw, out); uerr != nil {
			err = fmt.Errorf("decode %s response: %w", endpoint, uerr)
		}
	}

	if c.metrics != nil {
		c.metrics.ObserveUpstream(c.provider, endpoint, start, err)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Dur("took", time.Since(start)).Msg("upstream call failed")
		return err
	}
	c.logger.Debug().Str("endpoint", endpoint).Dur("took", time.Since(start)).Msg("upstream call ok")
	return nil
}

// checkErrorBody rejects 200 responses that carry a provider error object.
func (c *baseClient) checkErrorBody(raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var e struct {
		FMPError string `json:"Error Message"`
		Error    string `json:"error"`
	}
	if json.Unmarshal(trimmed, &e) != nil {
		return nil
	}
	switch {
	case e.FMPError != "":
		return fmt.Errorf("%s error: %s", c.provider, e.FMPError)
	case e.Error != "":
		return fmt.Errorf("%s error: %s", c.provider, e.Error)
	}
	return nil
}
