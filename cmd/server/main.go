package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/api"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/config"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/db"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/external"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/logging"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/metrics"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/recorder"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/relay"
)

const banner = `
╔══════════════════════════════════════╗
║   Money Milan Stock Screener API     ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Chart audit log (optional)
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		if err := db.TestConnection(ctx, pool); err != nil {
			pool.Close()
			log.Fatal().Err(err).Msg("database test query failed")
		}
		pgRec, err := recorder.NewPostgresRecorder(ctx, pool)
		if err != nil {
			pool.Close()
			log.Fatal().Err(err).Msg("recorder setup failed")
		}
		rec = pgRec
	}
	defer func() {
		rec.Close()
		log.Info().Msg("recorder closed")
	}()

	// Providers
	fmp := external.NewFMPClient(external.Options{
		APIKey:  cfg.FMPAPIKey,
		BaseURL: cfg.FMPBaseURL,
		Timeout: cfg.UpstreamTimeout,
		Metrics: m,
	})

	var searcher relay.CompanySearcher = fmp
	if cfg.SearchProvider == config.SearchProviderFinnhub {
		searcher = external.NewFinnhubClient(external.Options{
			APIKey:  cfg.FinnhubAPIKey,
			BaseURL: cfg.FinnhubBaseURL,
			Timeout: cfg.UpstreamTimeout,
			Metrics: m,
		})
	}

	svc := relay.NewService(relay.Deps{
		Searcher: searcher,
		Stocks:   fmp,
		History:  fmp,
		Recorder: rec,
		Metrics:  m,
	})

	srv := api.NewServer(svc, api.Options{
		Port:           cfg.Port,
		CORSOrigin:     cfg.CORSAllowOrigin,
		ReadTimeout:    cfg.HTTPReadTimeout,
		WriteTimeout:   cfg.HTTPWriteTimeout,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Metrics:        m,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("shutdown complete")
}
