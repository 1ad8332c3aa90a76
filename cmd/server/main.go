package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/stegverse/cfp-tickets-api/internal/affiliate"
	"github.com/stegverse/cfp-tickets-api/internal/analytics"
	"github.com/stegverse/cfp-tickets-api/internal/campaigns"
	"github.com/stegverse/cfp-tickets-api/internal/config"
	"github.com/stegverse/cfp-tickets-api/internal/hooks"
	"github.com/stegverse/cfp-tickets-api/internal/httpx"
	"github.com/stegverse/cfp-tickets-api/internal/logger"
	"github.com/stegverse/cfp-tickets-api/internal/metricsx"
	"github.com/stegverse/cfp-tickets-api/internal/partnerize"
	"github.com/stegverse/cfp-tickets-api/internal/report"
	"github.com/stegverse/cfp-tickets-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("cfp-tickets-api", "info")
		bootLog.Fatal().Err(err).Msg("config")
	}
	log := logger.New("cfp-tickets-api", cfg.App.LogLevel)

	ctx := context.Background()

	var kv store.KV = store.NewMemory()
	if cfg.Redis.URL != "" {
		rkv, err := store.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory config store")
		} else {
			kv = rkv
			defer rkv.Close()
		}
	}

	api := analytics.NewClient(cfg.Analytics.BaseURL, cfg.App.HTTPTimeout)
	builder := report.NewBuilder(api, campaigns.Default(),
		report.WithClickLimit(cfg.Analytics.ClickLimit))

	links := affiliate.NewLinkBuilder(
		cfg.SeatGeek.WebBase, cfg.SeatGeek.AffiliateCode,
		cfg.StubHub.WebBase, cfg.StubHub.AffiliateCode,
		cfg.App.DefaultProvider,
	)
	pz := partnerize.NewClient(cfg.Partnerize.BaseURL, cfg.Partnerize.AppKey, cfg.Partnerize.UserAPIKey, cfg.App.HTTPTimeout)

	r := httpx.NewRouter(log, httpx.Deps{
		Report:            builder,
		Snapshots:         store.NewSnapshotStore(),
		Links:             links,
		Partnerize:        pz,
		KV:                kv,
		Hooks:             hooks.NewTrigger(cfg.App.HTTPTimeout),
		Metrics:           metricsx.New(),
		ExportPrefix:      cfg.Report.ExportPrefix,
		DefaultWindowDays: cfg.Report.DefaultWindowDays,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("port", cfg.App.Port).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
