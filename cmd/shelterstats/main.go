package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"shelterstats/internal/amqp"
	"shelterstats/internal/backend"
	"shelterstats/internal/cache"
	"shelterstats/internal/cli"
	"shelterstats/internal/config"
	"shelterstats/internal/core"
	"shelterstats/internal/highlights"
	apphttp "shelterstats/internal/http"
	applog "shelterstats/internal/log"
	"shelterstats/internal/metrics"
	"shelterstats/internal/services"
	"shelterstats/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Service stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Sources
	srcCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	sources, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentSheets)).CreateSources(ctx, srcCfg)
	if err != nil {
		return err
	}
	defer cli.Close(logger, "sources", sources.Cleanup)

	loader := services.NewLoader(sources.Primary, sources.Fallback, core.FieldMap{
		Date:     cfg.DateField,
		Category: cfg.CategoryField,
	})

	cards, err := highlights.Load(ctx, cfg.HighlightsFile)
	if err != nil {
		return err
	}

	m := metrics.New()

	// Refresher collaborators are optional.
	opts := []worker.Option{worker.WithRecorder(m)}
	journal := cli.InitJournal(logger.WithComponent(applog.ComponentStorage), cfg.JournalDBPath)
	var runs apphttp.RunLister
	if journal != nil {
		defer cli.Close(logger, "journal", journal.Close)
		opts = append(opts, worker.WithJournal(journal))
		runs = journal
	}

	var broker *amqp.Client
	if cfg.AMQPURL != "" {
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			broker = nil
		} else {
			defer cli.Close(logger, "amqp", broker.Close)
			opts = append(opts, worker.WithPublisher(broker))
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	refresher := worker.NewRefresher(loader, worker.RefresherConfig{
		Interval:         cfg.RefreshInterval,
		Timeout:          cfg.RefreshTimeout,
		JournalRetention: cfg.JournalRetention,
	}, opts...)

	statsSvc := services.NewStatsService(refresher, services.StatsConfig{
		StartYear: cfg.StatsStartYear,
		Location:  loc,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	})
	m.RegisterCacheStats(statsSvc.CacheStats)

	caches := cache.NewManager()
	for _, c := range statsSvc.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:             ":" + cfg.Port,
		Stats:            statsSvc,
		Refresher:        refresher,
		Proxy:            sources.Boundary,
		Highlights:       cards,
		Journal:          runs,
		Observer:         m,
		MetricsHandler:   m.Handler(),
		Logger:           logger.WithComponent(applog.ComponentHTTP),
		ProxyTimeout:     cfg.SheetsTimeout,
		RefreshPerMinute: cfg.RefreshRatePerMinute,
		TrustedProxies:   cfg.TrustedProxies,
	})

	g, gctx := errgroup.WithContext(ctx)

	if err := refresher.Start(gctx); err != nil {
		return err
	}
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return refresher.Stop(stopCtx)
	})

	if broker != nil {
		g.Go(func() error {
			broker.ServeRefreshRequests(gctx, refresher.HandleRefreshRequest)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting shelterstats server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"data_source", cfg.DataSource,
			"refresh_interval", cfg.RefreshInterval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
