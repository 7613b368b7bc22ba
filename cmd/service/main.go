package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"weatherreport/internal/astro"
	"weatherreport/internal/cache"
	"weatherreport/internal/config"
	httphandler "weatherreport/internal/http"
	"weatherreport/internal/i18n"
	"weatherreport/internal/models"
	"weatherreport/internal/observability"
	"weatherreport/internal/provider"
	"weatherreport/internal/quota"
	"weatherreport/internal/render"
	"weatherreport/internal/report"
	"weatherreport/internal/service"
	"weatherreport/internal/store"
	"weatherreport/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	var st store.Store
	var locations store.LocationKeys
	var pg *postgres.DB
	if cfg.PostgresDSN != "" {
		pg, err = postgres.Open(cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		st, locations = pg, pg
		logger.Info("store backend: postgres")
	} else {
		mem := store.NewMemory()
		st, locations = mem, mem
		logger.Warn("store backend: in-memory, reports are lost on restart")
	}

	openMeteo := provider.NewOpenMeteo(cfg.OpenMeteoURL, cfg.ProviderTimeout)
	openWeatherMap := provider.NewOpenWeatherMap(cfg.OpenWeatherMapURL, cfg.OpenWeatherMapToken, cfg.ProviderTimeout)
	accuWeather := provider.NewAccuWeather(cfg.AccuWeatherURL, cfg.AccuWeatherToken, cfg.ProviderTimeout, locations)

	sources := service.Sources{
		models.OpenMeteoCurrent:     {Fetch: openMeteo.Hourly},
		models.OpenMeteoDaily:       {Fetch: openMeteo.Daily},
		models.OpenMeteoHourly:      {Fetch: openMeteo.Hourly},
		models.OpenMeteoMultiHeight: {Fetch: openMeteo.MultiHeight},
		models.OpenWeatherMapCurrent: {
			Fetch:     openWeatherMap.Current,
			Available: openWeatherMap.Available,
		},
		models.OpenWeatherMapHourly: {
			Fetch:     openWeatherMap.Forecast,
			Available: openWeatherMap.Available,
		},
		models.AccuWeatherHourly: {
			Fetch:     accuWeather.Hourly,
			Available: accuWeather.Available,
		},
	}

	catalog := i18n.NewCatalog()
	formatter := report.NewFormatter(report.Config{
		DailyItemsPerPage:       cfg.DailyItemsPerPage,
		HourlyDaysPerPage:       cfg.HourlyDaysPerPage,
		HourlyItemsPerDay:       cfg.HourlyItemsPerDay,
		MultiHeightItemsPerPage: cfg.MultiHeightItemsPerPage,
	}, catalog, astro.SunTimes)

	pipeline := service.NewPipeline(
		service.Config{
			QuotaDefault:    cfg.QuotaDefault,
			QuotaWindow:     cfg.QuotaWindow,
			QuotaOverrides:  cfg.QuotaOverrides,
			CoalesceTimeout: cfg.CoalesceTimeout,
		},
		cache.New(st, cache.Config{
			Lifetime:                cfg.CacheLifetime,
			DistanceThresholdMeters: cfg.DistanceThresholdMeters,
		}),
		quota.New(st),
		formatter,
		render.New(catalog).Grid,
		sources,
	)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	router := httphandler.NewRouter(httphandler.NewHandler(pipeline, catalog, logger), logger, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if pg != nil {
		if err := pg.Close(); err != nil {
			logger.Error("postgres close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
