package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/climate-match-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-match-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-match-service/internal/config"
	"github.com/couchcryptid/climate-match-service/internal/domain"
	"github.com/couchcryptid/climate-match-service/internal/matcher"
	"github.com/couchcryptid/climate-match-service/internal/observability"
	"github.com/couchcryptid/climate-match-service/internal/regioncache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cities := domain.DefaultCities()
	if cfg.CitiesFile != "" {
		cities, err = domain.LoadCities(cfg.CitiesFile)
		if err != nil {
			logger.Error("failed to load city catalogue", "error", err, "path", cfg.CitiesFile)
			os.Exit(1)
		}
	}

	ip, err := domain.NewInterpolator(cities,
		domain.WithNeighbors(cfg.IDWNeighbors),
		domain.WithPower(cfg.IDWPower),
	)
	if err != nil {
		logger.Error("failed to create interpolator", "error", err)
		os.Exit(1)
	}

	engine, err := matcher.NewEngine(ip, cfg.GridLatStep, cfg.GridLonStep, cfg.MaxRegionCells)
	if err != nil {
		logger.Error("failed to build grid", "error", err)
		os.Exit(1)
	}
	metrics.GridPoints.Set(float64(len(engine.Grid().Points)))
	logger.Info("grid interpolated",
		"cities", len(cities),
		"points", len(engine.Grid().Points),
		"lat_step", cfg.GridLatStep,
		"lon_step", cfg.GridLonStep,
		"neighbors", cfg.IDWNeighbors,
		"power", cfg.IDWPower,
	)

	cache := regioncache.New(engine, cfg.RegionCacheSize, metrics)

	opts := []matcher.Option{
		matcher.WithDebounce(cfg.FilterDebounce, cfg.ZoomDebounce),
		matcher.WithMaxCells(cfg.MaxRegionCells),
	}

	// Snapshot publishing is feature-flagged via KAFKA_ENABLED.
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		opts = append(opts, matcher.WithPublisher(publisher))
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl, err := matcher.New(ctx, cache, logger, metrics, opts...)
	if err != nil {
		logger.Error("failed to compute initial layers", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ctrl, engine, cache, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start match controller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Run(ctx); err != nil {
			logger.Error("controller error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	<-done
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
