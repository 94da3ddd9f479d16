package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cityscope/internal/district"
	dmetrics "cityscope/internal/district/metrics"
	"cityscope/internal/district/handler"
	"cityscope/internal/district/resolver"
	"cityscope/internal/district/service"
	"cityscope/internal/platform/config"
	"cityscope/internal/platform/httpserver"
	"cityscope/internal/platform/logger"
	"cityscope/internal/platform/metrics"
	"cityscope/internal/platform/tracing"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal district packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cityscope: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("trace flush failed", "error", err)
		}
	}()

	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	districtMetrics := dmetrics.New()
	geocoder := buildGeocoder(cfg.Geocoder, deps.redis, log, districtMetrics)

	names := district.NewResolver(deps.catalog,
		resolver.WithLogger(log),
		resolver.WithMetrics(districtMetrics),
		resolver.WithSnapshotTTL(cfg.Resolver.SnapshotTTL),
	)
	svc := district.NewService(deps.catalog, names,
		service.WithLogger(log),
		service.WithMetrics(districtMetrics),
		service.WithGeocoder(geocoder),
		service.WithQualifier(cfg.Geocoder.Qualifier),
		service.WithDistrictFields(cfg.Geocoder.DistrictFields),
	)
	h := district.NewHandler(svc, log,
		handler.WithAddressRateLimit(cfg.Server.AddressRateLimit, time.Minute),
	)

	router := newRouter(h, deps, metrics.New(), log)
	return httpserver.Run(ctx, httpserver.New(cfg.Server.Addr, router), log)
}
