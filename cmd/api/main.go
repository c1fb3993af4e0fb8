package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"leopards-connector/internal/core/cache"
	"leopards-connector/internal/core/config"
	"leopards-connector/internal/core/database"
	"leopards-connector/internal/core/httpclient"
	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/core/proxy"
	"leopards-connector/internal/core/server"
	salesadapters "leopards-connector/internal/features/salespersons/adapters"
	saleshandler "leopards-connector/internal/features/salespersons/handler"
	salesservice "leopards-connector/internal/features/salespersons/service"
	shipadapters "leopards-connector/internal/features/shipments/adapters"
	"leopards-connector/internal/features/shipments/domain"
	shiphandler "leopards-connector/internal/features/shipments/handler"
	"leopards-connector/internal/features/shipments/ports"
	shipservice "leopards-connector/internal/features/shipments/service"
	upselladapters "leopards-connector/internal/features/upselling/adapters"
	upsellhandler "leopards-connector/internal/features/upselling/handler"
	upsellservice "leopards-connector/internal/features/upselling/service"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// @title Leopards Connector API
// @version 1.0
// @description Leopards Courier shipping connector with POS upselling and line salesperson services.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, cfg.LogLevel)
	if err != nil {
		l.Fatal("Database connection failed", zap.Error(err))
	}
	defer database.Close(db)

	models := append(shipadapters.Models(), upselladapters.Models()...)
	models = append(models, salesadapters.Models()...)
	if err := database.Migrate(db, models...); err != nil {
		l.Fatal("Database migration failed", zap.Error(err))
	}

	fixedPrice, err := decimal.NewFromString(cfg.Leopards.FixedPrice)
	if err != nil {
		l.Fatal("Invalid fixed price", zap.String("value", cfg.Leopards.FixedPrice), zap.Error(err))
	}

	var defaultShipper *uuid.UUID
	if cfg.Leopards.DefaultShipperID != "" {
		id, err := uuid.Parse(cfg.Leopards.DefaultShipperID)
		if err != nil {
			l.Fatal("Invalid default shipper id", zap.Error(err))
		}
		defaultShipper = &id
	}

	// Courier
	proxySettings := proxy.FromConfig(cfg.Proxy)
	var clientOpts []httpclient.Option
	if proxySettings.HasProxy() {
		clientOpts = append(clientOpts, httpclient.WithProxy(proxySettings))
		l.Info("Courier traffic goes through proxy", zap.String("proxy", proxySettings.HostPort()))
	}
	courier := shipadapters.NewLeopardsAdapter(cfg.Leopards, clientOpts...)

	// Tariff cache
	var tariffCache ports.TariffCache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL)
		if err != nil {
			l.Fatal("Redis configuration invalid", zap.Error(err))
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			l.Warn("Redis unreachable, tariff quotes are not cached", zap.Error(err))
		} else {
			tariffCache = shipadapters.NewCachedTariffs(redisCache, cfg.Redis.RateCacheTTL())
		}
	}

	// Label storage
	var labels ports.LabelStore = shipadapters.NewGormLabelStore(db)
	if cfg.Storage.Bucket != "" {
		s3Store, err := shipadapters.NewS3LabelStore(ctx, cfg.Storage)
		if err != nil {
			l.Fatal("Label storage configuration invalid", zap.Error(err))
		}
		labels = s3Store
	}

	var renderer ports.LabelRenderer
	if cfg.Leopards.RenderHTMLLabels {
		renderer = shipadapters.NewRodLabelRenderer(proxySettings)
	}

	// Shipments
	quotes := shipservice.NewQuoteService(courier, tariffCache, fixedPrice, cfg.Leopards.CODEnabled)
	shippers := shipadapters.NewGormShipperRepository(db)
	shipments := shipservice.NewShipmentService(
		courier,
		quotes,
		shipadapters.NewGormShipmentRepository(db),
		shippers,
		shipadapters.NewGormEventLog(db),
		labels,
		renderer,
		shipservice.Settings{
			Company: domain.Company{
				Name:   cfg.Company.Name,
				Email:  cfg.Company.Email,
				Phone:  cfg.Company.Phone,
				Street: cfg.Company.Street,
			},
			DefaultShipperID: defaultShipper,
			TrackingURL:      cfg.Leopards.TrackingURL,
			TrustCancelHint:  cfg.Leopards.TrustCancelHint,
			RefreshLookback:  cfg.Jobs.RefreshLookback(),
			RefreshBatch:     cfg.Jobs.RefreshBatch,
			CancelBatch:      cfg.Jobs.CancelBatch,
		},
		clock.WallClock,
	)
	shipmentHandler := shiphandler.NewShipmentHandler(shipments, shipservice.NewShipperService(shippers))

	// POS
	upsellHandler := upsellhandler.NewUpsellHandler(
		upsellservice.NewUpsellService(upselladapters.NewGormRuleRepository(db)),
	)
	salespersonHandler := saleshandler.NewSalespersonHandler(
		salesservice.NewSalespersonService(salesadapters.NewGormRepository(db)),
	)

	srv := server.New(cfg)

	// Register Routes
	shipmentHandler.Register(srv.App)
	upsellHandler.Register(srv.App)
	salespersonHandler.Register(srv.App)

	poller := shipservice.NewPoller(shipments, clock.WallClock, cfg.Jobs.RefreshInterval(), cfg.Jobs.CancelInterval())
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		poller.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			l.Error("Server failed", zap.Error(err))
		}
		stop()
	case <-ctx.Done():
		l.Info("Shutting down")
		if err := srv.Shutdown(); err != nil {
			l.Error("Server shutdown failed", zap.Error(err))
		}
	}

	select {
	case <-pollerDone:
	case <-time.After(30 * time.Second):
		l.Warn("Background jobs did not stop in time")
	}
}
