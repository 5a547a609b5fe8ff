package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rushikeshnagarkar/balutedaar-app/api/controllers"
	"github.com/rushikeshnagarkar/balutedaar-app/api/routes"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/cart"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/catalog"
	checkoutsvc "github.com/rushikeshnagarkar/balutedaar-app/internal/checkout"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/conversation"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/inventory"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/messagelog"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/orders"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/referrals"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/users"
	paymentwebhook "github.com/rushikeshnagarkar/balutedaar-app/internal/webhooks/payment"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/gateway"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/metrics"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/migrate"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/payments"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	botMetrics := metrics.NewBotMetrics(registry)

	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	invRepo := inventory.NewRepository(conn)
	referralsRepo := referrals.NewRepository(conn)
	resolver := catalog.NewResolver(conn)
	auditLog := messagelog.NewRepository(conn, logg)

	sender, err := gateway.NewClient(cfg.Gateway, logg, auditLog)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}
	linkClient, err := payments.NewClient(cfg.Payments, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments client", err)
		os.Exit(1)
	}

	referralSvc, err := referrals.NewService(referralsRepo, cfg.Referral)
	if err != nil {
		logg.Error(context.Background(), "failed to create referrals service", err)
		os.Exit(1)
	}
	checkoutSvc, err := checkoutsvc.NewService(dbClient, usersRepo, cartRepo, ordersRepo, referralSvc, linkClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	conversationSvc, err := conversation.NewService(
		dbClient,
		usersRepo,
		cartRepo,
		resolver,
		invRepo,
		referralSvc,
		checkoutSvc,
		sender,
		conversation.Config{
			CatalogID: cfg.Catalog.CatalogID,
			Pincodes:  cfg.Catalog.Pincodes(),
		},
		botMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create conversation service", err)
		os.Exit(1)
	}
	reconciler, err := paymentwebhook.NewService(dbClient, ordersRepo, usersRepo, linkClient, sender, botMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment reconciler", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.Deps{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Webhook:    controllers.NewWebhookController(conversationSvc, redisClient, logg),
		Callback:   controllers.NewPaymentCallbackController(reconciler, logg),
		OrdersRepo: ordersRepo,
		InvRepo:    invRepo,
		Metrics:    registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCh:
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server stopped")
}
