package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rushikeshnagarkar/balutedaar-app/internal/cron"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/messagelog"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/orders"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/referrals"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/gateway"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/metrics"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/migrate"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/redis"
)

const lockKeyFormat = "bd:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	conn := dbClient.DB()
	referralSvc, err := referrals.NewService(referrals.NewRepository(conn), cfg.Referral)
	if err != nil {
		logg.Error(context.Background(), "failed to create referrals service", err)
		os.Exit(1)
	}
	sender, err := gateway.NewClient(cfg.Gateway, logg, messagelog.NewRepository(conn, logg))
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewReferralExpiryJob(logg, referralSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create referral expiry job", err)
		os.Exit(1)
	}
	nudgeJob, err := cron.NewPaymentNudgeJob(logg, orders.NewRepository(conn), sender, cfg.Cron.PendingPaymentCutoff)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment nudge job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiryJob, nudgeJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
