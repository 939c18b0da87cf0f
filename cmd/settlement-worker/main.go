package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/radieske/bet-session-service/internal/bets"
	"github.com/radieske/bet-session-service/internal/notify"
	"github.com/radieske/bet-session-service/internal/settlement"
	"github.com/radieske/bet-session-service/internal/shared/config"
	"github.com/radieske/bet-session-service/internal/shared/db"
	"github.com/radieske/bet-session-service/internal/shared/kafka"
	"github.com/radieske/bet-session-service/internal/shared/logger"
	"github.com/radieske/bet-session-service/internal/shared/metrics"
)

// settlement-worker: versão standalone do watcher, com snapshot em
// Postgres pra sobreviver a restart sem re-emitir liquidação antiga.
func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected")

	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	publisher := &notify.KafkaPublisher{Log: log, Settled: settledWriter}

	betsClient := bets.NewClient(cfg.BetsAPIURL, cfg.APIToken)

	watcher := settlement.NewWatcher(log, betsClient, settlement.NewPostgresStore(pg))
	watcher.SetInterval(cfg.SettlementInterval)
	watcher.OnPoll = func() { metrics.SettlementPollsTotal.Inc() }
	watcher.OnPollError = func() { metrics.SettlementPollErrors.Inc() }
	watcher.OnSettled = func(rec *bets.Record) {
		metrics.SettlementsDetected.WithLabelValues(rec.Status).Inc()
		if err := publisher.PublishSettled(context.Background(), rec); err != nil {
			log.Warn("bet settled publish", zap.Error(err))
		}
	}

	metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		log.Error("settlement watcher stopped", zap.Error(err))
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
