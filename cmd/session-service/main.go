package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/bet-session-service/internal/bets"
	"github.com/radieske/bet-session-service/internal/funds"
	"github.com/radieske/bet-session-service/internal/market"
	"github.com/radieske/bet-session-service/internal/notify"
	httpapi "github.com/radieske/bet-session-service/internal/session/http"
	"github.com/radieske/bet-session-service/internal/settlement"
	"github.com/radieske/bet-session-service/internal/shared/cache"
	"github.com/radieske/bet-session-service/internal/shared/config"
	"github.com/radieske/bet-session-service/internal/shared/kafka"
	"github.com/radieske/bet-session-service/internal/shared/logger"
	"github.com/radieske/bet-session-service/internal/shared/metrics"
	"github.com/radieske/bet-session-service/internal/slip"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	// Redis: cache de páginas de odds
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")

	// Kafka writers dos eventos da sessão
	activityWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetActivity)
	defer activityWriter.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()

	publisher := &notify.KafkaPublisher{
		Log:      log,
		Activity: activityWriter,
		Settled:  settledWriter,
	}

	// Clientes das capacidades externas
	oddsClient := market.NewClient(cfg.OddsServiceURL, market.NewCache(rdb))
	betsClient := bets.NewClient(cfg.BetsAPIURL, cfg.APIToken)
	fundsClient := funds.New(cfg.FundsAPIURL, cfg.APIToken)

	// Coordinator da página de odds
	coord := market.NewCoordinator(log, oddsClient)
	coord.OnFetch = func() { metrics.OddsFetchesTotal.Inc() }
	coord.OnCancelled = func() { metrics.OddsFetchesCancelled.Inc() }
	coord.OnError = func() { metrics.OddsFetchErrors.Inc() }
	defer coord.Close()

	// Notificações: centro + hub ws + espelho kafka
	hub := notify.NewHub(func(*http.Request) bool { return true })
	center := notify.NewCenter()
	center.OnPublish = func(n notify.Notification) {
		hub.Broadcast(n)
		metrics.NotificationsUnread.Set(float64(center.Unread()))
	}

	// Slip da sessão
	sm := slip.NewManager(log, fundsClient, betsClient)
	sm.OnConfirmed = func(rec *bets.Record) {
		center.NewBet(rec)
		if err := publisher.PublishActivity(context.Background(), rec); err != nil {
			log.Warn("bet activity publish", zap.Error(err))
		}
	}
	if err := sm.SeedPlaced(context.Background(), betsClient); err != nil {
		// histórico indisponível não derruba a sessão; a validação
		// server-side continua valendo
		log.Warn("seed placed index failed", zap.Error(err))
	}

	// Settlement watcher em background
	watcher := settlement.NewWatcher(log, betsClient, settlement.NewMemoryStore())
	watcher.SetInterval(cfg.SettlementInterval)
	watcher.OnPoll = func() { metrics.SettlementPollsTotal.Inc() }
	watcher.OnPollError = func() { metrics.SettlementPollErrors.Inc() }
	watcher.OnSettled = func(rec *bets.Record) {
		metrics.SettlementsDetected.WithLabelValues(rec.Status).Inc()
		center.Settled(rec)
		if err := publisher.PublishSettled(context.Background(), rec); err != nil {
			log.Warn("bet settled publish", zap.Error(err))
		}
	}
	go func() {
		if err := watcher.Run(context.Background()); err != nil && err != context.Canceled {
			log.Error("settlement watcher stopped", zap.Error(err))
		}
	}()

	// metrics/health
	metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	// API pública da sessão
	api := httpapi.NewServer(log, coord, sm, center, hub, betsClient, watcher)
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	log.Info("session-service listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
