package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
	ehttp "github.com/radieske/line-bet-platform/internal/event-service/http"
	"github.com/radieske/line-bet-platform/internal/event-service/lifecycle"
	"github.com/radieske/line-bet-platform/internal/event-service/publisher"
	"github.com/radieske/line-bet-platform/internal/event-service/settlement"
	"github.com/radieske/line-bet-platform/internal/event-service/store"
	"github.com/radieske/line-bet-platform/internal/event-service/ws"
	"github.com/radieske/line-bet-platform/internal/shared/cache"
	"github.com/radieske/line-bet-platform/internal/shared/config"
	"github.com/radieske/line-bet-platform/internal/shared/db"
	"github.com/radieske/line-bet-platform/internal/shared/kafka"
	"github.com/radieske/line-bet-platform/internal/shared/logger"
	"github.com/radieske/line-bet-platform/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load("event-service")
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var checks []metrics.Check

	// Redis: event store e/ou fan-out do WebSocket entre instâncias
	var rdb *redis.Client
	if cfg.EventStore == "redis" || cfg.WSFanout == "redis" {
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		checks = append(checks, metrics.Check{Name: "redis", Fn: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})
		log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	}

	// Event Store
	var st store.Store
	switch cfg.EventStore {
	case "memory":
		st = store.NewMemory()
	case "redis":
		st = store.NewRedis(rdb)
	case "postgres":
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		ps := store.NewPostgres(pg)
		if err := ps.Migrate(ctx); err != nil {
			log.Fatal("event store migration failed", zap.Error(err))
		}
		checks = append(checks, metrics.Check{Name: "postgres", Fn: pg.PingContext})
		st = ps
	default:
		log.Fatal("unknown EVENT_STORE", zap.String("value", cfg.EventStore))
	}
	log.Info("event store ready", zap.String("backend", cfg.EventStore))

	// Lifecycle manager + cliente de liquidação no bet-service
	settler := settlement.New(cfg.BetServiceURL, cfg.SettlementTimeout)
	mgr := lifecycle.NewManager(st, settler, log)
	mgr.SettleTimeout = cfg.SettlementTimeout

	// Métricas de domínio ligadas aos callbacks do manager
	m := metrics.NewEvents(prometheus.DefaultRegisterer)
	mgr.OnCreated = m.Created.Inc
	mgr.OnTransition = func(s domain.State) { m.Transitions.WithLabelValues(string(s)).Inc() }
	mgr.OnSettlementFailure = m.SettlementFailures.Inc
	mgr.OnReconciled = m.Reconciled.Inc

	if cfg.EventSeed {
		if _, err := mgr.Seed(ctx); err != nil {
			log.Fatal("seed demo events", zap.Error(err))
		}
	}

	// Kafka: event_finished para o settlement-worker
	if cfg.KafkaEnabled {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventFinished)
		pub := publisher.NewKafkaPublisher(w, log)
		defer pub.Close()
		mgr.OnFinished = append(mgr.OnFinished, pub.Listener())
		checks = append(checks, metrics.Check{Name: "kafka", Fn: func(ctx context.Context) error { return kafka.Ping(ctx, cfg.KafkaBrokers) }})
		log.Info("kafka publisher ready", zap.String("topic", cfg.TopicEventFinished))
	}

	// WebSocket: status dos eventos em tempo real
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	if cfg.WSFanout == "redis" {
		if err := ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log); err != nil {
			log.Fatal("redis subscriber", zap.Error(err))
		}
		b := &ws.RedisBroadcaster{R: rdb, Channel: cfg.RedisPubSubChannel, Log: log}
		mgr.OnFinished = append(mgr.OnFinished, b.Listener())
	} else {
		mgr.OnFinished = append(mgr.OnFinished, ws.HubListener(hub))
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	}, checks...)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	api := ehttp.NewServer(log, mgr, hub)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("event-service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
