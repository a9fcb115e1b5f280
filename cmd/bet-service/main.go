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
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/bet-service/coordinator"
	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
	"github.com/radieske/line-bet-platform/internal/bet-service/events"
	"github.com/radieske/line-bet-platform/internal/bet-service/feed"
	bhttp "github.com/radieske/line-bet-platform/internal/bet-service/http"
	"github.com/radieske/line-bet-platform/internal/bet-service/ledger"
	kpub "github.com/radieske/line-bet-platform/internal/bet-service/producer"
	"github.com/radieske/line-bet-platform/internal/shared/config"
	"github.com/radieske/line-bet-platform/internal/shared/db"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
	"github.com/radieske/line-bet-platform/internal/shared/kafka"
	"github.com/radieske/line-bet-platform/internal/shared/logger"
	"github.com/radieske/line-bet-platform/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load("bet-service")
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var checks []metrics.Check

	// Bet Ledger
	var l ledger.Ledger
	switch cfg.BetLedger {
	case "postgres":
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		pl := ledger.NewPostgres(pg)
		if err := pl.Migrate(ctx); err != nil {
			log.Fatal("bet ledger migration failed", zap.Error(err))
		}
		checks = append(checks, metrics.Check{Name: "postgres", Fn: pg.PingContext})
		l = pl
	case "memory":
		l = ledger.NewMemory()
	default:
		log.Fatal("unknown BET_LEDGER", zap.String("value", cfg.BetLedger))
	}
	log.Info("bet ledger ready", zap.String("backend", cfg.BetLedger))

	// Cliente do event-service (line provider)
	evClient := events.New(cfg.EventServiceURL, cfg.UpstreamTimeout)
	coord := coordinator.New(l, evClient, log)

	m := metrics.NewBets(prometheus.DefaultRegisterer)
	coord.OnPlaced = m.Placed.Inc
	coord.OnRejected = func(k errs.Kind) { m.Rejected.WithLabelValues(string(k)).Inc() }
	coord.OnResolve = m.Resolves.Inc
	coord.OnSettled = func(s domain.Status, n int64) { m.Settled.WithLabelValues(string(s)).Add(float64(n)) }
	coord.OnReconciled = func(n int64) { m.Delivered.WithLabelValues("reconcile").Add(float64(n)) }

	// Kafka: bet_placed e bets_settled
	if cfg.KafkaEnabled {
		pub := kpub.NewKafkaPublisher(
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced),
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetsSettled),
			log,
		)
		defer pub.Close()
		coord.Publisher = pub
		checks = append(checks, metrics.Check{Name: "kafka", Fn: func(ctx context.Context) error { return kafka.Ping(ctx, cfg.KafkaBrokers) }})
	}

	// Feed WebSocket do event-service: outro caminho de liquidação, idempotente como os demais
	if cfg.EventFeedEnabled {
		feedURL, err := feed.FeedURL(cfg.EventServiceURL)
		if err != nil {
			log.Fatal("event feed url", zap.Error(err))
		}
		fc := &feed.WSClient{
			URL:       feedURL,
			Log:       log,
			Resolver:  coord,
			OnSettled: func(_ string, n int64) { m.Delivered.WithLabelValues("feed").Add(float64(n)) },
		}
		go fc.Start(ctx)
	}

	// Varredura periódica das apostas PENDING cujo resultado não chegou
	if cfg.ReconcileInterval > 0 {
		go reconcileLoop(ctx, coord, cfg.ReconcileInterval, log)
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	}, checks...)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	api := bhttp.NewServer(log, coord, evClient)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("bet-service listening", zap.String("addr", srv.Addr), zap.String("event_service", cfg.EventServiceURL))
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

func reconcileLoop(ctx context.Context, coord *coordinator.Coordinator, every time.Duration, log *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := coord.ReconcilePending(ctx); err != nil && ctx.Err() == nil {
				log.Warn("pending reconcile failed", zap.Error(err))
			}
		}
	}
}
