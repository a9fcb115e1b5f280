package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/bet-service/consumer"
	"github.com/radieske/line-bet-platform/internal/bet-service/coordinator"
	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
	"github.com/radieske/line-bet-platform/internal/bet-service/ledger"
	kpub "github.com/radieske/line-bet-platform/internal/bet-service/producer"
	"github.com/radieske/line-bet-platform/internal/shared/config"
	"github.com/radieske/line-bet-platform/internal/shared/db"
	"github.com/radieske/line-bet-platform/internal/shared/kafka"
	"github.com/radieske/line-bet-platform/internal/shared/logger"
	"github.com/radieske/line-bet-platform/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load("settlement-worker")
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

	// o worker escreve no mesmo ledger Postgres do bet-service
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	l := ledger.NewPostgres(pg)
	if err := l.Migrate(ctx); err != nil {
		log.Fatal("bet ledger migration failed", zap.Error(err))
	}

	coord := coordinator.New(l, nil, log)
	pub := kpub.NewKafkaPublisher(
		kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced),
		kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetsSettled),
		log,
	)
	defer pub.Close()
	coord.Publisher = pub

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicEventFinished, "settlement-worker")
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettleDLQ)
	defer dlq.Close()

	// Métricas: as de apostas compartilhadas com o bet-service + as do consumer
	bm := metrics.NewBets(prometheus.DefaultRegisterer)
	coord.OnResolve = bm.Resolves.Inc
	coord.OnSettled = func(s domain.Status, n int64) { bm.Settled.WithLabelValues(string(s)).Add(float64(n)) }

	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_messages_consumed_total", Help: "mensagens event_finished consumidas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, errorsBy)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Resolver:   coord,
		DLQ:        dlq,
		Retries:    3,
		Backoff:    300 * time.Millisecond,
		OnConsumed: consumed.Inc,
		OnSettled:  func(n int64) { bm.Delivered.WithLabelValues("kafka").Add(float64(n)) },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	},
		metrics.Check{Name: "postgres", Fn: pg.PingContext},
		metrics.Check{Name: "kafka", Fn: func(ctx context.Context) error { return kafka.Ping(ctx, cfg.KafkaBrokers) }},
	)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicEventFinished),
		zap.String("dlq", cfg.TopicSettleDLQ),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("settlement-worker stopped")
}
