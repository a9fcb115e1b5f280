package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/gateway"
	"github.com/radieske/line-bet-platform/internal/shared/config"
	"github.com/radieske/line-bet-platform/internal/shared/logger"
	"github.com/radieske/line-bet-platform/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load("api-gateway")
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

	h, err := gateway.Router(gateway.Targets{
		EventService: cfg.EventServiceURL,
		BetService:   cfg.BetServiceURL,
	}, log)
	if err != nil {
		log.Fatal("gateway config", zap.Error(err))
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("api-gateway listening",
			zap.String("addr", srv.Addr),
			zap.String("events", cfg.EventServiceURL),
			zap.String("bets", cfg.BetServiceURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("gateway failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
