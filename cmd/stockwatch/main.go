package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Venus2Mice/e-commerce-website/internal/config"
	kafkax "github.com/Venus2Mice/e-commerce-website/internal/kafka"
	"github.com/Venus2Mice/e-commerce-website/internal/logger"
	"github.com/Venus2Mice/e-commerce-website/internal/redisx"
	"github.com/Venus2Mice/e-commerce-website/internal/shop"
	"github.com/Venus2Mice/e-commerce-website/internal/stock"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zaplog, err := logger.NewZapLog(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zaplog.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &stock.Service{Redis: rdb, Log: zaplog, Name: cfg.StockwatchGroup}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.StockwatchGroup, shop.TopicBillSettled, cfg.StockwatchWorkers, zaplog)

	done := make(chan struct{})
	go func() {
		defer close(done)
		zaplog.Info("stockwatch consumer started",
			zap.String("group", cfg.StockwatchGroup),
			zap.String("topic", shop.TopicBillSettled),
			zap.Int("workers", cfg.StockwatchWorkers))
		if err := cons.Start(ctx, svc.HandleBillSettled); err != nil {
			zaplog.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	zaplog.Info("shutting down consumer")
	cancel()
	<-done
}
