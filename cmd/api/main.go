package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Venus2Mice/e-commerce-website/internal/auth"
	"github.com/Venus2Mice/e-commerce-website/internal/config"
	"github.com/Venus2Mice/e-commerce-website/internal/httpx"
	kafkax "github.com/Venus2Mice/e-commerce-website/internal/kafka"
	"github.com/Venus2Mice/e-commerce-website/internal/logger"
	"github.com/Venus2Mice/e-commerce-website/internal/postgres"
	"github.com/Venus2Mice/e-commerce-website/internal/redisx"
	"github.com/Venus2Mice/e-commerce-website/internal/shop"
	"github.com/Venus2Mice/e-commerce-website/internal/users"
	"github.com/Venus2Mice/e-commerce-website/internal/webhook"
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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		zaplog.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		zaplog.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for bill.settled
	prod := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicBillSettled, 1024, zaplog)
	prod.Start(ctx)

	settler := webhook.NewService(&shop.SettlementRepo{DB: db}, zaplog,
		webhook.WithEvents(prod, cfg.ServiceName),
		webhook.WithRetry(cfg.SettleMaxAttempts, 20*time.Millisecond),
	)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiresIn)
	perms := &auth.CachedPermissions{Next: &auth.PGPermissions{DB: db}, Redis: rdb, Log: zaplog}
	userRepo := &users.Repo{DB: db}

	router := httpx.NewRouter(zaplog)
	api := &httpx.API{
		Gate:    auth.NewGate(tokens, perms, zaplog),
		Webhook: &httpx.WebhookHandler{Settler: settler, Log: zaplog},
		Users: &httpx.UsersHandler{
			Accounts:     users.NewService(userRepo),
			Users:        userRepo,
			Tokens:       tokens,
			CookieSecure: cfg.CookieSecure,
			Log:          zaplog,
		},
		Clothes: &httpx.ClothesHandler{Catalog: &shop.CatalogRepo{DB: db}, Redis: rdb, Log: zaplog},
		Bills:   &httpx.BillsHandler{Bills: &shop.BillRepo{DB: db}, Log: zaplog},
		Reviews: &httpx.ReviewsHandler{Reviews: &shop.ReviewRepo{DB: db}, Log: zaplog},
	}
	api.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		zaplog.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zaplog.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zaplog.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // no more publishes; the loop flushes and closes the writer
	prod.WaitClosed()
	cancel()
}
