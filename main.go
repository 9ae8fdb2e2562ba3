package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-turnos/internal/alert"
	"ms-turnos/internal/config"
	"ms-turnos/internal/logger"
	"ms-turnos/internal/pricing/pricing_api"
	"ms-turnos/internal/queue"
	"ms-turnos/internal/queue/cache"
	"ms-turnos/internal/queue/db"
	"ms-turnos/internal/queue/queue_api"
)

func openDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	sqldb, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open sqlite at %s: %v", cfg.Database.Path, err))
	}
	// sqlite wants a single writer; the service serializes all mutations
	// anyway, so one connection is enough.
	sqldb.SetMaxOpenConns(1)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to sqlite: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Snapshot database ready at %s", cfg.Database.Path))
	return bun.NewDB(sqldb, sqlitedialect.New())
}

func buildAlerter(cfg *config.Config, log *logger.Logger) (queue.Alerter, func()) {
	if !cfg.Kafka.Enabled {
		log.Info("KAFKA", "Kafka disabled, expiry alerts go to the log only")
		return alert.Noop{Logger: log}, func() {}
	}

	topics := []string{cfg.Kafka.Topics.TicketExpired, cfg.Kafka.Topics.DayFinished}
	if err := alert.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Alert topics ensured successfully")
	}

	producer := alert.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log)
	log.Info("KAFKA", "Alert producer initialized")
	return producer, func() { producer.Close() }
}

func buildStatsCache(cfg *config.Config, log *logger.Logger) (*cache.StatsCache, func()) {
	if !cfg.Redis.Enabled {
		log.Info("REDIS", "Redis disabled, stats served uncached")
		return nil, func() {}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unreachable at %s, stats served uncached: %v", cfg.Redis.Addr, err))
		redisClient.Close()
		return nil, func() {}
	}

	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return cache.NewStatsCache(redisClient, cfg.Redis.StatsTTL), func() { redisClient.Close() }
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting queue service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()

	bunDB := openDatabase(cfg, log)
	defer bunDB.Close()

	store := &db.Store{Bun: bunDB}
	if err := store.Init(context.Background()); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to create snapshot tables: %v", err))
	}

	alerter, closeAlerter := buildAlerter(cfg, log)
	defer closeAlerter()

	statsCache, closeCache := buildStatsCache(cfg, log)
	defer closeCache()

	svc := queue.NewService(store, alerter, log, queue.Config{
		FeePerTicket:     cfg.Queue.FeePerTicket,
		AllowanceSeconds: cfg.Queue.AllowanceSeconds,
		RefundOnRemove:   cfg.Queue.RefundOnRemove,
	})
	log.Info("QUEUE", fmt.Sprintf("Queue service ready (fee=%d, allowance=%ds, refund_on_remove=%t)",
		cfg.Queue.FeePerTicket, cfg.Queue.AllowanceSeconds, cfg.Queue.RefundOnRemove))

	engine := queue.NewEngine(svc, cfg.Queue.TickInterval, log)
	engine.Start(context.Background())

	handler := &queue_api.Handler{
		Service: svc,
		Cache:   statsCache,
		Logger:  log,
	}
	pricingHandler := &pricing_api.Handler{Logger: log}

	log.Info("HTTP", "Setting up router")
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/queue", func(r chi.Router) {
			r.Post("/day/start", handler.StartDay)
			r.Post("/day/finish", handler.FinishDay)

			r.Post("/tickets", handler.AdmitTicket)
			r.Get("/tickets", handler.ListTickets)
			r.Delete("/tickets/{number}", handler.RemoveTicket)
			r.Post("/tickets/{number}/complete", handler.CompleteTicket)

			r.Get("/stats", handler.GetStats)

			r.Get("/history", handler.ListHistory)
			r.Delete("/history/{index}", handler.DeleteHistoryEntry)
			r.Get("/history/{index}/export", handler.ExportHistoryEntry)
			r.Get("/history/{index}/qr", handler.ExportHistoryQR)
		})
		log.Info("ROUTER", "Queue routes registered under /api/queue")

		r.Post("/pricing/quote", pricingHandler.Quote)
		log.Info("ROUTER", "Pricing route registered under /api/pricing")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Queue service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	engine.Stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Queue service shutdown complete")
	}
}
