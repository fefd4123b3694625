package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bbuilders/actionbot/internal/config"
	"github.com/bbuilders/actionbot/internal/handler"
	"github.com/bbuilders/actionbot/internal/httpserver"
	"github.com/bbuilders/actionbot/internal/mailer"
	"github.com/bbuilders/actionbot/internal/repository"
	"github.com/bbuilders/actionbot/internal/service"
	"github.com/bbuilders/actionbot/internal/source"
	"github.com/bbuilders/actionbot/pkg/db"
	"github.com/bbuilders/actionbot/pkg/logger"
	"github.com/bbuilders/actionbot/pkg/mq"
	"github.com/bbuilders/actionbot/pkg/redis"
	"github.com/bbuilders/actionbot/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting actionbot...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("timezone", cfg.Timezone),
	)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal("Failed to load reference timezone", zap.Error(err))
	}

	// DB
	log.Info("Initializing database connection...")
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis dedup cache (optional fast path)
	var deduper *util.DayDeduper
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(cfg.Redis)
		deduper = util.NewDayDeduper(rdb, 48*time.Hour)
		log.Info("Redis dedup cache enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Info("Redis not configured, dedup reads go straight to Postgres")
	}

	// MQ publisher (optional; a broker outage never blocks a run)
	var publisher service.EventPublisher
	if cfg.MQ.URL != "" {
		pub, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("MQ not available, events disabled", zap.Error(err))
		} else {
			defer pub.Close()
			publisher = pub
			log.Info("MQ publisher initialized")
		}
	}

	// Collaborators
	sourceClient := source.NewClient(cfg.Source.BaseURL, cfg.Source.Token, cfg.Source.DatabaseID, loc, log)
	transport := mailer.NewClient(cfg.Mailer.BaseURL, cfg.Mailer.APIKey, cfg.Mailer.From, cfg.Mailer.Provider, log)
	historyRepo := repository.NewSentEmailRepository(dbConn, log)

	// Pipeline
	selector := service.NewSelector(service.RecipientBook{
		Admins:    cfg.Recipients.Admins,
		President: cfg.Recipients.President,
		VP:        cfg.Recipients.VP,
	})
	renderer := mailer.NewRenderer(loc)
	enricher := service.NewEnricher(sourceClient, loc, log)
	digests := service.NewDigestBuilder(historyRepo, deduper, loc, log)
	notifier := service.NewNotifier(selector, renderer, transport, historyRepo, deduper, publisher, loc, log)
	pipeline := service.NewPipeline(
		sourceClient,
		enricher,
		digests,
		notifier,
		publisher,
		time.Duration(cfg.Mailer.PauseMS)*time.Millisecond,
		log,
	)

	// HTTP server
	runHandler := handler.NewRunHandler(pipeline, log)
	historyHandler := handler.NewHistoryHandler(historyRepo, loc)
	router := httpserver.NewRouter(cfg, dbConn, runHandler, historyHandler, log)

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("actionbot is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down actionbot gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("actionbot shutdown complete")
}
