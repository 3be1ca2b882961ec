package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"baranex/internal/audit"
	barangayservice "baranex/internal/barangay/service"
	barangaystore "baranex/internal/barangay/store"
	jwttoken "baranex/internal/jwt_token"
	nexushandler "baranex/internal/nexus/handler"
	nexusmetrics "baranex/internal/nexus/metrics"
	nexusservice "baranex/internal/nexus/service"
	requeststore "baranex/internal/nexus/store/request"
	"baranex/internal/platform/config"
	"baranex/internal/platform/httpserver"
	"baranex/internal/platform/kafka"
	"baranex/internal/platform/logger"
	"baranex/internal/platform/postgres"
	platformredis "baranex/internal/platform/redis"
	"baranex/internal/records"
	httptransport "baranex/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}

	// Without a database the process runs on in-memory stores. Useful for
	// local development; state does not survive a restart.
	var (
		requests requeststore.Store
		recStore records.Store
		dirStore barangaystore.Store
	)
	if db != nil {
		requests = requeststore.NewPostgres(db)
		recStore = records.NewPostgres(db)
		dirStore = barangaystore.NewPostgres(db)
		defer db.Close()
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		requests = requeststore.NewInMemory()
		recStore = records.NewInMemory()
		dirStore = barangaystore.NewInMemory()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	directoryOpts := []barangayservice.Option{}
	if redisClient != nil {
		directoryOpts = append(directoryOpts, barangayservice.WithNameCache(barangayservice.NewRedisNameCache(redisClient, log)))
		defer redisClient.Close()
	}
	directory := barangayservice.NewDirectory(dirStore, log, directoryOpts...)

	producer, err := kafka.NewProducer(ctx, cfg.Kafka, log)
	if err != nil {
		log.Error("failed to start kafka producer", "error", err)
		os.Exit(1)
	}
	var sink audit.Sink
	if producer != nil {
		sink = producer
		defer producer.Close()
	}
	auditor := audit.NewPublisher(sink, log)

	nexus := nexusservice.NewService(requests, recStore, directory, auditor, nexusmetrics.New(), log)
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	handler := nexushandler.New(nexus, log, jwtService)

	checks := []httptransport.HealthCheck{
		{Name: "postgres", Probe: func(ctx context.Context) error {
			if db == nil {
				return nil
			}
			return db.PingContext(ctx)
		}},
	}
	if redisClient != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Probe: redisClient.Health})
	}

	router := httptransport.NewRouter(handler, checks...)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting baranex nexus server", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
