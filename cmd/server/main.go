package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	log "github.com/sirupsen/logrus"
	"github.com/trogers1052/portfolio-service/internal/analysis"
	"github.com/trogers1052/portfolio-service/internal/api"
	"github.com/trogers1052/portfolio-service/internal/auth"
	"github.com/trogers1052/portfolio-service/internal/config"
	"github.com/trogers1052/portfolio-service/internal/database"
	"github.com/trogers1052/portfolio-service/internal/fmp"
	"github.com/trogers1052/portfolio-service/internal/kafka"
	"github.com/trogers1052/portfolio-service/internal/ledger"
	"github.com/trogers1052/portfolio-service/internal/redis"
	"github.com/trogers1052/portfolio-service/internal/stocks"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Log.ConfigureLogging(); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Connect to database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Connected to PostgreSQL database")

	// Run migrations
	if err := runMigrations(cfg.Database.MigrationsPath, cfg.Database.ConnectionString()); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Redis
	var (
		sessions  auth.SessionStore
		cache     stocks.Cache
		redisPing api.Pinger
	)
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Warnf("Failed to connect to Redis: %v (continuing without sessions or analysis cache)", err)
	} else {
		defer redisClient.Close()
		sessions, cache, redisPing = redisClient, redisClient, redisClient
		log.Info("Connected to Redis")
	}

	// Market data and AI analysis
	market := fmp.NewClient(cfg.FMP.APIKey, cfg.FMP.BaseURL, cfg.FMP.Timeout)

	var analyzer stocks.Analyzer
	if cfg.LLM.APIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.LLM.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			log.Warnf("Failed to create language model client: %v (continuing without AI analysis)", err)
		} else {
			analyzer = analysis.NewAnalyst(client, cfg.LLM.Model)
			log.WithField("model", cfg.LLM.Model).Info("AI analysis enabled")
		}
	} else {
		log.Info("LLM_API_KEY not set, AI analysis disabled")
	}

	// Kafka producer for holding events
	var notifier ledger.Notifier
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		defer producer.Close()
		notifier = producer
		log.Infof("Kafka producer initialized (brokers: %v)", cfg.Kafka.Brokers)
	}

	portfolio := ledger.New(db, market, notifier, cfg.Ledger.QuoteConcurrency)
	authService, err := auth.NewService(db, sessions, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}
	stockService := stocks.NewService(market, analyzer, cache, cfg.LLM.CacheTTL)

	g, gctx := errgroup.WithContext(ctx)

	// Kafka consumer for paper orders
	if cfg.Kafka.Enabled {
		consumer := kafka.NewOrdersConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.OrdersTopic,
			cfg.Kafka.ConsumerGroup,
			portfolio,
		)
		g.Go(func() error {
			log.Infof("Starting Kafka consumer for topic: %s (group: %s-orders)",
				cfg.Kafka.OrdersTopic, cfg.Kafka.ConsumerGroup)
			if err := consumer.Start(gctx); err != nil {
				log.Errorf("Kafka orders consumer error: %v", err)
			}
			return nil
		})
	}

	// Set up HTTP handler and routes
	handler := api.NewHandler(api.Deps{
		Portfolio:    portfolio,
		Stocks:       stockService,
		Auth:         authService,
		DB:           db,
		Redis:        redisPing,
		KafkaEnabled: cfg.Kafka.Enabled,
	})
	router := api.SetupRoutes(handler)

	// Create HTTP server
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		log.Infof("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-gctx.Done():
		}

		log.Info("Shutting down server...")

		// Cancel context to stop Kafka consumer
		cancel()

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorf("Server stopped with error: %v", err)
		return
	}
	log.Info("Server stopped")
}

func runMigrations(sourceURL, databaseURL string) error {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	// Apply all available migrations up to the latest version
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No migrations to apply; database is up to date.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Database migrations applied")
	return nil
}
