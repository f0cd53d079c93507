package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/dhnam/shoplite/internal/adapter/handler"
	"github.com/dhnam/shoplite/internal/adapter/storage"
	"github.com/dhnam/shoplite/internal/config"
	"github.com/dhnam/shoplite/internal/core/service"
	"github.com/dhnam/shoplite/internal/metrics"
	"github.com/dhnam/shoplite/internal/port"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Println("schema up to date")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Initialize adapters
	productStore := storage.NewMySQLProductStore(db)
	orderStore := storage.NewMySQLOrderStore(db)
	cache := storage.NewRedisProductCache(rdb, cfg.CacheTTL)
	queue := newQueue(cfg, rdb)

	if rq, ok := queue.(*storage.RedisTaskQueue); ok {
		n, err := rq.Recover(ctx)
		if err != nil {
			log.Fatalf("failed to recover stranded tasks: %v", err)
		}
		if n > 0 {
			log.Printf("requeued %d stranded tasks", n)
		}
	}

	m, registry := metrics.New()

	// Initialize services
	catalogService := service.NewCatalogService(productStore, cache, m)
	orderService := service.NewOrderService(orderStore, cache, queue, m)
	processor := service.NewProcessor(orderStore, queue, m, service.ProcessorConfig{
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		StepTimeout: cfg.ProcessTimeout,
		Step:        service.SimulatedStep(cfg.ProcessDuration),
	})

	// Start worker pool
	var wg sync.WaitGroup
	if cfg.WorkerCount > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			processor.Run(ctx, cfg.WorkerCount)
		}()
		log.Printf("started %d workers", cfg.WorkerCount)
	}

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(catalogService, orderService)
	router := chi.NewRouter()
	router.Mount("/", httpHandler.Routes())
	router.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	cancel()
	wg.Wait()
	log.Println("workers stopped")

	if closer, ok := queue.(interface{ Close() error }); ok {
		closer.Close()
	}
	rdb.Close()
	db.Close()
	log.Println("connections closed")
}

func newQueue(cfg *config.Config, rdb *redis.Client) port.TaskQueue {
	switch cfg.QueueDriver {
	case "kafka":
		return storage.NewKafkaTaskQueue(cfg.KafkaBrokers, cfg.KafkaGroupID)
	case "memory":
		return storage.NewMemoryTaskQueue(cfg.MemoryQueueSz)
	default:
		return storage.NewRedisTaskQueue(rdb)
	}
}
