package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/dhnam/shoplite/internal/adapter/storage"
	"github.com/dhnam/shoplite/internal/config"
	"github.com/dhnam/shoplite/internal/core/service"
	"github.com/dhnam/shoplite/internal/metrics"
	"github.com/dhnam/shoplite/internal/port"
)

// Standalone async processor. Runs the same worker pool the server can embed,
// decoupled from the request path so it can scale and restart independently.
func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	var queue port.TaskQueue
	var rdb *redis.Client
	switch cfg.QueueDriver {
	case "kafka":
		queue = storage.NewKafkaTaskQueue(cfg.KafkaBrokers, cfg.KafkaGroupID)
	default:
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		log.Println("connected to redis")
		queue = storage.NewRedisTaskQueue(rdb)
	}

	if rq, ok := queue.(*storage.RedisTaskQueue); ok {
		n, err := rq.Recover(ctx)
		if err != nil {
			log.Fatalf("failed to recover stranded tasks: %v", err)
		}
		if n > 0 {
			log.Printf("requeued %d stranded tasks", n)
		}
	}

	m, _ := metrics.New()
	orderStore := storage.NewMySQLOrderStore(db)
	processor := service.NewProcessor(orderStore, queue, m, service.ProcessorConfig{
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		StepTimeout: cfg.ProcessTimeout,
		Step:        service.SimulatedStep(cfg.ProcessDuration),
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		processor.Run(ctx, cfg.WorkerCount)
	}()
	log.Printf("started %d workers", cfg.WorkerCount)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	cancel()
	<-done
	log.Println("workers stopped")

	if closer, ok := queue.(interface{ Close() error }); ok {
		closer.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	log.Println("connections closed")
}
