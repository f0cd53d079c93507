package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr  string
	MySQLDSN  string
	RedisAddr string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	CacheTTL time.Duration

	// QueueDriver selects the task dispatch backend: redis, kafka or memory.
	QueueDriver   string
	KafkaBrokers  []string
	KafkaGroupID  string
	MemoryQueueSz int

	WorkerCount     int
	MaxAttempts     int
	RetryDelay      time.Duration
	ProcessDuration time.Duration
	ProcessTimeout  time.Duration

	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		MySQLDSN:  getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/shoplite?parseTime=true"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		MaxOpenConns:    getEnvInt("MYSQL_MAX_OPEN_CONNS", 50),
		MaxIdleConns:    getEnvInt("MYSQL_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getEnvDuration("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		QueueDriver:   getEnv("QUEUE_DRIVER", "redis"),
		KafkaBrokers:  strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaGroupID:  getEnv("KAFKA_GROUP_ID", "order-processor"),
		MemoryQueueSz: getEnvInt("MEMORY_QUEUE_SIZE", 10000),

		WorkerCount:     getEnvInt("WORKER_COUNT", 4),
		MaxAttempts:     getEnvInt("PROCESS_MAX_ATTEMPTS", 3),
		RetryDelay:      getEnvDuration("PROCESS_RETRY_DELAY", time.Minute),
		ProcessDuration: getEnvDuration("PROCESS_SIMULATE_DURATION", 5*time.Second),
		ProcessTimeout:  getEnvDuration("PROCESS_TIMEOUT", 30*time.Second),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
