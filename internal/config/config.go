package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Queue    QueueConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	// Path is the sqlite snapshot file. ":memory:" is accepted for
	// throwaway runs.
	Path string
}

type RedisConfig struct {
	Addr     string
	Enabled  bool
	StatsTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	TicketExpired string
	DayFinished   string
}

type QueueConfig struct {
	FeePerTicket     int
	AllowanceSeconds int
	TickInterval     time.Duration
	// RefundOnRemove picks the deployment's removal policy: when true the
	// admission fee is reversed if a ticket is removed before completion.
	RefundOnRemove bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8085"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "turnos.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			StatsTTL: time.Duration(getEnvInt("REDIS_STATS_TTL_MS", 2000)) * time.Millisecond,
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				TicketExpired: getEnv("KAFKA_TOPIC_TICKET_EXPIRED", "turnos.ticket.expired"),
				DayFinished:   getEnv("KAFKA_TOPIC_DAY_FINISHED", "turnos.day.finished"),
			},
		},
		Queue: QueueConfig{
			FeePerTicket:     getEnvInt("QUEUE_FEE", 1000),
			AllowanceSeconds: getEnvInt("QUEUE_ALLOWANCE_SECONDS", 600),
			TickInterval:     time.Duration(getEnvInt("QUEUE_TICK_INTERVAL_MS", 1000)) * time.Millisecond,
			RefundOnRemove:   getEnvBool("QUEUE_REFUND_ON_REMOVE", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
