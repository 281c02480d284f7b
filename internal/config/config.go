package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	MaxInflight    int
	RequestTimeout time.Duration
	LogLevel       string

	DBDSN      string // empty selects the in-memory replay store
	DBMigrate  bool
	DBMaxConns int

	KafkaBrokers []string // empty disables outcome notifications
	KafkaTopic   string
}

func mustEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func mustIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads the process environment. Files are applied first with
// godotenv and never override variables already set.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, err
		}
	}

	cpu := runtime.GOMAXPROCS(0)

	return Config{
		HTTPAddr:       mustEnv("PAYMENT_HTTP_ADDR", ":8080"),
		MaxInflight:    mustIntEnv("PAYMENT_HTTP_MAX_INFLIGHT", 64),
		RequestTimeout: time.Duration(mustIntEnv("PAYMENT_REQUEST_TIMEOUT_MS", 5000)) * time.Millisecond,
		LogLevel:       mustEnv("PAYMENT_LOG_LEVEL", "info"),

		DBDSN:      os.Getenv("PAYMENT_DB_DSN"),
		DBMigrate:  mustEnv("PAYMENT_DB_MIGRATE", "0") == "1",
		DBMaxConns: mustIntEnv("PAYMENT_DB_MAX_CONNS", clamp(cpu*4, 4, 50)),

		KafkaBrokers: splitList(os.Getenv("PAYMENT_KAFKA_BROKERS")),
		KafkaTopic:   mustEnv("PAYMENT_KAFKA_TOPIC", "payment_instruction_processed"),
	}, nil
}
