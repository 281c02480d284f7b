package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"payment-instructions/internal/config"
	"payment-instructions/internal/events"
	"payment-instructions/internal/events/kafka"
	"payment-instructions/internal/httpapi"
	"payment-instructions/internal/payment"
	"payment-instructions/internal/store"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func envFiles() []string {
	if _, err := os.Stat(".env"); err == nil {
		return []string{".env"}
	}
	return nil
}

func main() {
	start := time.Now()

	cfg, err := config.Load(envFiles()...)
	if err != nil {
		panic(err)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("[startup] begin", zap.String("addr", cfg.HTTPAddr), zap.Bool("migrate", cfg.DBMigrate))

	// Startup context
	startCtx, startCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer startCancel()

	var replay httpapi.ReplayStore
	if cfg.DBDSN == "" {
		log.Info("[startup] no PAYMENT_DB_DSN, using in-memory replay store")
		replay = store.NewMemory()
	} else {
		pool, err := openPool(startCtx, log, cfg)
		if err != nil {
			log.Fatal("[startup] db init failed", zap.Error(err))
		}
		defer pool.Close()
		replay = store.New(pool)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		log.Info("[startup] kafka notifications enabled",
			zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		pub = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	defer pub.Close()

	proc := payment.New(payment.WithLogger(log.Named("payment")))
	h := httpapi.NewHandlers(proc, replay, pub, log.Named("http"), cfg.RequestTimeout)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.Router(h, cfg.MaxInflight),

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-stop
		log.Info("[shutdown] draining")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("[shutdown] failed", zap.Error(err))
		}
	}()

	log.Info("[startup] ready",
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)),
		zap.String("addr", cfg.HTTPAddr),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func openPool(ctx context.Context, log *zap.Logger, cfg config.Config) (*pgxpool.Pool, error) {
	log.Info("[startup] parsing DB config", zap.Int("maxConns", cfg.DBMaxConns))
	pcfg, err := pgxpool.ParseConfig(cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	pcfg.MaxConns = int32(cfg.DBMaxConns)
	pcfg.MinConns = 1
	pcfg.HealthCheckPeriod = 10 * time.Second
	pcfg.MaxConnLifetime = 30 * time.Minute
	pcfg.MaxConnIdleTime = 5 * time.Minute

	log.Info("[startup] connecting to DB")
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	log.Info("[startup] ping DB")
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if cfg.DBMigrate {
		log.Info("[startup] running migrations")
		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("[startup] migrations complete")
	} else {
		log.Info("[startup] migrations disabled")
	}
	return pool, nil
}
