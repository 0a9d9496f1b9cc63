// Command sessiond serves the goSession rotation engine over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/events/kafka"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("sessiond: %v", err)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	priv, err := cfg.signingKey()
	if err != nil {
		return err
	}
	if cfg.Token.SigningKey == "" {
		logger.Warn("SIGNING_KEY not set, using an ephemeral key; credentials will not survive a restart")
	}
	if cfg.InternalKey == "" {
		logger.Warn("INTERNAL_KEY not set, internal routes are unauthenticated")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	sinks := goSession.MultiSink{goSession.NewLoggerSink(logger)}
	if len(cfg.Kafka.Brokers) > 0 {
		ks, err := kafka.NewSink(kafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, logger)
		if err != nil {
			return fmt.Errorf("kafka sink: %w", err)
		}
		defer ks.Close()
		sinks = append(sinks, ks)
	}

	engineCfg := cfg.engineConfig(priv)
	for _, w := range engineCfg.Lint() {
		logger.Warn("config lint", zap.String("code", w.Code), zap.String("severity", w.Severity.String()), zap.String("message", w.Message))
	}

	engine, err := goSession.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithEventSink(sinks).
		WithLogger(logger).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	report := engine.SecurityReport()
	logger.Info("engine ready",
		zap.String("signing_algorithm", report.SigningAlgorithm),
		zap.Bool("refresh_rotation", report.RefreshRotation),
		zap.Bool("reuse_detection", report.ReuseDetection),
		zap.Bool("refresh_throttle", report.RefreshThrottleActive),
		zap.Duration("reuse_window", report.ReuseWindow),
		zap.Int("max_family_size", report.MaxFamilySize),
	)

	if cfg.Env == envProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newServer(engine, logger, cfg.InternalKey).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
