package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mohammadpnp/member-import/internal/bootstrap"
	"github.com/mohammadpnp/member-import/internal/config"
	"github.com/mohammadpnp/member-import/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, pool, err := bootstrap.OpenDatabase(ctx, cfg.Database.URL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect database")
	}
	defer pool.Close()

	redisClient, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Info("REDIS_ADDR not set, idempotency keys are enforced by postgres only")
	}

	deps := bootstrap.Dependencies{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Pool:   pool,
		Redis:  redisClient,
	}

	server, err := bootstrap.NewHTTPServer(deps)
	if err != nil {
		logger.WithError(err).Fatal("failed to build http server")
	}

	publisher, err := bootstrap.OpenPublisher(cfg.Kafka, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect kafka")
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if publisher != nil {
		defer publisher.Close()
		worker := bootstrap.NewWelcomeWorker(deps, publisher)
		group.Go(func() error {
			return worker.Run(groupCtx)
		})
	} else {
		logger.Info("KAFKA_BROKERS not set, welcome notifications stay queued")
	}

	group.Go(func() error {
		logger.WithField("port", cfg.HTTP.Port).Info("http server listening")
		if err := server.Start(":" + cfg.HTTP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
	logger.Info("server stopped")
}
