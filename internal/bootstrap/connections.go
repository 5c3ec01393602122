package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mohammadpnp/member-import/internal/config"
	"github.com/mohammadpnp/member-import/internal/infrastructure/idempotency"
	"github.com/mohammadpnp/member-import/internal/infrastructure/notify"
)

const kafkaClientID = "member-import"

// OpenDatabase returns a gorm handle and a pgx pool on the same database.
// gorm serves single-row reads and status updates; the pool serves COPY and
// multi-statement transactions.
func OpenDatabase(ctx context.Context, databaseURL string) (*gorm.DB, *pgxpool.Pool, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	return db, pool, nil
}

// OpenRedis returns nil without error when redis is not configured.
func OpenRedis(ctx context.Context, opts config.RedisOptions) (*redis.Client, error) {
	if !opts.Enabled() {
		return nil, nil
	}
	return idempotency.NewClient(ctx, &redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// OpenPublisher returns nil without error when kafka is not configured; the
// welcome outbox then keeps queuing until a publisher is deployed.
func OpenPublisher(opts config.KafkaOptions, logger *logrus.Logger) (*notify.KafkaPublisher, error) {
	if !opts.Enabled() {
		return nil, nil
	}

	producer, err := notify.NewSyncProducer(opts.Brokers, kafkaClientID)
	if err != nil {
		return nil, err
	}
	return notify.NewKafkaPublisher(producer, opts.WelcomeTopic, logger.WithField("component", "kafka")), nil
}
