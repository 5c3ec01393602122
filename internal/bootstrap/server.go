package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"gorm.io/gorm"

	appmember "github.com/mohammadpnp/member-import/internal/application/member"
	"github.com/mohammadpnp/member-import/internal/application/memberimport"
	"github.com/mohammadpnp/member-import/internal/config"
	"github.com/mohammadpnp/member-import/internal/infrastructure/idempotency"
	"github.com/mohammadpnp/member-import/internal/infrastructure/repository"
	httpecho "github.com/mohammadpnp/member-import/internal/interfaces/http/echo"
)

// Dependencies are the connections the server is assembled from. Redis is
// optional.
type Dependencies struct {
	Config *config.Config
	Logger *logrus.Logger
	DB     *gorm.DB
	Pool   *pgxpool.Pool
	Redis  *redis.Client
}

func NewHTTPServer(deps Dependencies) (*echo.Echo, error) {
	cfg := deps.Config

	server := echo.New()
	server.HideBanner = true
	server.HidePort = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit(cfg.HTTP.BodyLimit))
	server.Use(httpecho.RequestLogger(deps.Logger))

	var apiMiddleware []echo.MiddlewareFunc
	if cfg.RateLimit.Enabled {
		lim, err := newRateLimiter(cfg.RateLimit, deps.Redis)
		if err != nil {
			return nil, err
		}
		apiMiddleware = append(apiMiddleware, httpecho.RateLimit(lim))
	}

	importLogs := repository.NewImportLogRepository(deps.DB)
	staging := repository.NewStagingRepository(deps.Pool)
	stagedRows := repository.NewStagedRowQueryRepository(deps.DB)
	members := repository.NewMemberRepository(deps.Pool)

	var store memberimport.IdempotencyStore
	if deps.Redis != nil {
		store = idempotency.NewRedisStore(deps.Redis, cfg.Redis.IdempotencyTTL)
	}

	createImportLog := memberimport.NewCreateImportLog(importLogs, store)
	stageImport := memberimport.NewStageImport(importLogs, staging)
	importHandler := httpecho.NewImportHandler(
		createImportLog,
		memberimport.NewUploadImport(createImportLog, stageImport),
		stageImport,
		memberimport.NewFetchPreview(importLogs, stagedRows),
		memberimport.NewCommitImport(importLogs, stagedRows, members, cfg.Worker.NotifyMaxAttempts),
		memberimport.NewFetchImportResult(importLogs),
	)

	memberQueryRepo := repository.NewMemberQueryRepository(deps.DB)
	memberHandler := httpecho.NewMemberHandler(appmember.NewGetMemberByID(memberQueryRepo))

	httpecho.RegisterRoutes(server, importHandler, memberHandler, apiMiddleware...)
	httpecho.RegisterOps(server, func(ctx context.Context) error {
		return deps.Pool.Ping(ctx)
	})

	return server, nil
}

// NewWelcomeWorker drains the welcome outbox into publisher.
func NewWelcomeWorker(deps Dependencies, publisher memberimport.WelcomePublisher) *memberimport.WelcomeWorker {
	cfg := deps.Config.Worker
	return memberimport.NewWelcomeWorker(
		repository.NewWelcomeNotificationRepository(deps.DB),
		publisher,
		memberimport.WelcomeWorkerConfig{
			Workers:       cfg.Workers(),
			PollInterval:  cfg.PollInterval,
			LeaseDuration: cfg.LeaseDuration,
		},
		logrus.NewEntry(deps.Logger),
	)
}

// newRateLimiter shares counters through redis when it is configured so
// that every API replica draws from one budget.
func newRateLimiter(opts config.RateLimitOptions, client *redis.Client) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(opts.Rate)
	if err != nil {
		return nil, fmt.Errorf("parse RATE_LIMIT_RATE: %w", err)
	}

	if client == nil {
		return limiter.New(memory.NewStore(), rate), nil
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "member-import:limiter",
	})
	if err != nil {
		return nil, fmt.Errorf("create redis rate limit store: %w", err)
	}
	return limiter.New(store, rate), nil
}
