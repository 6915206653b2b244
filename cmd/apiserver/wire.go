package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"techbot/internal/app/config"
	"techbot/internal/app/consumer"
	"techbot/internal/app/domains/modules/mdsession"
	"techbot/internal/app/domains/modules/mdtransition"
	"techbot/internal/app/domains/repo/rpaudit"
	"techbot/internal/app/domains/repo/rpsession"
	"techbot/internal/app/domains/services/svorder"
	"techbot/internal/app/domains/services/svworkflow"
	"techbot/internal/app/infra/backend"
	"techbot/internal/app/infra/media"
	"techbot/internal/app/infra/mq/lmstfy"
	"techbot/internal/app/infra/persistence/memory"
	"techbot/internal/app/infra/persistence/redis"
	"techbot/internal/app/infra/transport/whatsapp"
	"techbot/internal/app/pkg/apptoken"
	"techbot/internal/app/pkg/logger"
	"techbot/internal/app/server/handlers/webhook"
	"techbot/internal/app/server/routers"
)

// App 应用实例
type App struct {
	Engine *gin.Engine
	Outbox *consumer.OutboxConsumer // 未启用队列时为 nil
	Logger logger.Logger
}

// InitializeApp 按配置组装各层依赖
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// 1. 日志
	appLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	cleanups = append(cleanups, func() { _ = appLogger.Sync() })
	ctx := context.Background()

	// 2. 存储：会话、去重、状态事件
	var (
		sessionStore rpsession.SessionStore = rpsession.NewMemoryStore()
		dedupe       svworkflow.Deduplicator = memory.NewDeduplicator(cfg.Workflow.DedupeWindow)
		events       svorder.StatusPublisher
	)
	if cfg.Session.Store == "redis" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init redis: %w", err)
		}
		cleanups = append(cleanups, func() { _ = rdb.Close() })
		sessionStore = rpsession.NewRedisStore(rdb, cfg.Session.TTL)
		dedupe = redis.NewDeduplicator(rdb, cfg.Workflow.DedupeWindow)
		events = redis.NewPubSubClient(rdb)
		appLogger.Infof(ctx, "Redis connected: %s", cfg.Redis.Addr)
	}

	// 3. 审计日志
	var audit rpaudit.AuditRepository = rpaudit.NewMemoryRepository()
	if cfg.MySQL.DSN != "" {
		db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init database: %w", err)
		}
		if err := rpaudit.AutoMigrate(db); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate audit table: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			cleanups = append(cleanups, func() { _ = sqlDB.Close() })
		}
		audit = rpaudit.NewAuditRepository(db)
		appLogger.Infof(ctx, "Database connected")
	}

	// 4. 外部协作方
	backendHTTP := &http.Client{Timeout: cfg.Backend.Timeout}
	orderClient := backend.NewOrderClient(cfg.Backend.OrdersURL, cfg.Backend.StatusURL, backendHTTP)
	issuer := apptoken.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AppName, cfg.Auth.TokenTTL)
	identityClient := backend.NewIdentityClient(cfg.Backend.IdentityURL, issuer, backendHTTP)
	chat := whatsapp.NewClient(cfg.WhatsApp.GraphURL, cfg.WhatsApp.APIVersion, cfg.WhatsApp.AccessToken,
		&http.Client{Timeout: cfg.WhatsApp.Timeout})
	mediaStore := media.NewStore(afero.NewOsFs(), cfg.Media.Root)

	// 5. 出站消息：直连或经 lmstfy 队列
	var (
		messenger svworkflow.Messenger = chat
		outbox    *consumer.OutboxConsumer
	)
	if cfg.Lmstfy.Enabled {
		mq := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
		messenger = lmstfy.NewQueuedMessenger(mq, lmstfy.MessengerConfig{Queue: cfg.Lmstfy.OutboxQueue})
		outbox = consumer.NewOutboxConsumer(mq, chat, consumer.Config{
			QueueName:    cfg.Lmstfy.OutboxQueue,
			Timeout:      3 * time.Second,
			TTR:          30 * time.Second,
			ErrorBackoff: time.Second,
			SendTimeout:  cfg.WhatsApp.Timeout,
		}, appLogger)
		appLogger.Infof(ctx, "Outbound messages queued on %s", cfg.Lmstfy.OutboxQueue)
	}

	// 6. 领域模块与服务
	sessions := mdsession.NewSessionModule(sessionStore, identityClient, cfg.Workflow.OTPMaxRetries)
	engine := mdtransition.NewTransitionModule(cfg.PartPhotoPolicy())
	orderService := svorder.NewOrderService(orderClient, engine, audit, events, cfg.Workflow.ListLimit, appLogger)
	workflowService := svworkflow.NewWorkflowService(dedupe, sessions, orderService, messenger, chat, mediaStore,
		svworkflow.Options{BotName: cfg.Workflow.BotName, DocumentFormURL: cfg.Workflow.DocumentFormURL}, appLogger)

	// 7. HTTP
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	webhookHandler := webhook.NewWebhookHandler(workflowService, webhook.Config{
		VerifyToken:  cfg.WhatsApp.VerifyToken,
		AppSecret:    cfg.WhatsApp.AppSecret,
		EventTimeout: cfg.WhatsApp.EventTimeout,
	}, appLogger)

	return &App{
		Engine: routers.SetupRoutes(webhookHandler, appLogger),
		Outbox: outbox,
		Logger: appLogger,
	}, cleanup, nil
}
