package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"techbot/internal/app/config"
	"techbot/internal/app/consumer"
	"techbot/internal/app/infra/mq/lmstfy"
	"techbot/internal/app/infra/transport/whatsapp"
	"techbot/internal/app/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Lmstfy.Enabled = true
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	// 2. 初始化日志
	appLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. 初始化队列与传输层
	mq := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	chat := whatsapp.NewClient(cfg.WhatsApp.GraphURL, cfg.WhatsApp.APIVersion, cfg.WhatsApp.AccessToken,
		&http.Client{Timeout: cfg.WhatsApp.Timeout})

	// 4. 初始化 Consumer
	outbox := consumer.NewOutboxConsumer(mq, chat, consumer.Config{
		QueueName:    cfg.Lmstfy.OutboxQueue,
		Timeout:      3 * time.Second,
		TTR:          30 * time.Second,
		ErrorBackoff: time.Second,
		SendTimeout:  cfg.WhatsApp.Timeout,
	}, appLogger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- outbox.Start(ctx)
	}()

	// 5. 优雅停机处理
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		appLogger.Infof(ctx, "Received shutdown signal, stopping outbox consumer...")
		outbox.Shutdown()
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Errorf(ctx, "Outbox consumer error: %v", err)
		}
	}

	appLogger.Infof(ctx, "Outbox consumer exited")
}
