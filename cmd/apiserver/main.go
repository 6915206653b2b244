package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"techbot/internal/app/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	// 2. 初始化应用（包含 HTTP Server 和可选的 Outbox Consumer）
	app, cleanup, err := InitializeApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer cleanup()
	ctx := context.Background()

	// 3. 创建 HTTP Server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           app.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4. 启动 Consumer（后台 goroutine）
	consumerErrChan := make(chan error, 1)
	if app.Outbox != nil {
		go func() {
			app.Logger.Infof(ctx, "Starting outbox consumer...")
			consumerErrChan <- app.Outbox.Start(ctx)
		}()
	}

	// 5. 启动 HTTP Server（后台 goroutine）
	serverErrChan := make(chan error, 1)
	go func() {
		app.Logger.Infof(ctx, "Starting HTTP server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	// 6. 优雅停机处理
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		app.Logger.Infof(ctx, "Received shutdown signal, gracefully shutting down...")
		gracefulShutdown(app, server)
	case err := <-serverErrChan:
		app.Logger.Errorf(ctx, "HTTP server error: %v", err)
	case err := <-consumerErrChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			app.Logger.Errorf(ctx, "Consumer error: %v", err)
		}
	}

	app.Logger.Infof(ctx, "Application stopped")
}

// gracefulShutdown 优雅停机
func gracefulShutdown(app *App, server *http.Server) {
	ctx := context.Background()

	// 1. 停止 HTTP Server，等待进行中的 webhook 处理完成
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Errorf(ctx, "HTTP server shutdown error: %v", err)
	} else {
		app.Logger.Infof(ctx, "HTTP server stopped gracefully")
	}

	// 2. 停止 Consumer，已入队的消息留在队列
	if app.Outbox != nil {
		app.Outbox.Shutdown()
		app.Logger.Infof(ctx, "Outbox consumer stopped")
	}
}
