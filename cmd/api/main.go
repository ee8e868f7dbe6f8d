// Package main はWebサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yourusername/loginapp/internal/config"
	"github.com/yourusername/loginapp/internal/logging"
)

func main() {
	envFile := pflag.String("env-file", "", "読み込む .env ファイル（未指定なら .env.local）")
	addr := pflag.String("addr", "", "待ち受けアドレス（指定時は PORT より優先）")
	resetSchema := pflag.Bool("reset-schema", false, "起動時に users テーブルを作り直す（既存データは消える）")
	pflag.Parse()

	// 設定の読み込み
	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if pflag.CommandLine.Changed("reset-schema") {
		cfg.ResetSchema = *resetSchema
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid flags: %v", err)
		}
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.SecretGenerated() {
		logger.Warn("SESSION_SECRET is not set; using a random secret, sessions will not survive a restart")
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// アカウントストアとセッションストアの準備
	service, db, err := setupAccounts(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up account store", zap.Error(err))
	}
	defer db.Close()

	sessionStore, closeSessions, err := setupSessionStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to set up session store", zap.Error(err))
	}
	defer closeSessions()

	router, err := newRouter(cfg, logger, service, sessionStore)
	if err != nil {
		logger.Fatal("failed to build router", zap.Error(err))
	}

	listenAddr := ":" + cfg.Port
	if *addr != "" {
		listenAddr = *addr
	}
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// サーバーの起動
	go func() {
		logger.Info("starting server",
			zap.String("addr", listenAddr),
			zap.String("mode", cfg.GinMode),
			zap.String("session_store", cfg.SessionStore),
			zap.String("db_driver", cfg.DatabaseDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
