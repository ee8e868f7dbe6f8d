package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yourusername/loginapp/internal/accounts"
	"github.com/yourusername/loginapp/internal/config"
	"github.com/yourusername/loginapp/internal/sessionstore"
)

// setupAccounts はデータベースを開いてマイグレーションを適用し、アカウントサービスを返します。
func setupAccounts(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*accounts.Service, *sql.DB, error) {
	dialect, err := accounts.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return nil, nil, err
	}

	db, err := accounts.Open(ctx, dialect, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	if cfg.ResetSchema {
		logger.Warn("resetting database schema; existing accounts will be discarded")
	}
	if err := accounts.Migrate(ctx, db, dialect, cfg.ResetSchema); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	store := accounts.NewSQLStore(db, dialect)
	service := accounts.NewService(store, accounts.NewHasher(cfg.BcryptCost), logger.Named("accounts"))
	return service, db, nil
}

// setupSessionStore は設定に応じて Cookie ストアか Redis ストアを作成します。
// 戻り値の関数はストアが保持する接続を閉じます。
func setupSessionStore(ctx context.Context, cfg *config.Config) (sessions.Store, func(), error) {
	var (
		store   sessions.Store
		closeFn = func() {}
	)

	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		opt, err := redis.ParseURL(cfg.SessionRedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse SESSION_REDIS_URL: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		store = sessionstore.NewRedisStore(client, []byte(cfg.SessionSecret))
		closeFn = func() { _ = client.Close() }
	default:
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessionOptions(cfg))
	return store, closeFn, nil
}

func sessionOptions(cfg *config.Config) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		// 外部リンクからの遷移でも Cookie を送る
		SameSite: http.SameSiteLaxMode,
	}
}
