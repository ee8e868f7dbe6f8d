package main

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/loginapp/internal/auth"
	"github.com/yourusername/loginapp/internal/config"
	"github.com/yourusername/loginapp/internal/logging"
	"github.com/yourusername/loginapp/internal/views"
)

// newRouter はミドルウェアとルートを組み立てた Gin エンジンを返します。
func newRouter(cfg *config.Config, logger *zap.Logger, service auth.AccountService, store sessions.Store) (*gin.Engine, error) {
	router := gin.New()
	router.Use(logging.RequestLogger(logger), logging.Recovery(logger))

	tmpl, err := views.Load()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	router.Use(sessions.Sessions(cfg.SessionCookie, store))

	// CORS は許可オリジンが設定されている場合のみ有効
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		corsConfig.ExposeHeaders = []string{logging.RequestIDHeader}
		router.Use(cors.New(corsConfig))
	}

	setupRoutes(router, auth.NewManager(service, logger))
	return router, nil
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "loginapp",
	})
}

// setupRoutes は画面ルートとヘルスチェックの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager) {
	router.GET("/health", handleHealth)
	authManager.RegisterRoutes(router)
}
