// Package auth はアカウント登録・ログイン・ログアウトの画面ハンドラーと、ログイン必須ページのガードを提供します。
package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/loginapp/internal/accounts"
	"github.com/yourusername/loginapp/internal/logging"
	"github.com/yourusername/loginapp/internal/views"
)

const (
	pathHome    = "/"
	pathSuccess = "/success"
)

// AccountService はハンドラーが使うアカウント操作です。
type AccountService interface {
	Register(ctx context.Context, name, username, password string) (*accounts.User, error)
	Authenticate(ctx context.Context, username, password string) (*accounts.User, error)
}

// Manager は認証まわりのハンドラーをまとめた構造体です。
type Manager struct {
	accounts AccountService
	logger   *zap.Logger
}

// NewManager は認証マネージャーを作成します。
func NewManager(svc AccountService, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		accounts: svc,
		logger:   logger,
	}
}

// RegisterRoutes は画面とフォーム送信先のルートを登録します。
func (m *Manager) RegisterRoutes(r gin.IRouter) {
	r.GET(pathHome, m.Home)
	r.GET("/register", m.Register)
	r.POST("/login", m.Login)
	r.POST("/create", m.CreateAccount)
	r.GET(pathSuccess, m.RequireLogin(), m.Success)
	r.GET("/logout", m.Logout)
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type createAccountForm struct {
	Name     string `form:"name" binding:"required,max=30"`
	Username string `form:"username" binding:"required,max=30"`
	Password string `form:"password" binding:"required"`
}

// Login は POST /login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		renderPage(c, http.StatusBadRequest, views.Home, gin.H{
			"error":    validationMessage(err),
			"username": form.Username,
		})
		return
	}

	user, err := m.accounts.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if accounts.IsAuthentication(err) {
			logging.FromContext(c, m.logger).Info("login rejected", zap.String("reason", accounts.CodeOf(err)))
		}
		m.respondWithError(c, views.Home, err, gin.H{"username": form.Username})
		return
	}

	m.startSession(c, user)
}

// CreateAccount は POST /create のハンドラーです。
func (m *Manager) CreateAccount(c *gin.Context) {
	var form createAccountForm
	if err := c.ShouldBind(&form); err != nil {
		renderPage(c, http.StatusBadRequest, views.Register, gin.H{
			"error":    validationMessage(err),
			"name":     form.Name,
			"username": form.Username,
		})
		return
	}

	user, err := m.accounts.Register(c.Request.Context(), form.Name, form.Username, form.Password)
	if err != nil {
		m.respondWithError(c, views.Register, err, gin.H{
			"name":     form.Name,
			"username": form.Username,
		})
		return
	}

	m.startSession(c, user)
}

// Logout は GET /logout のハンドラーです。
func (m *Manager) Logout(c *gin.Context) {
	session := SessionFrom(c)
	session.Logout()
	if err := session.Save(); err != nil {
		m.respondWithError(c, views.Error, err, nil)
		return
	}
	c.Redirect(http.StatusFound, pathHome)
}

// startSession はセッションにユーザーを保存して /success へリダイレクトします。
func (m *Manager) startSession(c *gin.Context, user *accounts.User) {
	session := SessionFrom(c)
	if err := session.Login(user); err != nil {
		m.respondWithError(c, views.Error, err, nil)
		return
	}
	if err := session.Save(); err != nil {
		m.respondWithError(c, views.Error, err, nil)
		return
	}

	logging.FromContext(c, m.logger).Info("user logged in", zap.Int64("user_id", user.ID))
	c.Redirect(http.StatusFound, pathSuccess)
}
