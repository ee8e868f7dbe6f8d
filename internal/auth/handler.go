package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yourusername/loginapp/internal/accounts"
	"github.com/yourusername/loginapp/internal/logging"
	"github.com/yourusername/loginapp/internal/views"
)

var pageTitles = map[string]string{
	views.Home:     "Log in",
	views.Register: "Register",
	views.Success:  "Welcome",
	views.Error:    "Error",
}

// Home は GET / のハンドラーです。初回アクセス時にセッションを初期化します。
func (m *Manager) Home(c *gin.Context) {
	session := SessionFrom(c)
	if session.Init() {
		if err := session.Save(); err != nil {
			logging.FromContext(c, m.logger).Warn("failed to initialize session", zap.Error(err))
		}
	}
	renderPage(c, http.StatusOK, views.Home, nil)
}

// Register は GET /register のハンドラーです。
func (m *Manager) Register(c *gin.Context) {
	renderPage(c, http.StatusOK, views.Register, nil)
}

// Success は GET /success のハンドラーです。RequireLogin の後ろで使います。
func (m *Manager) Success(c *gin.Context) {
	session := SessionFrom(c)

	snapshot, ok := session.User()
	if !ok {
		m.dropBrokenSession(c, session, errors.New("user snapshot is missing"))
		return
	}
	user, err := accounts.Deserialize(snapshot)
	if err != nil {
		m.dropBrokenSession(c, session, err)
		return
	}

	renderPage(c, http.StatusOK, views.Success, gin.H{"user": user})
}

// dropBrokenSession は logged_in=true なのにスナップショットが読めないセッションを未ログインに戻します。
func (m *Manager) dropBrokenSession(c *gin.Context, session *Session, cause error) {
	logging.FromContext(c, m.logger).Warn("discarding inconsistent session", zap.Error(cause))
	session.Logout()
	if err := session.Save(); err != nil {
		m.respondWithError(c, views.Error, err, nil)
		return
	}
	c.Redirect(http.StatusFound, pathHome)
}

// respondWithError はエラーの種類に応じて元のフォームか 500 ページを返します。
func (m *Manager) respondWithError(c *gin.Context, page string, err error, data gin.H) {
	var accErr *accounts.Error
	if errors.As(err, &accErr) {
		switch accErr.Code {
		case accounts.CodeUserNotFound, accounts.CodeIncorrectPassword, accounts.CodeUsernameTaken:
			renderPage(c, http.StatusOK, page, withError(data, accErr.Message))
			return
		case accounts.CodeInvalidInput:
			renderPage(c, http.StatusBadRequest, page, withError(data, accErr.Message))
			return
		}
	}

	_ = c.Error(err)
	logging.FromContext(c, m.logger).Error("request failed", zap.Error(err))
	renderPage(c, http.StatusInternalServerError, views.Error, gin.H{
		"error": "The server could not complete your request. Please try again later.",
	})
}

func withError(data gin.H, message string) gin.H {
	out := gin.H{"error": message}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func renderPage(c *gin.Context, status int, page string, data gin.H) {
	payload := gin.H{"title": pageTitles[page]}
	for k, v := range data {
		payload[k] = v
	}
	c.HTML(status, page, payload)
}

// validationMessage はフォームのバインドエラーを画面表示用の文言にします。
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "max" {
				return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
			}
		}
	}
	return accounts.MsgMissingFields
}
