package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireLogin はログインしていないリクエストを / へリダイレクトするミドルウェアです。
// logged_in が未設定の場合も未ログインとして扱います。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SessionFrom(c).IsLoggedIn() {
			c.Redirect(http.StatusFound, pathHome)
			c.Abort()
			return
		}
		c.Next()
	}
}
