package auth

import (
	"fmt"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/loginapp/internal/accounts"
)

const (
	sessionKeyLoggedIn = "logged_in"
	sessionKeyUser     = "user"
)

// Session はリクエスト単位のログイン状態です。
// user は logged_in が true の間だけ保持します。
type Session struct {
	store sessions.Session
}

// SessionFrom は gin.Context に紐づくセッションを返します。
// sessions.Sessions ミドルウェアが登録されている必要があります。
func SessionFrom(c *gin.Context) *Session {
	return &Session{store: sessions.Default(c)}
}

// Init は初回アクセス時に logged_in=false を設定します。設定した場合は true を返します。
func (s *Session) Init() bool {
	if _, ok := s.store.Get(sessionKeyLoggedIn).(bool); ok {
		return false
	}
	s.store.Set(sessionKeyLoggedIn, false)
	return true
}

// IsLoggedIn はログイン済みかどうかを返します。未設定や型違いは false です。
func (s *Session) IsLoggedIn() bool {
	loggedIn, ok := s.store.Get(sessionKeyLoggedIn).(bool)
	return ok && loggedIn
}

// SetLoggedIn はログイン状態を設定します。
func (s *Session) SetLoggedIn(loggedIn bool) {
	s.store.Set(sessionKeyLoggedIn, loggedIn)
}

// User はセッションに保存されたスナップショットを返します。
func (s *Session) User() (map[string]any, bool) {
	raw, ok := s.store.Get(sessionKeyUser).(string)
	if !ok || raw == "" {
		return nil, false
	}
	snapshot, err := accounts.ParseSnapshot(raw)
	if err != nil {
		return nil, false
	}
	return snapshot, true
}

// SetUser はスナップショットを JSON 文字列として保存します。
func (s *Session) SetUser(user accounts.Serializer) error {
	raw, err := accounts.Snapshot(user)
	if err != nil {
		return fmt.Errorf("snapshot user: %w", err)
	}
	s.store.Set(sessionKeyUser, raw)
	return nil
}

// Login はユーザーを保存してログイン状態にします。
func (s *Session) Login(user accounts.Serializer) error {
	if err := s.SetUser(user); err != nil {
		return err
	}
	s.SetLoggedIn(true)
	return nil
}

// Logout はスナップショットを削除して logged_in=false にします。
func (s *Session) Logout() {
	s.store.Delete(sessionKeyUser)
	s.SetLoggedIn(false)
}

// Save は変更をレスポンスに書き出します。
func (s *Session) Save() error {
	return s.store.Save()
}
