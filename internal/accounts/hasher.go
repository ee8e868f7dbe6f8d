package accounts

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost は bcrypt のデフォルトコストです。
const DefaultCost = 12

// Hasher は bcrypt でパスワードをハッシュ化・検証します。
type Hasher struct {
	cost int
}

// NewHasher は Hasher を作成します。範囲外のコストは DefaultCost に丸めます。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash は呼び出しごとに新しいソルトでハッシュを生成します。
func (h *Hasher) Hash(plaintext string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, newError(CodeInvalidInput, "Password must be at most 72 bytes.", err)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Verify は stored に埋め込まれたソルトで plaintext を再計算して比較します。
// 不一致は (false, nil)、ハッシュ自体が壊れている場合は CREDENTIAL_FORMAT エラーです。
func (h *Hasher) Verify(plaintext string, stored []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword(stored, []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, newError(CodeCredentialFormat, "stored password hash is malformed", err)
	}
}
