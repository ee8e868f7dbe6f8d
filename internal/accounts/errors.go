package accounts

import (
	"errors"
	"fmt"
)

// エラーコード一覧です。ハンドラーはこのコードでステータスと表示先を決めます。
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeIncorrectPassword = "INCORRECT_PASSWORD"
	CodeUsernameTaken     = "USERNAME_TAKEN"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeCredentialFormat  = "CREDENTIAL_FORMAT"
)

// 画面に表示するメッセージです。
const (
	MsgMissingFields     = "Please fill in all fields."
	MsgUserNotFound      = "User cannot be found. Please register for a new account."
	MsgIncorrectPassword = "Incorrect password."
	MsgUsernameTaken     = "Username already exists. Please enter a new username."
	MsgStoreUnavailable  = "The account store is unavailable. Please try again later."
)

// Error はアカウント処理の失敗を表すエラーです。
// Message はそのままフォームに表示できる文言です。
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf は err に含まれる *Error のコードを返します。該当しない場合は空文字です。
func CodeOf(err error) string {
	var accErr *Error
	if errors.As(err, &accErr) {
		return accErr.Code
	}
	return ""
}

// IsAuthentication はユーザー不在またはパスワード不一致かどうかを返します。
func IsAuthentication(err error) bool {
	switch CodeOf(err) {
	case CodeUserNotFound, CodeIncorrectPassword:
		return true
	}
	return false
}
