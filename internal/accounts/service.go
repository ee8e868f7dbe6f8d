package accounts

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Store はアカウントの永続化を担います。更新・削除は提供しません。
type Store interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Insert(ctx context.Context, name, username string, passwordHash []byte) (*User, error)
}

// Service はアカウント登録とログイン判定をまとめたものです。
type Service struct {
	store  Store
	hasher *Hasher
	logger *zap.Logger
}

// NewService は Service を作成します。
func NewService(store Store, hasher *Hasher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		hasher: hasher,
		logger: logger,
	}
}

// Register は新しいアカウントを作成します。
// 既存ユーザー名の場合は USERNAME_TAKEN を返し、ストアは変更しません。
func (s *Service) Register(ctx context.Context, name, username, password string) (*User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(username) == "" || password == "" {
		return nil, newError(CodeInvalidInput, MsgMissingFields, nil)
	}

	existing, err := s.store.FindByUsername(ctx, username)
	switch {
	case err == nil && existing != nil:
		return nil, newError(CodeUsernameTaken, MsgUsernameTaken, nil)
	case err != nil && CodeOf(err) != CodeUserNotFound:
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	// 同時登録は一意制約で弾かれ、Insert が USERNAME_TAKEN を返す
	user, err := s.store.Insert(ctx, name, username, hash)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate はユーザー名とパスワードを検証します。
// ユーザー不在は USER_NOT_FOUND、パスワード不一致は INCORRECT_PASSWORD です。
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, newError(CodeInvalidInput, MsgMissingFields, nil)
	}

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, newError(CodeIncorrectPassword, MsgIncorrectPassword, nil)
	}
	return user, nil
}
