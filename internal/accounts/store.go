package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// pgUniqueViolation は PostgreSQL の unique_violation (SQLSTATE 23505) です。
const pgUniqueViolation = "23505"

// users テーブルへのクエリ。PostgreSQL は $n プレースホルダーを使う
const (
	sqliteSelectUser = `SELECT id, name, username, password FROM users WHERE username = ?`
	sqliteInsertUser = `INSERT INTO users (name, username, password) VALUES (?, ?, ?) RETURNING id`

	postgresSelectUser = `SELECT id, name, username, password FROM users WHERE username = $1`
	postgresInsertUser = `INSERT INTO users (name, username, password) VALUES ($1, $2, $3) RETURNING id`
)

type userQueries struct {
	selectUser string
	insertUser string
}

// SQLStore は database/sql 経由で users テーブルを読み書きします。
type SQLStore struct {
	db      *sql.DB
	queries userQueries
}

// NewSQLStore は SQLStore を作成します。
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	queries := userQueries{selectUser: sqliteSelectUser, insertUser: sqliteInsertUser}
	if dialect == DialectPostgres {
		queries = userQueries{selectUser: postgresSelectUser, insertUser: postgresInsertUser}
	}
	return &SQLStore{db: db, queries: queries}
}

// FindByUsername はユーザー名で 1 件取得します。見つからない場合は USER_NOT_FOUND を返します。
func (s *SQLStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	var (
		user User
		hash string
	)
	err := s.db.QueryRowContext(ctx, s.queries.selectUser, username).Scan(&user.ID, &user.Name, &user.Username, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(CodeUserNotFound, MsgUserNotFound, err)
		}
		return nil, newError(CodeStoreUnavailable, MsgStoreUnavailable, fmt.Errorf("select user: %w", err))
	}
	user.PasswordHash = []byte(hash)
	return &user, nil
}

// Insert は 1 件追加し、採番された ID を持つ User を返します。
// username の一意制約に違反した場合は USERNAME_TAKEN を返します。
func (s *SQLStore) Insert(ctx context.Context, name, username string, passwordHash []byte) (*User, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.queries.insertUser, name, username, string(passwordHash)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, newError(CodeUsernameTaken, MsgUsernameTaken, err)
		}
		return nil, newError(CodeStoreUnavailable, MsgStoreUnavailable, fmt.Errorf("insert user: %w", err))
	}

	return &User{
		ID:           id,
		Name:         name,
		Username:     username,
		PasswordHash: passwordHash,
	}, nil
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
