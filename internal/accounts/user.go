// Package accounts はユーザーアカウントの保存・パスワード検証・スナップショット変換を提供します。
package accounts

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Serializer はセッションやテンプレートに埋め込めるスナップショットを返す型が実装します。
type Serializer interface {
	Serialize() map[string]any
}

// User は users テーブルの 1 行です。
type User struct {
	ID           int64
	Name         string
	Username     string
	PasswordHash []byte
}

// Serialize は公開してよいフィールドだけを map に詰めます。
// PasswordHash は含めません。
func (u *User) Serialize() map[string]any {
	return map[string]any{
		"id":       u.ID,
		"name":     u.Name,
		"username": u.Username,
	}
}

var _ Serializer = (*User)(nil)

// View は success 画面で使う読み取り専用のユーザー情報です。
type View struct {
	ID       int64
	Name     string
	Username string
}

// Deserialize はスナップショットから View を復元します。
// JSON 経由で数値が float64 や json.Number になっている場合も受け付けます。
func Deserialize(snapshot map[string]any) (View, error) {
	if snapshot == nil {
		return View{}, fmt.Errorf("snapshot is nil")
	}

	id, err := readID(snapshot["id"])
	if err != nil {
		return View{}, err
	}

	return View{
		ID:       id,
		Name:     readString(snapshot["name"]),
		Username: readString(snapshot["username"]),
	}, nil
}

// Snapshot は Serializer の結果をセッション保存用の JSON 文字列にします。
func Snapshot(s Serializer) (string, error) {
	payload, err := json.Marshal(scalarsOnly(s.Serialize()))
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(payload), nil
}

// ParseSnapshot は Snapshot で作った JSON 文字列を map に戻します。
func ParseSnapshot(raw string) (map[string]any, error) {
	var snapshot map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

// scalarsOnly は基本スカラー以外の値を nil に置き換えます。
func scalarsOnly(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch v.(type) {
		case nil, string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64, json.Number:
			out[k] = v
		default:
			out[k] = nil
		}
	}
	return out
}

func readID(v any) (int64, error) {
	switch id := v.(type) {
	case int64:
		return id, nil
	case int:
		return int64(id), nil
	case int32:
		return int64(id), nil
	case float64:
		if id != math.Trunc(id) {
			return 0, fmt.Errorf("id is not an integer: %v", id)
		}
		return int64(id), nil
	case json.Number:
		n, err := id.Int64()
		if err != nil {
			return 0, fmt.Errorf("id is not an integer: %w", err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("id is missing")
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}

func readString(v any) string {
	s, _ := v.(string)
	return s
}
