// Package views は画面テンプレートを埋め込み、Gin に渡せる形で提供します。
package views

import (
	"embed"
	"html/template"
)

// テンプレート名
const (
	Home     = "home.html"
	Register = "register.html"
	Success  = "success.html"
	Error    = "error.html"
)

//go:embed templates/*.html
var templateFS embed.FS

// Load は埋め込みテンプレートをすべて読み込みます。
func Load() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}

// MustLoad は Load の失敗時に panic します。テスト用です。
func MustLoad() *template.Template {
	return template.Must(Load())
}
