// Package asset は成果物の命名規約とパス解決をまとめます。
// 出力先は GCS URI とローカルパスの両方を想定します。
package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultPlanJSON は構成案の正規アーティファクトのファイル名です。
	DefaultPlanJSON = "plan.json"
	// DefaultPlanMarkdown は人間向けダイジェストのファイル名です。
	DefaultPlanMarkdown = "plan.md"
	// DefaultPreviewHTML は webtoon プレビューのファイル名です。
	DefaultPreviewHTML = "index.html"
	// DefaultManifestJSON は画像生成マニフェストのファイル名です。
	DefaultManifestJSON = "render_manifest.json"
	// DefaultCastJSON はキャスト単独実行時の名簿ファイル名です。
	DefaultCastJSON = "cast.json"
	// DefaultImageDir はレンダリング済み画像を格納するディレクトリ名です。
	DefaultImageDir = "images"
	// DefaultPageFileName はページ画像の共通のベースファイル名です。
	DefaultPageFileName = "page.png"
)

// PageFileRegex はレンダリング済みページ画像 (page_1.png 等) に一致します。
var PageFileRegex = createIndexedRegex(DefaultPageFileName)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// ResolveBaseURL は、入力パス（URLまたはローカルパス）から
// 親ディレクトリのパスを解決し、末尾がセパレータで終わるように正規化します。
func ResolveBaseURL(rawPath string) string {
	return urlpath.ResolveBaseURL(rawPath)
}

// PageImagePath はページ通し番号から画像の相対パスを組み立てます。
// 例: 3 -> images/page_3.png
func PageImagePath(pageNumber int) (string, error) {
	return urlpath.GenerateIndexedPath(
		strings.Join([]string{DefaultImageDir, DefaultPageFileName}, "/"), pageNumber)
}

// PanelImagePath はパネルIDから画像の相対パスを組み立てます。
// 例: panel-3-2 -> images/panel-3-2.png
func PanelImagePath(panelID string) string {
	return DefaultImageDir + "/" + panelID + ".png"
}

// createIndexedRegex は、ファイル名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "page.png" -> ^page_\d+\.png$
func createIndexedRegex(fileName string) *regexp.Regexp {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	pattern := fmt.Sprintf(`^%s_\d+%s$`, regexp.QuoteMeta(baseName), regexp.QuoteMeta(ext))
	return regexp.MustCompile(pattern)
}
