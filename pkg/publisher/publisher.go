// Package publisher は完成した構成案の永続化とフォーマット変換を担います。
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-manga-plan-kit/pkg/asset"
	"github.com/shouni/go-manga-plan-kit/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-text-format/pkg/md2htmlrunner"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishResult はパブリッシュ処理で生成されたファイルの情報を保持します。
type PublishResult struct {
	PlanPath     string // 正規アーティファクト plan.json のパス
	MarkdownPath string // ダイジェスト plan.md のパス
	HTMLPath     string // プレビュー index.html のパス（変換なしの場合は空）
}

// PlanPublisher は構成案の書き出しと webtoon プレビューの生成を担います。
type PlanPublisher struct {
	writer     remoteio.OutputWriter
	htmlRunner md2htmlrunner.Runner
}

// NewPlanPublisher は PlanPublisher を初期化します。
// htmlRunner が nil の場合、HTML変換は省略されます。
func NewPlanPublisher(writer remoteio.OutputWriter, htmlRunner md2htmlrunner.Runner) (*PlanPublisher, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer は必須です")
	}
	return &PlanPublisher{writer: writer, htmlRunner: htmlRunner}, nil
}

// Publish は plan.json、plan.md、index.html を一括で書き出します。
func (p *PlanPublisher) Publish(ctx context.Context, plan domain.Plan, opts Options) (PublishResult, error) {
	result := PublishResult{}

	// 1. 正規アーティファクトの書き出し
	planPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultPlanJSON)
	if err != nil {
		return result, err
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return result, fmt.Errorf("構成案の直列化に失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, planPath, bytes.NewReader(data), "application/json; charset=utf-8"); err != nil {
		return result, fmt.Errorf("構成案の書き込みに失敗しました: %w", err)
	}
	result.PlanPath = planPath

	// 2. ダイジェスト Markdown の書き出し
	markdownPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultPlanMarkdown)
	if err != nil {
		return result, err
	}
	content := BuildPlanMarkdown(plan)
	if err := p.writer.Write(ctx, markdownPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = markdownPath

	// 3. HTML変換と保存
	if p.htmlRunner != nil {
		slog.Info("webtoon プレビューへ変換します", "title", plan.Title)
		htmlBuffer, err := p.htmlRunner.Run(ctx, plan.Title, []byte(content))
		if err != nil {
			return result, fmt.Errorf("HTMLの変換に失敗しました: %w", err)
		}

		htmlPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultPreviewHTML)
		if err != nil {
			return result, err
		}
		if err := p.writer.Write(ctx, htmlPath, htmlBuffer, "text/html; charset=utf-8"); err != nil {
			return result, fmt.Errorf("HTMLファイルの書き込みに失敗しました: %w", err)
		}
		result.HTMLPath = htmlPath
	}

	slog.Info("構成案を書き出しました",
		"plan", result.PlanPath, "markdown", result.MarkdownPath, "html", result.HTMLPath)
	return result, nil
}
