package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-web-exact/v2/pkg/extract"
)

// resolveSourceText は PlanJob の入力ソース指定から題材テキストを読み出します。
// 優先順位はインライン指定、ファイル、URL の順です。
func resolveSourceText(ctx context.Context, r remoteio.InputReader, ext *extract.Extractor, job PlanJob) (string, error) {
	switch {
	case strings.TrimSpace(job.Prompt) != "":
		return job.Prompt, nil

	case job.PromptFile != "":
		slog.Info("題材ファイルを読み込みます", "path", job.PromptFile)
		rc, err := r.Open(ctx, job.PromptFile)
		if err != nil {
			return "", fmt.Errorf("題材ファイルのオープンに失敗しました (%s): %w", job.PromptFile, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("題材ファイルの読み込みに失敗しました: %w", err)
		}
		return string(data), nil

	case job.PromptURL != "":
		if ext == nil {
			return "", fmt.Errorf("URL からの取得は初期化されていません")
		}
		slog.Info("Web ページから題材を抽出します", "url", job.PromptURL)
		text, _, err := ext.FetchAndExtractText(ctx, job.PromptURL)
		if err != nil {
			return "", fmt.Errorf("Web ページからの抽出に失敗しました: %w", err)
		}
		return text, nil

	default:
		return "", fmt.Errorf("題材（--prompt, --prompt-file, --prompt-url のいずれか）を指定してください")
	}
}
