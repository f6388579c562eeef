package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shouni/go-manga-plan-kit/internal/config"
	"github.com/shouni/go-manga-plan-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// planCmd は、AIによる漫画構成案の一括生成を実行するのだ。
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "AIに複数章の漫画構成案を生成させますなのだ。",
	Long: `題材となる文章を解析し、キャスト、章立て、全ページのコマ割りとセリフを生成するのだ。
出力は正規の構成案JSONと、Markdownダイジェスト、webtoonプレビューHTMLになるのだよ。`,
	Example: "  ap-manga-plan-go plan -p \"嵐の夜の灯台守の物語\" --pages 5 -o output",
	RunE:    planCommand,
}

func init() {
}

func planCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 入力ソースの解決と必須チェック
	if err := resolveStdinPrompt(); err != nil {
		return err
	}
	if opts.Prompt == "" && opts.PromptFile == "" && opts.PromptURL == "" {
		return fmt.Errorf("題材（--prompt, --prompt-file, --prompt-url のいずれか）を指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("構成案生成パイプラインを起動するのだ！",
		"pages", opts.Pages,
		"text_model", cfg.GeminiModel,
		"quality_model", cfg.QualityModel,
		"output_dir", opts.OutputDir)

	// 3. 更新した config を考慮しつつパイプラインを実行するのだ
	if err := pipeline.Execute(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}

// resolveStdinPrompt は、標準入力からの題材指定をインライン指定に読み替えるのだ。
func resolveStdinPrompt() error {
	if opts.PromptFile != "-" && !(opts.Prompt == "" && opts.PromptFile == "" && opts.PromptURL == "" && isStdin()) {
		return nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("標準入力の読み込みに失敗したのだ: %w", err)
	}
	opts.Prompt = string(data)
	opts.PromptFile = ""
	return nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
