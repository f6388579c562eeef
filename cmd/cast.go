package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/internal/config"
	"github.com/shouni/go-manga-plan-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// castCmd は、キャスト設計だけを先行して実行するのだ。
var castCmd = &cobra.Command{
	Use:   "cast",
	Short: "題材から主要キャストの名簿だけを設計するのだ。",
	Long: `本生成に入る前に、題材から主要キャラクターの名簿（名前、役割、外見、シード値）を
設計して JSON に保存するのだ。登場人物の雰囲気を先に確かめたいときに使うのだよ。`,
	Example: "  ap-manga-plan-go cast -p \"嵐の夜の灯台守の物語\" -o output",
	RunE:    castCommand,
}

func init() {
}

func castCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 入力ソースの解決と必須チェック
	if err := resolveStdinPrompt(); err != nil {
		return err
	}
	if opts.Prompt == "" && opts.PromptFile == "" && opts.PromptURL == "" {
		return fmt.Errorf("題材（--prompt, --prompt-file, --prompt-url のいずれか）を指定してほしいのだ")
	}

	// 2. 設定のロード
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("キャスト設計ステージを開始するのだ！",
		"text_model", cfg.GeminiModel,
		"output_dir", opts.OutputDir)

	// 3. キャスト設計のみを実行するのだ
	if err := pipeline.ExecuteCastOnly(ctx, cfg); err != nil {
		return fmt.Errorf("キャスト設計に失敗したのだ: %w", err)
	}

	slog.Info("キャスト設計が完了したのだ！")
	return nil
}
