package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-manga-plan-kit/internal/config"
	pkgconfig "github.com/shouni/go-manga-plan-kit/pkg/config"

	"github.com/joho/godotenv"
	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は addAppFlags で各フラグと紐付けられる実行時パラメータなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Prompt, "prompt", "p", "", "物語の題材をインラインで指定するのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.PromptFile, "prompt-file", "f", "", "題材ファイルのパス（ローカル or gs://...、'-'で標準入力なのだ）。")
	rootCmd.PersistentFlags().StringVarP(&opts.PromptURL, "prompt-url", "u", "", "Webページから題材を取得するためのURLなのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "成果物の保存ディレクトリ（ローカル or gs://...）なのだ。")

	// --- 物語設定 ---
	rootCmd.PersistentFlags().IntVar(&opts.Pages, "pages", 0, "生成するページ数なのだ。0なら推奨値に自動調整されるのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Language, "language", "", "セリフとナレーションの言語なのだ。未指定なら日本語なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Style, "style", "", "画風の指定なのだ（例: 水彩タッチの少年漫画）。")
	rootCmd.PersistentFlags().StringVar(&opts.Setting, "setting", "", "舞台・世界観の指定なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", "", "下書き側の Gemini モデル名なのだ。未指定なら環境変数か既定値なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.QualityModel, "quality-model", "", "レビュー側の Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", pkgconfig.DefaultRateInterval, "ページ生成の思考呼び出しの最小間隔なのだ。")
	rootCmd.PersistentFlags().IntVar(&opts.MaxAttempts, "max-attempts", 0, "モデル呼び出し1回あたりの最大試行回数なのだ。0なら既定値なのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// .env があれば先に取り込むのだ。無くてもエラーにはしないのだよ。
	_ = godotenv.Load()

	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"ap-manga-plan-go",
		addAppFlags,
		preRunAppE,
		planCmd,
		castCmd,
		reviewCmd,
		renderCmd,
	)
}
