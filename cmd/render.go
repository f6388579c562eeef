package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/internal/config"
	"github.com/shouni/go-manga-plan-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// renderCmd は、構成案から画像生成マニフェストを組み立てる最終ステージなのだ！
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "構成案から全ページ・全パネルの描画マニフェストを生成するのだ！",
	Long: `構成案JSONを読み込み、ページ画像とパネル画像それぞれの生成リクエスト
（プロンプト、ネガティブプロンプト、シード値、アスペクト比）を静的に列挙した
マニフェストJSONを書き出すのだ。実際の画像生成はこのマニフェストを受け取る
レンダラーの仕事なのだよ。`,
	Example: "  ap-manga-plan-go render --plan-file output/plan.json --refs-file refs.json -o output",
	RunE:    renderCommand,
}

// init は render 専用フラグを定義するのだ。
func init() {
	renderCmd.Flags().StringVar(&opts.PlanFile, "plan-file", config.DefaultPlanFile, "読み込む構成案JSONのパス（ローカル or gs://...）なのだ。")
	renderCmd.Flags().StringVar(&opts.RefsFile, "refs-file", "", "キャラクターIDと参照画像URLの対応表JSONなのだ（省略可）。")
}

func renderCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.PlanFile == "" {
		return fmt.Errorf("読み込む構成案（--plan-file）を指定してほしいのだ")
	}

	// 2. 設定のロード
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("描画計画ステージを開始するのだ！",
		"plan_file", opts.PlanFile,
		"refs_file", opts.RefsFile)

	// 3. マニフェスト生成のみを実行するのだ
	if err := pipeline.ExecuteRenderOnly(ctx, cfg); err != nil {
		return fmt.Errorf("描画マニフェストの生成に失敗したのだ: %w", err)
	}

	slog.Info("描画マニフェストが完成したのだ！あとはレンダラーに任せるのだよ。")
	return nil
}
