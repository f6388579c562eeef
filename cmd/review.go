package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/internal/config"
	"github.com/shouni/go-manga-plan-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// reviewCmd は、保存済みの構成案にレビューと修復を再適用するのだ。
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "保存済みの構成案をレビューして磨き直すのだ。",
	Long: `plan コマンドで出力された構成案JSONを読み込み、参照整合性や演出の問題を
AIレビューで洗い出して修復するのだ。修復後の構成案は同じ形式で再保存されるのだよ。`,
	Example: "  ap-manga-plan-go review --plan-file output/plan.json -o output",
	RunE:    reviewCommand,
}

// init は review 専用フラグを定義するのだ。
func init() {
	reviewCmd.Flags().StringVar(&opts.PlanFile, "plan-file", config.DefaultPlanFile, "読み込む構成案JSONのパス（ローカル or gs://...）なのだ。")
}

func reviewCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.PlanFile == "" {
		return fmt.Errorf("読み込む構成案（--plan-file）を指定してほしいのだ")
	}

	// 2. 設定のロード
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("レビューステージを開始するのだ！",
		"plan_file", opts.PlanFile,
		"quality_model", cfg.QualityModel)

	// 3. レビューと修復のみを実行するのだ
	if err := pipeline.ExecuteReviewOnly(ctx, cfg); err != nil {
		return fmt.Errorf("レビューの再実行に失敗したのだ: %w", err)
	}

	slog.Info("レビューが完了したのだ！磨き直した構成案を確認してほしいのだ。")
	return nil
}
