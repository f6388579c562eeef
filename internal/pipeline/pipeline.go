package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/internal/config"
	pkgconfig "github.com/shouni/go-manga-plan-kit/pkg/config"
	"github.com/shouni/go-manga-plan-kit/pkg/runner"
	"github.com/shouni/go-manga-plan-kit/pkg/workflow"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// Execute は、題材の取得から構成案の生成・保存までの一括パイプラインを実行するのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	b, err := setupBuilder(ctx, cfg)
	if err != nil {
		return err
	}

	planRunner, err := b.BuildPlanRunner()
	if err != nil {
		return fmt.Errorf("PlanRunnerの構築に失敗したのだ: %w", err)
	}

	slog.Info("構成案の生成を開始するのだ...", "pages", cfg.Options.Pages)
	plan, result, err := planRunner.Run(ctx, planJobFromOptions(cfg.Options))
	if err != nil {
		return err
	}

	slog.Info("構成案一式が完成したのだ！",
		"plan_id", plan.ID,
		"title", plan.Title,
		"plan", result.PlanPath,
		"preview", result.HTMLPath)
	return nil
}

// ExecuteCastOnly は、キャスト設計だけを先行して実行するのだ。
// 本生成の前に登場人物の雰囲気を確かめたいときのステージなのだ。
func ExecuteCastOnly(ctx context.Context, cfg *config.Config) error {
	b, err := setupBuilder(ctx, cfg)
	if err != nil {
		return err
	}

	castRunner, err := b.BuildCastRunner()
	if err != nil {
		return fmt.Errorf("CastRunnerの構築に失敗したのだ: %w", err)
	}

	slog.Info("キャスト設計を開始するのだ...")
	members, castPath, err := castRunner.Run(ctx, planJobFromOptions(cfg.Options))
	if err != nil {
		return err
	}

	for _, m := range members {
		slog.Info("キャストが決まったのだ", "id", m.ID, "name", m.Name, "role", m.Role)
	}
	slog.Info("名簿を書き出したのだ！", "path", castPath)
	return nil
}

// ExecuteReviewOnly は、保存済みの構成案にレビューと修復を再適用するのだ。
func ExecuteReviewOnly(ctx context.Context, cfg *config.Config) error {
	b, err := setupBuilder(ctx, cfg)
	if err != nil {
		return err
	}

	reviewRunner, err := b.BuildReviewRunner()
	if err != nil {
		return fmt.Errorf("ReviewRunnerの構築に失敗したのだ: %w", err)
	}

	job := runner.ReviewJob{
		PlanFile:  cfg.Options.PlanFile,
		OutputDir: cfg.Options.OutputDir,
	}

	slog.Info("レビューの再実行を開始するのだ...", "plan_file", job.PlanFile)
	plan, result, err := reviewRunner.Run(ctx, job)
	if err != nil {
		return err
	}

	slog.Info("レビュー済みの構成案を保存したのだ！",
		"plan_id", plan.ID,
		"plan", result.PlanPath,
		"preview", result.HTMLPath)
	return nil
}

// ExecuteRenderOnly は、構成案から画像生成マニフェストを組み立てるのだ。
// 実際の画像生成は、このマニフェストを受け取る後続のレンダラーの仕事なのだ。
func ExecuteRenderOnly(ctx context.Context, cfg *config.Config) error {
	b, err := setupBuilder(ctx, cfg)
	if err != nil {
		return err
	}

	renderRunner, err := b.BuildRenderRunner()
	if err != nil {
		return fmt.Errorf("RenderRunnerの構築に失敗したのだ: %w", err)
	}

	job := runner.RenderJob{
		PlanFile:  cfg.Options.PlanFile,
		RefsFile:  cfg.Options.RefsFile,
		OutputDir: cfg.Options.OutputDir,
	}

	slog.Info("描画マニフェストの生成を開始するのだ...", "plan_file", job.PlanFile)
	manifest, manifestPath, err := renderRunner.Run(ctx, job)
	if err != nil {
		return err
	}

	slog.Info("描画マニフェストが完成したのだ！",
		"path", manifestPath,
		"pages", len(manifest.Pages))
	return nil
}

// setupBuilder は、共有クライアント群を初期化してワークフロービルダーを返すのだ。
func setupBuilder(ctx context.Context, cfg *config.Config) (*workflow.Builder, error) {
	timeout := cfg.Options.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	httpClient := httpkit.New(timeout)

	aiClient, err := workflow.InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai client: %w", err)
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	return workflow.NewBuilder(toWorkflowConfig(cfg), httpClient, aiClient, reader, writer)
}

// toWorkflowConfig は、アプリ設定とCLIオプションをライブラリ側の設定へ写すのだ。
func toWorkflowConfig(cfg *config.Config) pkgconfig.Config {
	wc := pkgconfig.DefaultConfig()
	wc.GeminiAPIKey = cfg.GeminiAPIKey
	wc.ProjectID = cfg.ProjectID
	wc.GeminiModel = cfg.GeminiModel
	wc.QualityModel = cfg.QualityModel
	wc.StyleSuffix = cfg.StyleSuffix
	wc.Language = cfg.Options.Language

	if cfg.LocationID != "" {
		wc.LocationID = cfg.LocationID
	}
	if cfg.Options.AIModel != "" {
		wc.GeminiModel = cfg.Options.AIModel
	}
	if cfg.Options.QualityModel != "" {
		wc.QualityModel = cfg.Options.QualityModel
	}
	if cfg.Options.RateInterval > 0 {
		wc.RateInterval = cfg.Options.RateInterval
	}
	if cfg.Options.MaxAttempts > 0 {
		wc.MaxAttempts = cfg.Options.MaxAttempts
	}
	if cfg.Options.HTTPTimeout > 0 {
		wc.RequestTimeout = cfg.Options.HTTPTimeout
	}

	return wc
}

// planJobFromOptions は、CLIオプションを PlanJob へ写すのだ。
func planJobFromOptions(opts config.GenerateOptions) runner.PlanJob {
	return runner.PlanJob{
		Prompt:     opts.Prompt,
		PromptFile: opts.PromptFile,
		PromptURL:  opts.PromptURL,
		OutputDir:  opts.OutputDir,
		Pages:      opts.Pages,
		Language:   opts.Language,
		Style:      opts.Style,
		Setting:    opts.Setting,
	}
}
