package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/pkg/config"
	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/generator"
	"github.com/shouni/go-manga-plan-kit/pkg/publisher"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-web-exact/v2/pkg/extract"
)

// PlanJob は構成案生成1回分の実行パラメータです。
// Prompt、PromptFile、PromptURL はいずれか1つを指定します。
type PlanJob struct {
	Prompt     string // 物語の題材（インラインテキスト）
	PromptFile string // 題材ファイルのパス（ローカル or gs://...）
	PromptURL  string // 題材を取得する Web ページの URL
	OutputDir  string
	Pages      int
	Language   string
	Style      string
	Setting    string
}

// MangaPlanRunner は題材の取得から構成案の生成・保存までを一括で実行します。
type MangaPlanRunner struct {
	cfg       config.Config
	composer  *generator.PlanComposer
	extractor *extract.Extractor
	reader    remoteio.InputReader
	publisher *publisher.PlanPublisher
}

// NewMangaPlanRunner は依存関係を注入して初期化します。
func NewMangaPlanRunner(
	cfg config.Config,
	composer *generator.PlanComposer,
	ext *extract.Extractor,
	r remoteio.InputReader,
	pub *publisher.PlanPublisher,
) *MangaPlanRunner {
	return &MangaPlanRunner{
		cfg:       cfg,
		composer:  composer,
		extractor: ext,
		reader:    r,
		publisher: pub,
	}
}

// Run は題材テキストを解決し、構成案を生成して保存します。
func (pr *MangaPlanRunner) Run(ctx context.Context, job PlanJob) (*domain.Plan, publisher.PublishResult, error) {
	// 1. 題材テキストの解決
	prompt, err := resolveSourceText(ctx, pr.reader, pr.extractor, job)
	if err != nil {
		return nil, publisher.PublishResult{}, err
	}

	// 2. 構成案の生成
	req := generator.PlanRequest{
		Prompt:   prompt,
		Pages:    job.Pages,
		Language: firstNonEmpty(job.Language, pr.cfg.Language),
		Style:    job.Style,
		Setting:  job.Setting,
	}
	slog.Info("PlanRunner: 構成案の生成を開始します", "pages", job.Pages, "model", pr.cfg.GeminiModel)
	plan, err := pr.composer.ComposePlan(ctx, req)
	if err != nil {
		return nil, publisher.PublishResult{}, fmt.Errorf("構成案の生成に失敗しました: %w", err)
	}

	// 3. 成果物の保存
	result, err := pr.publisher.Publish(ctx, *plan, publisher.Options{OutputDir: job.OutputDir})
	if err != nil {
		return nil, publisher.PublishResult{}, fmt.Errorf("構成案の保存に失敗しました: %w", err)
	}

	return plan, result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
