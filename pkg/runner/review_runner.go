package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/pkg/config"
	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/generator"
	"github.com/shouni/go-manga-plan-kit/pkg/parser"
	"github.com/shouni/go-manga-plan-kit/pkg/publisher"
)

// ReviewJob は保存済み構成案に対するレビュー再実行のパラメータです。
type ReviewJob struct {
	PlanFile  string // 読み込む plan.json のパス（ローカル or gs://...）
	OutputDir string
}

// MangaReviewRunner は保存済みの構成案を読み込み、レビューと修復を
// 再実行してから上書き保存します。生成直後に打ち切った作品を後から
// 磨き直す用途です。
type MangaReviewRunner struct {
	cfg       config.Config
	parser    parser.Parser
	review    generator.PlanReviewer
	publisher *publisher.PlanPublisher
}

// NewMangaReviewRunner は依存関係を注入して初期化します。
func NewMangaReviewRunner(
	cfg config.Config,
	p parser.Parser,
	review generator.PlanReviewer,
	pub *publisher.PlanPublisher,
) *MangaReviewRunner {
	return &MangaReviewRunner{
		cfg:       cfg,
		parser:    p,
		review:    review,
		publisher: pub,
	}
}

// Run は構成案を読み込み、レビュー済みの内容で再保存します。
// レビュー工程そのものは失敗しても成果物を失わない契約のため、
// このメソッドのエラーは読み込みか保存の失敗だけです。
func (rr *MangaReviewRunner) Run(ctx context.Context, job ReviewJob) (*domain.Plan, publisher.PublishResult, error) {
	// 1. 保存済み構成案の読み込み
	plan, err := rr.parser.ParseFromPath(ctx, job.PlanFile)
	if err != nil {
		return nil, publisher.PublishResult{}, err
	}

	// 2. レビューと修復の再実行
	// 言語や画風は構成案自身が保持しているものを引き継ぎます。
	req := generator.PlanRequest{
		Prompt:   plan.Title,
		Language: plan.Style.Language,
		Style:    plan.Style.Art,
		Setting:  plan.Style.Setting,
	}
	req.Normalize()

	slog.Info("ReviewRunner: レビューを再実行します",
		"plan_id", plan.ID,
		"panels", domain.CountPanels(plan.Chapters),
		"model", rr.cfg.QualityModel)
	plan.Chapters = rr.review.Run(ctx, req, plan.Characters, plan.Chapters)

	// 3. レビュー済み構成案の再保存
	result, err := rr.publisher.Publish(ctx, *plan, publisher.Options{OutputDir: job.OutputDir})
	if err != nil {
		return nil, publisher.PublishResult{}, fmt.Errorf("レビュー済み構成案の保存に失敗しました: %w", err)
	}

	return plan, result, nil
}
