package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/go-manga-plan-kit/pkg/domain"
)

// PlanComposer は4つの工程を束ね、1つの完成した計画を組み立てます。
type PlanComposer struct {
	cast    CastGenerator
	outline OutlineGenerator
	pages   PagesGenerator
	review  PlanReviewer
}

// NewPlanComposer は PlanComposer を初期化します。全工程が必須です。
func NewPlanComposer(cast CastGenerator, outline OutlineGenerator, pages PagesGenerator, review PlanReviewer) (*PlanComposer, error) {
	if cast == nil {
		return nil, fmt.Errorf("キャスト工程は必須です")
	}
	if outline == nil {
		return nil, fmt.Errorf("骨組み工程は必須です")
	}
	if pages == nil {
		return nil, fmt.Errorf("ページ工程は必須です")
	}
	if review == nil {
		return nil, fmt.Errorf("レビュー工程は必須です")
	}
	return &PlanComposer{cast: cast, outline: outline, pages: pages, review: review}, nil
}

// ComposePlan は前提文から4段階で計画を生成します。
// キャストと骨組みの失敗は計画全体の失敗ですが、ページ以降の部分的な失敗は
// 欠けのある成果物として成立させます。
func (pc *PlanComposer) ComposePlan(ctx context.Context, req PlanRequest) (*domain.Plan, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("前提文は必須です")
	}
	req.Normalize()

	started := time.Now()
	slog.Info("計画の生成を開始します", "pages", req.Pages, "language", req.Language)

	// 1. キャスト設計
	cast, err := pc.cast.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("キャスト設計に失敗しました: %w", err)
	}

	// 2. 骨組み設計
	outline, err := pc.outline.Generate(ctx, req, cast)
	if err != nil {
		return nil, fmt.Errorf("骨組み設計に失敗しました: %w", err)
	}

	// 3. ページの並列肉付け
	chapters, err := pc.pages.Generate(ctx, req, cast, outline)
	if err != nil {
		return nil, fmt.Errorf("ページ生成に失敗しました: %w", err)
	}

	// 4. レビューと修復
	chapters = pc.review.Run(ctx, req, cast, chapters)

	plan := &domain.Plan{
		ID:         uuid.NewString(),
		Title:      outline.Title,
		Style:      domain.StyleParams{Art: req.Style, Setting: req.Setting, Language: req.Language},
		Characters: cast,
		Chapters:   chapters,
		CreatedAt:  time.Now().UTC(),
	}
	domain.SortChapters(plan.Chapters)

	slog.Info("計画の生成が完了しました",
		"plan_id", plan.ID,
		"title", plan.Title,
		"chapters", len(plan.Chapters),
		"panels", domain.CountPanels(plan.Chapters),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return plan, nil
}
