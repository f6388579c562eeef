package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/invoker"
	"github.com/shouni/go-manga-plan-kit/pkg/prompts"
)

// TargetChapterCount はページ数から章数を決める規則です。
// 短編は1章にまとめ、10ページまでは前後編、それ以上は5ページごとに
// 区切って最大4章とします。
func TargetChapterCount(pages int) int {
	switch {
	case pages <= 3:
		return 1
	case pages <= 10:
		return 2
	default:
		chapters := (pages + 4) / 5
		if chapters > 4 {
			chapters = 4
		}
		return chapters
	}
}

// OutlineStage は前提とキャストから章とページの骨組みを設計する工程です。
type OutlineStage struct {
	invoker     Invoker
	prompts     prompts.PromptBuilder
	maxAttempts int
}

// NewOutlineStage は OutlineStage を初期化します。
func NewOutlineStage(inv Invoker, pb prompts.PromptBuilder, maxAttempts int) (*OutlineStage, error) {
	if inv == nil {
		return nil, fmt.Errorf("invoker は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("プロンプトビルダーは必須です")
	}
	return &OutlineStage{invoker: inv, prompts: pb, maxAttempts: maxAttempts}, nil
}

// Generate は章とページの骨組みを設計します。この工程の失敗は計画全体の失敗です。
// レイアウトIDの妥当性はここでは確認せず、ページ生成側の解決に委ねます。
func (os *OutlineStage) Generate(ctx context.Context, req PlanRequest, cast []domain.Character) (domain.Outline, error) {
	prompt, err := os.prompts.Build(prompts.ModeOutline, prompts.TemplateData{
		UserPrompt:    req.Prompt,
		Language:      req.Language,
		PageCount:     req.Pages,
		ChapterCount:  TargetChapterCount(req.Pages),
		CastList:      prompts.RenderCastList(cast),
		LayoutCatalog: prompts.RenderLayoutCatalog(),
	})
	if err != nil {
		return domain.Outline{}, fmt.Errorf("骨組みプロンプトの構築に失敗しました: %w", err)
	}

	var draft outlineDraft
	if err := os.invoker.Invoke(ctx, invoker.Request{
		Prompt:      prompt,
		Label:       "outline",
		Tier:        invoker.TierQuality,
		MaxAttempts: os.maxAttempts,
	}, &draft); err != nil {
		return domain.Outline{}, err
	}

	outline := domain.Outline{Title: draft.Title}
	for ci, ch := range draft.Chapters {
		chapter := domain.OutlineChapter{Index: ci + 1, Title: ch.Title}
		for _, page := range ch.Pages {
			plan := domain.PagePlan{
				Layout:   page.Layout,
				Summary:  page.Summary,
				Scene:    page.Scene,
				Entities: page.Entities,
			}
			if plan.Scene == "" {
				plan.Scene = plan.Summary
			}
			chapter.Pages = append(chapter.Pages, plan)
		}
		outline.Chapters = append(outline.Chapters, chapter)
	}

	if total := outline.TotalPages(); total != req.Pages {
		slog.Warn("骨組みのページ数が要求と一致しません", "got", total, "want", req.Pages)
	}

	slog.Info("骨組みを確定しました",
		"title", outline.Title,
		"chapters", len(outline.Chapters),
		"pages", outline.TotalPages())
	return outline, nil
}
