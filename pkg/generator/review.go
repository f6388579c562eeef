package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/invoker"
	"github.com/shouni/go-manga-plan-kit/pkg/prompts"
	"github.com/shouni/go-manga-plan-kit/pkg/registry"
	"golang.org/x/sync/errgroup"
)

// reviewState はレビュー工程の状態です。遷移は Run の switch だけが行います。
type reviewState int

const (
	stateReview reviewState = iota
	stateRepair
)

// ReviewRepairLoop は完成した章を検査し、指摘のあったパネルだけを書き直す工程です。
type ReviewRepairLoop struct {
	invoker     Invoker
	prompts     prompts.PromptBuilder
	maxAttempts int
}

// NewReviewRepairLoop は ReviewRepairLoop を初期化します。
func NewReviewRepairLoop(inv Invoker, pb prompts.PromptBuilder, maxAttempts int) (*ReviewRepairLoop, error) {
	if inv == nil {
		return nil, fmt.Errorf("invoker は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("プロンプトビルダーは必須です")
	}
	return &ReviewRepairLoop{invoker: inv, prompts: pb, maxAttempts: maxAttempts}, nil
}

// Run はレビューと修復を交互に実行します。
// レビューは最大 MaxReviewPasses 回で、passes の加算だけが回数を進めるため
// 状態遷移がどう転んでも必ず停止します。この工程の失敗が成果物を失わせることはありません。
func (rl *ReviewRepairLoop) Run(ctx context.Context, req PlanRequest, cast []domain.Character, chapters []domain.Chapter) []domain.Chapter {
	total := domain.CountPanels(chapters)
	if total < ReviewMinPanels {
		slog.Debug("パネル数が少ないためレビューを省略します", "panels", total, "min", ReviewMinPanels)
		return chapters
	}

	castList := prompts.RenderCastList(cast)
	reg := registry.New(cast)

	passes := 0
	var issues []domain.ReviewIssue
	state := stateReview

	for {
		switch state {
		case stateReview:
			if passes >= MaxReviewPasses {
				slog.Info("レビュー回数が上限に達しました", "passes", passes)
				return chapters
			}
			passes++

			found, err := rl.review(ctx, req, castList, chapters)
			if err != nil {
				slog.Warn("レビューに失敗したため成果物をそのまま返します", "pass", passes, "error", err)
				return chapters
			}
			if len(found) == 0 {
				slog.Info("レビューで指摘はありませんでした", "pass", passes)
				return chapters
			}

			slog.Info("レビューで指摘が見つかりました", "pass", passes, "issues", len(found))
			issues = found
			state = stateRepair

		case stateRepair:
			rl.repair(ctx, req, reg, chapters, issues)
			state = stateReview
		}
	}
}

// review は章全体を1回検査し、正規化済みの指摘一覧を返します。
func (rl *ReviewRepairLoop) review(ctx context.Context, req PlanRequest, castList string, chapters []domain.Chapter) ([]domain.ReviewIssue, error) {
	prompt, err := rl.prompts.Build(prompts.ModeReview, prompts.TemplateData{
		Language:    req.Language,
		CastList:    castList,
		PlanExcerpt: prompts.RenderPlanExcerpt(chapters),
	})
	if err != nil {
		return nil, err
	}

	var draft reviewDraft
	if err := rl.invoker.Invoke(ctx, invoker.Request{
		Prompt:      prompt,
		Label:       "review",
		Tier:        invoker.TierQuality,
		MaxAttempts: rl.maxAttempts,
	}, &draft); err != nil {
		return nil, err
	}

	issues := make([]domain.ReviewIssue, 0, len(draft.Issues))
	for _, iss := range draft.Issues {
		if iss.PanelID == "" {
			slog.Warn("パネルIDのない指摘を無視します", "description", iss.Description)
			continue
		}
		issues = append(issues, domain.ReviewIssue{
			PanelID:     iss.PanelID,
			Category:    domain.NormalizeIssueCategory(iss.Category),
			Description: iss.Description,
			Fix:         iss.Fix,
		})
	}
	return issues, nil
}

// panelRef は修復対象パネルへの参照と、そのページの文脈を束ねます。
type panelRef struct {
	scope *registry.PageScope
	scene string
	panel *domain.Panel
}

// repair は指摘をパネルごとにまとめ、並列で書き直します。
// 個々の修復の失敗は元のパネルを残すだけで、他の修復を止めません。
func (rl *ReviewRepairLoop) repair(ctx context.Context, req PlanRequest, reg *registry.Registry, chapters []domain.Chapter, issues []domain.ReviewIssue) {
	refs := make(map[string]*panelRef)
	for ci := range chapters {
		for pi := range chapters[ci].Pages {
			page := &chapters[ci].Pages[pi]
			if len(page.Panels) == 0 {
				continue
			}
			scope := reg.PageScope(page.Entities)
			for qi := range page.Panels {
				panel := &page.Panels[qi]
				refs[panel.ID] = &panelRef{scope: scope, scene: page.Scene, panel: panel}
			}
		}
	}

	grouped := make(map[string][]domain.ReviewIssue)
	var order []string
	for _, iss := range issues {
		if _, ok := refs[iss.PanelID]; !ok {
			slog.Warn("指摘対象のパネルが見つかりません", "panel", iss.PanelID)
			continue
		}
		if _, ok := grouped[iss.PanelID]; !ok {
			order = append(order, iss.PanelID)
		}
		grouped[iss.PanelID] = append(grouped[iss.PanelID], iss)
	}
	if len(order) == 0 {
		return
	}

	slog.Info("指摘のあったパネルを修復します", "panels", len(order))

	eg, egCtx := errgroup.WithContext(ctx)
	for _, panelID := range order {
		panelID := panelID
		ref := refs[panelID]
		panelIssues := grouped[panelID]

		eg.Go(func() error {
			if err := rl.repairPanel(egCtx, req, ref, panelIssues, reg); err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				slog.Warn("panel repair failed, keeping the original", "panel", panelID, "error", err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		slog.Warn("修復が途中で打ち切られました", "error", err)
	}
}

// repairPanel は1つのパネルを書き直して差し替えます。
// ID・位置・アスペクト比は元の値を保持し、画像プロンプトが空で返った場合は
// 元のプロンプトへフォールバックします。
func (rl *ReviewRepairLoop) repairPanel(ctx context.Context, req PlanRequest, ref *panelRef, issues []domain.ReviewIssue, reg *registry.Registry) error {
	original := *ref.panel

	panelJSON, err := json.MarshalIndent(original, "", "  ")
	if err != nil {
		return fmt.Errorf("パネルの直列化に失敗しました: %w", err)
	}

	prompt, err := rl.prompts.Build(prompts.ModeRepair, prompts.TemplateData{
		Language:        req.Language,
		PageScene:       ref.scene,
		PanelJSON:       string(panelJSON),
		IssueList:       prompts.RenderIssueList(issues),
		AllowedEntities: prompts.RenderEntityList(ref.scope.Allowed()),
	})
	if err != nil {
		return err
	}

	var draft panelDraft
	if err := rl.invoker.Invoke(ctx, invoker.Request{
		Prompt:      prompt,
		Label:       "repair " + original.ID,
		Tier:        invoker.TierStandard,
		MaxAttempts: rl.maxAttempts,
	}, &draft); err != nil {
		return err
	}

	repaired := domain.Panel{
		ID:          original.ID,
		Position:    original.Position,
		AspectRatio: original.AspectRatio,
	}
	applyDraft(&repaired, draft)
	if repaired.Prompt == "" {
		repaired.Prompt = original.Prompt
	}
	if repaired.NegativePrompt == "" {
		repaired.NegativePrompt = original.NegativePrompt
	}
	finishPanel(&repaired, ref.scope, reg)

	*ref.panel = repaired
	return nil
}
