package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-manga-plan-kit/pkg/director"
	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/invoker"
	"github.com/shouni/go-manga-plan-kit/pkg/prompts"
	"github.com/shouni/go-manga-plan-kit/pkg/registry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// pageJob は並列生成に入る前に確定させる1ページ分の割り当てです。
// ページ番号はここで全ページ分を先に採番し、完成順に左右されないようにします。
type pageJob struct {
	chapterIndex int
	chapterTitle string
	pageNumber   int
	plan         domain.PagePlan
	layout       domain.LayoutTemplate
	scope        *registry.PageScope
}

// PageFanoutEngine は骨組みの全ページを並列で肉付けする工程です。
// ページ単位の失敗はそのページを欠けとして吸収し、計画全体は成立させます。
type PageFanoutEngine struct {
	invoker     Invoker
	prompts     prompts.PromptBuilder
	interval    time.Duration
	maxAttempts int
}

// NewPageFanoutEngine は PageFanoutEngine を初期化します。
// interval が正の場合、モデル呼び出しをその間隔でペーシングします。
func NewPageFanoutEngine(inv Invoker, pb prompts.PromptBuilder, interval time.Duration, maxAttempts int) (*PageFanoutEngine, error) {
	if inv == nil {
		return nil, fmt.Errorf("invoker は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("プロンプトビルダーは必須です")
	}
	return &PageFanoutEngine{
		invoker:     inv,
		prompts:     pb,
		interval:    interval,
		maxAttempts: maxAttempts,
	}, nil
}

// Generate は全ページを並列で肉付けし、章ごとにまとめて返します。
// エラーを返すのはコンテキストの取り消し時だけです。
func (fe *PageFanoutEngine) Generate(ctx context.Context, req PlanRequest, cast []domain.Character, outline domain.Outline) ([]domain.Chapter, error) {
	reg := registry.New(cast)
	jobs := fe.flattenJobs(req, reg, outline)
	if len(jobs) == 0 {
		return nil, fmt.Errorf("生成対象のページがありません")
	}

	slog.Info("ページの並列生成を開始します", "pages", len(jobs))

	castList := prompts.RenderCastList(cast)
	digest := prompts.RenderOutlineDigest(outline)
	pages := make([]domain.Page, len(jobs))

	var limiter *rate.Limiter
	if fe.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(fe.interval), 2)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		eg.Go(func() error {
			page, err := fe.generatePage(egCtx, req, job, castList, digest, reg, limiter)
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	chapters := assembleChapters(jobs, pages)
	slog.Info("ページの並列生成が完了しました",
		"chapters", len(chapters), "panels", domain.CountPanels(chapters))
	return chapters, nil
}

// flattenJobs は骨組みを平坦化し、採番・レイアウト解決・参照スコープを確定します。
// 要求ページ数を超えた骨組みは警告を出して切り捨てます。
func (fe *PageFanoutEngine) flattenJobs(req PlanRequest, reg *registry.Registry, outline domain.Outline) []pageJob {
	var jobs []pageJob
	number := 0
	dropped := 0

	for _, ch := range outline.Chapters {
		for _, plan := range ch.Pages {
			if number >= req.Pages {
				dropped++
				continue
			}
			number++

			layout, ok := domain.LayoutByID(plan.Layout)
			if !ok {
				slog.Warn("未知のレイアウトを既定値に置き換えます",
					"layout", plan.Layout, "page", number, "fallback", layout.ID)
			}

			jobs = append(jobs, pageJob{
				chapterIndex: ch.Index,
				chapterTitle: ch.Title,
				pageNumber:   number,
				plan:         plan,
				layout:       layout,
				scope:        reg.PageScope(plan.Entities),
			})
		}
	}

	if dropped > 0 {
		slog.Warn("要求ページ数を超えた骨組みを切り捨てました", "dropped", dropped, "kept", number)
	}
	return jobs
}

// generatePage は1ページを設計してから肉付けします。
// 設計の失敗はパネルのない空ページとして吸収します。
func (fe *PageFanoutEngine) generatePage(ctx context.Context, req PlanRequest, job pageJob, castList, digest string, reg *registry.Registry, limiter *rate.Limiter) (domain.Page, error) {
	page := domain.Page{
		Number:   job.pageNumber,
		Layout:   job.layout.ID,
		Summary:  job.plan.Summary,
		Scene:    job.plan.Scene,
		Entities: job.scope.Allowed(),
	}

	thinking, err := fe.thinkPage(ctx, req, job, castList, digest, limiter)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Page{}, ctx.Err()
		}
		slog.Warn("ページ設計に失敗したため空ページとして継続します",
			"page", job.pageNumber, "error", err)
		return page, nil
	}

	panels, err := fe.generatePanels(ctx, req, job, castList, thinking, reg, limiter)
	if err != nil {
		return domain.Page{}, err
	}
	page.Panels = panels
	return page, nil
}

// thinkPage はパネル分割前の設計呼び出しを行います。
// 骨組み全体の要約を渡し、ページ単体ではなく物語の流れの中で設計させます。
func (fe *PageFanoutEngine) thinkPage(ctx context.Context, req PlanRequest, job pageJob, castList, digest string, limiter *rate.Limiter) (thinkingDraft, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return thinkingDraft{}, err
		}
	}

	prompt, err := fe.prompts.Build(prompts.ModeThinking, prompts.TemplateData{
		Language:        req.Language,
		ChapterTitle:    job.chapterTitle,
		PageNumber:      job.pageNumber,
		PageSummary:     job.plan.Summary,
		PageScene:       job.plan.Scene,
		LayoutID:        job.layout.ID,
		PanelCount:      job.layout.PanelCount,
		CastList:        castList,
		AllowedEntities: prompts.RenderEntityList(job.scope.Allowed()),
		OutlineDigest:   digest,
	})
	if err != nil {
		return thinkingDraft{}, err
	}

	var draft thinkingDraft
	if err := fe.invoker.Invoke(ctx, invoker.Request{
		Prompt:      prompt,
		Label:       fmt.Sprintf("thinking page-%d", job.pageNumber),
		Tier:        invoker.TierStandard,
		MaxAttempts: fe.maxAttempts,
	}, &draft); err != nil {
		return thinkingDraft{}, err
	}

	if len(draft.Panels) != job.layout.PanelCount {
		slog.Warn("ビート数がレイアウトと一致しません",
			"page", job.pageNumber, "got", len(draft.Panels), "want", job.layout.PanelCount)
	}
	return draft, nil
}

// generatePanels はレイアウトの全スロットを並列で埋めます。
// 失敗したスロットは欠番として残し、ページ全体は成立させます。
func (fe *PageFanoutEngine) generatePanels(ctx context.Context, req PlanRequest, job pageJob, castList string, thinking thinkingDraft, reg *registry.Registry, limiter *rate.Limiter) ([]domain.Panel, error) {
	slots := make([]*domain.Panel, job.layout.PanelCount)
	eg, egCtx := errgroup.WithContext(ctx)

	for pos := 1; pos <= job.layout.PanelCount; pos++ {
		pos := pos
		brief := panelBriefDraft{Purpose: job.plan.Summary}
		if pos <= len(thinking.Panels) {
			brief = thinking.Panels[pos-1]
		}
		others := otherPurposes(thinking.Panels, pos)

		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(egCtx); err != nil {
					return err
				}
			}

			panel, err := fe.generatePanel(egCtx, req, job, castList, brief, thinking.Arc, others, pos, reg)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				slog.Warn("panel generation failed, leaving a gap",
					"page", job.pageNumber, "position", pos, "error", err)
				return nil
			}
			slots[pos-1] = panel
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	panels := make([]domain.Panel, 0, len(slots))
	for _, p := range slots {
		if p != nil {
			panels = append(panels, *p)
		}
	}
	return panels, nil
}

// otherPurposes は自分以外のスロットの目的を読み順で並べます。
// 同じ絵や同じ台詞の繰り返しを避ける手掛かりとしてパネル生成に渡します。
func otherPurposes(briefs []panelBriefDraft, pos int) string {
	var sb strings.Builder
	for i, b := range briefs {
		if i+1 == pos {
			continue
		}
		fmt.Fprintf(&sb, "- panel %d: %s\n", i+1, b.Purpose)
	}
	if sb.Len() == 0 {
		return "(none)"
	}
	return strings.TrimRight(sb.String(), "\n")
}

// generatePanel は1つのビートを完全なパネルに仕上げます。
// 設計段階で決めたショットとアングルは、応答が空の場合のフォールバックにもなります。
func (fe *PageFanoutEngine) generatePanel(ctx context.Context, req PlanRequest, job pageJob, castList string, brief panelBriefDraft, arc, others string, pos int, reg *registry.Registry) (*domain.Panel, error) {
	prompt, err := fe.prompts.Build(prompts.ModePanel, prompts.TemplateData{
		Language:        req.Language,
		StyleArt:        req.Style,
		StyleSetting:    req.Setting,
		PageScene:       job.plan.Scene,
		LayoutID:        job.layout.ID,
		PanelCount:      job.layout.PanelCount,
		PanelPosition:   pos,
		PanelBrief:      brief.Purpose,
		PanelShot:       brief.Shot,
		PanelAngle:      brief.Angle,
		EmotionalArc:    arc,
		OtherPanels:     others,
		CastList:        castList,
		AllowedEntities: prompts.RenderEntityList(job.scope.Allowed()),
	})
	if err != nil {
		return nil, err
	}

	var draft panelDraft
	if err := fe.invoker.Invoke(ctx, invoker.Request{
		Prompt:      prompt,
		Label:       fmt.Sprintf("panel page-%d pos-%d", job.pageNumber, pos),
		Tier:        invoker.TierStandard,
		MaxAttempts: fe.maxAttempts,
	}, &draft); err != nil {
		return nil, err
	}

	panel := buildPanel(job.pageNumber, pos, job.layout.PanelAspect, draft)
	if panel.Camera.Shot == "" {
		panel.Camera.Shot = brief.Shot
	}
	if panel.Camera.Angle == "" {
		panel.Camera.Angle = brief.Angle
	}
	finishPanel(&panel, job.scope, reg)
	return &panel, nil
}

// buildPanel はモデル応答を採番済みのパネルに組み立てます。
func buildPanel(pageNumber, pos int, aspect string, draft panelDraft) domain.Panel {
	panel := domain.Panel{
		ID:          domain.PanelID(pageNumber, pos),
		Position:    pos,
		AspectRatio: aspect,
	}
	applyDraft(&panel, draft)
	return panel
}

// applyDraft はモデル応答の内容フィールドをパネルに書き込みます。
// ID・位置・アスペクト比には触れません。
func applyDraft(panel *domain.Panel, draft panelDraft) {
	panel.Action = draft.Action
	panel.Mood = draft.Mood
	panel.Camera = domain.Camera{
		Shot:  draft.Camera.Shot,
		Angle: draft.Camera.Angle,
		Focus: draft.Camera.Focus,
	}
	panel.Narrative = draft.Narrative
	panel.SFX = draft.SFX
	panel.Prompt = draft.Prompt
	panel.NegativePrompt = draft.NegativePrompt

	panel.Characters = nil
	for _, c := range draft.Characters {
		panel.Characters = append(panel.Characters, domain.PanelCharacter{
			ID:         director.NormalizeSpeakerID(c.ID),
			Expression: c.Expression,
			Pose:       c.Pose,
			Gesture:    c.Gesture,
			Gaze:       c.Gaze,
		})
	}

	panel.Dialogue = nil
	for _, d := range draft.Dialogue {
		panel.Dialogue = append(panel.Dialogue, domain.DialogueLine{
			CharacterID: director.NormalizeSpeakerID(d.CharacterID),
			Text:        d.Text,
		})
	}
}

// finishPanel は参照の検疫、シード割り当て、配置の決定を行います。
func finishPanel(panel *domain.Panel, scope *registry.PageScope, reg *registry.Registry) {
	if removed := scope.FilterPanel(panel); removed > 0 {
		slog.Warn("使用できない参照をパネルから除外しました", "panel", panel.ID, "removed", removed)
	}
	panel.Seeds = buildSeeds(*panel, reg)
	director.AssignPlacements(panel)
}

// buildSeeds はパネルに登場する各エンティティのシード値を確定します。
// 本編キャストは名簿のシードを、匿名エンティティは名前由来のシードを使います。
func buildSeeds(panel domain.Panel, reg *registry.Registry) map[string]int64 {
	ids := panel.EntityIDs()
	if len(ids) == 0 {
		return nil
	}

	seeds := make(map[string]int64, len(ids))
	for _, id := range ids {
		if char, ok := reg.Main(id); ok {
			seeds[id] = char.Seed
			continue
		}
		seeds[id] = domain.SeedFromName(id)
	}
	return seeds
}

// assembleChapters は採番済みのジョブとページから章の完成形を組み立てます。
func assembleChapters(jobs []pageJob, pages []domain.Page) []domain.Chapter {
	byIndex := make(map[int]*domain.Chapter)
	var order []int

	for i, job := range jobs {
		ch, ok := byIndex[job.chapterIndex]
		if !ok {
			ch = &domain.Chapter{Index: job.chapterIndex, Title: job.chapterTitle}
			byIndex[job.chapterIndex] = ch
			order = append(order, job.chapterIndex)
		}
		ch.Pages = append(ch.Pages, pages[i])
	}

	chapters := make([]domain.Chapter, 0, len(order))
	for _, idx := range order {
		chapters = append(chapters, *byIndex[idx])
	}
	domain.SortChapters(chapters)
	return chapters
}
