package render

import (
	"sort"
	"time"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/domain"
)

// RenderManifest は1つの構成案に対する画像生成リクエストの一括表現です。
// レンダリング側のコラボレーターはこのファイルだけで全ページを生成できます。
type RenderManifest struct {
	PlanID        string          `json:"planId"`
	Title         string          `json:"title"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	ReferenceURLs []string        `json:"referenceUrls,omitempty"`
	Pages         []PageRenderJob `json:"pages"`
}

// PageRenderJob は1ページ分の生成ジョブです。ページ一括リクエストと、
// コマ単位で再生成するためのリクエスト群の両方を持ちます。
type PageRenderJob struct {
	Number  int                       `json:"number"`
	Chapter int                       `json:"chapter"`
	Layout  string                    `json:"layout"`
	Request imagedom.ImagePageRequest `json:"request"`
	Panels  []PanelRenderJob          `json:"panels,omitempty"`
}

// PanelRenderJob は1コマ分の生成ジョブです。
type PanelRenderJob struct {
	ID       string                          `json:"id"`
	Position int                             `json:"position"`
	Request  imagedom.ImageGenerationRequest `json:"request"`
}

// BuildManifest は構成案全体をレンダリングマニフェストに変換します。
// refURLs は任意で、キャラクターIDから参照画像URLへの対応表です。
func BuildManifest(plan domain.Plan, styleSuffix string, refURLs map[string]string) RenderManifest {
	pc := NewPromptComposer(plan.Characters, styleSuffix, refURLs)
	refs := pc.ReferenceURLs()

	manifest := RenderManifest{
		PlanID:        plan.ID,
		Title:         plan.Title,
		GeneratedAt:   time.Now().UTC(),
		ReferenceURLs: refs,
	}

	pageSeed := rosterSeed(plan)
	for _, chapter := range plan.Chapters {
		for _, page := range chapter.Pages {
			job := PageRenderJob{
				Number:  page.Number,
				Chapter: chapter.Index,
				Layout:  page.Layout,
				Request: imagedom.ImagePageRequest{
					Prompt:         pc.PagePrompt(page),
					NegativePrompt: PageNegativePrompt,
					AspectRatio:    domain.PageAspectRatio,
					Seed:           pageSeed,
					ReferenceURLs:  refs,
				},
			}

			for _, panel := range page.Panels {
				job.Panels = append(job.Panels, PanelRenderJob{
					ID:       panel.ID,
					Position: panel.Position,
					Request:  buildPanelRequest(pc, panel),
				})
			}
			manifest.Pages = append(manifest.Pages, job)
		}
	}
	return manifest
}

// buildPanelRequest はコマ単位の再生成リクエストを組み立てます。
func buildPanelRequest(pc *PromptComposer, panel domain.Panel) imagedom.ImageGenerationRequest {
	negative := PanelNegativePrompt
	if panel.NegativePrompt != "" {
		negative = panel.NegativePrompt + ", " + PanelNegativePrompt
	}

	aspect := panel.AspectRatio
	if aspect == "" {
		aspect = domain.PanelAspectRatio
	}

	return imagedom.ImageGenerationRequest{
		Prompt:         pc.PanelPrompt(panel),
		NegativePrompt: negative,
		AspectRatio:    aspect,
		Seed:           panelSeed(panel),
	}
}

// rosterSeed はページ一括生成に使うシードを決めます。
// 主人公のシードを基準にし、名簿が空の場合だけタイトル由来の値を使います。
func rosterSeed(plan domain.Plan) *int64 {
	if len(plan.Characters) > 0 {
		return ptrInt64(plan.Characters[0].Seed)
	}
	return ptrInt64(domain.SeedFromName(plan.Title))
}

// panelSeed はコマ単位のシードを決めます。カメラのフォーカス対象を優先し、
// 次点でID順の先頭エンティティを使います。
func panelSeed(panel domain.Panel) *int64 {
	if len(panel.Seeds) == 0 {
		return nil
	}
	if seed, ok := panel.Seeds[panel.Camera.Focus]; ok {
		return ptrInt64(seed)
	}

	ids := make([]string, 0, len(panel.Seeds))
	for id := range panel.Seeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ptrInt64(panel.Seeds[ids[0]])
}

func ptrInt64(v int64) *int64 {
	return &v
}
