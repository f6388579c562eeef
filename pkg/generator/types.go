package generator

import (
	"fmt"
	"strings"
)

const (
	// MinCastSize は物語に最低限必要な主要キャラクター数です。
	MinCastSize = 2
	// MaxCastSize は主要キャラクターの上限数です。超過分は切り捨てます。
	MaxCastSize = 5

	// MinPageCount と MaxPageCount はリクエストのページ数の有効範囲です。
	MinPageCount = 1
	MaxPageCount = 20
	// DefaultPageCount はページ数未指定時の既定値です。
	DefaultPageCount = 10

	// ReviewMinPanels はレビュー工程を起動する最小パネル数です。
	// これより小さい作品はレビューのコストに見合いません。
	ReviewMinPanels = 5
	// MaxReviewPasses はレビューの最大実行回数です。
	MaxReviewPasses = 2

	// DefaultLanguage は読者向けテキストの既定の言語です。
	DefaultLanguage = "日本語"
)

// PlanRequest は計画生成1回分の入力です。
type PlanRequest struct {
	Prompt   string
	Pages    int
	Language string
	Style    string
	Setting  string
}

// Normalize は未指定の項目を既定値で埋め、ページ数を有効範囲に丸めます。
func (r *PlanRequest) Normalize() {
	if r.Pages == 0 {
		r.Pages = DefaultPageCount
	}
	if r.Pages < MinPageCount {
		r.Pages = MinPageCount
	}
	if r.Pages > MaxPageCount {
		r.Pages = MaxPageCount
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
}

// --- モデル応答のデコード先 ---
// モデルとの境界は snake_case、完成した Plan は camelCase という約束を
// この層で吸収します。各 Validate は再試行の判定に使われます。

type castDraft struct {
	Characters []castMemberDraft `json:"characters"`
}

type castMemberDraft struct {
	Name       string `json:"name"`
	Age        string `json:"age"`
	BodyType   string `json:"body_type"`
	Face       string `json:"face"`
	Expression string `json:"expression"`
	Clothing   string `json:"clothing"`
	Role       string `json:"role"`
}

func (d *castDraft) Validate() error {
	if len(d.Characters) < MinCastSize {
		return fmt.Errorf("キャラクターが%d人未満です: %d人", MinCastSize, len(d.Characters))
	}
	for i, c := range d.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("キャラクター %d の名前が空です", i+1)
		}
	}
	return nil
}

type outlineDraft struct {
	Title    string                `json:"title"`
	Chapters []outlineChapterDraft `json:"chapters"`
}

type outlineChapterDraft struct {
	Title string          `json:"title"`
	Pages []pagePlanDraft `json:"pages"`
}

type pagePlanDraft struct {
	Layout   string   `json:"layout"`
	Summary  string   `json:"summary"`
	Scene    string   `json:"scene"`
	Entities []string `json:"entities"`
}

func (d *outlineDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("タイトルが空です")
	}
	if len(d.Chapters) == 0 {
		return fmt.Errorf("章がありません")
	}
	for ci, ch := range d.Chapters {
		if len(ch.Pages) == 0 {
			return fmt.Errorf("章 %d にページがありません", ci+1)
		}
		for pi, page := range ch.Pages {
			if strings.TrimSpace(page.Summary) == "" && strings.TrimSpace(page.Scene) == "" {
				return fmt.Errorf("章 %d ページ %d に内容がありません", ci+1, pi+1)
			}
		}
	}
	return nil
}

// thinkingDraft はページ設計呼び出しの応答です。計画の一時データであり、
// そのページのパネル生成にだけ渡されて成果物には残りません。
type thinkingDraft struct {
	Arc    string            `json:"arc"`
	Panels []panelBriefDraft `json:"panels"`
}

type panelBriefDraft struct {
	Purpose  string   `json:"purpose"`
	Shot     string   `json:"shot"`
	Angle    string   `json:"angle"`
	Entities []string `json:"entities"`
}

func (d *thinkingDraft) Validate() error {
	if len(d.Panels) == 0 {
		return fmt.Errorf("パネルビートがありません")
	}
	for i, p := range d.Panels {
		if strings.TrimSpace(p.Purpose) == "" {
			return fmt.Errorf("ビート %d の目的が空です", i+1)
		}
	}
	return nil
}

type panelDraft struct {
	Characters     []panelCharacterDraft `json:"characters"`
	Action         string                `json:"action"`
	Mood           string                `json:"mood"`
	Camera         cameraDraft           `json:"camera"`
	Dialogue       []dialogueDraft       `json:"dialogue"`
	Narrative      string                `json:"narrative"`
	SFX            []string              `json:"sfx"`
	Prompt         string                `json:"prompt"`
	NegativePrompt string                `json:"negative_prompt"`
}

type panelCharacterDraft struct {
	ID         string `json:"id"`
	Expression string `json:"expression"`
	Pose       string `json:"pose"`
	Gesture    string `json:"gesture"`
	Gaze       string `json:"gaze"`
}

type cameraDraft struct {
	Shot  string `json:"shot"`
	Angle string `json:"angle"`
	Focus string `json:"focus"`
}

type dialogueDraft struct {
	CharacterID string `json:"character_id"`
	Text        string `json:"text"`
}

func (d *panelDraft) Validate() error {
	if strings.TrimSpace(d.Action) == "" && len(d.Dialogue) == 0 && strings.TrimSpace(d.Narrative) == "" {
		return fmt.Errorf("アクションもセリフもナレーションもない空のパネルです")
	}
	return nil
}

type reviewDraft struct {
	Issues []reviewIssueDraft `json:"issues"`
}

type reviewIssueDraft struct {
	PanelID     string `json:"panel_id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Fix         string `json:"fix"`
}

func (d *reviewDraft) Validate() error {
	// 指摘ゼロは「問題なし」を意味する正常な応答です。
	return nil
}
