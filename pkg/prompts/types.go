package prompts

import (
	_ "embed"
)

const (
	ModeCast     = "cast"
	ModeOutline  = "outline"
	ModeThinking = "thinking"
	ModePanel    = "panel"
	ModeReview   = "review"
	ModeRepair   = "repair"
)

// TemplateData は各モードのテンプレートに渡すデータ構造です。
// 一覧系のフィールドは呼び出し側で描画済みのテキストを渡します。
type TemplateData struct {
	UserPrompt   string
	Language     string
	StyleArt     string
	StyleSetting string

	MinCast       int
	MaxCast       int
	PageCount     int
	ChapterCount  int
	LayoutCatalog string
	CastList      string

	ChapterTitle    string
	PageNumber      int
	PageSummary     string
	PageScene       string
	LayoutID        string
	PanelCount      int
	AllowedEntities string
	OutlineDigest   string

	PanelPosition int
	PanelBrief    string
	PanelShot     string
	PanelAngle    string
	EmotionalArc  string
	OtherPanels   string

	PlanExcerpt string
	PanelJSON   string
	IssueList   string
}

var (
	//go:embed cast.md
	CastPrompt string
	//go:embed outline.md
	OutlinePrompt string
	//go:embed thinking.md
	ThinkingPrompt string
	//go:embed panel.md
	PanelPrompt string
	//go:embed review.md
	ReviewPrompt string
	//go:embed repair.md
	RepairPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップです。
var allTemplates = map[string]string{
	ModeCast:     CastPrompt,
	ModeOutline:  OutlinePrompt,
	ModeThinking: ThinkingPrompt,
	ModePanel:    PanelPrompt,
	ModeReview:   ReviewPrompt,
	ModeRepair:   RepairPrompt,
}
