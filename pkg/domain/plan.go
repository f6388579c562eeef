package domain

import "time"

// Plan は生成パイプラインが最終的に出力する構成案全体を保持します。
// エディタやレンダリングツールなど外部のコラボレーターがこのまま消費できる形です。
type Plan struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Style      StyleParams `json:"style"`
	Characters []Character `json:"characters"`
	Chapters   []Chapter   `json:"chapters"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// StyleParams はプロンプト誘導に使われたスタイル系のタグを記録します。
// パイプラインの制御フローには影響しません。
type StyleParams struct {
	Art      string `json:"art,omitempty"`
	Setting  string `json:"setting,omitempty"`
	Language string `json:"language,omitempty"`
}

// Chapter は章単位のコンテナです。Index は 1 始まりで連続します。
type Chapter struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Pages []Page `json:"pages"`
}

// Page は1ページ分のパネル群と、アウトライン由来のメタ情報を保持します。
// Number はフラット化されたページ列における通し番号（1始まり）です。
type Page struct {
	Number   int      `json:"number"`
	Layout   string   `json:"layout"`
	Summary  string   `json:"summary"`
	Scene    string   `json:"scene"`
	Entities []string `json:"entities,omitempty"`
	Panels   []Panel  `json:"panels"`
}

// Panel は1コマ分の内容を保持する最小単位です。
// 生成後、レビュー・修復ループによって in place で置き換えられることがあります。
type Panel struct {
	ID                 string           `json:"id"`
	Position           int              `json:"position"`
	Characters         []PanelCharacter `json:"characters,omitempty"`
	Action             string           `json:"action"`
	Mood               string           `json:"mood,omitempty"`
	Camera             Camera           `json:"camera"`
	Dialogue           []DialogueLine   `json:"dialogue,omitempty"`
	Narrative          string           `json:"narrative,omitempty"`
	NarrativePlacement string           `json:"narrativePlacement,omitempty"`
	SFX                []string         `json:"sfx,omitempty"`
	AspectRatio        string           `json:"aspectRatio"`
	Prompt             string           `json:"prompt"`
	NegativePrompt     string           `json:"negativePrompt,omitempty"`
	Seeds              map[string]int64 `json:"seeds,omitempty"`
}

// PanelCharacter はパネル内に登場するエンティティと、その演技指定を保持します。
type PanelCharacter struct {
	ID         string `json:"id"`
	Expression string `json:"expression,omitempty"`
	Pose       string `json:"pose,omitempty"`
	Gesture    string `json:"gesture,omitempty"`
	Gaze       string `json:"gaze,omitempty"`
}

// Camera は撮影指示（ショット・アングル・フォーカス）を保持します。
type Camera struct {
	Shot  string `json:"shot,omitempty"`
	Angle string `json:"angle,omitempty"`
	Focus string `json:"focus,omitempty"`
}

// DialogueLine は1つの吹き出しを表します。Placement は配置ゾーンの識別子です。
type DialogueLine struct {
	CharacterID string `json:"characterId"`
	Text        string `json:"text"`
	Placement   string `json:"placement,omitempty"`
}
