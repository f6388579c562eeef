package prompts

import (
	"strings"
	"testing"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
)

func TestNewTextPromptBuilder(t *testing.T) {
	t.Run("全モードのテンプレートが解析できるのだ", func(t *testing.T) {
		if _, err := NewTextPromptBuilder(); err != nil {
			t.Fatalf("初期化に失敗したのだ: %v", err)
		}
	})
}

func TestTextPromptBuilder_Build(t *testing.T) {
	builder, err := NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("初期化に失敗したのだ: %v", err)
	}

	t.Run("キャストモードに前提とキャスト数が埋め込まれるのだ", func(t *testing.T) {
		got, err := builder.Build(ModeCast, TemplateData{
			UserPrompt: "灯台守の孤独な夜",
			Language:   "日本語",
			MinCast:    2,
			MaxCast:    5,
		})
		if err != nil {
			t.Fatalf("構築に失敗したのだ: %v", err)
		}
		if !strings.Contains(got, "灯台守の孤独な夜") {
			t.Error("前提文が埋め込まれていないのだ")
		}
		if !strings.Contains(got, "between 2 and 5") {
			t.Error("キャスト数の範囲が埋め込まれていないのだ")
		}
	})

	t.Run("パネルモードにビートと使用可能エンティティが埋め込まれるのだ", func(t *testing.T) {
		got, err := builder.Build(ModePanel, TemplateData{
			Language:        "日本語",
			PageScene:       "嵐の夜の灯台内部",
			LayoutID:        "standard-3",
			PanelCount:      3,
			PanelPosition:   2,
			PanelBrief:      "ハナが階段を駆け上がる",
			AllowedEntities: "- char-1\n- seagull",
		})
		if err != nil {
			t.Fatalf("構築に失敗したのだ: %v", err)
		}
		if !strings.Contains(got, "ハナが階段を駆け上がる") {
			t.Error("ビートが埋め込まれていないのだ")
		}
		if !strings.Contains(got, "2 of 3") {
			t.Error("パネル位置が埋め込まれていないのだ")
		}
		if !strings.Contains(got, "seagull") {
			t.Error("エンティティ一覧が埋め込まれていないのだ")
		}
	})

	t.Run("不明なモードはエラーになるのだ", func(t *testing.T) {
		if _, err := builder.Build("storyboard", TemplateData{}); err == nil {
			t.Error("不明なモードが通ってしまったのだ")
		}
	})
}

func TestRenderHelpers(t *testing.T) {
	t.Run("キャスト一覧がIDと特徴つきで描画されるのだ", func(t *testing.T) {
		cast := []domain.Character{
			{ID: "char-1", Name: "ハナ", Role: "protagonist", Age: "17", Clothing: "yellow raincoat"},
			{ID: "char-2", Name: "灯台守", Role: "mentor"},
		}
		got := RenderCastList(cast)

		if !strings.Contains(got, "[char-1] ハナ (protagonist)") {
			t.Errorf("主人公の行が違うのだ: %q", got)
		}
		if !strings.Contains(got, "wearing yellow raincoat") {
			t.Errorf("服装が描画されていないのだ: %q", got)
		}
		if !strings.Contains(got, "[char-2] 灯台守 (mentor)") {
			t.Errorf("メンターの行が違うのだ: %q", got)
		}
	})

	t.Run("空のキャストはプレースホルダになるのだ", func(t *testing.T) {
		if got := RenderCastList(nil); got != "(none)" {
			t.Errorf("期待: (none), 実際: %q", got)
		}
	})

	t.Run("レイアウト一覧に全カタログが載るのだ", func(t *testing.T) {
		got := RenderLayoutCatalog()
		for _, id := range domain.LayoutIDs() {
			if !strings.Contains(got, id) {
				t.Errorf("レイアウト %s が一覧にないのだ: %q", id, got)
			}
		}
	})

	t.Run("指摘一覧が修復指示の形式で描画されるのだ", func(t *testing.T) {
		issues := []domain.ReviewIssue{
			{PanelID: "panel-1-2", Category: domain.IssueRepetition, Description: "同じ構図が続いている", Fix: "カメラを引きに変える"},
		}
		got := RenderIssueList(issues)
		if !strings.Contains(got, "[repetition] 同じ構図が続いている") {
			t.Errorf("指摘の描画が違うのだ: %q", got)
		}
		if !strings.Contains(got, "FIX: カメラを引きに変える") {
			t.Errorf("修正案が描画されていないのだ: %q", got)
		}
	})
}
