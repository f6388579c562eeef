package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
)

// RenderCastList はキャスト名簿をテンプレート埋め込み用のテキストに描画します。
func RenderCastList(cast []domain.Character) string {
	if len(cast) == 0 {
		return "(none)"
	}

	var sb strings.Builder
	for _, char := range cast {
		traits := make([]string, 0, 4)
		if char.Age != "" {
			traits = append(traits, "age "+char.Age)
		}
		if char.BodyType != "" {
			traits = append(traits, char.BodyType)
		}
		if char.Face != "" {
			traits = append(traits, char.Face)
		}
		if char.Clothing != "" {
			traits = append(traits, "wearing "+char.Clothing)
		}

		sb.WriteString(fmt.Sprintf("- [%s] %s (%s)", char.ID, char.Name, char.Role))
		if len(traits) > 0 {
			sb.WriteString(": " + strings.Join(traits, "; "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderLayoutCatalog は使用可能なレイアウトの一覧を描画します。
func RenderLayoutCatalog() string {
	var sb strings.Builder
	for _, id := range domain.LayoutIDs() {
		layout, _ := domain.LayoutByID(id)
		sb.WriteString(fmt.Sprintf("- %s: %d panel(s), aspect %s\n", layout.ID, layout.PanelCount, layout.PanelAspect))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderEntityList はページで使用可能なエンティティIDの一覧を描画します。
func RenderEntityList(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}

	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString("- " + id + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderOutlineDigest は骨組み全体のページ要約を1枚のテキストに描画します。
// 各ページの設計呼び出しへ物語全体の流れを渡し、ページ間の連続性を保つために使います。
func RenderOutlineDigest(outline domain.Outline) string {
	var sb strings.Builder
	number := 0
	for _, ch := range outline.Chapters {
		fmt.Fprintf(&sb, "Chapter %d: %s\n", ch.Index, ch.Title)
		for _, page := range ch.Pages {
			number++
			fmt.Fprintf(&sb, "- Page %d: %s\n", number, page.Summary)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderPlanExcerpt は章構成をレビュー用の凝縮テキストに描画します。
// パネルはIDつきで1行ずつ並べ、指摘がパネルへ正確に戻れるようにします。
func RenderPlanExcerpt(chapters []domain.Chapter) string {
	var sb strings.Builder
	for _, ch := range chapters {
		fmt.Fprintf(&sb, "## Chapter %d: %s\n", ch.Index, ch.Title)
		for _, page := range ch.Pages {
			fmt.Fprintf(&sb, "### Page %d (%s): %s\n", page.Number, page.Layout, page.Scene)
			for _, panel := range page.Panels {
				fmt.Fprintf(&sb, "- [%s] %s", panel.ID, panel.Action)
				for _, line := range panel.Dialogue {
					speaker := line.CharacterID
					if speaker == "" {
						speaker = "narration"
					}
					fmt.Fprintf(&sb, " / %s:「%s」", speaker, line.Text)
				}
				if panel.Narrative != "" {
					fmt.Fprintf(&sb, " / caption: %s", panel.Narrative)
				}
				sb.WriteString("\n")
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderIssueList はレビュー指摘の一覧を修復プロンプト用に描画します。
func RenderIssueList(issues []domain.ReviewIssue) string {
	if len(issues) == 0 {
		return "(none)"
	}

	var sb strings.Builder
	for _, issue := range issues {
		sb.WriteString(fmt.Sprintf("- [%s] %s", issue.Category, issue.Description))
		if issue.Fix != "" {
			sb.WriteString(" => FIX: " + issue.Fix)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
