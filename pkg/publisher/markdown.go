package publisher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shouni/go-manga-plan-kit/pkg/asset"
	"github.com/shouni/go-manga-plan-kit/pkg/director"
	"github.com/shouni/go-manga-plan-kit/pkg/domain"
)

const narrationSpeaker = "narration"

// BuildPlanMarkdown は構成案を webtoon 形式の Markdown に変換します。
// 吹き出し1つが1ブロックに対応し、同じパネルの連続する吹き出しは
// パネル画像を共有します。画像パスはレンダリング後の配置規約を指します。
func BuildPlanMarkdown(plan domain.Plan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", plan.Title))

	for _, chapter := range plan.Chapters {
		for _, page := range chapter.Pages {
			for _, panel := range page.Panels {
				writePanelBlocks(&sb, page.Layout, panel)
			}
		}
	}
	return sb.String()
}

func writePanelBlocks(sb *strings.Builder, layout string, panel domain.Panel) {
	img := asset.PanelImagePath(panel.ID)

	if len(panel.Dialogue) == 0 && panel.Narrative == "" {
		writeBlockHeader(sb, img, layout)
		sb.WriteString("- type: none\n\n")
		return
	}

	// キャプションは場面説明として吹き出しより先に置きます。
	if panel.Narrative != "" {
		writeBlockHeader(sb, img, layout)
		sb.WriteString(fmt.Sprintf("- speaker: %s\n", speakerClass(narrationSpeaker)))
		sb.WriteString(fmt.Sprintf("- text: %s\n", strings.TrimSpace(panel.Narrative)))
		sb.WriteString(bubbleStyle(panel.NarrativePlacement))
		sb.WriteString("\n")
	}

	for _, line := range panel.Dialogue {
		writeBlockHeader(sb, img, layout)
		speaker := line.CharacterID
		if speaker == "" {
			speaker = narrationSpeaker
		}
		sb.WriteString(fmt.Sprintf("- speaker: %s\n", speakerClass(speaker)))
		sb.WriteString(fmt.Sprintf("- text: %s\n", strings.TrimSpace(line.Text)))
		sb.WriteString(bubbleStyle(line.Placement))
		sb.WriteString("\n")
	}
}

func writeBlockHeader(sb *strings.Builder, imagePath, layout string) {
	sb.WriteString(fmt.Sprintf("## Panel: %s\n", imagePath))
	sb.WriteString(fmt.Sprintf("- layout: %s\n", layout))
}

// speakerClass は話者IDをCSSクラスとして安全な識別子に変換します。
// 日本語名などのマルチバイト文字もハッシュで吸収します。
func speakerClass(speaker string) string {
	h := sha256.Sum256([]byte(speaker))
	return "speaker-" + hex.EncodeToString(h[:])[:10]
}

// bubbleStyle は配置ゾーンを webtoon ビューア向けの位置指定に変換します。
// 吹き出しの尻尾は紙面の中央側、つまり話者のいる方向を向けます。
func bubbleStyle(placement string) string {
	switch placement {
	case director.PlacementTopRight:
		return "- tail: bottom\n- top: 10%\n- right: 10%\n"
	case director.PlacementTopLeft:
		return "- tail: bottom\n- top: 10%\n- left: 10%\n"
	case director.PlacementBottomLeft:
		return "- tail: top\n- bottom: 10%\n- left: 10%\n"
	case director.PlacementBottomRight:
		return "- tail: top\n- bottom: 10%\n- right: 10%\n"
	default:
		return ""
	}
}
