// Package render は、完成した構成案を画像生成コラボレーター向けの
// リクエスト群に変換します。変換は純粋で、ネットワークにも
// ファイルシステムにも触れません。
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
)

const (
	// CinematicTags はクオリティ向上のための共通タグです。
	CinematicTags = "cinematic composition, high resolution, sharp focus, 8k"

	// PanelNegativePrompt は単体パネル画像から除外したい要素の基本形です。
	// 吹き出しと文字は後工程で載せるため、必ず描画から除外します。
	PanelNegativePrompt = "speech bubble, dialogue balloon, text, alphabet, letters, words, signatures, watermark, username, low quality, distorted, bad anatomy"

	// PageNegativePrompt はページ一括生成から除外したい要素の基本形です。
	PageNegativePrompt = "monochrome, black and white, greyscale, screentone, hatching, dot shades, ink sketch, line art only, realistic photos, 3d render, watermark, signature, deformed faces, bad anatomy, disfigured, poorly drawn hands, extra panels, unexpected panels, more than specified panels, split panels"

	// pageStructureHeader は漫画ページの構造に関する基本ルールを定義します。
	pageStructureHeader = `### FORMAT RULES: FULL COLOR ANIME MANGA ###
- STYLE: Vibrant Full Color Digital Anime Style. High saturation, cinematic lighting.
- RENDERING: Sharp clean lineart with professional digital coloring. NO screentones.
- LAYOUT: Strict multi-panel composition. Use ONLY the specified number of panels.
- NO FILLER: Do not add extra panels or decorative small frames. Fill the page with the given count.
- BORDERS: Deep black, crisp frame borders for EVERY panel.
- GUTTERS: Pure white space between panels.
- READING FLOW: Right-to-Left, Top-to-Bottom.`

	// renderingStyle は共通の画風を定義します。
	renderingStyle = `### GLOBAL VISUAL STYLE ###
- RENDERING: Sharp clean lineart, vibrant colors, no blurring, high contrast, cinematic manga lighting.`

	systemInstruction = "You are a master digital artist. You MUST follow the exact panel count and layout rules. Character identity MUST match the character master reference files."
)

// ReferenceSet はキャラクターIDと参照画像の対応を保持します。
// 添付順は名簿順で固定し、プロンプト中の input_file_N 参照と一致させます。
type ReferenceSet struct {
	urls []string
	byID map[string]int
}

// NewReferenceSet は名簿と参照URLの対応表から ReferenceSet を組み立てます。
// URLの無いキャラクターは飛ばし、添付ファイルの番号は 1 始まりです。
func NewReferenceSet(cast []domain.Character, urls map[string]string) *ReferenceSet {
	rs := &ReferenceSet{byID: make(map[string]int)}
	for _, char := range cast {
		url, ok := urls[char.ID]
		if !ok || url == "" {
			continue
		}
		rs.urls = append(rs.urls, url)
		rs.byID[char.ID] = len(rs.urls)
	}
	return rs
}

// URLs は添付順の参照URL一覧を返します。
func (rs *ReferenceSet) URLs() []string {
	return append([]string(nil), rs.urls...)
}

// FileIndex はキャラクターIDに対応する添付ファイル番号を返します。
func (rs *ReferenceSet) FileIndex(id string) (int, bool) {
	idx, ok := rs.byID[id]
	return idx, ok
}

// PromptComposer は構成案の1ページ・1パネルを画像生成プロンプトへ変換します。
type PromptComposer struct {
	roster      domain.CharactersMap
	styleSuffix string
	refs        *ReferenceSet
}

// NewPromptComposer は PromptComposer を初期化します。
// refURLs は任意で、キャラクターIDから参照画像URLへの対応表です。
func NewPromptComposer(cast []domain.Character, styleSuffix string, refURLs map[string]string) *PromptComposer {
	return &PromptComposer{
		roster:      domain.BuildCharactersMap(cast),
		styleSuffix: styleSuffix,
		refs:        NewReferenceSet(cast, refURLs),
	}
}

// ReferenceURLs はページリクエストに添付する参照画像URLの一覧を返します。
func (pc *PromptComposer) ReferenceURLs() []string {
	return pc.refs.URLs()
}

// PagePrompt は1ページ分の一括生成プロンプトを組み立てます。
func (pc *PromptComposer) PagePrompt(page domain.Page) string {
	var us strings.Builder
	pc.writeRequirements(&us, len(page.Panels))
	pc.writePlacementMap(&us, page.Layout, len(page.Panels))
	pc.writeCharacterReferences(&us)
	pc.writePanelBreakdown(&us, page)

	return pc.systemPrompt() + "\n\n" + us.String()
}

// PanelPrompt は1コマ分の単体生成プロンプトを組み立てます。
func (pc *PromptComposer) PanelPrompt(panel domain.Panel) string {
	var parts []string

	base := strings.TrimSpace(panel.Prompt)
	if base == "" {
		base = sanitizeInline(panel.Action)
	}
	parts = append(parts, base)

	for _, ref := range panel.Characters {
		char := pc.roster.FindCharacter(ref.ID)
		if char == nil {
			continue
		}
		line := fmt.Sprintf("SUBJECT [%s]: {%s}", char.Name, characterCues(*char))
		if idx, ok := pc.refs.FileIndex(char.ID); ok {
			line += fmt.Sprintf(" Match input_file_%d.", idx)
		}
		parts = append(parts, line)
	}

	if cam := cameraLine(panel.Camera); cam != "" {
		parts = append(parts, cam)
	}

	parts = append(parts, CinematicTags)
	if pc.styleSuffix != "" {
		parts = append(parts, pc.styleSuffix)
	}
	return strings.Join(parts, "\n")
}

func (pc *PromptComposer) systemPrompt() string {
	parts := []string{systemInstruction, pageStructureHeader, renderingStyle, CinematicTags}
	if pc.styleSuffix != "" {
		parts = append(parts, fmt.Sprintf("### ARTISTIC STYLE ###\n%s", pc.styleSuffix))
	}
	return strings.Join(parts, "\n\n")
}

func (pc *PromptComposer) writeRequirements(w *strings.Builder, num int) {
	w.WriteString("# FULL COLOR PAGE PRODUCTION REQUEST\n")
	w.WriteString("- OUTPUT: ONE single portrait manga page image.\n")
	w.WriteString("- COLOR: STRICTLY VIBRANT FULL COLOR. NO monochrome, NO screentones.\n")
	fmt.Fprintf(w, "- PANEL COUNT: [ %d ] (STRICTLY ONLY %d PANELS. DO NOT ADD ANY MORE).\n\n", num, num)
}

// writePlacementMap はレイアウトテンプレートごとの枠配置を書き出します。
// 専用の形を持つテンプレート以外は、右上から読み進める2列の格子に
// 最終コマだけ全幅という標準の組み方に従います。
func (pc *PromptComposer) writePlacementMap(w *strings.Builder, layoutID string, num int) {
	w.WriteString("## MANDATORY PAGE STRUCTURE\n")
	w.WriteString("- READING ORDER: Japanese Style (Right-to-Left, then Top-to-Bottom).\n")
	w.WriteString("- PANEL PLACEMENT MAP:\n")

	switch {
	case num == 1:
		w.WriteString("  * PANEL 1: SINGLE FULL-PAGE PANEL (covers entire image area).\n")
	case layoutID == "vertical-duet":
		w.WriteString("  * PANEL 1: TOP HALF, FULL-WIDTH.\n")
		w.WriteString("  * PANEL 2: BOTTOM HALF, FULL-WIDTH.\n")
	default:
		for i := 0; i < num; i++ {
			if num%2 == 1 && i == num-1 {
				fmt.Fprintf(w, "  * PANEL %d: BOTTOM ROW, FULL-WIDTH.\n", i+1)
				continue
			}
			row, side := (i/2)+1, "RIGHT"
			if i%2 == 1 {
				side = "LEFT"
			}
			fmt.Fprintf(w, "  * PANEL %d: ROW %d, %s column.\n", i+1, row, side)
		}
	}
	w.WriteString("- FRAME STYLE: Deep black borders. GUTTERS: Pure white.\n\n")
}

func (pc *PromptComposer) writeCharacterReferences(w *strings.Builder) {
	if len(pc.roster) == 0 {
		return
	}
	ids := make([]string, 0, len(pc.roster))
	for id := range pc.roster {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w.WriteString("## CHARACTER MASTER DEFINITIONS (STRICT IDENTITY)\n")
	for _, id := range ids {
		char := pc.roster[id]
		line := fmt.Sprintf("- SUBJECT [%s]: VISUAL_FEATURES: {%s}", char.Name, characterCues(char))
		if idx, ok := pc.refs.FileIndex(char.ID); ok {
			line += fmt.Sprintf(" Match input_file_%d.", idx)
		}
		w.WriteString(line + "\n")
	}
	w.WriteString("\n")
}

func (pc *PromptComposer) writePanelBreakdown(w *strings.Builder, page domain.Page) {
	num := len(page.Panels)
	bigIdx := bigPanelIndex(num)
	w.WriteString("## PANEL BREAKDOWN\n")

	for i, panel := range page.Panels {
		label, pos := "Standard", ""
		if i == bigIdx {
			if num == 1 {
				label, pos = "FULL-PAGE", "Entire page area"
			} else {
				label, pos = "FULL-WIDTH IMPACT", "Bottom row, full width"
			}
		} else {
			side := "RIGHT"
			if i%2 == 1 {
				side = "LEFT"
			}
			pos = fmt.Sprintf("Row %d, %s column", (i/2)+1, side)
		}
		fmt.Fprintf(w, "### PANEL %d [%s]\n- POSITION: %s\n", i+1, label, pos)

		for _, ref := range panel.Characters {
			name, cues := ref.ID, "consistent design"
			if char := pc.roster.FindCharacter(ref.ID); char != nil {
				name, cues = char.Name, characterCues(*char)
			}
			line := fmt.Sprintf("- SUBJECT [%s]: {%s}", name, cues)
			if performance := performanceCues(ref); performance != "" {
				line += fmt.Sprintf(" ACTING: %s.", performance)
			}
			if idx, ok := pc.refs.FileIndex(ref.ID); ok {
				line += fmt.Sprintf(" Match input_file_%d.", idx)
			}
			w.WriteString(line + "\n")
		}

		fmt.Fprintf(w, "- ACTION: %s\n", sanitizeInline(panel.Action))
		if cam := cameraLine(panel.Camera); cam != "" {
			fmt.Fprintf(w, "- %s\n", cam)
		}

		for _, line := range panel.Dialogue {
			speaker := "NARRATION"
			if char := pc.roster.FindCharacter(line.CharacterID); char != nil {
				speaker = char.Name
			} else if line.CharacterID != "" {
				speaker = line.CharacterID
			}
			fmt.Fprintf(w, "- SPEECH: Speech bubble for [%s].\n", speaker)
			fmt.Fprintf(w, "  - TEXT_TO_RENDER: \"%s\"\n", formatDialogue(line.Text))
			w.WriteString("  - TYPOGRAPHY: Use professional Japanese manga font (Gothic or Mincho style).\n")
		}
		if panel.Narrative != "" {
			fmt.Fprintf(w, "- CAPTION BOX: \"%s\"\n", formatDialogue(panel.Narrative))
		}
		if len(panel.SFX) > 0 {
			fmt.Fprintf(w, "- SFX: %s\n", strings.Join(panel.SFX, ", "))
		}
		w.WriteString("\n")
	}
}

// bigPanelIndex は拡大表示するパネルのインデックスを返します。
// 1枚構成は全面、奇数構成は最終コマ、偶数構成は拡大なし(-1)です。
func bigPanelIndex(num int) int {
	if num == 1 {
		return 0
	}
	if num > 1 && num%2 == 1 {
		return num - 1
	}
	return -1
}

// characterCues は名簿の外見情報を画像生成向けの特徴列に変換します。
func characterCues(char domain.Character) string {
	var parts []string
	if char.Age != "" {
		parts = append(parts, "age "+char.Age)
	}
	if char.BodyType != "" {
		parts = append(parts, char.BodyType)
	}
	if char.Face != "" {
		parts = append(parts, char.Face)
	}
	if char.Expression != "" {
		parts = append(parts, char.Expression)
	}
	if char.Clothing != "" {
		parts = append(parts, "wearing "+char.Clothing)
	}
	if len(parts) == 0 {
		return "distinctive consistent design"
	}
	return strings.Join(parts, ", ")
}

// performanceCues はパネル内での演技指定を1行に畳みます。
func performanceCues(ref domain.PanelCharacter) string {
	var parts []string
	if ref.Expression != "" {
		parts = append(parts, ref.Expression)
	}
	if ref.Pose != "" {
		parts = append(parts, ref.Pose)
	}
	if ref.Gesture != "" {
		parts = append(parts, ref.Gesture)
	}
	if ref.Gaze != "" {
		parts = append(parts, "gaze "+ref.Gaze)
	}
	return strings.Join(parts, ", ")
}

func cameraLine(cam domain.Camera) string {
	var parts []string
	if cam.Shot != "" {
		parts = append(parts, cam.Shot+" shot")
	}
	if cam.Angle != "" {
		parts = append(parts, cam.Angle+" angle")
	}
	if cam.Focus != "" {
		parts = append(parts, "focus on "+cam.Focus)
	}
	if len(parts) == 0 {
		return ""
	}
	return "CAMERA: " + strings.Join(parts, ", ")
}

func sanitizeInline(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}

// formatDialogue はセリフを1行に正規化します。
// 生成モデルの混乱を防ぐため、ダブルクォートはシングルクォートに逃がします。
func formatDialogue(s string) string {
	s = sanitizeInline(s)
	return strings.ReplaceAll(s, "\"", "'")
}
