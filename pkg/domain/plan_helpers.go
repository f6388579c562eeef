package domain

import (
	"fmt"
	"sort"
)

// PanelID はページ通し番号とパネル位置から正規のパネルIDを組み立てます。
// 例: panel-3-2 は3ページ目の2コマ目です。
func PanelID(pageNumber, position int) string {
	return fmt.Sprintf("panel-%d-%d", pageNumber, position)
}

// SortChapters は章を Index 順、各章のページを Number 順に並べ替えます。
// 並列生成の完了順に依存しない最終的な順序を保証するために使います。
func SortChapters(chapters []Chapter) {
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].Index < chapters[j].Index
	})
	for ci := range chapters {
		pages := chapters[ci].Pages
		sort.Slice(pages, func(i, j int) bool {
			return pages[i].Number < pages[j].Number
		})
	}
}

// CountPanels は全章に含まれるパネルの総数を返します。
func CountPanels(chapters []Chapter) int {
	total := 0
	for _, ch := range chapters {
		for _, pg := range ch.Pages {
			total += len(pg.Panels)
		}
	}
	return total
}

// EntityIDs はパネルが参照しているエンティティIDを重複なく返します。
// 登場キャラクターとセリフの話者の両方を対象とします。
func (p Panel) EntityIDs() []string {
	set := make(map[string]struct{})
	for _, pc := range p.Characters {
		if pc.ID != "" {
			set[pc.ID] = struct{}{}
		}
	}
	for _, dl := range p.Dialogue {
		if dl.CharacterID != "" {
			set[dl.CharacterID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
