// Package director は、完成したパネルに対する演出上の決定を担当します。
// 吹き出しとキャプションの配置は生成モデルに任せず、この層の規則で決めます。
package director

import (
	"strings"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
)

// 配置ゾーンの定数です。右から左へ読む紙面を前提とします。
const (
	PlacementTopRight    = "top-right"
	PlacementBottomLeft  = "bottom-left"
	PlacementTopLeft     = "top-left"
	PlacementBottomRight = "bottom-right"
)

// DialoguePlacement は行インデックスに基づき、視線が対角に流れる交互配置を返します。
func DialoguePlacement(index int) string {
	if index%2 == 0 {
		return PlacementTopRight
	}
	return PlacementBottomLeft
}

// NarrativePlacement はパネル位置に基づきキャプションの配置を返します。
// セリフの既定位置と重ならない側を選びます。
func NarrativePlacement(position int) string {
	if position%2 == 1 {
		return PlacementTopLeft
	}
	return PlacementBottomRight
}

// NormalizeSpeakerID は話者IDの表記ゆれを吸収します。
func NormalizeSpeakerID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// AssignPlacements はパネル内の全セリフとキャプションに配置を割り当てます。
func AssignPlacements(panel *domain.Panel) {
	for i := range panel.Dialogue {
		panel.Dialogue[i].Placement = DialoguePlacement(i)
	}
	if panel.Narrative != "" {
		panel.NarrativePlacement = NarrativePlacement(panel.Position)
	} else {
		panel.NarrativePlacement = ""
	}
}
