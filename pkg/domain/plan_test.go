package domain

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestPlan_JSON(t *testing.T) {
	t.Run("Plan構造体が正しくJSON変換できるのだ", func(t *testing.T) {
		plan := Plan{
			ID:    "plan-test-001",
			Title: "灯台守の最後の夜",
			Style: StyleParams{Art: "watercolor", Setting: "seaside", Language: "ja"},
			Characters: []Character{
				{ID: "char-1", Name: "老灯台守", Age: "68", Role: "protagonist", Seed: 12345},
				{ID: "char-2", Name: "見習いの少女", Age: "16", Role: "deuteragonist", Seed: 67890},
			},
			Chapters: []Chapter{
				{
					Index: 1,
					Title: "消えゆく光",
					Pages: []Page{
						{
							Number:   1,
							Layout:   "standard-3",
							Summary:  "嵐の前夜",
							Scene:    "崖の上の灯台",
							Entities: []string{"char-1"},
							Panels: []Panel{
								{
									ID:          "panel-1-1",
									Position:    1,
									Characters:  []PanelCharacter{{ID: "char-1", Expression: "weary"}},
									Action:      "ランプに火を灯す",
									Camera:      Camera{Shot: "medium", Angle: "low", Focus: "char-1"},
									Dialogue:    []DialogueLine{{CharacterID: "char-1", Text: "今夜が最後か", Placement: "bottom-left"}},
									AspectRatio: "16:9",
									Prompt:      "an old lighthouse keeper lighting the lamp",
									Seeds:       map[string]int64{"char-1": 12345},
								},
							},
						},
					},
				},
			},
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}

		data, err := json.Marshal(plan)
		if err != nil {
			t.Fatalf("Marshal失敗なのだ: %v", err)
		}

		var decoded Plan
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal失敗なのだ: %v", err)
		}

		if !reflect.DeepEqual(plan, decoded) {
			t.Errorf("変換前後でデータが一致しないのだ。期待: %+v, 実際: %+v", plan, decoded)
		}
	})

	t.Run("成果物のキーがコラボレーター互換のcamelCaseであるのだ", func(t *testing.T) {
		plan := Plan{
			ID:        "plan-keys",
			Title:     "タイトル",
			CreatedAt: time.Now().UTC(),
			Chapters: []Chapter{{
				Index: 1,
				Pages: []Page{{
					Number: 1,
					Layout: "splash",
					Panels: []Panel{{
						ID: "panel-1-1", Position: 1, AspectRatio: "3:4",
						Narrative: "夜明け", NarrativePlacement: "top",
					}},
				}},
			}},
		}

		data, err := json.Marshal(plan)
		if err != nil {
			t.Fatalf("Marshal失敗なのだ: %v", err)
		}

		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("mapへのUnmarshal失敗なのだ: %v", err)
		}
		if _, ok := raw["createdAt"]; !ok {
			t.Error("createdAt キーが見つからないのだ")
		}

		panel := raw["chapters"].([]any)[0].(map[string]any)["pages"].([]any)[0].(map[string]any)["panels"].([]any)[0].(map[string]any)
		for _, key := range []string{"aspectRatio", "narrativePlacement", "position"} {
			if _, ok := panel[key]; !ok {
				t.Errorf("パネルに %s キーが見つからないのだ", key)
			}
		}
	})
}

func TestSortChapters(t *testing.T) {
	t.Run("完了順に依存せずIndexとNumberで整列されるのだ", func(t *testing.T) {
		chapters := []Chapter{
			{Index: 2, Pages: []Page{{Number: 5}, {Number: 4}}},
			{Index: 1, Pages: []Page{{Number: 3}, {Number: 1}, {Number: 2}}},
		}

		SortChapters(chapters)

		if chapters[0].Index != 1 || chapters[1].Index != 2 {
			t.Errorf("章の順序が不正なのだ: %d, %d", chapters[0].Index, chapters[1].Index)
		}
		gotFirst := []int{}
		for _, p := range chapters[0].Pages {
			gotFirst = append(gotFirst, p.Number)
		}
		if !reflect.DeepEqual(gotFirst, []int{1, 2, 3}) {
			t.Errorf("第1章のページ順が不正なのだ: %v", gotFirst)
		}
		gotSecond := []int{}
		for _, p := range chapters[1].Pages {
			gotSecond = append(gotSecond, p.Number)
		}
		if !reflect.DeepEqual(gotSecond, []int{4, 5}) {
			t.Errorf("第2章のページ順が不正なのだ: %v", gotSecond)
		}
	})
}

func TestCountPanels(t *testing.T) {
	chapters := []Chapter{
		{Index: 1, Pages: []Page{
			{Number: 1, Panels: []Panel{{ID: "a"}, {ID: "b"}}},
			{Number: 2, Panels: []Panel{{ID: "c"}}},
		}},
		{Index: 2, Pages: []Page{
			{Number: 3, Panels: []Panel{{ID: "d"}, {ID: "e"}, {ID: "f"}}},
		}},
	}

	if got := CountPanels(chapters); got != 6 {
		t.Errorf("期待値 6, 実際の値 %d", got)
	}
}

func TestPanel_EntityIDs(t *testing.T) {
	panel := Panel{
		Characters: []PanelCharacter{{ID: "char-2"}, {ID: "char-1"}},
		Dialogue: []DialogueLine{
			{CharacterID: "char-1", Text: "..."},
			{CharacterID: "old-fisherman", Text: "..."},
		},
	}

	got := panel.EntityIDs()
	want := []string{"char-1", "char-2", "old-fisherman"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期待値 %v, 実際の値 %v", want, got)
	}
}
