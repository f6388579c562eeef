package domain

import (
	"testing"
)

func TestCharacterID(t *testing.T) {
	t.Run("連番から正規IDが組み立てられること", func(t *testing.T) {
		if got := CharacterID(1); got != "char-1" {
			t.Errorf("期待値 'char-1', 実際の値 '%s'", got)
		}
		if got := CharacterID(5); got != "char-5" {
			t.Errorf("期待値 'char-5', 実際の値 '%s'", got)
		}
	})

	t.Run("正規ID形式の判定ができること", func(t *testing.T) {
		if !IsCharacterID("char-3") {
			t.Error("char-3 が正規ID形式と判定されませんでした")
		}
		if IsCharacterID("old-fisherman") {
			t.Error("匿名IDが正規ID形式と誤判定されました")
		}
	})
}

func TestSeedFromName(t *testing.T) {
	t.Run("同じ名前から決定論的にSeedが生成されること", func(t *testing.T) {
		seed1 := SeedFromName("老灯台守")
		seed2 := SeedFromName("老灯台守")

		if seed1 == 0 {
			t.Error("Seedが0です")
		}
		if seed1 != seed2 {
			t.Error("同じ名前から異なるSeedが生成されました。決定論的ではありません")
		}
	})

	t.Run("Seedは常に正の数であること", func(t *testing.T) {
		for _, name := range []string{"a", "灯台", "storm", "見習いの少女", "char-1"} {
			if seed := SeedFromName(name); seed < 0 {
				t.Errorf("名前 '%s' から負のSeedが生成されました: %d", name, seed)
			}
		}
	})
}

func TestBuildCharactersMap(t *testing.T) {
	chars := []Character{
		{ID: "char-1", Name: "勇者"},
		{ID: "char-2", Name: "魔法使い"},
	}

	m := BuildCharactersMap(chars)
	if len(m) != 2 {
		t.Fatalf("期待値 2, 実際の値 %d", len(m))
	}
	if m["char-1"].Name != "勇者" {
		t.Errorf("期待値 '勇者', 実際の値 '%s'", m["char-1"].Name)
	}

	if found := m.FindCharacter("char-2"); found == nil || found.Name != "魔法使い" {
		t.Errorf("char-2 の検索結果が不正です: %+v", found)
	}
	if found := m.FindCharacter("char-9"); found != nil {
		t.Errorf("存在しないIDで結果が返りました: %+v", found)
	}
}

func TestCharacter_String(t *testing.T) {
	c := Character{ID: "char-1", Name: "テスト名"}
	expected := "テスト名 (char-1)"
	if c.String() != expected {
		t.Errorf("期待値 '%s', 実際の値 '%s'", expected, c.String())
	}
}
