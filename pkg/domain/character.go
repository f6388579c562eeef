package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// CharacterIDPrefix はキャスト生成ステージが割り当てる正規IDの接頭辞です。
// 例: char-1, char-2 ...
const CharacterIDPrefix = "char-"

// Character は作品に登場するメインキャラクターの定義を保持します。
// キャスト生成ステージで一度だけ作成され、以降のステージでは不変です。
type Character struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Age        string `json:"age,omitempty"`
	BodyType   string `json:"bodyType,omitempty"`
	Face       string `json:"face,omitempty"`
	Expression string `json:"expression,omitempty"`
	Clothing   string `json:"clothing,omitempty"`
	Role       string `json:"role,omitempty"`
	Seed       int64  `json:"seed"` // 視覚的一貫性を保つためのシード値
}

// CharactersMap はIDをキーとしたキャラクターの検索用マップなのだ。
type CharactersMap map[string]Character

// String はキャラクターの情報を文字列で返すのだ。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}

// CharacterID は連番からキャスト正規IDを組み立てます。番号は1始まりです。
func CharacterID(n int) string {
	return fmt.Sprintf("%s%d", CharacterIDPrefix, n)
}

// IsCharacterID は、与えられたIDがキャスト正規IDの形式かどうかを判定します。
// ロスターに実在するかどうかまでは確認しません。
func IsCharacterID(id string) bool {
	return strings.HasPrefix(id, CharacterIDPrefix)
}

// BuildCharactersMap はスライス形式のロスターを検索効率の良いマップ形式に変換するのだ。
func BuildCharactersMap(chars []Character) CharactersMap {
	m := make(CharactersMap, len(chars))
	for _, c := range chars {
		key := c.ID
		if key == "" {
			key = c.Name
		}
		m[key] = c
	}
	return m
}

// FindCharacter は 直接のIDからキャラクター情報を特定します。
func (m CharactersMap) FindCharacter(id string) *Character {
	if m == nil {
		return nil
	}
	if char, ok := m[id]; ok {
		res := char
		return &res
	}
	if char, ok := m[strings.ToLower(id)]; ok {
		res := char
		return &res
	}
	return nil
}

// SeedFromName は名前から決定論的なシード値を生成します。
// ロスターに登録のない匿名エンティティでも、同じ名前なら同じシードになります。
func SeedFromName(name string) int64 {
	hash := sha256.Sum256([]byte(name))
	// ハッシュの最初の8バイトを int64 に変換
	seed := int64(binary.BigEndian.Uint64(hash[:8]))
	// シード値は正の数が望ましいため、最上位ビットを落とすのが安全なのだ
	return seed & 0x7FFFFFFFFFFFFFFF
}
