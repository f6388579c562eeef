// Package registry は、本編キャストとページ限定エンティティの参照管理を提供します。
// 生成された脚本が未登録のキャラクターを参照した場合、失敗させるのではなく
// その参照だけを取り除く方針です。
package registry

import (
	"log/slog"
	"sort"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
)

// Registry は計画全体で有効な本編キャストの名簿です。
type Registry struct {
	main domain.CharactersMap
}

// New はキャスト一覧から Registry を構築します。
func New(cast []domain.Character) *Registry {
	return &Registry{main: domain.BuildCharactersMap(cast)}
}

// Main はIDに対応する本編キャラクターを返します。
func (r *Registry) Main(id string) (domain.Character, bool) {
	char, ok := r.main[id]
	return char, ok
}

// MainIDs は本編キャストのIDを昇順で返します。
func (r *Registry) MainIDs() []string {
	ids := make([]string, 0, len(r.main))
	for id := range r.main {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PageScope は宣言されたエンティティ参照からページ単位のスコープを作ります。
// char- 接頭辞を持つのに名簿にない参照は幻覚とみなし、警告付きで除外します。
// それ以外の参照はこのページ限定の匿名エンティティとして扱います。
func (r *Registry) PageScope(refs []string) *PageScope {
	scope := &PageScope{
		registry:  r,
		declared:  make([]string, 0, len(refs)),
		anonymous: make(map[string]struct{}),
	}

	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}

		if domain.IsCharacterID(ref) {
			if _, ok := r.main[ref]; !ok {
				slog.Warn("名簿にないキャラクター参照を除外しました", "ref", ref)
				continue
			}
			scope.declared = append(scope.declared, ref)
			continue
		}

		scope.anonymous[ref] = struct{}{}
		scope.declared = append(scope.declared, ref)
	}

	return scope
}

// PageScope は1ページ分の参照可否を判定します。
type PageScope struct {
	registry  *Registry
	declared  []string
	anonymous map[string]struct{}
}

// IsAllowed は参照IDがこのページで使用可能かを返します。
// 本編キャストは宣言の有無にかかわらず常に使用可能で、
// 匿名エンティティは宣言されたページでのみ使用可能です。
func (s *PageScope) IsAllowed(id string) bool {
	if _, ok := s.registry.main[id]; ok {
		return true
	}
	_, ok := s.anonymous[id]
	return ok
}

// Allowed はこのページで宣言された有効なエンティティIDを昇順で返します。
func (s *PageScope) Allowed() []string {
	ids := make([]string, len(s.declared))
	copy(ids, s.declared)
	sort.Strings(ids)
	return ids
}

// FilterPanel はパネルから使用不可能な参照を取り除き、除外した件数を返します。
// 登場キャラクター、セリフの話者、シード割り当ての3箇所を対象とします。
// 話者が空のセリフはナレーションなのでそのまま残します。
func (s *PageScope) FilterPanel(panel *domain.Panel) int {
	removed := 0

	if len(panel.Characters) > 0 {
		kept := make([]domain.PanelCharacter, 0, len(panel.Characters))
		for _, pc := range panel.Characters {
			if pc.ID != "" && !s.IsAllowed(pc.ID) {
				removed++
				continue
			}
			kept = append(kept, pc)
		}
		panel.Characters = kept
	}

	if len(panel.Dialogue) > 0 {
		kept := make([]domain.DialogueLine, 0, len(panel.Dialogue))
		for _, line := range panel.Dialogue {
			if line.CharacterID != "" && !s.IsAllowed(line.CharacterID) {
				removed++
				continue
			}
			kept = append(kept, line)
		}
		panel.Dialogue = kept
	}

	for id := range panel.Seeds {
		if !s.IsAllowed(id) {
			delete(panel.Seeds, id)
			removed++
		}
	}

	return removed
}
