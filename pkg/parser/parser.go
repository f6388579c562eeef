// Package parser は保存済みの構成案 JSON を読み込み、ドメインモデルへ復元します。
// レビューや描画計画の再実行は、このパーサーを入口として成果物を受け取ります。
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// Parser は構成案を読み込むためのインターフェースを定義します。
type Parser interface {
	ParseFromPath(ctx context.Context, fullPath string) (*domain.Plan, error)
}

// PlanParser は JSON 形式の構成案を解析する構造体です。
type PlanParser struct {
	reader remoteio.InputReader
}

// NewPlanParser は新しい PlanParser インスタンスを生成します。
func NewPlanParser(r remoteio.InputReader) *PlanParser {
	return &PlanParser{reader: r}
}

// ParseFromPath は指定された GCS URI やローカルファイルパスなどから
// コンテンツを読み込み、解析して domain.Plan を返します。
func (p *PlanParser) ParseFromPath(ctx context.Context, planFile string) (*domain.Plan, error) {
	slog.InfoContext(ctx, "構成案ファイルを読み込んでいます", "path", planFile)
	rc, err := p.reader.Open(ctx, planFile)
	if err != nil {
		return nil, fmt.Errorf("構成案ファイルのオープンに失敗しました (%s): %w", planFile, err)
	}
	defer rc.Close()

	plan := &domain.Plan{}
	if err := json.NewDecoder(rc).Decode(plan); err != nil {
		return nil, fmt.Errorf("構成案JSONのパースに失敗しました: %w", err)
	}

	if err := validatePlan(plan); err != nil {
		return nil, fmt.Errorf("構成案の内容が不正です (%s): %w", planFile, err)
	}

	return plan, nil
}

// validatePlan は再実行の前提となる成果物の整合性を検査します。
// 生成直後の構成案ではなく、外部から持ち込まれたファイルも通る経路のため、
// 後段が暗黙に期待する骨格だけをここで確かめます。
func validatePlan(plan *domain.Plan) error {
	if plan.ID == "" {
		return fmt.Errorf("id が空です")
	}
	if plan.Title == "" {
		return fmt.Errorf("title が空です")
	}
	if len(plan.Chapters) == 0 {
		return fmt.Errorf("chapters が空です")
	}

	seen := make(map[int]struct{})
	for _, chapter := range plan.Chapters {
		for _, page := range chapter.Pages {
			if page.Number <= 0 {
				return fmt.Errorf("章 %d に不正なページ番号 %d があります", chapter.Index, page.Number)
			}
			if _, dup := seen[page.Number]; dup {
				return fmt.Errorf("ページ番号 %d が重複しています", page.Number)
			}
			seen[page.Number] = struct{}{}

			for _, panel := range page.Panels {
				if panel.ID == "" {
					return fmt.Errorf("ページ %d に ID のないパネルがあります", page.Number)
				}
			}
		}
	}

	return nil
}
