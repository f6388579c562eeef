package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/invoker"
	"github.com/shouni/go-manga-plan-kit/pkg/prompts"
)

// CastStage は物語の前提から主要キャストを設計する工程です。
type CastStage struct {
	invoker     Invoker
	prompts     prompts.PromptBuilder
	maxAttempts int
}

// NewCastStage は CastStage を初期化します。
func NewCastStage(inv Invoker, pb prompts.PromptBuilder, maxAttempts int) (*CastStage, error) {
	if inv == nil {
		return nil, fmt.Errorf("invoker は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("プロンプトビルダーは必須です")
	}
	return &CastStage{invoker: inv, prompts: pb, maxAttempts: maxAttempts}, nil
}

// Generate はキャストを設計し、連番IDとシード値を割り当てます。
// 後続の全工程がキャストを前提とするため、この工程の失敗は計画全体の失敗です。
func (cs *CastStage) Generate(ctx context.Context, req PlanRequest) ([]domain.Character, error) {
	prompt, err := cs.prompts.Build(prompts.ModeCast, prompts.TemplateData{
		UserPrompt:   req.Prompt,
		Language:     req.Language,
		StyleArt:     req.Style,
		StyleSetting: req.Setting,
		MinCast:      MinCastSize,
		MaxCast:      MaxCastSize,
	})
	if err != nil {
		return nil, fmt.Errorf("キャストプロンプトの構築に失敗しました: %w", err)
	}

	var draft castDraft
	if err := cs.invoker.Invoke(ctx, invoker.Request{
		Prompt:      prompt,
		Label:       "cast",
		Tier:        invoker.TierQuality,
		MaxAttempts: cs.maxAttempts,
	}, &draft); err != nil {
		return nil, err
	}

	members := draft.Characters
	if len(members) > MaxCastSize {
		slog.Warn("キャストが上限を超えたため切り詰めます", "got", len(members), "max", MaxCastSize)
		members = members[:MaxCastSize]
	}

	cast := make([]domain.Character, 0, len(members))
	for i, m := range members {
		cast = append(cast, domain.Character{
			ID:         domain.CharacterID(i + 1),
			Name:       m.Name,
			Age:        m.Age,
			BodyType:   m.BodyType,
			Face:       m.Face,
			Expression: m.Expression,
			Clothing:   m.Clothing,
			Role:       m.Role,
			Seed:       rand.Int64N(1<<62) + 1,
		})
	}

	slog.Info("キャストを確定しました", "count", len(cast))
	return cast, nil
}
