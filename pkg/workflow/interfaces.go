package workflow

import (
	"context"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/publisher"
	"github.com/shouni/go-manga-plan-kit/pkg/render"
	"github.com/shouni/go-manga-plan-kit/pkg/runner"
)

// PlanRunner は題材から構成案を生成し、成果物一式を保存するのだ。
type PlanRunner interface {
	Run(ctx context.Context, job runner.PlanJob) (*domain.Plan, publisher.PublishResult, error)
}

// CastRunner はキャスト設計だけを先行実行し、名簿 JSON を保存するのだ。
type CastRunner interface {
	Run(ctx context.Context, job runner.PlanJob) ([]domain.Character, string, error)
}

// ReviewRunner は保存済みの構成案にレビューと修復を再適用するのだ。
type ReviewRunner interface {
	Run(ctx context.Context, job runner.ReviewJob) (*domain.Plan, publisher.PublishResult, error)
}

// RenderRunner は構成案から画像生成マニフェストを組み立てて保存するのだ。
type RenderRunner interface {
	Run(ctx context.Context, job runner.RenderJob) (*render.RenderManifest, string, error)
}
