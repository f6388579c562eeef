package generator

import (
	"context"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/invoker"
)

// Invoker は、プロンプトを送って検証済みの構造化応答を受け取る契約です。
type Invoker interface {
	Invoke(ctx context.Context, req invoker.Request, out invoker.Validator) error
}

// CastGenerator は、物語の前提から主要キャストを設計する契約です。
type CastGenerator interface {
	Generate(ctx context.Context, req PlanRequest) ([]domain.Character, error)
}

// OutlineGenerator は、前提とキャストから章とページの骨組みを設計する契約です。
type OutlineGenerator interface {
	Generate(ctx context.Context, req PlanRequest, cast []domain.Character) (domain.Outline, error)
}

// PagesGenerator は、骨組みの全ページを並列で肉付けし、章の完成形を返す契約です。
type PagesGenerator interface {
	Generate(ctx context.Context, req PlanRequest, cast []domain.Character, outline domain.Outline) ([]domain.Chapter, error)
}

// PlanReviewer は、完成した章を検査し、可能な範囲で修復して返す契約です。
// レビュー自体の失敗で成果物を失わないため、エラーは返しません。
type PlanReviewer interface {
	Run(ctx context.Context, req PlanRequest, cast []domain.Character, chapters []domain.Chapter) []domain.Chapter
}
