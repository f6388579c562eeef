package workflow

import (
	"fmt"
	"time"

	"github.com/shouni/go-manga-plan-kit/pkg/config"
	"github.com/shouni/go-manga-plan-kit/pkg/generator"
	"github.com/shouni/go-manga-plan-kit/pkg/invoker"
	"github.com/shouni/go-manga-plan-kit/pkg/parser"
	"github.com/shouni/go-manga-plan-kit/pkg/prompts"
	"github.com/shouni/go-manga-plan-kit/pkg/publisher"
	"github.com/shouni/go-manga-plan-kit/pkg/runner"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-ai-client/v2/pkg/ai/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-text-format/pkg/builder"
	"github.com/shouni/go-web-exact/v2/pkg/extract"
)

const (
	defaultCacheExpiration = 5 * time.Minute
	cacheCleanupInterval   = 15 * time.Minute
)

// Builder はワークフローの各工程を担う Runner 群を構築・管理するのだ。
type Builder struct {
	cfg        config.Config
	httpClient httpkit.ClientInterface
	aiClient   gemini.GenerativeModel
	reader     remoteio.InputReader
	writer     remoteio.OutputWriter
	invoker    *invoker.Invoker
	prompts    prompts.PromptBuilder
}

// NewBuilder は Config と外部クライアント群を基に新しい Builder を作成するのだ。
func NewBuilder(cfg config.Config, httpClient httpkit.ClientInterface, aiClient gemini.GenerativeModel, reader remoteio.InputReader, writer remoteio.OutputWriter) (*Builder, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient は必須です")
	}
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient は必須です")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader は必須です")
	}
	if writer == nil {
		return nil, fmt.Errorf("writer は必須です")
	}

	// 1. テキストバックエンドの構築
	// 同一プロンプトの再送をキャッシュで吸収してから Invoker に渡すのだ。
	backend, err := NewGeminiBackend(aiClient)
	if err != nil {
		return nil, err
	}
	store := cache.New(defaultCacheExpiration, cacheCleanupInterval)
	cached, err := invoker.NewCachedBackend(backend, store)
	if err != nil {
		return nil, fmt.Errorf("キャッシュバックエンドの初期化に失敗しました: %w", err)
	}

	// 2. Invoker の構築
	models := invoker.Models{
		Standard: cfg.GeminiModel,
		Quality:  cfg.QualityModel,
	}
	inv, err := invoker.New(cached, models)
	if err != nil {
		return nil, fmt.Errorf("Invoker の初期化に失敗しました: %w", err)
	}

	// 3. プロンプトビルダーの構築
	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの作成に失敗しました: %w", err)
	}

	return &Builder{
		cfg:        cfg,
		httpClient: httpClient,
		aiClient:   aiClient,
		reader:     reader,
		writer:     writer,
		invoker:    inv,
		prompts:    pb,
	}, nil
}

// BuildPlanRunner は構成案の一括生成を担当する Runner を作成するのだ。
func (b *Builder) BuildPlanRunner() (PlanRunner, error) {
	extractor, err := extract.NewExtractor(b.httpClient)
	if err != nil {
		return nil, fmt.Errorf("エクストラクタの初期化に失敗しました: %w", err)
	}

	composer, err := b.buildComposer()
	if err != nil {
		return nil, err
	}

	pub, err := b.buildPublisher()
	if err != nil {
		return nil, err
	}

	return runner.NewMangaPlanRunner(b.cfg, composer, extractor, b.reader, pub), nil
}

// BuildCastRunner はキャスト設計の単独実行を担当する Runner を作成するのだ。
func (b *Builder) BuildCastRunner() (CastRunner, error) {
	extractor, err := extract.NewExtractor(b.httpClient)
	if err != nil {
		return nil, fmt.Errorf("エクストラクタの初期化に失敗しました: %w", err)
	}

	castStage, err := generator.NewCastStage(b.invoker, b.prompts, b.cfg.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("キャスト工程の初期化に失敗しました: %w", err)
	}

	return runner.NewMangaCastRunner(b.cfg, castStage, extractor, b.reader, b.writer), nil
}

// BuildReviewRunner は保存済み構成案のレビュー再実行を担当する Runner を作成するのだ。
func (b *Builder) BuildReviewRunner() (ReviewRunner, error) {
	review, err := generator.NewReviewRepairLoop(b.invoker, b.prompts, b.cfg.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("レビュー工程の初期化に失敗しました: %w", err)
	}

	pub, err := b.buildPublisher()
	if err != nil {
		return nil, err
	}

	return runner.NewMangaReviewRunner(b.cfg, parser.NewPlanParser(b.reader), review, pub), nil
}

// BuildRenderRunner は描画マニフェストの生成を担当する Runner を作成するのだ。
func (b *Builder) BuildRenderRunner() (RenderRunner, error) {
	return runner.NewMangaRenderRunner(b.cfg, parser.NewPlanParser(b.reader), b.reader, b.writer), nil
}

// buildComposer は4工程を組み上げた PlanComposer を返すのだ。
func (b *Builder) buildComposer() (*generator.PlanComposer, error) {
	castStage, err := generator.NewCastStage(b.invoker, b.prompts, b.cfg.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("キャスト工程の初期化に失敗しました: %w", err)
	}

	outlineStage, err := generator.NewOutlineStage(b.invoker, b.prompts, b.cfg.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("アウトライン工程の初期化に失敗しました: %w", err)
	}

	fanout, err := generator.NewPageFanoutEngine(b.invoker, b.prompts, b.cfg.RateInterval, b.cfg.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("ページ展開工程の初期化に失敗しました: %w", err)
	}

	review, err := generator.NewReviewRepairLoop(b.invoker, b.prompts, b.cfg.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("レビュー工程の初期化に失敗しました: %w", err)
	}

	composer, err := generator.NewPlanComposer(castStage, outlineStage, fanout, review)
	if err != nil {
		return nil, fmt.Errorf("コンポーザの初期化に失敗しました: %w", err)
	}
	return composer, nil
}

// buildPublisher は webtoon プレビュー変換込みのパブリッシャーを返すのだ。
func (b *Builder) buildPublisher() (*publisher.PlanPublisher, error) {
	htmlCfg := builder.BuilderConfig{
		EnableHardWraps: true,
		Mode:            "webtoon",
	}
	md2htmlBuilder, err := builder.NewBuilder(htmlCfg)
	if err != nil {
		return nil, fmt.Errorf("md2htmlBuilderの初期化に失敗しました: %w", err)
	}
	md2htmlRunner, err := md2htmlBuilder.BuildRunner()
	if err != nil {
		return nil, fmt.Errorf("md2htmlrunnerの初期化に失敗しました: %w", err)
	}

	return publisher.NewPlanPublisher(b.writer, md2htmlRunner)
}
