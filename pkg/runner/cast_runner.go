package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/pkg/asset"
	"github.com/shouni/go-manga-plan-kit/pkg/config"
	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/generator"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-web-exact/v2/pkg/extract"
)

// MangaCastRunner はキャスト設計だけを単独で実行し、名簿 JSON を保存します。
// 構成案の全体生成に入る前に、登場人物の当たりを確かめる用途です。
type MangaCastRunner struct {
	cfg       config.Config
	cast      generator.CastGenerator
	extractor *extract.Extractor
	reader    remoteio.InputReader
	writer    remoteio.OutputWriter
}

// NewMangaCastRunner は依存関係を注入して初期化します。
func NewMangaCastRunner(
	cfg config.Config,
	cast generator.CastGenerator,
	ext *extract.Extractor,
	r remoteio.InputReader,
	w remoteio.OutputWriter,
) *MangaCastRunner {
	return &MangaCastRunner{
		cfg:       cfg,
		cast:      cast,
		extractor: ext,
		reader:    r,
		writer:    w,
	}
}

// Run は題材からキャストを設計し、名簿を outputDir/cast.json に書き出します。
// 戻り値は設計されたキャストと保存先パスです。
func (cr *MangaCastRunner) Run(ctx context.Context, job PlanJob) ([]domain.Character, string, error) {
	// 1. 題材テキストの解決
	prompt, err := resolveSourceText(ctx, cr.reader, cr.extractor, job)
	if err != nil {
		return nil, "", err
	}

	// 2. キャスト設計
	req := generator.PlanRequest{
		Prompt:   prompt,
		Pages:    job.Pages,
		Language: firstNonEmpty(job.Language, cr.cfg.Language),
		Style:    job.Style,
		Setting:  job.Setting,
	}
	slog.Info("CastRunner: キャスト設計を開始します", "model", cr.cfg.GeminiModel)
	members, err := cr.cast.Generate(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("キャスト設計に失敗しました: %w", err)
	}

	// 3. 名簿の保存
	castPath, err := asset.ResolveOutputPath(job.OutputDir, asset.DefaultCastJSON)
	if err != nil {
		return nil, "", fmt.Errorf("保存パスの解決に失敗しました: %w", err)
	}

	data, err := json.MarshalIndent(members, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("名簿の直列化に失敗しました: %w", err)
	}
	if err := cr.writer.Write(ctx, castPath, bytes.NewReader(data), "application/json; charset=utf-8"); err != nil {
		return nil, "", fmt.Errorf("名簿の書き込みに失敗しました (%s): %w", castPath, err)
	}

	slog.Info("CastRunner: 名簿を書き出しました", "path", castPath, "members", len(members))
	return members, castPath, nil
}
