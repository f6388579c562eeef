package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-plan-kit/pkg/asset"
	"github.com/shouni/go-manga-plan-kit/pkg/config"
	"github.com/shouni/go-manga-plan-kit/pkg/parser"
	"github.com/shouni/go-manga-plan-kit/pkg/render"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// RenderJob は描画計画の生成パラメータです。
// RefsFile にはキャラクターIDと参照画像URLの対応表（JSONオブジェクト）を指定できます。
type RenderJob struct {
	PlanFile  string // 読み込む plan.json のパス（ローカル or gs://...）
	RefsFile  string // 参照画像の対応表 JSON のパス（省略可）
	OutputDir string
}

// MangaRenderRunner は構成案から画像生成マニフェストを組み立てて保存します。
// マニフェストはページとパネルの全リクエストを静的に列挙したもので、
// 画像生成そのものは後続のレンダラーに委ねます。
type MangaRenderRunner struct {
	cfg    config.Config
	parser parser.Parser
	reader remoteio.InputReader
	writer remoteio.OutputWriter
}

// NewMangaRenderRunner は依存関係を注入して初期化します。
func NewMangaRenderRunner(
	cfg config.Config,
	p parser.Parser,
	r remoteio.InputReader,
	w remoteio.OutputWriter,
) *MangaRenderRunner {
	return &MangaRenderRunner{
		cfg:    cfg,
		parser: p,
		reader: r,
		writer: w,
	}
}

// Run は構成案を読み込み、描画マニフェストを outputDir に書き出します。
func (rr *MangaRenderRunner) Run(ctx context.Context, job RenderJob) (*render.RenderManifest, string, error) {
	// 1. 保存済み構成案の読み込み
	plan, err := rr.parser.ParseFromPath(ctx, job.PlanFile)
	if err != nil {
		return nil, "", err
	}

	// 2. 参照画像の対応表（任意）
	refURLs, err := rr.loadReferenceURLs(ctx, job.RefsFile)
	if err != nil {
		return nil, "", err
	}

	// 3. マニフェストの組み立て
	slog.Info("RenderRunner: 描画マニフェストを組み立てます",
		"plan_id", plan.ID,
		"references", len(refURLs))
	manifest := render.BuildManifest(*plan, rr.cfg.StyleSuffix, refURLs)

	// 4. 保存
	manifestPath, err := asset.ResolveOutputPath(job.OutputDir, asset.DefaultManifestJSON)
	if err != nil {
		return nil, "", fmt.Errorf("保存パスの解決に失敗しました: %w", err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("マニフェストの直列化に失敗しました: %w", err)
	}
	if err := rr.writer.Write(ctx, manifestPath, bytes.NewReader(data), "application/json; charset=utf-8"); err != nil {
		return nil, "", fmt.Errorf("マニフェストの書き込みに失敗しました (%s): %w", manifestPath, err)
	}

	slog.Info("RenderRunner: 描画マニフェストを書き出しました",
		"path", manifestPath,
		"pages", len(manifest.Pages))
	return &manifest, manifestPath, nil
}

// loadReferenceURLs は参照画像の対応表を読み込みます。パス未指定なら空を返します。
func (rr *MangaRenderRunner) loadReferenceURLs(ctx context.Context, refsFile string) (map[string]string, error) {
	if refsFile == "" {
		return nil, nil
	}

	rc, err := rr.reader.Open(ctx, refsFile)
	if err != nil {
		return nil, fmt.Errorf("参照画像対応表のオープンに失敗しました (%s): %w", refsFile, err)
	}
	defer rc.Close()

	refURLs := make(map[string]string)
	if err := json.NewDecoder(rc).Decode(&refURLs); err != nil {
		return nil, fmt.Errorf("参照画像対応表のパースに失敗しました: %w", err)
	}
	return refURLs, nil
}
