package config

import (
	"time"

	pkgconfig "github.com/shouni/go-manga-plan-kit/pkg/config"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel        = "gemini-3-flash-preview"
	DefaultQualityModel = "gemini-3-pro-preview"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultOutputDir    = "output"           // パブリッシャーで使用するデフォルト保存先なのだ
	DefaultPlanFile     = "output/plan.json" // レビュー・描画計画が読み込むデフォルト入力なのだ
)

// Config はアプリケーション全体の環境設定（APIキーやクラウド設定）を保持する構造体なのだ。
type Config struct {
	ProjectID    string
	LocationID   string
	GeminiAPIKey string
	GeminiModel  string
	QualityModel string
	StyleSuffix  string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		ProjectID:    envutil.GetEnv("PROJECT_ID", ""),
		LocationID:   envutil.GetEnv("REGION", ""),
		GeminiAPIKey: envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:  envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		QualityModel: envutil.GetEnv("QUALITY_GEMINI_MODEL", DefaultQualityModel),
		StyleSuffix:  envutil.GetEnv("STYLE_SUFFIX", pkgconfig.DefaultStyleSuffix),
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	Prompt     string // --prompt: 題材のインライン指定
	PromptFile string // --prompt-file
	PromptURL  string // --prompt-url
	PlanFile   string // --plan-file: レビュー・描画計画の入力
	RefsFile   string // --refs-file: キャラクター参照画像の対応表

	// 出力関連
	OutputDir string // --output-dir

	// 物語設定
	Pages    int    // --pages
	Language string // --language
	Style    string // --style
	Setting  string // --setting

	// AI挙動設定
	AIModel      string // --model: 下書き側の Gemini モデル
	QualityModel string // --quality-model: レビュー側の Gemini モデル

	// 実行制御
	HTTPTimeout  time.Duration // --http-timeout
	RateInterval time.Duration // --rate-interval
	MaxAttempts  int           // --max-attempts
}
