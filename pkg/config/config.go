package config

import (
	"time"
)

// デフォルト値の定義
const (
	DefaultLocationID   = "asia-northeast1"
	DefaultGeminiModel  = "gemini-3-flash-preview"
	DefaultQualityModel = "gemini-3-pro-preview"
	DefaultRateInterval = 10 * time.Second
	DefaultStyleSuffix  = "Japanese anime style, official art, cel-shaded, clean line art, high-quality manga coloring, expressive eyes, vibrant colors, cinematic lighting, masterpiece, ultra-detailed, flat shading, clear character features, no 3D effect, high resolution"
)

// Config は Go Manga Plan Kit の各 Runner を動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings (Common) ---
	GeminiModel  string // 高速・低コスト（下書き・ページ展開用）
	QualityModel string // 高品質・高知能（レビュー・修復用）

	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string

	// --- Vertex AI Settings ---
	ProjectID  string // Google Cloud Project ID
	LocationID string // 例: "us-central1"

	// --- Generation Settings ---
	StyleSuffix  string
	Language     string
	RateInterval time.Duration

	// --- Timeout & Retries ---
	MaxAttempts    int
	RequestTimeout time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		LocationID:   DefaultLocationID,
		GeminiModel:  DefaultGeminiModel,
		QualityModel: DefaultQualityModel,
		StyleSuffix:  DefaultStyleSuffix,
		RateInterval: DefaultRateInterval,
	}
}
