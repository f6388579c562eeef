package workflow

import (
	"context"
	"fmt"

	"github.com/shouni/go-manga-plan-kit/pkg/invoker"

	"github.com/shouni/go-ai-client/v2/pkg/ai/gemini"
	"google.golang.org/genai"
)

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	const defaultGeminiTemperature = float32(0.2)
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// geminiBackend は gemini.GenerativeModel を invoker.TextBackend へ適合させる薄い層です。
// モデル名は呼び出しごとに Invoker 側の Tier 解決で決まります。
type geminiBackend struct {
	client gemini.GenerativeModel
}

// NewGeminiBackend はテキスト生成バックエンドを作成します。
func NewGeminiBackend(client gemini.GenerativeModel) (invoker.TextBackend, error) {
	if client == nil {
		return nil, fmt.Errorf("aiClient は必須です")
	}
	return &geminiBackend{client: client}, nil
}

// GenerateText はプロンプトを送信し、応答の生テキストを返します。
func (gb *geminiBackend) GenerateText(ctx context.Context, prompt, model string) (string, error) {
	resp, err := gb.client.GenerateContent(ctx, prompt, model)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
