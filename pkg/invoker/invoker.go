package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"
)

const (
	// DefaultMaxAttempts は1回の呼び出しあたりの既定の試行回数です。
	DefaultMaxAttempts = 2
	// DefaultRetryUnit は線形バックオフの基本待機時間です。
	// n回目の失敗後の待機は n × RetryUnit になります。
	DefaultRetryUnit = 500 * time.Millisecond
)

// Tier は呼び出しごとのモデル選択を表す明示的なタグです。
// クライアントの同一性比較ではなく、この列挙で高速系と高品質系を切り替えます。
type Tier int

const (
	// TierStandard は高速・低コストのモデルを指します。
	TierStandard Tier = iota
	// TierQuality は高品質・高知能のモデルを指します。
	TierQuality
)

// String は Tier のログ表示用の名前を返します。
func (t Tier) String() string {
	switch t {
	case TierQuality:
		return "quality"
	default:
		return "standard"
	}
}

// TextBackend は生成テキストモデルとの境界です。
// プロンプトを送り、JSONを含むことが期待される生テキストを受け取るだけの契約です。
type TextBackend interface {
	GenerateText(ctx context.Context, prompt, model string) (string, error)
}

// Validator はモデル応答のデコード先が満たすべき契約です。
// デコード後に Validate が呼ばれ、スキーマ違反は試行失敗として扱われます。
type Validator interface {
	Validate() error
}

// Request は1回のモデル呼び出しのパラメータです。
type Request struct {
	Prompt      string
	Label       string // ログとエラーメッセージに使う呼び出しの識別名
	Tier        Tier
	MaxAttempts int // 0以下なら DefaultMaxAttempts
}

// Models は Tier ごとの実モデル名の対応です。
type Models struct {
	Standard string
	Quality  string
}

// ForTier は Tier に対応するモデル名を返します。
func (m Models) ForTier(t Tier) string {
	if t == TierQuality && m.Quality != "" {
		return m.Quality
	}
	return m.Standard
}

// Invoker は生成モデルへの1回の呼び出しをラップし、
// JSON抽出・修復・スキーマ検証・リトライ・進捗ログまでを担当します。
type Invoker struct {
	backend   TextBackend
	models    Models
	retryUnit time.Duration
	requestID atomic.Int64
}

// Option は Invoker の挙動を調整します。
type Option func(*Invoker)

// WithRetryUnit は線形バックオフの基本待機時間を変更します。0で待機なしになります。
func WithRetryUnit(d time.Duration) Option {
	return func(inv *Invoker) {
		inv.retryUnit = d
	}
}

// New は Invoker を初期化します。backend は必須です。
func New(backend TextBackend, models Models, opts ...Option) (*Invoker, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend は必須です")
	}
	if models.Standard == "" {
		return nil, fmt.Errorf("標準モデル名は必須です")
	}

	inv := &Invoker{
		backend:   backend,
		models:    models,
		retryUnit: DefaultRetryUnit,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv, nil
}

// Invoke はプロンプトを送信し、応答JSONを out にデコードして検証します。
// 失敗は MaxAttempts 回まで再試行され、n回目の失敗後は n×retryUnit 待機します。
// 最後の試行まで失敗した場合のみエラーを返し、この層で空の結果に落とすことはしません。
func (inv *Invoker) Invoke(ctx context.Context, req Request, out Validator) error {
	if out == nil {
		return fmt.Errorf("デコード先 out は必須です")
	}

	attempts := req.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	model := inv.models.ForTier(req.Tier)
	logger := slog.With(
		"req_id", inv.requestID.Add(1),
		"label", req.Label,
		"tier", req.Tier.String(),
		"model", model,
	)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		raw, err := inv.backend.GenerateText(ctx, req.Prompt, model)
		if err == nil {
			err = parseInto(raw, out)
		}

		elapsed := time.Since(start).Round(time.Millisecond)
		if err == nil {
			logger.Info("モデル呼び出しが完了しました",
				"attempt", attempt, "elapsed", elapsed, "bytes", len(raw))
			return nil
		}

		lastErr = err
		logger.Warn("モデル呼び出しに失敗しました",
			"attempt", attempt, "max_attempts", attempts, "elapsed", elapsed, "error", err)

		if attempt < attempts {
			if werr := sleepFor(ctx, time.Duration(attempt)*inv.retryUnit); werr != nil {
				return werr
			}
		}
	}

	return fmt.Errorf("%s: %d回の試行がすべて失敗しました: %w", req.Label, attempts, lastErr)
}

// parseInto は応答テキストをデコードして検証します。
// まず厳格にパースし、失敗した場合のみ修復を挟んだ寛容パースを試みます。
func parseInto(raw string, out Validator) error {
	stripped := StripCodeFence(raw)

	resetTarget(out)
	if err := json.Unmarshal([]byte(stripped), out); err != nil {
		lenient := RepairJSON(ExtractJSON(stripped))
		resetTarget(out)
		if err2 := json.Unmarshal([]byte(lenient), out); err2 != nil {
			return fmt.Errorf("応答JSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err2)
		}
	}

	if err := out.Validate(); err != nil {
		return fmt.Errorf("応答のスキーマ検証に失敗しました: %w", err)
	}
	return nil
}

// resetTarget は前回試行の部分的なデコード結果を持ち越さないよう、
// ポインタの指す先をゼロ値に戻します。
func resetTarget(out Validator) {
	v := reflect.ValueOf(out)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().Set(reflect.Zero(v.Elem().Type()))
	}
}

// sleepFor はコンテキストのキャンセルを尊重しつつ待機します。
func sleepFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
