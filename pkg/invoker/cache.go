package invoker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// CachedBackend は TextBackend をラップし、同一プロンプトの応答をキャッシュします。
// レビュー再実行や同一ページの再生成で、まったく同じ呼び出しを繰り返さないためのものです。
type CachedBackend struct {
	backend TextBackend
	store   *cache.Cache
	group   singleflight.Group
}

// NewCachedBackend は CachedBackend を初期化します。store は必須です。
func NewCachedBackend(backend TextBackend, store *cache.Cache) (*CachedBackend, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend は必須です")
	}
	if store == nil {
		return nil, fmt.Errorf("キャッシュストアは必須です")
	}
	return &CachedBackend{backend: backend, store: store}, nil
}

// GenerateText はキャッシュを確認し、未取得の場合のみ下位のバックエンドを呼び出します。
// 同一キーへの同時呼び出しは singleflight により1回に集約されます。
func (cb *CachedBackend) GenerateText(ctx context.Context, prompt, model string) (string, error) {
	key := cacheKey(prompt, model)

	if cached, ok := cb.store.Get(key); ok {
		if text, ok := cached.(string); ok {
			return text, nil
		}
	}

	val, err, _ := cb.group.Do(key, func() (interface{}, error) {
		// singleflight で待機中に他のゴルーチンが取得を完了させている可能性があるため、再度キャッシュを確認
		if cached, ok := cb.store.Get(key); ok {
			if text, ok := cached.(string); ok {
				return text, nil
			}
		}

		text, genErr := cb.backend.GenerateText(ctx, prompt, model)
		if genErr != nil {
			return nil, genErr
		}

		cb.store.Set(key, text, cache.DefaultExpiration)
		return text, nil
	})

	if err != nil {
		return "", err
	}

	text, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return text, nil
}

// cacheKey はモデル名とプロンプトからキャッシュキーを導出します。
func cacheKey(prompt, model string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
