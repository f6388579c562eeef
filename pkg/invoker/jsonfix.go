package invoker

import (
	"regexp"
	"strings"
)

var (
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

	// trailingCommaRegex は `,}` や `,]` のような末尾カンマに一致します。
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

	// inchMarkRegex は `6'2"` のような身長表記のインチ記号に一致します。
	// 文字列値の途中に現れた未エスケープの `"` がJSONを壊すため、
	// 直後が区切り文字でない場合のみエスケープ対象とします。
	inchMarkRegex = regexp.MustCompile(`(\d'\d*)"(\s*[^,}\]:\s])`)
)

// StripCodeFence はモデル応答を包むコードフェンスを取り除きます。
// フェンスがない場合は前後の空白だけを落として返します。
func StripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	matches := jsonBlockRegex.FindStringSubmatch(raw)
	if len(matches) > 1 {
		return matches[1]
	}
	return raw
}

// ExtractJSON は応答テキストからJSON本体を取り出します。
// コードフェンスを優先し、なければ最外周の括弧の範囲、それもなければ全体を返します。
func ExtractJSON(raw string) string {
	raw = StripCodeFence(raw)

	// Fallback 1: 最外周のオブジェクトまたは配列を探す。
	if body, ok := outermost(raw, '{', '}'); ok {
		return body
	}
	if body, ok := outermost(raw, '[', ']'); ok {
		return body
	}

	// Fallback 2: 応答全体をJSONとみなす。
	return raw
}

// RepairJSON はモデル出力に頻出する軽微なJSON欠陥を修復します。
// 末尾カンマの除去と、寸法表記のインチ記号のエスケープのみを行う
// 限定的な修復であり、構文の再構築は行いません。
func RepairJSON(s string) string {
	s = trailingCommaRegex.ReplaceAllString(s, "$1")
	s = inchMarkRegex.ReplaceAllString(s, `$1\"$2`)
	return s
}

func outermost(s string, open, close byte) (string, bool) {
	first := strings.IndexByte(s, open)
	last := strings.LastIndexByte(s, close)
	if first == -1 || last == -1 || last <= first {
		return "", false
	}
	return s[first : last+1], true
}
