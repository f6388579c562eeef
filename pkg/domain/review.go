package domain

// レビューで検出される問題の分類です。固定の語彙であり、モデル出力は
// この集合に正規化されます。
const (
	IssueRepetition       = "repetition"
	IssueLanguage         = "language-consistency"
	IssueContinuity       = "continuity"
	IssueInvalidCharacter = "invalid-character"
	IssueSceneMismatch    = "scene-mismatch"
	IssueOther            = "other"
)

var issueCategories = map[string]struct{}{
	IssueRepetition:       {},
	IssueLanguage:         {},
	IssueContinuity:       {},
	IssueInvalidCharacter: {},
	IssueSceneMismatch:    {},
	IssueOther:            {},
}

// ReviewIssue はレビューステージが検出した1件の問題です。
// レビュー・修復ループの内部でのみ生成・消費され、成果物には残りません。
type ReviewIssue struct {
	PanelID     string
	Category    string
	Description string
	Fix         string
}

// NormalizeIssueCategory は分類語彙を検証し、未知の値を IssueOther に丸めます。
func NormalizeIssueCategory(category string) string {
	if _, ok := issueCategories[category]; ok {
		return category
	}
	return IssueOther
}
