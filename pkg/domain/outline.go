package domain

// Outline はアウトライン生成ステージの成果物です。
// ファンアウトステージへの読み取り専用の入力であり、以降は変更されません。
type Outline struct {
	Title    string
	Chapters []OutlineChapter
}

// OutlineChapter は章単位のページ計画を保持します。Index は 1 始まりです。
type OutlineChapter struct {
	Index int
	Title string
	Pages []PagePlan
}

// PagePlan は1ページ分の構成計画です。
// Entities にはページに登場するエンティティ参照（ロスターの正規ID、
// もしくはページスコープの匿名ID）が入ります。
type PagePlan struct {
	Layout   string
	Summary  string
	Scene    string
	Entities []string
}

// TotalPages はアウトライン全体のページ数を返します。
func (o Outline) TotalPages() int {
	total := 0
	for _, ch := range o.Chapters {
		total += len(ch.Pages)
	}
	return total
}
