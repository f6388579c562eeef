package domain

const (
	// MaxPanelsPerPage は1ページに含めるパネルの最大数です。
	MaxPanelsPerPage = 5
	// PanelAspectRatio は単体パネル（1コマ）の推奨アスペクト比です。
	PanelAspectRatio = "16:9"
	// PageAspectRatio はページ全体の推奨アスペクト比です。
	PageAspectRatio = "3:4"

	// DefaultLayoutID はレイアウト指定が不正・未知の場合に使うテンプレートです。
	DefaultLayoutID = "standard-3"
)

// LayoutTemplate はページのコマ割りテンプレートを定義します。
// PanelCount がそのページで生成されるパネル呼び出しの数を決定します。
type LayoutTemplate struct {
	ID          string
	PanelCount  int
	PanelAspect string // 各コマのアスペクト比
	PageAspect  string // ページ全体のアスペクト比
}

// layoutCatalog は固定のテンプレート一覧です。
// パネル数は MaxPanelsPerPage を超えません。
var layoutCatalog = []LayoutTemplate{
	{ID: "splash", PanelCount: 1, PanelAspect: PageAspectRatio, PageAspect: PageAspectRatio},
	{ID: "vertical-duet", PanelCount: 2, PanelAspect: PanelAspectRatio, PageAspect: PageAspectRatio},
	{ID: "standard-3", PanelCount: 3, PanelAspect: PanelAspectRatio, PageAspect: PageAspectRatio},
	{ID: "grid-4", PanelCount: 4, PanelAspect: PanelAspectRatio, PageAspect: PageAspectRatio},
	{ID: "action-5", PanelCount: 5, PanelAspect: PanelAspectRatio, PageAspect: PageAspectRatio},
}

// LayoutByID はテンプレートIDからレイアウト定義を返します。
// 未知のIDの場合はデフォルトテンプレートと false を返します。
func LayoutByID(id string) (LayoutTemplate, bool) {
	for _, lt := range layoutCatalog {
		if lt.ID == id {
			return lt, true
		}
	}
	return DefaultLayout(), false
}

// DefaultLayout はフォールバック用の標準テンプレートを返します。
func DefaultLayout() LayoutTemplate {
	lt, _ := LayoutByID(DefaultLayoutID)
	return lt
}

// LayoutIDs は定義済みテンプレートIDの一覧を宣言順で返します。
// プロンプトへ選択肢として埋め込む用途を想定しています。
func LayoutIDs() []string {
	ids := make([]string, 0, len(layoutCatalog))
	for _, lt := range layoutCatalog {
		ids = append(ids, lt.ID)
	}
	return ids
}
