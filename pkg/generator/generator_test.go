package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-manga-plan-kit/pkg/domain"
	"github.com/shouni/go-manga-plan-kit/pkg/invoker"
	"github.com/shouni/go-manga-plan-kit/pkg/prompts"
)

// fakeInvoker はラベルに応じて台本どおりのJSONを返すテスト用の Invoker です。
// 完全一致のラベルを優先し、なければラベルの先頭語で引きます。
// seq に積んだ応答は呼び出しごとに順番に消費されます。
type fakeInvoker struct {
	mu      sync.Mutex
	calls   map[string]int
	scripts map[string]string
	seq     map[string][]string
	errs    map[string]error
	jitter  bool
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{
		calls:   make(map[string]int),
		scripts: make(map[string]string),
		seq:     make(map[string][]string),
		errs:    make(map[string]error),
	}
}

func labelPrefix(label string) string {
	if fields := strings.Fields(label); len(fields) > 0 {
		return fields[0]
	}
	return label
}

func (f *fakeInvoker) Invoke(_ context.Context, req invoker.Request, out invoker.Validator) error {
	prefix := labelPrefix(req.Label)

	f.mu.Lock()
	f.calls[prefix]++

	var script string
	var scripted bool
	if queue, ok := f.seq[prefix]; ok && len(queue) > 0 {
		script, scripted = queue[0], true
		f.seq[prefix] = queue[1:]
	} else if s, ok := f.scripts[req.Label]; ok {
		script, scripted = s, true
	} else if s, ok := f.scripts[prefix]; ok {
		script, scripted = s, true
	}

	err, ok := f.errs[req.Label]
	if !ok {
		err = f.errs[prefix]
	}
	f.mu.Unlock()

	if f.jitter {
		time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
	}

	if err != nil {
		return err
	}
	if !scripted {
		return fmt.Errorf("台本にないラベルなのだ: %s", req.Label)
	}
	if uerr := json.Unmarshal([]byte(script), out); uerr != nil {
		return uerr
	}
	return out.Validate()
}

func (f *fakeInvoker) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[prefix]
}

const castScript = `{"characters": [
  {"name": "ハナ", "age": "17", "body_type": "small and quick", "face": "round, freckles", "expression": "bright", "clothing": "yellow raincoat", "role": "protagonist"},
  {"name": "灯台守ジジ", "age": "68", "body_type": "stocky", "face": "weathered", "expression": "stern", "clothing": "wool coat", "role": "mentor"}
]}`

const lighthouseOutlineScript = `{"title": "灯台の夜", "chapters": [
  {"title": "嵐の前", "pages": [
    {"layout": "standard-3", "summary": "ハナが灯台に駆け込む", "scene": "嵐の夕暮れの灯台入口", "entities": ["char-1", "char-2"]},
    {"layout": "vertical-duet", "summary": "二人が灯りを守る", "scene": "灯室の内部", "entities": ["char-1", "char-2", "seagull-1"]},
    {"layout": "splash", "summary": "夜明けの海", "scene": "朝焼けの海と灯台", "entities": ["char-1"]}
  ]}
]}`

const panelScript = `{
  "characters": [{"id": "char-1", "expression": "determined", "pose": "running", "gesture": "clenched fist", "gaze": "upward"}],
  "action": "ハナが螺旋階段を駆け上がる",
  "mood": "tense",
  "camera": {"shot": "medium", "angle": "low", "focus": "char-1"},
  "dialogue": [{"character_id": "char-1", "text": "消えないで！"}, {"character_id": "", "text": "風が窓を叩く。"}],
  "narrative": "嵐の夜だった。",
  "sfx": ["ゴォォ"],
  "prompt": "girl in yellow raincoat running up spiral lighthouse stairs, storm at dusk",
  "negative_prompt": "blurry, low quality"
}`

const cleanReviewScript = `{"issues": []}`

func thinkingScript(count int) string {
	beats := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		beats = append(beats, fmt.Sprintf(`{"purpose": "ビート%d", "shot": "medium", "angle": "eye-level", "entities": ["char-1"]}`, i))
	}
	return `{"arc": "静けさから決意へ", "panels": [` + strings.Join(beats, ",") + `]}`
}

func newTestComposer(t *testing.T, f *fakeInvoker) *PlanComposer {
	t.Helper()
	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗したのだ: %v", err)
	}

	castStage, err := NewCastStage(f, pb, 1)
	if err != nil {
		t.Fatalf("キャスト工程の初期化に失敗したのだ: %v", err)
	}
	outlineStage, err := NewOutlineStage(f, pb, 1)
	if err != nil {
		t.Fatalf("骨組み工程の初期化に失敗したのだ: %v", err)
	}
	fanout, err := NewPageFanoutEngine(f, pb, 0, 1)
	if err != nil {
		t.Fatalf("ページ工程の初期化に失敗したのだ: %v", err)
	}
	review, err := NewReviewRepairLoop(f, pb, 1)
	if err != nil {
		t.Fatalf("レビュー工程の初期化に失敗したのだ: %v", err)
	}

	composer, err := NewPlanComposer(castStage, outlineStage, fanout, review)
	if err != nil {
		t.Fatalf("コンポーザーの初期化に失敗したのだ: %v", err)
	}
	return composer
}

func TestPlanComposer_ComposePlan_Lighthouse(t *testing.T) {
	f := newFakeInvoker()
	f.scripts["cast"] = castScript
	f.scripts["outline"] = lighthouseOutlineScript
	f.scripts["thinking page-1"] = thinkingScript(3)
	f.scripts["thinking page-2"] = thinkingScript(2)
	f.scripts["thinking page-3"] = thinkingScript(1)
	f.scripts["panel"] = panelScript
	f.scripts["review"] = cleanReviewScript

	composer := newTestComposer(t, f)
	plan, err := composer.ComposePlan(context.Background(), PlanRequest{
		Prompt: "嵐の夜、少女が灯台の灯りを守る",
		Pages:  3,
	})
	if err != nil {
		t.Fatalf("生成に失敗したのだ: %v", err)
	}

	t.Run("計画の骨格が要求どおりなのだ", func(t *testing.T) {
		if plan.ID == "" {
			t.Error("計画IDが空なのだ")
		}
		if plan.Title != "灯台の夜" {
			t.Errorf("タイトルが違うのだ: %q", plan.Title)
		}
		if plan.CreatedAt.IsZero() {
			t.Error("作成日時が入っていないのだ")
		}
		if len(plan.Characters) != 2 {
			t.Fatalf("キャストは2人のはずなのだ: %d", len(plan.Characters))
		}
		if plan.Characters[0].ID != "char-1" || plan.Characters[1].ID != "char-2" {
			t.Errorf("キャストIDが連番になっていないのだ: %s, %s", plan.Characters[0].ID, plan.Characters[1].ID)
		}
		if plan.Characters[0].Seed <= 0 || plan.Characters[1].Seed <= 0 {
			t.Error("シード値が割り当てられていないのだ")
		}
	})

	t.Run("3ページが1章に連番で収まるのだ", func(t *testing.T) {
		if len(plan.Chapters) != 1 {
			t.Fatalf("章数が違うのだ。期待: 1, 実際: %d", len(plan.Chapters))
		}
		pages := plan.Chapters[0].Pages
		if len(pages) != 3 {
			t.Fatalf("ページ数が違うのだ。期待: 3, 実際: %d", len(pages))
		}
		for i, page := range pages {
			if page.Number != i+1 {
				t.Errorf("ページ番号が違うのだ。期待: %d, 実際: %d", i+1, page.Number)
			}
		}
	})

	t.Run("パネル数がレイアウトと一致するのだ", func(t *testing.T) {
		pages := plan.Chapters[0].Pages
		wantCounts := []int{3, 2, 1}
		wantLayouts := []string{"standard-3", "vertical-duet", "splash"}
		for i, page := range pages {
			if page.Layout != wantLayouts[i] {
				t.Errorf("ページ%dのレイアウトが違うのだ: %q", page.Number, page.Layout)
			}
			if len(page.Panels) != wantCounts[i] {
				t.Errorf("ページ%dのパネル数が違うのだ。期待: %d, 実際: %d", page.Number, wantCounts[i], len(page.Panels))
			}
			for j, panel := range page.Panels {
				wantID := fmt.Sprintf("panel-%d-%d", page.Number, j+1)
				if panel.ID != wantID {
					t.Errorf("パネルIDが違うのだ。期待: %s, 実際: %s", wantID, panel.ID)
				}
				if panel.Position != j+1 {
					t.Errorf("パネル位置が違うのだ。期待: %d, 実際: %d", j+1, panel.Position)
				}
			}
		}
	})

	t.Run("スプラッシュページはページ比率を使うのだ", func(t *testing.T) {
		splash := plan.Chapters[0].Pages[2].Panels[0]
		if splash.AspectRatio != domain.PageAspectRatio {
			t.Errorf("アスペクト比が違うのだ: %q", splash.AspectRatio)
		}
		normal := plan.Chapters[0].Pages[0].Panels[0]
		if normal.AspectRatio != domain.PanelAspectRatio {
			t.Errorf("通常パネルのアスペクト比が違うのだ: %q", normal.AspectRatio)
		}
	})

	t.Run("シードと配置が決定されているのだ", func(t *testing.T) {
		panel := plan.Chapters[0].Pages[0].Panels[0]
		seed, ok := panel.Seeds["char-1"]
		if !ok || seed != plan.Characters[0].Seed {
			t.Errorf("主人公のシードが名簿と一致しないのだ: %v", panel.Seeds)
		}
		if len(panel.Dialogue) != 2 {
			t.Fatalf("セリフ数が違うのだ: %d", len(panel.Dialogue))
		}
		if panel.Dialogue[0].Placement == "" || panel.Dialogue[1].Placement == "" {
			t.Error("セリフの配置が未割り当てなのだ")
		}
		if panel.Narrative != "" && panel.NarrativePlacement == "" {
			t.Error("キャプションの配置が未割り当てなのだ")
		}
	})

	t.Run("パネル数が閾値以上なのでレビューが1回走るのだ", func(t *testing.T) {
		if got := f.callCount("review"); got != 1 {
			t.Errorf("レビュー回数が違うのだ。期待: 1, 実際: %d", got)
		}
	})
}

func TestPageFanoutEngine_OrderingUnderJitter(t *testing.T) {
	f := newFakeInvoker()
	f.jitter = true
	f.scripts["thinking"] = thinkingScript(3)
	f.scripts["panel"] = panelScript

	var sb strings.Builder
	sb.WriteString(`{"title": "長い夜", "chapters": [`)
	for ch := 1; ch <= 2; ch++ {
		if ch > 1 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"title": "第%d章", "pages": [`, ch)
		for p := 1; p <= 5; p++ {
			if p > 1 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, `{"layout": "standard-3", "summary": "場面%d-%d", "scene": "場面%d-%d", "entities": ["char-1"]}`, ch, p, ch, p)
		}
		sb.WriteString("]}")
	}
	sb.WriteString("]}")

	var outline outlineDraft
	if err := json.Unmarshal([]byte(sb.String()), &outline); err != nil {
		t.Fatalf("テスト用骨組みの解析に失敗したのだ: %v", err)
	}

	domainOutline := domain.Outline{Title: outline.Title}
	for ci, ch := range outline.Chapters {
		chapter := domain.OutlineChapter{Index: ci + 1, Title: ch.Title}
		for _, page := range ch.Pages {
			chapter.Pages = append(chapter.Pages, domain.PagePlan{
				Layout: page.Layout, Summary: page.Summary, Scene: page.Scene, Entities: page.Entities,
			})
		}
		domainOutline.Chapters = append(domainOutline.Chapters, chapter)
	}

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗したのだ: %v", err)
	}
	fanout, err := NewPageFanoutEngine(f, pb, 0, 1)
	if err != nil {
		t.Fatalf("初期化に失敗したのだ: %v", err)
	}

	cast := []domain.Character{
		{ID: "char-1", Name: "ハナ", Seed: 100},
		{ID: "char-2", Name: "ジジ", Seed: 200},
	}
	req := PlanRequest{Prompt: "p", Pages: 10, Language: "日本語"}

	chapters, err := fanout.Generate(context.Background(), req, cast, domainOutline)
	if err != nil {
		t.Fatalf("生成に失敗したのだ: %v", err)
	}

	t.Run("完成順に関係なくページ番号が昇順に並ぶのだ", func(t *testing.T) {
		if len(chapters) != 2 {
			t.Fatalf("章数が違うのだ: %d", len(chapters))
		}
		next := 1
		for _, ch := range chapters {
			for _, page := range ch.Pages {
				if page.Number != next {
					t.Errorf("ページ番号が乱れているのだ。期待: %d, 実際: %d", next, page.Number)
				}
				next++
			}
		}
		if next != 11 {
			t.Errorf("総ページ数が違うのだ: %d", next-1)
		}
	})

	t.Run("各ページのパネルが位置の昇順に並ぶのだ", func(t *testing.T) {
		for _, ch := range chapters {
			for _, page := range ch.Pages {
				for j, panel := range page.Panels {
					if panel.Position != j+1 {
						t.Errorf("ページ%dのパネル順が乱れているのだ: %+v", page.Number, panel.Position)
					}
				}
			}
		}
	})
}

func TestPageFanoutEngine_ReferenceSafety(t *testing.T) {
	f := newFakeInvoker()
	f.scripts["thinking"] = thinkingScript(3)
	f.scripts["review"] = cleanReviewScript
	// モデルが名簿にない char-9 と未宣言の ghost-5 を幻覚した場合を再現する
	f.scripts["panel"] = `{
	  "characters": [
	    {"id": "char-1", "expression": "calm"},
	    {"id": "char-9", "expression": "smirk"},
	    {"id": "ghost-5", "expression": "hollow"}
	  ],
	  "action": "ハナが振り返る",
	  "camera": {"shot": "close-up", "angle": "eye-level", "focus": "char-1"},
	  "dialogue": [
	    {"character_id": "char-1", "text": "誰？"},
	    {"character_id": "char-99", "text": "……"}
	  ],
	  "prompt": "girl turning around in dark lighthouse"
	}`

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗したのだ: %v", err)
	}
	fanout, err := NewPageFanoutEngine(f, pb, 0, 1)
	if err != nil {
		t.Fatalf("初期化に失敗したのだ: %v", err)
	}

	cast := []domain.Character{
		{ID: "char-1", Name: "ハナ", Seed: 100},
		{ID: "char-2", Name: "ジジ", Seed: 200},
	}
	outline := domain.Outline{
		Title: "検疫テスト",
		Chapters: []domain.OutlineChapter{
			{Index: 1, Title: "第1章", Pages: []domain.PagePlan{
				{Layout: "standard-3", Summary: "s", Scene: "s", Entities: []string{"char-1"}},
			}},
		},
	}

	chapters, err := fanout.Generate(context.Background(), PlanRequest{Prompt: "p", Pages: 1, Language: "日本語"}, cast, outline)
	if err != nil {
		t.Fatalf("生成に失敗したのだ: %v", err)
	}

	for _, ch := range chapters {
		for _, page := range ch.Pages {
			for _, panel := range page.Panels {
				for _, pc := range panel.Characters {
					if pc.ID == "char-9" || pc.ID == "ghost-5" {
						t.Errorf("検疫されるべき参照が残っているのだ: %s", pc.ID)
					}
				}
				for _, line := range panel.Dialogue {
					if line.CharacterID == "char-99" {
						t.Error("検疫されるべき話者が残っているのだ")
					}
				}
				for id := range panel.Seeds {
					if id != "char-1" && id != "char-2" {
						t.Errorf("許可されていないシードが残っているのだ: %s", id)
					}
				}
			}
		}
	}
}

func TestPageFanoutEngine_PanelGap(t *testing.T) {
	f := newFakeInvoker()
	f.scripts["thinking"] = thinkingScript(3)
	f.scripts["panel"] = panelScript
	f.errs["panel page-1 pos-2"] = errors.New("upstream failure")

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗したのだ: %v", err)
	}
	fanout, err := NewPageFanoutEngine(f, pb, 0, 1)
	if err != nil {
		t.Fatalf("初期化に失敗したのだ: %v", err)
	}

	cast := []domain.Character{{ID: "char-1", Name: "ハナ", Seed: 100}, {ID: "char-2", Name: "ジジ", Seed: 200}}
	outline := domain.Outline{
		Title: "欠番テスト",
		Chapters: []domain.OutlineChapter{
			{Index: 1, Title: "第1章", Pages: []domain.PagePlan{
				{Layout: "standard-3", Summary: "s", Scene: "s", Entities: []string{"char-1"}},
			}},
		},
	}

	chapters, err := fanout.Generate(context.Background(), PlanRequest{Prompt: "p", Pages: 1, Language: "日本語"}, cast, outline)
	if err != nil {
		t.Fatalf("1枚の失敗でページ全体が失敗してはいけないのだ: %v", err)
	}

	panels := chapters[0].Pages[0].Panels
	if len(panels) != 2 {
		t.Fatalf("パネル数が違うのだ。期待: 2, 実際: %d", len(panels))
	}
	if panels[0].Position != 1 || panels[1].Position != 3 {
		t.Errorf("欠番の位置が保存されていないのだ: [%d, %d]", panels[0].Position, panels[1].Position)
	}
	if panels[0].ID != "panel-1-1" || panels[1].ID != "panel-1-3" {
		t.Errorf("パネルIDが違うのだ: [%s, %s]", panels[0].ID, panels[1].ID)
	}
}

func TestPageFanoutEngine_ThinkingFailureYieldsEmptyPage(t *testing.T) {
	f := newFakeInvoker()
	f.scripts["thinking"] = thinkingScript(3)
	f.errs["thinking page-1"] = errors.New("upstream failure")
	f.scripts["panel"] = panelScript

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗したのだ: %v", err)
	}
	fanout, err := NewPageFanoutEngine(f, pb, 0, 1)
	if err != nil {
		t.Fatalf("初期化に失敗したのだ: %v", err)
	}

	cast := []domain.Character{{ID: "char-1", Name: "ハナ", Seed: 100}, {ID: "char-2", Name: "ジジ", Seed: 200}}
	outline := domain.Outline{
		Title: "空ページテスト",
		Chapters: []domain.OutlineChapter{
			{Index: 1, Title: "第1章", Pages: []domain.PagePlan{
				{Layout: "standard-3", Summary: "設計が失敗するページ", Scene: "場面1", Entities: []string{"char-1"}},
				{Layout: "vertical-duet", Summary: "正常なページ", Scene: "場面2", Entities: []string{"char-1"}},
			}},
		},
	}
	f.scripts["thinking page-2"] = thinkingScript(2)

	chapters, err := fanout.Generate(context.Background(), PlanRequest{Prompt: "p", Pages: 2, Language: "日本語"}, cast, outline)
	if err != nil {
		t.Fatalf("設計失敗はページ欠けとして吸収されるはずなのだ: %v", err)
	}

	pages := chapters[0].Pages
	if len(pages) != 2 {
		t.Fatalf("ページ数が違うのだ: %d", len(pages))
	}
	if len(pages[0].Panels) != 0 {
		t.Errorf("設計が失敗したページは空のはずなのだ: %d", len(pages[0].Panels))
	}
	if pages[0].Number != 1 || pages[0].Summary != "設計が失敗するページ" {
		t.Errorf("空ページの骨組み情報が失われたのだ: %+v", pages[0])
	}
	if len(pages[1].Panels) != 2 {
		t.Errorf("正常なページまで巻き添えになったのだ: %d", len(pages[1].Panels))
	}
}

func TestPageFanoutEngine_UnknownLayoutFallsBack(t *testing.T) {
	f := newFakeInvoker()
	f.scripts["thinking"] = thinkingScript(3)
	f.scripts["panel"] = panelScript

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗したのだ: %v", err)
	}
	fanout, err := NewPageFanoutEngine(f, pb, 0, 1)
	if err != nil {
		t.Fatalf("初期化に失敗したのだ: %v", err)
	}

	cast := []domain.Character{{ID: "char-1", Name: "ハナ", Seed: 100}, {ID: "char-2", Name: "ジジ", Seed: 200}}
	outline := domain.Outline{
		Title: "未知レイアウトテスト",
		Chapters: []domain.OutlineChapter{
			{Index: 1, Title: "第1章", Pages: []domain.PagePlan{
				{Layout: "cinematic-12", Summary: "s", Scene: "s", Entities: []string{"char-1"}},
			}},
		},
	}

	chapters, err := fanout.Generate(context.Background(), PlanRequest{Prompt: "p", Pages: 1, Language: "日本語"}, cast, outline)
	if err != nil {
		t.Fatalf("生成に失敗したのだ: %v", err)
	}

	page := chapters[0].Pages[0]
	if page.Layout != domain.DefaultLayoutID {
		t.Errorf("既定レイアウトに置き換わっていないのだ: %q", page.Layout)
	}
	if len(page.Panels) != 3 {
		t.Errorf("既定レイアウトのパネル数と一致しないのだ: %d", len(page.Panels))
	}
}

func TestPageFanoutEngine_CameraFallsBackToPlan(t *testing.T) {
	f := newFakeInvoker()
	f.scripts["thinking"] = thinkingScript(1)
	// カメラ指定を省いた応答を再現する。設計段階の案で補われるはずなのだ
	f.scripts["panel"] = `{
	  "characters": [{"id": "char-1"}],
	  "action": "ハナが海を見つめる",
	  "prompt": "girl gazing at the sea"
	}`

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗したのだ: %v", err)
	}
	fanout, err := NewPageFanoutEngine(f, pb, 0, 1)
	if err != nil {
		t.Fatalf("初期化に失敗したのだ: %v", err)
	}

	cast := []domain.Character{{ID: "char-1", Name: "ハナ", Seed: 100}, {ID: "char-2", Name: "ジジ", Seed: 200}}
	outline := domain.Outline{
		Title: "補完テスト",
		Chapters: []domain.OutlineChapter{
			{Index: 1, Title: "第1章", Pages: []domain.PagePlan{
				{Layout: "splash", Summary: "s", Scene: "s", Entities: []string{"char-1"}},
			}},
		},
	}

	chapters, err := fanout.Generate(context.Background(), PlanRequest{Prompt: "p", Pages: 1, Language: "日本語"}, cast, outline)
	if err != nil {
		t.Fatalf("生成に失敗したのだ: %v", err)
	}

	cam := chapters[0].Pages[0].Panels[0].Camera
	if cam.Shot != "medium" || cam.Angle != "eye-level" {
		t.Errorf("設計のカメラ案で補われていないのだ: %+v", cam)
	}
}

func TestOtherPurposes(t *testing.T) {
	briefs := []panelBriefDraft{
		{Purpose: "駆け込む"},
		{Purpose: "見上げる"},
		{Purpose: "灯りが戻る"},
	}

	got := otherPurposes(briefs, 2)
	if strings.Contains(got, "見上げる") {
		t.Errorf("自分のスロットの目的が混ざっているのだ: %q", got)
	}
	for _, want := range []string{"- panel 1: 駆け込む", "- panel 3: 灯りが戻る"} {
		if !strings.Contains(got, want) {
			t.Errorf("%q が含まれていないのだ: %q", want, got)
		}
	}

	if got := otherPurposes(nil, 1); got != "(none)" {
		t.Errorf("空のビート一覧の期待: (none), 実際: %q", got)
	}
	if got := otherPurposes(briefs[:1], 1); got != "(none)" {
		t.Errorf("1枚構成の期待: (none), 実際: %q", got)
	}
}

func TestPageFanoutEngine_TruncatesOverflowPages(t *testing.T) {
	f := newFakeInvoker()
	f.scripts["thinking"] = thinkingScript(1)
	f.scripts["panel"] = panelScript

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗したのだ: %v", err)
	}
	fanout, err := NewPageFanoutEngine(f, pb, 0, 1)
	if err != nil {
		t.Fatalf("初期化に失敗したのだ: %v", err)
	}

	cast := []domain.Character{{ID: "char-1", Name: "ハナ", Seed: 100}, {ID: "char-2", Name: "ジジ", Seed: 200}}
	outline := domain.Outline{
		Title: "超過テスト",
		Chapters: []domain.OutlineChapter{
			{Index: 1, Title: "第1章", Pages: []domain.PagePlan{
				{Layout: "splash", Summary: "1枚目", Scene: "s", Entities: nil},
				{Layout: "splash", Summary: "2枚目", Scene: "s", Entities: nil},
				{Layout: "splash", Summary: "超過分", Scene: "s", Entities: nil},
			}},
		},
	}

	chapters, err := fanout.Generate(context.Background(), PlanRequest{Prompt: "p", Pages: 2, Language: "日本語"}, cast, outline)
	if err != nil {
		t.Fatalf("生成に失敗したのだ: %v", err)
	}

	pages := chapters[0].Pages
	if len(pages) != 2 {
		t.Fatalf("超過分が切り捨てられていないのだ: %d", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("採番が乱れているのだ: [%d, %d]", pages[0].Number, pages[1].Number)
	}
}

func TestCastStage_Generate(t *testing.T) {
	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗したのだ: %v", err)
	}

	t.Run("上限を超えたキャストは切り詰めるのだ", func(t *testing.T) {
		f := newFakeInvoker()
		members := make([]string, 0, 6)
		for i := 1; i <= 6; i++ {
			members = append(members, fmt.Sprintf(`{"name": "キャラ%d", "role": "support"}`, i))
		}
		f.scripts["cast"] = `{"characters": [` + strings.Join(members, ",") + `]}`

		stage, err := NewCastStage(f, pb, 1)
		if err != nil {
			t.Fatalf("初期化に失敗したのだ: %v", err)
		}

		cast, err := stage.Generate(context.Background(), PlanRequest{Prompt: "p", Language: "日本語"})
		if err != nil {
			t.Fatalf("生成に失敗したのだ: %v", err)
		}
		if len(cast) != MaxCastSize {
			t.Errorf("切り詰め後の人数が違うのだ。期待: %d, 実際: %d", MaxCastSize, len(cast))
		}
		for i, char := range cast {
			if char.ID != domain.CharacterID(i+1) {
				t.Errorf("IDが連番になっていないのだ: %s", char.ID)
			}
			if char.Seed <= 0 {
				t.Errorf("%s のシードが正の値ではないのだ: %d", char.ID, char.Seed)
			}
		}
	})

	t.Run("キャストが少なすぎる応答は失敗になるのだ", func(t *testing.T) {
		f := newFakeInvoker()
		f.scripts["cast"] = `{"characters": [{"name": "一人きり", "role": "protagonist"}]}`

		stage, err := NewCastStage(f, pb, 1)
		if err != nil {
			t.Fatalf("初期化に失敗したのだ: %v", err)
		}

		if _, err := stage.Generate(context.Background(), PlanRequest{Prompt: "p", Language: "日本語"}); err == nil {
			t.Error("2人未満のキャストは拒否されるはずなのだ")
		}
	})
}

func TestTargetChapterCount(t *testing.T) {
	tests := []struct {
		pages int
		want  int
	}{
		{1, 1}, {3, 1},
		{4, 2}, {10, 2},
		{11, 3}, {15, 3},
		{16, 4}, {20, 4},
	}
	for _, tt := range tests {
		if got := TargetChapterCount(tt.pages); got != tt.want {
			t.Errorf("%dページの章数が違うのだ。期待: %d, 実際: %d", tt.pages, tt.want, got)
		}
	}
}

func TestPlanRequest_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		in        PlanRequest
		wantPages int
	}{
		{"未指定は既定値になるのだ", PlanRequest{}, DefaultPageCount},
		{"下限未満は下限に丸めるのだ", PlanRequest{Pages: -5}, MinPageCount},
		{"上限超過は上限に丸めるのだ", PlanRequest{Pages: 25}, MaxPageCount},
		{"範囲内はそのままなのだ", PlanRequest{Pages: 7}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Normalize()
			if tt.in.Pages != tt.wantPages {
				t.Errorf("期待: %d, 実際: %d", tt.wantPages, tt.in.Pages)
			}
			if tt.in.Language == "" {
				t.Error("言語の既定値が入っていないのだ")
			}
		})
	}
}

func TestPlanComposer_CastFailureIsFatal(t *testing.T) {
	f := newFakeInvoker()
	f.errs["cast"] = errors.New("upstream failure")

	composer := newTestComposer(t, f)
	_, err := composer.ComposePlan(context.Background(), PlanRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("キャスト失敗は計画全体の失敗のはずなのだ")
	}
	if !strings.Contains(err.Error(), "キャスト設計に失敗しました") {
		t.Errorf("エラーの文脈が違うのだ: %v", err)
	}
}
