package gallery

import (
	"image/color"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/kolamshelf/pkg/components"
	"github.com/decker502/kolamshelf/pkg/config"
	"github.com/decker502/kolamshelf/pkg/game"
	"github.com/decker502/kolamshelf/pkg/tween"
	"github.com/decker502/kolamshelf/pkg/viewer"
)

// mockViewer 记录阅读器调用次数，用于断言副作用恰好发生一次
type mockViewer struct {
	openCalls  int
	closeCalls int
	lastPages  []viewer.Page
	isOpen     bool
}

func (v *mockViewer) Open(pages []viewer.Page) {
	v.openCalls++
	v.lastPages = pages
	v.isOpen = true
}
func (v *mockViewer) Close() {
	v.closeCalls++
	v.isOpen = false
}
func (v *mockViewer) Next()                     {}
func (v *mockViewer) Prev()                     {}
func (v *mockViewer) IsOpen() bool              { return v.isOpen }
func (v *mockViewer) PageIndex() int            { return 0 }
func (v *mockViewer) Update(deltaTime float64)  {}
func (v *mockViewer) Draw(screen *ebiten.Image) {}

// stallAnimator 从不触发完成回调，模拟动画引擎中途被销毁的场景
// 目标变换保持当前值不动
type stallAnimator struct {
	started []tween.Tween
	killed  []*components.Transform
}

func (a *stallAnimator) Start(tw tween.Tween) { a.started = append(a.started, tw) }
func (a *stallAnimator) Kill(target *components.Transform) {
	a.killed = append(a.killed, target)
}
func (a *stallAnimator) KillAll()                                 {}
func (a *stallAnimator) Active(target *components.Transform) bool { return false }
func (a *stallAnimator) Update(deltaTime float64)                 {}

// manualAnimator 让测试自行选择触发完成回调的时机，
// 包括在超时路径已经抢先处理之后
type manualAnimator struct {
	pending map[*components.Transform]tween.Tween
}

func newManualAnimator() *manualAnimator {
	return &manualAnimator{pending: make(map[*components.Transform]tween.Tween)}
}

func (a *manualAnimator) Start(tw tween.Tween) { a.pending[tw.Target] = tw }
func (a *manualAnimator) Kill(target *components.Transform) {
	// 故意保留回调：模拟一个无视中断、事后照常投递完成的引擎
}
func (a *manualAnimator) KillAll()                                 {}
func (a *manualAnimator) Active(target *components.Transform) bool { _, ok := a.pending[target]; return ok }
func (a *manualAnimator) Update(deltaTime float64)                 {}

// fire 投递 target 上暂存的完成回调（如果有）
func (a *manualAnimator) fire(target *components.Transform) {
	tw, ok := a.pending[target]
	if !ok {
		return
	}
	delete(a.pending, target)
	if tw.OnComplete != nil {
		tw.OnComplete()
	}
}

func testCatalog() *game.Catalog {
	return &game.Catalog{Categories: []game.CatalogCategory{
		{
			Key:         "FestivalKolams",
			Title:       "Festival Kolams",
			Description: "Kolams for festival mornings.",
			Items:       []game.CatalogItem{{Name: "Pongal Sunrise", Description: "A rice-flour sun."}},
		},
		{
			Key:         "RegionalKolams",
			Title:       "Regional Kolams",
			Description: "Styles from different regions.",
			Items:       []game.CatalogItem{{Name: "Sikku Kolam", Description: "One unbroken line."}},
		},
	}}
}

func newTestMachine(t *testing.T, anim tween.Animator) (*Machine, *Shelf, *mockViewer) {
	t.Helper()
	catalog := testCatalog()
	shelf := NewShelf(config.DefaultShelfLayout())
	for _, cat := range catalog.Categories {
		if _, err := shelf.Register(cat.Key, cat.Title, color.RGBA{R: 120, A: 255}); err != nil {
			t.Fatalf("Register(%s) failed: %v", cat.Key, err)
		}
	}
	view := &mockViewer{}
	return NewMachine(shelf, anim, view, catalog), shelf, view
}

// step 用小步长逐帧推进状态机，与真实游戏循环一致
func step(m *Machine, seconds float64) {
	const dt = 1.0 / 60.0
	for elapsed := 0.0; elapsed < seconds; elapsed += dt {
		m.Update(dt)
	}
}

func clickBook(m *Machine, shelf *Shelf, key string) {
	b, _ := shelf.ByKey(key)
	m.HandleClick(b.Resting.X, b.Resting.Y)
}

// assertSelectedInvariant 校验"非 Idle 状态当且仅当有选中的书"
func assertSelectedInvariant(t *testing.T, m *Machine) {
	t.Helper()
	if m.State() == StateIdle && m.Selected() != nil {
		t.Errorf("Idle state must have no selected book, got %s", m.Selected().Key)
	}
	if m.State() != StateIdle && m.Selected() == nil {
		t.Errorf("state %s must have a selected book", m.State())
	}
}

// TestClickOpensBook 测试 Idle -> AnimatingOpen -> Open 的完整路径
// 动画由真实补间引擎驱动
func TestClickOpensBook(t *testing.T) {
	m, shelf, view := newTestMachine(t, tween.NewRunner())

	clickBook(m, shelf, "FestivalKolams")
	if m.State() != StateAnimatingOpen {
		t.Fatalf("expected AnimatingOpen after click, got %s", m.State())
	}
	assertSelectedInvariant(t, m)

	step(m, 1.0) // 远超 OpenDuration
	if m.State() != StateOpen {
		t.Fatalf("expected Open after animation, got %s", m.State())
	}
	if view.openCalls != 1 {
		t.Errorf("viewer should receive exactly one Open call, got %d", view.openCalls)
	}
	if len(view.lastPages) == 0 || view.lastPages[0].Title != "Festival Kolams" {
		t.Errorf("viewer pages should start with the category cover, got %+v", view.lastPages)
	}
	// 封面页 + 一个条目页
	if len(view.lastPages) != 2 {
		t.Errorf("expected 2 pages, got %d", len(view.lastPages))
	}
	assertSelectedInvariant(t, m)
}

// TestClickDroppedWhileAnimating 测试 AnimatingOpen 期间点击另一本书
// 被整体丢弃：状态不变，也不会给 B 启动动画
func TestClickDroppedWhileAnimating(t *testing.T) {
	anim := &stallAnimator{}
	m, shelf, _ := newTestMachine(t, anim)

	clickBook(m, shelf, "FestivalKolams")
	if m.State() != StateAnimatingOpen {
		t.Fatalf("expected AnimatingOpen, got %s", m.State())
	}
	startedBefore := len(anim.started)

	clickBook(m, shelf, "RegionalKolams")
	if m.State() != StateAnimatingOpen {
		t.Errorf("state changed on dropped click: %s", m.State())
	}
	if m.Selected().Key != "FestivalKolams" {
		t.Errorf("selected book changed on dropped click: %s", m.Selected().Key)
	}
	if len(anim.started) != startedBefore {
		t.Errorf("an animation was started for the dropped click")
	}
}

// TestOpenTimeoutRecovery 测试完成回调永不到达时，主超时强制进入 Open，
// 且阅读器的 Open 只被调用一次
func TestOpenTimeoutRecovery(t *testing.T) {
	m, shelf, view := newTestMachine(t, &stallAnimator{})

	clickBook(m, shelf, "FestivalKolams")
	step(m, DefaultOpenTimeout+0.1)

	if m.State() != StateOpen {
		t.Fatalf("expected Open after timeout, got %s", m.State())
	}
	if view.openCalls != 1 {
		t.Errorf("expected exactly one viewer Open call, got %d", view.openCalls)
	}

	// 继续推进不会重复触发迁移
	step(m, 1.0)
	if view.openCalls != 1 {
		t.Errorf("timeout path fired more than once: %d Open calls", view.openCalls)
	}
	assertSelectedInvariant(t, m)
}

// TestCloseTimeoutRecovery 测试合书动画卡死时被强制回到 Idle，
// 书吸附到归位变换
func TestCloseTimeoutRecovery(t *testing.T) {
	m, shelf, _ := newTestMachine(t, &stallAnimator{})

	clickBook(m, shelf, "FestivalKolams")
	step(m, DefaultOpenTimeout+0.1)
	if m.State() != StateOpen {
		t.Fatalf("setup failed: expected Open, got %s", m.State())
	}

	m.RequestClose()
	if m.State() != StateAnimatingClose {
		t.Fatalf("expected AnimatingClose, got %s", m.State())
	}

	step(m, DefaultCloseTimeout+0.1)
	if m.State() != StateIdle {
		t.Fatalf("expected Idle after close timeout, got %s", m.State())
	}
	if m.Selected() != nil {
		t.Error("selected book not cleared after close timeout")
	}
	b, _ := shelf.ByKey("FestivalKolams")
	if b.Transform != b.Resting {
		t.Errorf("book not snapped to resting transform: %+v", b.Transform)
	}
}

// TestEmergencyReset 测试关闭路径上的第二层兜底：主超时被配置到
// 遥远的未来无法触发时，紧急超时执行全量复位
func TestEmergencyReset(t *testing.T) {
	m, shelf, view := newTestMachine(t, &stallAnimator{})
	m.SetTimeouts(0.2, 600, 1.0)

	clickBook(m, shelf, "FestivalKolams")
	step(m, 0.3) // 开书主超时强制进入 Open
	if m.State() != StateOpen {
		t.Fatalf("setup failed: expected Open, got %s", m.State())
	}

	m.RequestClose()
	step(m, 1.2)

	if m.State() != StateIdle {
		t.Fatalf("expected Idle after emergency reset, got %s", m.State())
	}
	if m.Selected() != nil {
		t.Error("selected book not cleared by emergency reset")
	}
	if view.isOpen {
		t.Error("viewer still open after emergency reset")
	}
	for _, b := range shelf.Books() {
		if b.Transform != b.Resting {
			t.Errorf("book %s not at resting transform after emergency reset", b.Key)
		}
	}
}

// TestDuplicateCompletionAfterTimeout 测试超时路径已经强制完成迁移后，
// 迟到的完成回调必须是无操作：Idle 只到达一次，状态保持一致
func TestDuplicateCompletionAfterTimeout(t *testing.T) {
	anim := newManualAnimator()
	m, shelf, view := newTestMachine(t, anim)

	clickBook(m, shelf, "FestivalKolams")
	b, _ := shelf.ByKey("FestivalKolams")
	anim.fire(&b.Transform) // 正常投递开书完成
	if m.State() != StateOpen {
		t.Fatalf("setup failed: expected Open, got %s", m.State())
	}

	m.RequestClose()
	step(m, DefaultCloseTimeout+0.1) // 超时路径先到达 Idle
	if m.State() != StateIdle {
		t.Fatalf("expected Idle after close timeout, got %s", m.State())
	}
	closeCalls := view.closeCalls
	restingAfterTimeout := b.Transform

	// 引擎此时才投递过期的合书完成回调
	anim.fire(&b.Transform)

	if m.State() != StateIdle {
		t.Errorf("stale completion changed state to %s", m.State())
	}
	if m.Selected() != nil {
		t.Error("stale completion re-selected a book")
	}
	if view.closeCalls != closeCalls {
		t.Errorf("stale completion produced duplicate side effects: %d close calls", view.closeCalls)
	}
	if b.Transform != restingAfterTimeout {
		t.Error("stale completion moved the book")
	}
}

// TestResetAllStatesFromEveryState 测试从四个状态的任何一个调用
// ResetAllStates 都得到 Idle、空选中和归位变换
func TestResetAllStatesFromEveryState(t *testing.T) {
	setups := map[string]func(m *Machine, shelf *Shelf){
		"Idle": func(m *Machine, shelf *Shelf) {},
		"AnimatingOpen": func(m *Machine, shelf *Shelf) {
			clickBook(m, shelf, "FestivalKolams")
		},
		"Open": func(m *Machine, shelf *Shelf) {
			clickBook(m, shelf, "FestivalKolams")
			step(m, DefaultOpenTimeout+0.1)
		},
		"AnimatingClose": func(m *Machine, shelf *Shelf) {
			clickBook(m, shelf, "FestivalKolams")
			step(m, DefaultOpenTimeout+0.1)
			m.RequestClose()
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			m, shelf, view := newTestMachine(t, &stallAnimator{})
			setup(m, shelf)

			m.ResetAllStates()

			if m.State() != StateIdle {
				t.Errorf("expected Idle, got %s", m.State())
			}
			if m.Selected() != nil {
				t.Error("selection not cleared")
			}
			if view.isOpen {
				t.Error("viewer not closed")
			}
			for _, b := range shelf.Books() {
				if b.Transform != b.Resting {
					t.Errorf("book %s not at resting transform", b.Key)
				}
				if b.Hovered || b.Collapsed {
					t.Errorf("book %s kept hover/collapse flags", b.Key)
				}
			}
		})
	}
}

// TestHoverSwitchesBooks 测试单悬停约束：悬停新书之前
// 上一本必须先完全复位
func TestHoverSwitchesBooks(t *testing.T) {
	m, shelf, _ := newTestMachine(t, tween.NewRunner())
	a, _ := shelf.ByKey("FestivalKolams")
	b, _ := shelf.ByKey("RegionalKolams")

	m.HandleHover(a.Resting.X, a.Resting.Y)
	if !a.Hovered {
		t.Fatal("book A not hovered")
	}

	m.HandleHover(b.Resting.X, b.Resting.Y)
	if a.Hovered {
		t.Error("book A still hovered after hover moved to B")
	}
	if a.Transform != a.Resting {
		t.Errorf("book A not restored to resting before B hover: %+v", a.Transform)
	}
	if !b.Hovered {
		t.Error("book B not hovered")
	}
}

// TestHoverIgnoredWhileAnimating 测试开/合动画期间悬停请求被丢弃
func TestHoverIgnoredWhileAnimating(t *testing.T) {
	m, shelf, _ := newTestMachine(t, &stallAnimator{})
	clickBook(m, shelf, "FestivalKolams")

	b, _ := shelf.ByKey("RegionalKolams")
	m.HandleHover(b.Resting.X, b.Resting.Y)
	if b.Hovered {
		t.Error("hover applied during AnimatingOpen")
	}
}

// TestSearchScenario 测试对 {FestivalKolams, RegionalKolams} 搜索
// "festival" 后只有 FestivalKolams 保持全尺寸
func TestSearchScenario(t *testing.T) {
	m, shelf, _ := newTestMachine(t, tween.NewRunner())

	m.Search("festival")
	step(m, 1.0)

	fest, _ := shelf.ByKey("FestivalKolams")
	reg, _ := shelf.ByKey("RegionalKolams")
	layout := shelf.Layout()

	if fest.Collapsed {
		t.Error("FestivalKolams should match the query")
	}
	if fest.Transform != fest.Resting {
		t.Errorf("matching book should rest at full scale, got %+v", fest.Transform)
	}
	if !reg.Collapsed {
		t.Error("RegionalKolams should be collapsed")
	}
	if reg.Transform.ScaleX != layout.CollapsedScale {
		t.Errorf("collapsed book scale = %.3f, want %.3f", reg.Transform.ScaleX, layout.CollapsedScale)
	}
}

// TestFilterIdempotence 测试同一过滤应用两次（第二次在动画中途）
// 的终态与只应用一次完全相同
func TestFilterIdempotence(t *testing.T) {
	runOnce := func(applyTwice bool) (map[string]components.Transform, map[string]bool) {
		m, shelf, _ := newTestMachine(t, tween.NewRunner())
		m.FilterByCategory("FestivalKolams")
		if applyTwice {
			step(m, 0.1) // 动画进行中
			m.FilterByCategory("FestivalKolams")
		}
		step(m, 1.0)

		transforms := make(map[string]components.Transform)
		collapsed := make(map[string]bool)
		for _, b := range shelf.Books() {
			transforms[b.Key] = b.Transform
			collapsed[b.Key] = b.Collapsed
		}
		return transforms, collapsed
	}

	onceT, onceC := runOnce(false)
	twiceT, twiceC := runOnce(true)

	for key := range onceT {
		if onceT[key] != twiceT[key] {
			t.Errorf("book %s transform differs: once=%+v twice=%+v", key, onceT[key], twiceT[key])
		}
		if onceC[key] != twiceC[key] {
			t.Errorf("book %s collapsed flag differs", key)
		}
	}
}

// TestFilterClearRestores 测试 FilterByCategory("all") 把所有书
// 恢复到全尺寸
func TestFilterClearRestores(t *testing.T) {
	m, shelf, _ := newTestMachine(t, tween.NewRunner())

	m.FilterByCategory("FestivalKolams")
	step(m, 1.0)
	m.FilterByCategory("all")
	step(m, 1.0)

	for _, b := range shelf.Books() {
		if b.Collapsed {
			t.Errorf("book %s still collapsed after clearing filter", b.Key)
		}
		if b.Transform != b.Resting {
			t.Errorf("book %s not restored to resting", b.Key)
		}
	}
}

// TestCloseReappliesSearch 测试书打开期间生效的搜索在关闭后重新
// 作用到这本书：不匹配当前查询的书归位后必须进入折叠状态
func TestCloseReappliesSearch(t *testing.T) {
	m, shelf, _ := newTestMachine(t, tween.NewRunner())

	clickBook(m, shelf, "FestivalKolams")
	step(m, 1.0)
	if m.State() != StateOpen {
		t.Fatalf("setup failed: expected Open, got %s", m.State())
	}

	m.Search("regional")
	step(m, 1.0)

	m.RequestClose()
	step(m, 1.5) // 合书补间 + 折叠补间

	layout := shelf.Layout()
	fest, _ := shelf.ByKey("FestivalKolams")
	if !fest.Collapsed {
		t.Error("closed book should collapse under the active query")
	}
	if fest.Transform.ScaleX != layout.CollapsedScale {
		t.Errorf("closed book scale = %.3f, want %.3f", fest.Transform.ScaleX, layout.CollapsedScale)
	}
	if fest.Transform.Y != fest.Resting.Y+layout.CollapsedSink {
		t.Errorf("closed book Y = %.1f, want sunken %.1f", fest.Transform.Y, fest.Resting.Y+layout.CollapsedSink)
	}
	reg, _ := shelf.ByKey("RegionalKolams")
	if reg.Collapsed {
		t.Error("matching book should stay at full scale")
	}
}

// TestOpenCategoryOnFilteredBook 测试被过滤折叠的书通过 OpenCategory
// 打开：打开期间折叠标记必须清除（否则书对悬停/点击永久失效），
// 关闭后按仍然生效的过滤回到折叠状态
func TestOpenCategoryOnFilteredBook(t *testing.T) {
	m, shelf, view := newTestMachine(t, tween.NewRunner())

	m.FilterByCategory("RegionalKolams")
	step(m, 1.0)
	fest, _ := shelf.ByKey("FestivalKolams")
	if !fest.Collapsed {
		t.Fatal("setup failed: FestivalKolams should be collapsed")
	}

	m.OpenCategory("FestivalKolams")
	if m.State() != StateAnimatingOpen {
		t.Fatalf("expected AnimatingOpen, got %s", m.State())
	}
	if fest.Collapsed {
		t.Error("open book must not keep the collapsed flag")
	}
	step(m, 1.0)
	if m.State() != StateOpen {
		t.Fatalf("expected Open, got %s", m.State())
	}
	if view.openCalls != 1 {
		t.Errorf("expected exactly one viewer Open call, got %d", view.openCalls)
	}

	m.RequestClose()
	step(m, 1.5)
	if m.State() != StateIdle {
		t.Fatalf("expected Idle after close, got %s", m.State())
	}

	layout := shelf.Layout()
	if !fest.Collapsed {
		t.Error("closed book should collapse again under the active filter")
	}
	if fest.Transform.ScaleX != layout.CollapsedScale {
		t.Errorf("closed book scale = %.3f, want %.3f", fest.Transform.ScaleX, layout.CollapsedScale)
	}
	if fest.Transform.Y != fest.Resting.Y+layout.CollapsedSink {
		t.Errorf("closed book Y = %.1f, want sunken %.1f", fest.Transform.Y, fest.Resting.Y+layout.CollapsedSink)
	}
}

// TestOpenCategoryProgrammatic 测试宿主侧的编程打开操作
// 及其在非 Idle 状态下的无操作保护
func TestOpenCategoryProgrammatic(t *testing.T) {
	m, _, view := newTestMachine(t, tween.NewRunner())

	m.OpenCategory("RegionalKolams")
	if m.State() != StateAnimatingOpen {
		t.Fatalf("expected AnimatingOpen, got %s", m.State())
	}
	step(m, 1.0)
	if m.State() != StateOpen {
		t.Fatalf("expected Open, got %s", m.State())
	}

	// 已经打开：再次打开是无操作
	m.OpenCategory("FestivalKolams")
	if view.openCalls != 1 {
		t.Errorf("OpenCategory while Open started another transition: %d Open calls", view.openCalls)
	}
	if m.Selected().Key != "RegionalKolams" {
		t.Errorf("selected book changed: %s", m.Selected().Key)
	}

	// 未知的键被忽略
	m.RequestClose()
	step(m, 1.0)
	m.OpenCategory("NoSuchCategory")
	if m.State() != StateIdle {
		t.Errorf("unknown category changed state to %s", m.State())
	}
}

// TestClickSequencesNeverDoubleAnimate 连续快速点击/关闭，
// 每个事件之后校验互斥约束
func TestClickSequencesNeverDoubleAnimate(t *testing.T) {
	m, shelf, _ := newTestMachine(t, tween.NewRunner())
	keys := []string{"FestivalKolams", "RegionalKolams"}

	for i := 0; i < 40; i++ {
		clickBook(m, shelf, keys[i%2])
		if i%3 == 0 {
			m.RequestClose()
		}
		m.Update(1.0 / 60.0)
		assertSelectedInvariant(t, m)
	}

	// 无论上面发生了什么，全量复位必须落在 Idle
	m.ResetAllStates()
	if m.State() != StateIdle {
		t.Fatalf("expected Idle after reset, got %s", m.State())
	}
}
