package gallery

import (
	"log"
	"strings"

	"github.com/decker502/kolamshelf/pkg/components"
	"github.com/decker502/kolamshelf/pkg/game"
	"github.com/decker502/kolamshelf/pkg/tween"
	"github.com/decker502/kolamshelf/pkg/utils"
	"github.com/decker502/kolamshelf/pkg/viewer"
)

// InteractionState 交互状态机的状态
//
// 四个状态互斥，进程内只有一个实例（由 Machine 持有），
// 只能通过 Machine 的迁移函数修改。任何失败路径最终都落回
// 这四个状态之一，不存在第五种状态。
type InteractionState int

const (
	// StateIdle 待机：没有书被选中，接受悬停与打开点击
	StateIdle InteractionState = iota
	// StateAnimatingOpen 开书动画进行中，拒绝一切新请求
	StateAnimatingOpen
	// StateOpen 书已打开，阅读器可见，接受关闭请求
	StateOpen
	// StateAnimatingClose 合书动画进行中，拒绝一切新请求
	StateAnimatingClose
)

// String 返回状态名（日志用）
func (s InteractionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAnimatingOpen:
		return "AnimatingOpen"
	case StateOpen:
		return "Open"
	case StateAnimatingClose:
		return "AnimatingClose"
	default:
		return "Unknown"
	}
}

// 迁移超时默认值（秒）
//
// 动画引擎的完成回调可能因为中途被销毁而永远不触发，
// 状态机为每次迁移叠加两层独立的超时兜底：
//   - 主超时：强制完成当前迁移（跳过剩余动画）
//   - 紧急超时：只挂在关闭路径上，时间到后无条件全量复位
const (
	DefaultOpenTimeout      = 2.0
	DefaultCloseTimeout     = 2.5
	DefaultEmergencyTimeout = 5.0
)

// Machine 书本交互状态机
//
// 持有唯一的 InteractionState 与当前选中的书，调度所有
// 用户触发的迁移（悬停、点击打开、请求关闭），保证同一时刻
// 最多只有一个在途迁移动画。
type Machine struct {
	shelf   *Shelf
	anim    tween.Animator
	view    viewer.Viewer
	catalog *game.Catalog

	state    InteractionState
	selected *components.Book // 仅在非 Idle 状态有值
	hovered  *components.Book // 悬停子状态，最多一本

	// gen 是迁移代号：每次开/合迁移（以及全量复位）递增。
	// 完成回调与超时路径都带着发起时的代号，谁先到谁生效，
	// 迟到的一方因代号过期而不产生副作用。
	gen            int
	transitionTime float64 // 当前迁移已持续时间（秒）

	openTimeout      float64
	closeTimeout     float64
	emergencyTimeout float64
	emergencyArmed   bool
	emergencyTime    float64

	activeFilter string // 最近一次 FilterByCategory 的键（"" = 未过滤）
	activeQuery  string // 最近一次 Search 的查询文本
}

// NewMachine 创建交互状态机
func NewMachine(shelf *Shelf, anim tween.Animator, view viewer.Viewer, catalog *game.Catalog) *Machine {
	return &Machine{
		shelf:            shelf,
		anim:             anim,
		view:             view,
		catalog:          catalog,
		state:            StateIdle,
		openTimeout:      DefaultOpenTimeout,
		closeTimeout:     DefaultCloseTimeout,
		emergencyTimeout: DefaultEmergencyTimeout,
	}
}

// SetTimeouts 覆盖超时时间（秒），非正值保留原值
func (m *Machine) SetTimeouts(open, close, emergency float64) {
	if open > 0 {
		m.openTimeout = open
	}
	if close > 0 {
		m.closeTimeout = close
	}
	if emergency > 0 {
		m.emergencyTimeout = emergency
	}
}

// State 返回当前状态
func (m *Machine) State() InteractionState {
	return m.state
}

// Selected 返回当前选中的书，Idle 状态下为 nil
func (m *Machine) Selected() *components.Book {
	return m.selected
}

// ActiveFilter 返回当前分类过滤键（"" = 未过滤）
func (m *Machine) ActiveFilter() string {
	return m.activeFilter
}

// ActiveQuery 返回当前搜索文本
func (m *Machine) ActiveQuery() string {
	return m.activeQuery
}

// BookBusy 判断一本书的变换当前是否由状态机（或补间引擎）持有
// 环境摇摆必须跳过这些书，避免两个写入方竞争同一个变换
func (m *Machine) BookBusy(b *components.Book) bool {
	return b == m.selected || m.anim.Active(&b.Transform)
}

// HandleHover 处理指针悬停
//
// 任一开/合动画进行中时悬停被整体忽略；悬停新书之前
// 必须先把上一本完全复位（归位变换 + 取消强调）。
// 被过滤折叠的书不参与悬停。
func (m *Machine) HandleHover(x, y float64) {
	if m.state != StateIdle {
		return
	}

	b, ok := m.shelf.ResolvePoint(x, y)
	if ok && b.Collapsed {
		ok = false
	}

	if !ok {
		// 移出所有书：当前悬停的书缓动归位
		if m.hovered != nil {
			prev := m.hovered
			m.hovered = nil
			prev.Hovered = false
			m.anim.Start(tween.Tween{
				Target:   &prev.Transform,
				To:       prev.Resting,
				Duration: m.shelf.Layout().HoverDuration,
				Ease:     utils.EaseOutQuad,
			})
		}
		return
	}

	if b == m.hovered {
		return
	}

	// 先完全取消上一本的悬停，再强调新的一本
	if m.hovered != nil {
		prev := m.hovered
		m.anim.Kill(&prev.Transform)
		prev.Transform = prev.Resting
		prev.Hovered = false
	}

	m.hovered = b
	b.Hovered = true
	m.anim.Kill(&b.Transform)
	m.anim.Start(tween.Tween{
		Target:   &b.Transform,
		To:       m.hoverTransform(b),
		Duration: m.shelf.Layout().HoverDuration,
		Ease:     utils.EaseOutBack,
	})
}

// HandleClick 处理书架上的指针点击
//
// 只有 Idle 状态接受打开点击；其余状态下点击被丢弃（不排队）。
// 解析不到书的点击按无操作处理，不是错误。
func (m *Machine) HandleClick(x, y float64) {
	if m.state != StateIdle {
		log.Printf("[Interaction] 丢弃点击: 状态 %s 不接受打开请求", m.state)
		return
	}

	b, ok := m.shelf.ResolvePoint(x, y)
	if !ok || b.Collapsed {
		return
	}
	m.beginOpen(b)
}

// OpenCategory 以编程方式打开指定分类
// 非 Idle 状态（包括该分类已经打开）下为无操作
func (m *Machine) OpenCategory(key string) {
	if m.state != StateIdle {
		return
	}
	b, ok := m.shelf.ByKey(key)
	if !ok {
		log.Printf("[Interaction] OpenCategory: 未知分类 %s", key)
		return
	}
	m.beginOpen(b)
}

// beginOpen 进入 AnimatingOpen：取消该书上的既有动画，启动开书补间
// 被过滤折叠的书允许通过 OpenCategory 打开，打开期间视为可见
func (m *Machine) beginOpen(b *components.Book) {
	m.clearHover()
	b.Collapsed = false

	m.state = StateAnimatingOpen
	m.selected = b
	m.gen++
	gen := m.gen
	m.transitionTime = 0
	log.Printf("[Interaction] 打开 %s (gen=%d)", b.Key, gen)

	layout := m.shelf.Layout()
	m.anim.Kill(&b.Transform)
	m.anim.Start(tween.Tween{
		Target:   &b.Transform,
		To:       m.openTransform(b),
		Duration: layout.OpenDuration,
		Ease:     utils.EaseInOutCubic,
		OnComplete: func() {
			m.finishOpen(gen)
		},
	})
}

// finishOpen 完成打开迁移：AnimatingOpen → Open，通知阅读器
// 代号过期（超时路径已经处理过、或已被复位）时不产生任何副作用
func (m *Machine) finishOpen(gen int) {
	if gen != m.gen || m.state != StateAnimatingOpen {
		return
	}
	m.state = StateOpen
	m.view.Open(m.pagesFor(m.selected))
	log.Printf("[Interaction] %s 已打开", m.selected.Key)
}

// RequestClose 请求关闭当前打开的书
// 仅 Open 状态接受；同时武装紧急复位计时器
func (m *Machine) RequestClose() {
	if m.state != StateOpen {
		return
	}

	b := m.selected
	m.state = StateAnimatingClose
	m.gen++
	gen := m.gen
	m.transitionTime = 0
	m.emergencyArmed = true
	m.emergencyTime = 0
	log.Printf("[Interaction] 关闭 %s (gen=%d)", b.Key, gen)

	m.view.Close()
	layout := m.shelf.Layout()
	m.anim.Kill(&b.Transform)
	m.anim.Start(tween.Tween{
		Target:   &b.Transform,
		To:       b.Resting,
		Duration: layout.CloseDuration,
		Ease:     utils.EaseInOutCubic,
		OnComplete: func() {
			m.finishClose(gen)
		},
	})
}

// finishClose 完成关闭迁移：AnimatingClose → Idle，清除选中
// 主超时与完成回调都会到达这里，代号保证副作用只发生一次
//
// 关闭动画总是终止于归位变换，但过滤/搜索可能在书打开期间
// 改变过（它们跳过选中的书），因此归位后要对这本书重新评估
// 当前过滤，不匹配就补间到折叠状态
func (m *Machine) finishClose(gen int) {
	if gen != m.gen || m.state != StateAnimatingClose {
		return
	}
	b := m.selected
	m.state = StateIdle
	m.selected = nil
	m.emergencyArmed = false
	b.Hovered = false
	if match := m.activeMatch(); match != nil {
		m.collapseTo(b, match(b))
	}
	log.Printf("[Interaction] %s 已归位", b.Key)
}

// Update 推进状态机：驱动补间引擎并检查超时兜底
func (m *Machine) Update(deltaTime float64) {
	m.anim.Update(deltaTime)

	switch m.state {
	case StateAnimatingOpen:
		m.transitionTime += deltaTime
		if m.transitionTime >= m.openTimeout {
			// 完成回调未到：跳过剩余动画强制进入 Open
			log.Printf("[Interaction] 开书动画超时 (%.1fs)，强制完成", m.openTimeout)
			b := m.selected
			m.anim.Kill(&b.Transform)
			b.Transform = m.openTransform(b)
			m.finishOpen(m.gen)
		}
	case StateAnimatingClose:
		m.transitionTime += deltaTime
		if m.transitionTime >= m.closeTimeout {
			// 完成回调未到：强制吸附归位并回到 Idle
			log.Printf("[Interaction] 合书动画超时 (%.1fs)，强制归位", m.closeTimeout)
			b := m.selected
			m.anim.Kill(&b.Transform)
			b.Transform = b.Resting
			m.finishClose(m.gen)
		}
	}

	// 紧急兜底：关闭请求发出后，无论当前处于什么状态，
	// 超过紧急时限仍未回到 Idle 就做全量复位
	if m.emergencyArmed {
		if m.state == StateIdle {
			m.emergencyArmed = false
		} else {
			m.emergencyTime += deltaTime
			if m.emergencyTime >= m.emergencyTimeout {
				log.Printf("[Interaction] 紧急超时 (%.1fs)，执行全量复位", m.emergencyTimeout)
				m.ResetAllStates()
			}
		}
	}
}

// ResetAllStates 紧急全量复位
//
// 从任何状态调用都回到 Idle：中断所有动画，所有书吸附到
// 归位变换，清除选中与悬停，关闭阅读器，清空过滤与搜索。
func (m *Machine) ResetAllStates() {
	log.Printf("[Interaction] ResetAllStates (state=%s)", m.state)
	m.gen++ // 作废所有在途回调
	m.anim.KillAll()
	m.shelf.SnapAllToResting()
	m.view.Close()
	m.state = StateIdle
	m.selected = nil
	m.hovered = nil
	m.emergencyArmed = false
	m.emergencyTime = 0
	m.transitionTime = 0
	m.activeFilter = ""
	m.activeQuery = ""
}

// FilterByCategory 按分类键过滤书架
// key 为 "all" 或空字符串时清除过滤
func (m *Machine) FilterByCategory(key string) {
	if key == "all" {
		key = ""
	}
	m.activeFilter = key
	m.activeQuery = ""
	m.applyFilter(m.activeMatch())
}

// Search 按查询文本过滤书架
// 匹配对象：分类键、标题、描述以及条目名称（大小写无关的子串匹配）
func (m *Machine) Search(query string) {
	m.activeQuery = strings.TrimSpace(query)
	m.activeFilter = ""
	m.applyFilter(m.activeMatch())
}

// activeMatch 返回当前过滤/搜索对应的匹配谓词
// 没有生效的过滤或搜索时返回 nil（全部可见）
func (m *Machine) activeMatch() func(*components.Book) bool {
	if m.activeFilter != "" {
		key := m.activeFilter
		return func(b *components.Book) bool {
			return b.Key == key
		}
	}
	if m.activeQuery != "" {
		needle := strings.ToLower(m.activeQuery)
		return func(b *components.Book) bool {
			return m.matchesQuery(b, needle)
		}
	}
	return nil
}

// matchesQuery 判断一本书是否匹配查询（needle 已转小写）
func (m *Machine) matchesQuery(b *components.Book, needle string) bool {
	if strings.Contains(strings.ToLower(b.Key), needle) {
		return true
	}
	entry, ok := m.catalog.Entry(b.Key)
	if !ok {
		return false
	}
	if strings.Contains(strings.ToLower(entry.Title), needle) ||
		strings.Contains(strings.ToLower(entry.Description), needle) {
		return true
	}
	for _, item := range entry.Items {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			return true
		}
	}
	return false
}

// applyFilter 把过滤谓词落到每本书的目标变换上
//
// match 为 nil 表示全部可见。对每本受影响的书先中断既有补间
// 再启动新补间，因此重复应用同一过滤是幂等的：即使在动画
// 中途重入，终态也与只应用一次相同。
//
// 当前选中的书不参与过滤动画：它的变换归开/合动画所有，
// 关闭动画总是终止于归位变换。
func (m *Machine) applyFilter(match func(*components.Book) bool) {
	for _, b := range m.shelf.Books() {
		if b == m.selected {
			continue
		}

		if b.Hovered {
			b.Hovered = false
			if m.hovered == b {
				m.hovered = nil
			}
		}

		m.collapseTo(b, match == nil || match(b))
	}
}

// collapseTo 把一本书补间到过滤结果对应的目标变换
// matched 为真补间回归位全尺寸，为假补间到折叠下沉状态
func (m *Machine) collapseTo(b *components.Book, matched bool) {
	layout := m.shelf.Layout()
	target := b.Resting
	if !matched {
		target.ScaleX = layout.CollapsedScale
		target.ScaleY = layout.CollapsedScale
		target.Y = b.Resting.Y + layout.CollapsedSink
	}
	b.Collapsed = !matched

	m.anim.Kill(&b.Transform)
	m.anim.Start(tween.Tween{
		Target:   &b.Transform,
		To:       target,
		Duration: layout.FilterDuration,
		Ease:     utils.EaseOutCubic,
	})
}

// clearHover 立即完全取消当前悬停（不缓动）
func (m *Machine) clearHover() {
	if m.hovered == nil {
		return
	}
	b := m.hovered
	m.hovered = nil
	m.anim.Kill(&b.Transform)
	b.Transform = b.Resting
	b.Hovered = false
}

// hoverTransform 计算悬停强调变换
func (m *Machine) hoverTransform(b *components.Book) components.Transform {
	layout := m.shelf.Layout()
	t := b.Resting
	t.Y -= layout.HoverLift
	t.ScaleX = layout.HoverScale
	t.ScaleY = layout.HoverScale
	t.Rotation = layout.HoverTilt
	return t
}

// openTransform 计算打开状态（阅读焦点）变换
func (m *Machine) openTransform(b *components.Book) components.Transform {
	layout := m.shelf.Layout()
	return components.Transform{
		X:      layout.OpenFocusX,
		Y:      layout.OpenFocusY,
		ScaleX: layout.OpenScale,
		ScaleY: layout.OpenScale,
	}
}

// pagesFor 从目录构建一本书的页集：封面页 + 每个条目一页
// 目录里找不到分类时给出单页占位
func (m *Machine) pagesFor(b *components.Book) []viewer.Page {
	entry, ok := m.catalog.Entry(b.Key)
	if !ok {
		return []viewer.Page{{
			Title: b.Label,
			Body:  "No catalog entry for this category.",
		}}
	}
	pages := []viewer.Page{{Title: entry.Title, Body: entry.Description}}
	for _, item := range entry.Items {
		pages = append(pages, viewer.Page{Title: item.Name, Body: item.Description})
	}
	return pages
}
