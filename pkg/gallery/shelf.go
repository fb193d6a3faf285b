// Package gallery 实现书架画廊的实体层与交互状态机
//
// Shelf 扮演"场景"的角色：持有所有书实体、它们的归位变换、
// 指针命中图元以及图元到书的归属映射。交互状态机（Machine）
// 只通过 Shelf 的查询接口解析指针事件，不自己遍历场景结构。
package gallery

import (
	"fmt"
	"image/color"
	"math"

	"github.com/decker502/kolamshelf/pkg/components"
	"github.com/decker502/kolamshelf/pkg/config"
)

// Primitive 是可被指针命中的低层图元（书脊、书名条等）
// 一本书注册时会同时登记若干图元；图元到书的归属关系
// 在注册时写入映射表，命中解析不做运行期树遍历
type Primitive struct {
	ID       string  // 图元唯一标识
	OwnerKey string  // 所属书键的直接反向引用，可为空
	X, Y     float64 // 矩形左上角（逻辑屏幕坐标）
	W, H     float64 // 矩形尺寸
	Depth    int     // 绘制层级，越大越靠近观察者
}

// Hit 是一次指针命中
type Hit struct {
	Primitive *Primitive
	X, Y      float64 // 命中点
}

// Shelf 持有全部书实体与命中图元
type Shelf struct {
	layout config.ShelfLayout

	// books 按注册顺序保存，顺序决定书架摆放
	books []*components.Book
	byKey map[string]*components.Book

	prims   []*Primitive
	ownerOf map[string]string // 图元ID → 书键，注册时填充
}

// NewShelf 创建空书架
func NewShelf(layout config.ShelfLayout) *Shelf {
	return &Shelf{
		layout:  layout,
		byKey:   make(map[string]*components.Book),
		ownerOf: make(map[string]string),
	}
}

// Layout 返回书架布局
func (s *Shelf) Layout() config.ShelfLayout {
	return s.layout
}

// Register 注册一本书，归位变换在此捕获且此后不再变化
// 重复的键返回错误
func (s *Shelf) Register(key, label string, spine color.RGBA) (*components.Book, error) {
	if key == "" {
		return nil, fmt.Errorf("书键不能为空")
	}
	if _, exists := s.byKey[key]; exists {
		return nil, fmt.Errorf("书键重复: %s", key)
	}

	x, y := s.layout.RestingPosition(len(s.books))
	resting := components.Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1}

	book := &components.Book{
		Key:       key,
		Label:     label,
		Spine:     spine,
		Transform: resting,
		Resting:   resting,
	}
	s.books = append(s.books, book)
	s.byKey[key] = book
	s.registerPrimitives(book)
	return book, nil
}

// registerPrimitives 为一本书登记命中图元
//
// 三个图元对应命中解析的前三个策略：
//   - 书脊条带携带 OwnerKey 直接反向引用
//   - 书体图元的 ID 就是书键本身
//   - 书名条没有反向引用，归属关系只存在于 ownerOf 映射中
func (s *Shelf) registerPrimitives(b *components.Book) {
	l := s.layout
	left := b.Resting.X - l.BookWidth/2
	top := b.Resting.Y - l.BookHeight/2

	body := &Primitive{
		ID: b.Key,
		X:  left, Y: top,
		W: l.BookWidth, H: l.BookHeight,
		Depth: 1,
	}
	spineStrip := &Primitive{
		ID:       b.Key + "/spine",
		OwnerKey: b.Key,
		X:        left, Y: top,
		W: l.BookWidth * 0.25, H: l.BookHeight,
		Depth: 2,
	}
	labelBand := &Primitive{
		ID: b.Key + "/label",
		X:  left, Y: top + l.BookHeight*0.35,
		W: l.BookWidth, H: l.BookHeight * 0.3,
		Depth: 3,
	}

	s.prims = append(s.prims, body, spineStrip, labelBand)
	s.ownerOf[labelBand.ID] = b.Key
}

// Books 返回注册顺序的全部书
func (s *Shelf) Books() []*components.Book {
	return s.books
}

// ByKey 按键查找书
func (s *Shelf) ByKey(key string) (*components.Book, bool) {
	b, ok := s.byKey[key]
	return b, ok
}

// Pick 返回命中点 (x, y) 处的所有图元，按层级从近到远排序
func (s *Shelf) Pick(x, y float64) []Hit {
	var hits []Hit
	for _, p := range s.prims {
		if x >= p.X && x < p.X+p.W && y >= p.Y && y < p.Y+p.H {
			hits = append(hits, Hit{Primitive: p, X: x, Y: y})
		}
	}
	// 层级高的排前面（插入排序，命中数通常只有几个）
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Primitive.Depth > hits[j-1].Primitive.Depth; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	return hits
}

// ResolveHit 将一次命中解析为所属的书
//
// 依次尝试四个策略：
//  1. 图元上的直接反向引用
//  2. 图元 ID 本身是已注册的书键
//  3. 注册时填充的归属映射
//  4. 兜底：命中点附近 PickRadius 半径内归位位置最近的书
//
// 四个策略都落空返回 (nil, false)，调用方按无操作处理
func (s *Shelf) ResolveHit(h Hit) (*components.Book, bool) {
	if h.Primitive != nil {
		if h.Primitive.OwnerKey != "" {
			if b, ok := s.byKey[h.Primitive.OwnerKey]; ok {
				return b, true
			}
		}
		if b, ok := s.byKey[h.Primitive.ID]; ok {
			return b, true
		}
		if owner, ok := s.ownerOf[h.Primitive.ID]; ok {
			if b, ok := s.byKey[owner]; ok {
				return b, true
			}
		}
	}
	return s.nearestWithin(h.X, h.Y, s.layout.PickRadius)
}

// ResolvePoint 解析指针位置指向的书，未命中任何图元时返回 (nil, false)
func (s *Shelf) ResolvePoint(x, y float64) (*components.Book, bool) {
	for _, h := range s.Pick(x, y) {
		if b, ok := s.ResolveHit(h); ok {
			return b, true
		}
	}
	return nil, false
}

// nearestWithin 返回归位位置距 (x, y) 不超过 radius 的最近的书
func (s *Shelf) nearestWithin(x, y, radius float64) (*components.Book, bool) {
	var best *components.Book
	bestDist := radius
	for _, b := range s.books {
		d := math.Hypot(b.Resting.X-x, b.Resting.Y-y)
		if d <= bestDist {
			best = b
			bestDist = d
		}
	}
	return best, best != nil
}

// UpdateSway 更新待机书的环境摇摆
//
// 摇摆以归位变换为基准计算绝对值，不累积漂移。
// 悬停、折叠或 busy（被选中 / 有在途补间）的书必须跳过，
// 保证环境摇摆与状态机动画不会同时写同一本书的变换。
func (s *Shelf) UpdateSway(elapsed float64, busy func(*components.Book) bool) {
	l := s.layout
	for i, b := range s.books {
		if b.Hovered || b.Collapsed {
			continue
		}
		if busy != nil && busy(b) {
			continue
		}
		phase := float64(i) * 0.7
		b.Transform = b.Resting
		b.Transform.Y = b.Resting.Y + math.Sin(elapsed*l.SwaySpeed+phase)*l.SwayAmplitude
		b.Transform.Rotation = math.Sin(elapsed*l.SwaySpeed*0.6+phase) * 0.008
	}
}

// SnapAllToResting 将所有书立即恢复归位状态并清除悬停/折叠标记
func (s *Shelf) SnapAllToResting() {
	for _, b := range s.books {
		b.Transform = b.Resting
		b.Hovered = false
		b.Collapsed = false
	}
}
