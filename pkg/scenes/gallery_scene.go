// Package scenes 实现画廊的具体场景
package scenes

import (
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/kolamshelf/pkg/components"
	"github.com/decker502/kolamshelf/pkg/config"
	"github.com/decker502/kolamshelf/pkg/gallery"
	"github.com/decker502/kolamshelf/pkg/game"
	"github.com/decker502/kolamshelf/pkg/utils"
	"github.com/decker502/kolamshelf/pkg/viewer"
)

// 目录回退提示的显示时长（秒）
const noticeDuration = 6.0

// GalleryScene 书架画廊场景
//
// 职责：
//   - 把指针/键盘输入转交给交互状态机
//   - 驱动状态机、补间引擎、环境摇摆与阅读器的逐帧更新
//   - 绘制书架、书、状态栏与阅读器浮层
//
// 场景自身不持有交互状态；唯一的 InteractionState 归状态机所有。
type GalleryScene struct {
	shelf    *gallery.Shelf
	machine  *gallery.Machine
	view     viewer.Viewer
	catalog  *game.Catalog
	settings *game.SettingsManager

	labelFace  *text.GoTextFace
	statusFace *text.GoTextFace

	// 每本书预渲染的书脊贴图，按键索引
	spineImages map[string]*ebiten.Image

	elapsed     float64 // 场景累计时间，驱动环境摇摆
	noticeTimer float64 // 目录回退提示剩余显示时间

	// 搜索输入
	searching bool
	searchBuf []rune

	// Tab 循环过滤的当前位置（0 = 全部）
	filterIndex int
}

// NewGalleryScene 创建画廊场景
func NewGalleryScene(
	shelf *gallery.Shelf,
	machine *gallery.Machine,
	view viewer.Viewer,
	catalog *game.Catalog,
	settings *game.SettingsManager,
	rm *game.ResourceManager,
) *GalleryScene {
	s := &GalleryScene{
		shelf:       shelf,
		machine:     machine,
		view:        view,
		catalog:     catalog,
		settings:    settings,
		spineImages: make(map[string]*ebiten.Image),
	}
	if rm != nil {
		s.labelFace = rm.Face(13)
		s.statusFace = rm.Face(14)
	}
	if catalog.UsedFallback {
		s.noticeTimer = noticeDuration
	}
	s.buildSpineImages()
	return s
}

// buildSpineImages 为每本书预渲染书脊贴图
// 书脊是程序化装饰：底色、高光条带、标题文字
func (s *GalleryScene) buildSpineImages() {
	layout := s.shelf.Layout()
	w := int(layout.BookWidth)
	h := int(layout.BookHeight)
	for _, b := range s.shelf.Books() {
		img := ebiten.NewImage(w, h)
		img.Fill(b.Spine)

		// 左侧高光条带
		highlight := color.RGBA{
			R: saturate(b.Spine.R, 40),
			G: saturate(b.Spine.G, 40),
			B: saturate(b.Spine.B, 40),
			A: 255,
		}
		vector.DrawFilledRect(img, 0, 0, float32(layout.BookWidth*0.18), float32(h), highlight, false)

		// 标题条
		bandY := float32(layout.BookHeight * 0.35)
		bandH := float32(layout.BookHeight * 0.3)
		vector.DrawFilledRect(img, 2, bandY, float32(w-4), bandH, color.RGBA{245, 238, 220, 255}, false)

		if s.labelFace != nil {
			lines := utils.WrapText(b.Label, s.labelFace, layout.BookWidth-10)
			lineY := float64(bandY) + 6
			for _, line := range lines {
				if lineY+s.labelFace.Size > float64(bandY+bandH) {
					break
				}
				op := &text.DrawOptions{}
				op.GeoM.Translate(5, lineY)
				op.ColorScale.ScaleWithColor(color.RGBA{54, 40, 26, 255})
				text.Draw(img, line, s.labelFace, op)
				lineY += s.labelFace.Size * 1.3
			}
		}
		s.spineImages[b.Key] = img
	}
}

// saturate 提亮一个颜色通道，溢出时钳制到 255
func saturate(v uint8, add uint8) uint8 {
	if int(v)+int(add) > 255 {
		return 255
	}
	return v + add
}

// Update 场景逐帧更新
func (s *GalleryScene) Update(deltaTime float64) {
	s.elapsed += deltaTime
	if s.noticeTimer > 0 {
		s.noticeTimer -= deltaTime
	}

	s.handleKeyboard()
	s.handlePointer()

	s.machine.Update(deltaTime)
	s.shelf.UpdateSway(s.elapsed, s.machine.BookBusy)
	s.view.Update(deltaTime)
}

// handleKeyboard 处理键盘输入
func (s *GalleryScene) handleKeyboard() {
	if s.searching {
		for _, r := range ebiten.AppendInputChars(nil) {
			if r >= ' ' {
				s.searchBuf = append(s.searchBuf, r)
			}
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(s.searchBuf) > 0 {
			s.searchBuf = s.searchBuf[:len(s.searchBuf)-1]
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			s.searching = false
			s.machine.Search(string(s.searchBuf))
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
			s.searching = false
			s.searchBuf = nil
		}
		return
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySlash):
		s.searchBuf = nil
		s.searching = true

	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		if s.view.IsOpen() {
			s.machine.RequestClose()
		} else if s.machine.ActiveFilter() != "" || s.machine.ActiveQuery() != "" {
			s.machine.FilterByCategory("all")
			s.rememberFilter("")
		}

	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		s.machine.ResetAllStates()
		s.filterIndex = 0
		s.rememberFilter("")

	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		s.cycleFilter()

	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		s.view.Next()

	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		s.view.Prev()
	}
}

// cycleFilter 用 Tab 在"全部 → 各分类"之间循环过滤
func (s *GalleryScene) cycleFilter() {
	keys := s.catalog.Categories
	s.filterIndex = (s.filterIndex + 1) % (len(keys) + 1)
	if s.filterIndex == 0 {
		s.machine.FilterByCategory("all")
		s.rememberFilter("")
		return
	}
	key := keys[s.filterIndex-1].Key
	s.machine.FilterByCategory(key)
	s.rememberFilter(key)
}

// rememberFilter 把过滤键写入偏好设置
func (s *GalleryScene) rememberFilter(key string) {
	s.settings.SetLastFilter(key)
	if err := s.settings.Save(); err != nil {
		// 持久化失败只影响下次启动的恢复，不影响本次运行
		log.Printf("[GalleryScene] 设置保存失败: %v", err)
	}
}

// handlePointer 处理指针输入
// 阅读器打开时点击归阅读器的关闭/翻页区域；否则进入书架的悬停/点击流程
func (s *GalleryScene) handlePointer() {
	p := utils.GetPointerState()
	px, py := float64(p.X), float64(p.Y)

	if s.view.IsOpen() {
		if p.JustPressed {
			switch {
			case viewer.HitClose(px, py):
				s.machine.RequestClose()
			case viewer.HitNext(px, py):
				s.view.Next()
			case viewer.HitPrev(px, py):
				s.view.Prev()
			}
		}
		return
	}

	// 触摸设备没有悬停语义
	if !p.IsTouching {
		s.machine.HandleHover(px, py)
	}
	if p.JustPressed {
		s.machine.HandleClick(px, py)
	}
}

// Draw 绘制场景
func (s *GalleryScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{38, 30, 24, 255})

	s.drawShelfBoards(screen)

	// 选中的书最后绘制，保证它浮在其他书之上
	selected := s.machine.Selected()
	for _, b := range s.shelf.Books() {
		if b != selected {
			s.drawBook(screen, b)
		}
	}
	if selected != nil {
		s.drawBook(screen, selected)
	}

	s.drawStatus(screen)
	s.drawNotice(screen)
	s.view.Draw(screen)
}

// drawShelfBoards 绘制每层书架的木板
func (s *GalleryScene) drawShelfBoards(screen *ebiten.Image) {
	layout := s.shelf.Layout()
	count := len(s.shelf.Books())
	if count == 0 {
		return
	}
	rows := (count + layout.BooksPerRow - 1) / layout.BooksPerRow
	boardW := float64(layout.BooksPerRow)*(layout.BookWidth+layout.BookGap) + layout.BookGap
	for row := 0; row < rows; row++ {
		boardY := layout.ShelfY + float64(row)*(layout.BookHeight+layout.RowGap) + layout.BookHeight + 4
		vector.DrawFilledRect(screen,
			float32(layout.ShelfX-layout.BookGap), float32(boardY),
			float32(boardW), 14, color.RGBA{82, 58, 36, 255}, false)
	}
}

// drawBook 按当前变换绘制一本书
func (s *GalleryScene) drawBook(screen *ebiten.Image, b *components.Book) {
	img, ok := s.spineImages[b.Key]
	if !ok {
		return
	}
	layout := s.shelf.Layout()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-layout.BookWidth/2, -layout.BookHeight/2)
	op.GeoM.Scale(b.Transform.ScaleX, b.Transform.ScaleY)
	op.GeoM.Rotate(b.Transform.Rotation)
	op.GeoM.Translate(b.Transform.X, b.Transform.Y)
	if b.Hovered {
		op.ColorScale.Scale(1.12, 1.12, 1.08, 1)
	}
	screen.DrawImage(img, op)
}

// drawStatus 绘制底部状态栏
func (s *GalleryScene) drawStatus(screen *ebiten.Image) {
	if s.statusFace == nil {
		return
	}
	var status string
	switch {
	case s.searching:
		status = "Search: " + string(s.searchBuf) + "_"
	case s.machine.ActiveQuery() != "":
		status = fmt.Sprintf("Search %q (Esc to clear)", s.machine.ActiveQuery())
	case s.machine.ActiveFilter() != "":
		status = fmt.Sprintf("Filter: %s (Tab to cycle, Esc to clear)", s.machine.ActiveFilter())
	default:
		status = "Click a book to open. / search, Tab filter, R reset"
	}

	op := &text.DrawOptions{}
	op.GeoM.Translate(16, float64(config.GameWindowHeight)-28)
	op.ColorScale.ScaleWithColor(color.RGBA{214, 198, 170, 255})
	text.Draw(screen, status, s.statusFace, op)
}

// drawNotice 绘制目录回退的非致命提示
func (s *GalleryScene) drawNotice(screen *ebiten.Image) {
	if s.noticeTimer <= 0 || s.statusFace == nil {
		return
	}
	vector.DrawFilledRect(screen, 0, 0, float32(config.GameWindowWidth), 30,
		color.RGBA{140, 90, 30, 220}, false)
	op := &text.DrawOptions{}
	op.GeoM.Translate(16, 7)
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, "Catalog unavailable, showing built-in demo content", s.statusFace, op)
}
