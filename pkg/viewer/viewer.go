// Package viewer 实现翻页阅读器（打开一本书后的内容浮层）
//
// 阅读器覆盖在书架场景之上，展示当前分类的内容页。
// 有两个实现：
//   - PageFlipViewer: 带翻页动画的实现
//   - InstantViewer: 无动画直接换页的实现（"减少动态效果"偏好）
//
// 两者在启动时按偏好选定其一，运行期不再切换。
package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/kolamshelf/pkg/config"
	"github.com/decker502/kolamshelf/pkg/utils"
)

// Page 阅读器中的一页
type Page struct {
	Title string // 页标题
	Body  string // 正文
}

// Viewer 阅读器能力接口
type Viewer interface {
	// Open 以给定页集打开阅读器，翻回第一页
	Open(pages []Page)
	// Close 关闭阅读器，丢弃页集
	Close()
	// Next 翻到下一页，已是最后一页或翻页动画进行中时忽略
	Next()
	// Prev 翻到上一页，已是第一页或翻页动画进行中时忽略
	Prev()
	// IsOpen 返回阅读器是否打开
	IsOpen() bool
	// PageIndex 返回当前页索引
	PageIndex() int
	// Update 推进翻页动画
	Update(deltaTime float64)
	// Draw 绘制阅读器浮层
	Draw(screen *ebiten.Image)
}

// 阅读器面板几何（逻辑屏幕坐标）
const (
	panelMarginX = 140.0
	panelMarginY = 70.0
	panelPadding = 28.0
	navZoneWidth = 90.0 // 面板左右两侧的翻页点击区宽度
	closeSize    = 36.0 // 右上角关闭按钮边长
)

// panel 返回面板矩形
func panel() (x, y, w, h float64) {
	x = panelMarginX
	y = panelMarginY
	w = float64(config.GameWindowWidth) - 2*panelMarginX
	h = float64(config.GameWindowHeight) - 2*panelMarginY
	return
}

// HitClose 判断点是否落在关闭按钮上
func HitClose(px, py float64) bool {
	x, y, w, _ := panel()
	return px >= x+w-closeSize && px < x+w && py >= y && py < y+closeSize
}

// HitNext 判断点是否落在"下一页"区域（面板右侧边缘）
func HitNext(px, py float64) bool {
	x, y, w, h := panel()
	return px >= x+w-navZoneWidth && px < x+w && py >= y+closeSize && py < y+h
}

// HitPrev 判断点是否落在"上一页"区域（面板左侧边缘）
func HitPrev(px, py float64) bool {
	x, y, _, h := panel()
	return px >= x && px < x+navZoneWidth && py >= y && py < y+h
}

// bookState 两个实现共享的页集状态
type bookState struct {
	pages []Page
	index int
	open  bool
}

func (b *bookState) Open(pages []Page) {
	b.pages = pages
	b.index = 0
	b.open = true
}

func (b *bookState) Close() {
	b.open = false
	b.pages = nil
	b.index = 0
}

func (b *bookState) IsOpen() bool   { return b.open }
func (b *bookState) PageIndex() int { return b.index }

// PageFlipViewer 带翻页动画的阅读器
type PageFlipViewer struct {
	bookState

	titleFace *text.GoTextFace
	bodyFace  *text.GoTextFace

	flipDuration float64
	flipping     bool
	flipDir      int // +1 下一页，-1 上一页
	flipElapsed  float64
}

// NewPageFlipViewer 创建翻页阅读器
// 字体可为 nil（仅影响文字绘制，逻辑不受影响）
func NewPageFlipViewer(titleFace, bodyFace *text.GoTextFace, flipDuration float64) *PageFlipViewer {
	if flipDuration <= 0 {
		flipDuration = 0.35
	}
	return &PageFlipViewer{
		titleFace:    titleFace,
		bodyFace:     bodyFace,
		flipDuration: flipDuration,
	}
}

// Open 打开阅读器并中止未完成的翻页
func (v *PageFlipViewer) Open(pages []Page) {
	v.bookState.Open(pages)
	v.flipping = false
}

// Close 关闭阅读器
func (v *PageFlipViewer) Close() {
	v.bookState.Close()
	v.flipping = false
}

// Next 开始向后翻页
// 翻页动画进行中或已是最后一页时忽略（防连点保护）
func (v *PageFlipViewer) Next() {
	if !v.open || v.flipping || v.index+1 >= len(v.pages) {
		return
	}
	v.flipping = true
	v.flipDir = 1
	v.flipElapsed = 0
}

// Prev 开始向前翻页
func (v *PageFlipViewer) Prev() {
	if !v.open || v.flipping || v.index == 0 {
		return
	}
	v.flipping = true
	v.flipDir = -1
	v.flipElapsed = 0
}

// Update 推进翻页动画，动画走完时切换页索引
func (v *PageFlipViewer) Update(deltaTime float64) {
	if !v.open || !v.flipping {
		return
	}
	v.flipElapsed += deltaTime
	if v.flipElapsed >= v.flipDuration {
		v.index += v.flipDir
		v.flipping = false
	}
}

// Draw 绘制阅读器浮层
func (v *PageFlipViewer) Draw(screen *ebiten.Image) {
	if !v.open {
		return
	}
	progress := 0.0
	if v.flipping {
		progress = utils.EaseInOutCubic(utils.Clamp01(v.flipElapsed / v.flipDuration))
	}
	drawPanel(screen, v.pages, v.index, v.flipDir, progress, v.titleFace, v.bodyFace)
}

// InstantViewer 无动画阅读器
// 换页立即生效，用于"减少动态效果"偏好
type InstantViewer struct {
	bookState

	titleFace *text.GoTextFace
	bodyFace  *text.GoTextFace
}

// NewInstantViewer 创建无动画阅读器
func NewInstantViewer(titleFace, bodyFace *text.GoTextFace) *InstantViewer {
	return &InstantViewer{titleFace: titleFace, bodyFace: bodyFace}
}

// Next 立即翻到下一页
func (v *InstantViewer) Next() {
	if v.open && v.index+1 < len(v.pages) {
		v.index++
	}
}

// Prev 立即翻到上一页
func (v *InstantViewer) Prev() {
	if v.open && v.index > 0 {
		v.index--
	}
}

// Update 无动画，无事可做
func (v *InstantViewer) Update(deltaTime float64) {}

// Draw 绘制阅读器浮层（无翻页动画）
func (v *InstantViewer) Draw(screen *ebiten.Image) {
	if !v.open {
		return
	}
	drawPanel(screen, v.pages, v.index, 0, 0, v.titleFace, v.bodyFace)
}

// drawPanel 绘制公共的面板、页内容与导航提示
//
// 翻页动画表现为当前页横向收缩再展开：progress < 0.5 显示旧页收缩，
// progress >= 0.5 显示目标页展开
func drawPanel(screen *ebiten.Image, pages []Page, index, flipDir int, progress float64, titleFace, bodyFace *text.GoTextFace) {
	x, y, w, h := panel()

	// 半透明遮罩 + 面板底色
	vector.DrawFilledRect(screen, 0, 0, float32(config.GameWindowWidth), float32(config.GameWindowHeight),
		color.RGBA{0, 0, 0, 140}, false)
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h),
		color.RGBA{246, 240, 226, 255}, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 2,
		color.RGBA{120, 96, 60, 255}, false)

	// 关闭按钮
	vector.DrawFilledRect(screen, float32(x+w-closeSize), float32(y), float32(closeSize), float32(closeSize),
		color.RGBA{160, 64, 48, 255}, false)

	if len(pages) == 0 {
		return
	}

	// 翻页动画中途切换显示的页
	shownIndex := index
	pageScale := 1.0
	if flipDir != 0 && progress > 0 {
		if progress < 0.5 {
			pageScale = 1 - progress*2
		} else {
			shownIndex = index + flipDir
			pageScale = progress*2 - 1
		}
	}
	if shownIndex < 0 {
		shownIndex = 0
	}
	if shownIndex >= len(pages) {
		shownIndex = len(pages) - 1
	}
	page := pages[shownIndex]

	// 页面纸张（横向缩放体现翻页）
	pw := (w - 2*panelPadding) * pageScale
	px := x + w/2 - pw/2
	if pw > 1 {
		vector.DrawFilledRect(screen, float32(px), float32(y+panelPadding),
			float32(pw), float32(h-2*panelPadding), color.RGBA{255, 252, 244, 255}, false)
	}

	// 翻页收缩过半时不绘制文字，避免挤压变形
	if pageScale < 0.9 || titleFace == nil {
		return
	}

	textX := x + 2*panelPadding
	textY := y + 2*panelPadding

	titleOp := &text.DrawOptions{}
	titleOp.GeoM.Translate(textX, textY)
	titleOp.ColorScale.ScaleWithColor(color.RGBA{60, 42, 24, 255})
	text.Draw(screen, page.Title, titleFace, titleOp)

	if bodyFace != nil {
		lineY := textY + titleFace.Size*1.8
		for _, line := range utils.WrapText(page.Body, bodyFace, w-4*panelPadding) {
			op := &text.DrawOptions{}
			op.GeoM.Translate(textX, lineY)
			op.ColorScale.ScaleWithColor(color.RGBA{80, 64, 44, 255})
			text.Draw(screen, line, bodyFace, op)
			lineY += bodyFace.Size * 1.5
		}

		// 页码
		pageNum := &text.DrawOptions{}
		pageNum.GeoM.Translate(x+w/2-12, y+h-panelPadding-bodyFace.Size)
		pageNum.ColorScale.ScaleWithColor(color.RGBA{120, 100, 72, 255})
		text.Draw(screen, fmt.Sprintf("%d / %d", shownIndex+1, len(pages)), bodyFace, pageNum)
	}
}
