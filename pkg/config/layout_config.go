// Package config 提供画廊的布局与窗口配置
package config

import (
	"fmt"
	"log"

	"gopkg.in/yaml.v3"
)

// 窗口配置常量
const (
	// GameWindowWidth 逻辑屏幕宽度（像素）
	GameWindowWidth = 960

	// GameWindowHeight 逻辑屏幕高度（像素）
	GameWindowHeight = 600
)

// ShelfLayout 书架布局配置
// 所有坐标使用逻辑屏幕坐标，书的归位位置由此计算得出
type ShelfLayout struct {
	// 书架整体位置与书的尺寸
	ShelfX      float64 `yaml:"shelfX"`      // 第一本书书脊左上角 X
	ShelfY      float64 `yaml:"shelfY"`      // 书脊顶部 Y
	BookWidth   float64 `yaml:"bookWidth"`   // 书脊宽度（像素）
	BookHeight  float64 `yaml:"bookHeight"`  // 书脊高度（像素）
	BookGap     float64 `yaml:"bookGap"`     // 相邻书脊间距（像素）
	BooksPerRow int     `yaml:"booksPerRow"` // 每层书架可放的书数
	RowGap      float64 `yaml:"rowGap"`      // 上下两层书架的间距（像素）

	// 悬停强调
	HoverLift  float64 `yaml:"hoverLift"`  // 悬停时书抬起的像素数
	HoverScale float64 `yaml:"hoverScale"` // 悬停时的缩放系数
	HoverTilt  float64 `yaml:"hoverTilt"`  // 悬停时的倾斜角（弧度）

	// 打开状态：书飞到的阅读焦点位置
	OpenFocusX float64 `yaml:"openFocusX"`
	OpenFocusY float64 `yaml:"openFocusY"`
	OpenScale  float64 `yaml:"openScale"`

	// 过滤折叠状态
	CollapsedScale float64 `yaml:"collapsedScale"` // 不匹配的书收缩到的系数
	CollapsedSink  float64 `yaml:"collapsedSink"`  // 收缩的同时下沉的像素数

	// 环境摇摆（书在待机时的轻微浮动）
	SwayAmplitude float64 `yaml:"swayAmplitude"` // 摇摆幅度（像素）
	SwaySpeed     float64 `yaml:"swaySpeed"`     // 摇摆角速度（弧度/秒）

	// 指针命中兜底半径：所有精确命中都落空时，
	// 以命中点为圆心在此半径内找最近的书
	PickRadius float64 `yaml:"pickRadius"`

	// 动画时长（秒）
	HoverDuration  float64 `yaml:"hoverDuration"`
	OpenDuration   float64 `yaml:"openDuration"`
	CloseDuration  float64 `yaml:"closeDuration"`
	FilterDuration float64 `yaml:"filterDuration"`
}

// DefaultShelfLayout 返回默认书架布局
func DefaultShelfLayout() ShelfLayout {
	return ShelfLayout{
		ShelfX:      120,
		ShelfY:      140,
		BookWidth:   72,
		BookHeight:  220,
		BookGap:     18,
		BooksPerRow: 8,
		RowGap:      60,

		HoverLift:  22,
		HoverScale: 1.06,
		HoverTilt:  -0.06,

		OpenFocusX: 480,
		OpenFocusY: 300,
		OpenScale:  1.6,

		CollapsedScale: 0.12,
		CollapsedSink:  36,

		SwayAmplitude: 2.5,
		SwaySpeed:     1.2,

		PickRadius: 48,

		HoverDuration:  0.18,
		OpenDuration:   0.6,
		CloseDuration:  0.5,
		FilterDuration: 0.35,
	}
}

// ParseShelfLayout 从 YAML 数据解析布局
// 缺失的字段回退到默认值，非法值（尺寸为零或负数）视为解析失败
func ParseShelfLayout(data []byte) (ShelfLayout, error) {
	layout := DefaultShelfLayout()
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return DefaultShelfLayout(), fmt.Errorf("布局配置解析失败: %w", err)
	}
	if layout.BookWidth <= 0 || layout.BookHeight <= 0 || layout.BooksPerRow <= 0 {
		return DefaultShelfLayout(), fmt.Errorf("布局配置非法: bookWidth=%.1f bookHeight=%.1f booksPerRow=%d",
			layout.BookWidth, layout.BookHeight, layout.BooksPerRow)
	}
	return layout, nil
}

// LoadShelfLayout 加载布局配置，失败时回退到默认值
// read 是读取函数（通常为 embedded.ReadFile），便于测试注入
func LoadShelfLayout(path string, read func(string) ([]byte, error)) ShelfLayout {
	data, err := read(path)
	if err != nil {
		log.Printf("[Config] 布局配置 %s 读取失败: %v（使用默认布局）", path, err)
		return DefaultShelfLayout()
	}
	layout, err := ParseShelfLayout(data)
	if err != nil {
		log.Printf("[Config] %v（使用默认布局）", err)
		return DefaultShelfLayout()
	}
	return layout
}

// RestingPosition 计算第 index 本书的归位坐标（书脊中心点）
func (l ShelfLayout) RestingPosition(index int) (x, y float64) {
	row := index / l.BooksPerRow
	col := index % l.BooksPerRow
	x = l.ShelfX + float64(col)*(l.BookWidth+l.BookGap) + l.BookWidth/2
	y = l.ShelfY + float64(row)*(l.BookHeight+l.RowGap) + l.BookHeight/2
	return x, y
}
