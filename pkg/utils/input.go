// Package utils 提供通用工具函数
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// PointerState 存储当前帧的指针状态
// 统一鼠标和触摸输入：桌面端读取鼠标，移动端读取首个触摸点
type PointerState struct {
	// JustPressed 本帧是否刚刚发生点击/触摸
	JustPressed bool
	// X, Y 指针位置（逻辑屏幕坐标）
	X, Y int
	// IsTouching 是否来自触摸（用于区分悬停语义：触摸设备没有悬停）
	IsTouching bool
}

// GetPointerState 获取当前帧的指针状态
// 优先检测触摸（移动设备），其次检测鼠标（桌面设备）
func GetPointerState() PointerState {
	state := PointerState{}

	// 新的触摸事件
	touchIDs := inpututil.AppendJustPressedTouchIDs(nil)
	if len(touchIDs) > 0 {
		state.JustPressed = true
		state.X, state.Y = ebiten.TouchPosition(touchIDs[0])
		state.IsTouching = true
		return state
	}

	// 活动中的触摸（手指未抬起）
	allTouchIDs := ebiten.AppendTouchIDs(nil)
	if len(allTouchIDs) > 0 {
		state.X, state.Y = ebiten.TouchPosition(allTouchIDs[0])
		state.IsTouching = true
		return state
	}

	// 鼠标点击
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		state.JustPressed = true
		state.X, state.Y = ebiten.CursorPosition()
		return state
	}

	// 仅悬停：返回鼠标位置
	state.X, state.Y = ebiten.CursorPosition()
	return state
}
