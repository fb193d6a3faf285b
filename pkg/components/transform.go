package components

import "github.com/decker502/kolamshelf/pkg/utils"

// Transform 描述一个实体在画廊场景中的摆放状态
// 位置使用逻辑屏幕坐标（像素），旋转为弧度，缩放为相对系数（1.0 = 原始大小）
type Transform struct {
	X        float64 // 水平位置（像素）
	Y        float64 // 垂直位置（像素）
	Rotation float64 // 旋转角度（弧度，正值为顺时针）
	ScaleX   float64 // 水平缩放系数
	ScaleY   float64 // 垂直缩放系数
}

// IdentityTransform 返回位于原点、无旋转、原始大小的变换
func IdentityTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// LerpTransform 在两个变换之间按进度 t 线性插值
// t=0 返回 a，t=1 返回 b，所有分量独立插值
func LerpTransform(a, b Transform, t float64) Transform {
	return Transform{
		X:        utils.Lerp(a.X, b.X, t),
		Y:        utils.Lerp(a.Y, b.Y, t),
		Rotation: utils.Lerp(a.Rotation, b.Rotation, t),
		ScaleX:   utils.Lerp(a.ScaleX, b.ScaleX, t),
		ScaleY:   utils.Lerp(a.ScaleY, b.ScaleY, t),
	}
}
