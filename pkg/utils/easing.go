package utils

import "math"

// 缓动函数集合
//
// 所有函数接受进度 t ∈ [0, 1]，返回缓动后的进度。
// 画廊中的动画（悬停抬起、开书飞行、过滤折叠）都通过这些曲线驱动，
// 使运动看起来自然而不是匀速滑动。
//
// 参考：https://easings.net/

// EaseFunc 缓动函数签名
type EaseFunc func(t float64) float64

// EaseLinear 线性（无缓动）
func EaseLinear(t float64) float64 {
	return t
}

// EaseOutQuad 二次方缓出，开始较快结束柔和
// 用于悬停抬起这类短促的强调动画
func EaseOutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// EaseInOutCubic 三次方缓入缓出，两端慢中间快
// 用于开书/合书这类长距离位移
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// EaseOutCubic 三次方缓出
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// EaseOutBack 回弹缓出，结束前略微过冲再回落
// 用于书从书架"弹出"的视觉效果
func EaseOutBack(t float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	return 1 + c3*math.Pow(t-1, 3) + c1*math.Pow(t-1, 2)
}

// EaseOutExpo 指数缓出，开始极快结束极慢
func EaseOutExpo(t float64) float64 {
	if t >= 1.0 {
		return 1.0
	}
	return 1 - math.Pow(2, -10*t)
}

// Clamp01 将 t 钳制到 [0, 1]
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Lerp 在 a 和 b 之间按 t 线性插值
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
