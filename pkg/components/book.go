package components

import "image/color"

// Book 表示书架上的一本书（对应一个内容分类）
//
// Transform 是书的当前摆放状态，会被悬停/打开/过滤动画修改；
// Resting 在注册时捕获一次后不再变化，是"归位"状态的唯一依据：
// 所有打开/关闭动画都必须终止于或起始于 Resting。
type Book struct {
	Key   string     // 分类键，如 "FestivalKolams"，同时是书的唯一标识
	Label string     // 书脊上显示的标题
	Spine color.RGBA // 书脊颜色（程序化装饰）

	Transform Transform // 当前变换（动画的写入目标）
	Resting   Transform // 归位变换，注册时设置一次，之后只读

	Hovered   bool // 当前是否处于悬停强调状态
	Collapsed bool // 是否被过滤折叠（仍然存在，只是收起）
}
