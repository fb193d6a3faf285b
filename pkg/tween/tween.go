// Package tween 提供变换补间动画引擎
//
// 引擎是逐帧推进的：每个 tick 由 Runner.Update(deltaTime) 驱动所有
// 在途补间，不使用 goroutine 或定时器。完成回调在补间到达终点的那一帧、
// 补间从引擎移除之后触发，因此回调内可以立即在同一目标上启动新补间。
//
// 同一目标（*components.Transform）同时最多有一个在途补间：
// Start 会先中断该目标上已有的补间再登记新的，避免两个写入方
// 竞争同一个变换导致最终状态不一致。
package tween

import (
	"github.com/decker502/kolamshelf/pkg/components"
	"github.com/decker502/kolamshelf/pkg/utils"
)

// Tween 描述一次补间请求
type Tween struct {
	Target   *components.Transform // 写入目标，同时是补间的标识
	To       components.Transform  // 终点值
	Duration float64               // 时长（秒），<= 0 视为立即完成
	Ease     utils.EaseFunc        // 缓动曲线，nil 等价于线性

	// OnComplete 在补间自然走完时调用（恰好一次）
	// 被 Kill 中断的补间不会调用 OnComplete
	OnComplete func()
	// OnInterrupt 在补间被 Kill / 被同目标新补间顶替时调用
	OnInterrupt func()
}

// Animator 是动画能力接口
//
// 有两个实现：Runner（逐帧补间）和 Immediate（无动画直达）。
// 启动时根据"减少动态效果"偏好选定其一，之后不再探测切换。
type Animator interface {
	// Start 启动补间，先中断目标上已有的补间
	Start(tw Tween)
	// Kill 中断目标上的在途补间（如果有），目标保持当前值
	Kill(target *components.Transform)
	// KillAll 中断所有在途补间
	KillAll()
	// Active 返回目标上是否有在途补间
	Active(target *components.Transform) bool
	// Update 推进所有在途补间，触发到期的完成回调
	Update(deltaTime float64)
}

type activeTween struct {
	tw      Tween
	from    components.Transform
	elapsed float64
}

// Runner 是逐帧补间实现
type Runner struct {
	tweens map[*components.Transform]*activeTween
}

// NewRunner 创建补间引擎
func NewRunner() *Runner {
	return &Runner{
		tweens: make(map[*components.Transform]*activeTween),
	}
}

// Start 启动补间
// 目标上已有补间时先将其中断（触发 OnInterrupt），再从目标当前值出发
func (r *Runner) Start(tw Tween) {
	if tw.Target == nil {
		return
	}
	r.Kill(tw.Target)

	if tw.Duration <= 0 {
		// 零时长：直接写终值并完成
		*tw.Target = tw.To
		if tw.OnComplete != nil {
			tw.OnComplete()
		}
		return
	}

	r.tweens[tw.Target] = &activeTween{
		tw:   tw,
		from: *tw.Target,
	}
}

// Kill 中断目标上的在途补间
func (r *Runner) Kill(target *components.Transform) {
	at, ok := r.tweens[target]
	if !ok {
		return
	}
	delete(r.tweens, target)
	if at.tw.OnInterrupt != nil {
		at.tw.OnInterrupt()
	}
}

// KillAll 中断所有在途补间
func (r *Runner) KillAll() {
	for target := range r.tweens {
		r.Kill(target)
	}
}

// Active 返回目标上是否有在途补间
func (r *Runner) Active(target *components.Transform) bool {
	_, ok := r.tweens[target]
	return ok
}

// Update 推进所有在途补间
// 到达终点的补间先从引擎移除、写入终值，然后统一触发完成回调，
// 因此回调看到的引擎状态是"本补间已结束"
func (r *Runner) Update(deltaTime float64) {
	var completed []*activeTween

	for target, at := range r.tweens {
		at.elapsed += deltaTime
		t := utils.Clamp01(at.elapsed / at.tw.Duration)
		eased := t
		if at.tw.Ease != nil {
			eased = at.tw.Ease(t)
		}
		*at.tw.Target = components.LerpTransform(at.from, at.tw.To, eased)

		if t >= 1 {
			delete(r.tweens, target)
			*at.tw.Target = at.tw.To
			completed = append(completed, at)
		}
	}

	for _, at := range completed {
		if at.tw.OnComplete != nil {
			at.tw.OnComplete()
		}
	}
}

// Immediate 是无动画实现：目标直接跳到终值，完成回调同步触发
// 供"减少动态效果"偏好或无动画环境使用
type Immediate struct{}

// NewImmediate 创建无动画实现
func NewImmediate() *Immediate {
	return &Immediate{}
}

// Start 直接写入终值并同步完成
func (i *Immediate) Start(tw Tween) {
	if tw.Target == nil {
		return
	}
	*tw.Target = tw.To
	if tw.OnComplete != nil {
		tw.OnComplete()
	}
}

// Kill 无在途补间，无事可做
func (i *Immediate) Kill(target *components.Transform) {}

// KillAll 无在途补间，无事可做
func (i *Immediate) KillAll() {}

// Active 永远返回 false
func (i *Immediate) Active(target *components.Transform) bool {
	return false
}

// Update 无事可做
func (i *Immediate) Update(deltaTime float64) {}
