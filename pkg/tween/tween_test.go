package tween

import (
	"testing"

	"github.com/decker502/kolamshelf/pkg/components"
	"github.com/decker502/kolamshelf/pkg/utils"
)

// TestRunnerReachesTarget 测试补间插值到终点，
// 且 OnComplete 恰好触发一次
func TestRunnerReachesTarget(t *testing.T) {
	r := NewRunner()
	target := components.IdentityTransform()
	to := components.Transform{X: 100, Y: 50, ScaleX: 2, ScaleY: 2}
	completions := 0

	r.Start(Tween{
		Target:   &target,
		To:       to,
		Duration: 1.0,
		Ease:     utils.EaseLinear,
		OnComplete: func() {
			completions++
		},
	})

	r.Update(0.5)
	if target.X != 50 {
		t.Errorf("midpoint X = %.1f, want 50", target.X)
	}
	if completions != 0 {
		t.Error("OnComplete fired before the tween finished")
	}

	r.Update(0.6)
	if target != to {
		t.Errorf("final transform = %+v, want %+v", target, to)
	}
	if completions != 1 {
		t.Errorf("OnComplete fired %d times, want 1", completions)
	}

	// 继续推进不会重复触发回调
	r.Update(1.0)
	if completions != 1 {
		t.Errorf("OnComplete re-fired: %d", completions)
	}
}

// TestKillPreventsCompletion 测试被中断的补间永不完成，
// 转而触发 OnInterrupt
func TestKillPreventsCompletion(t *testing.T) {
	r := NewRunner()
	target := components.IdentityTransform()
	completions, interrupts := 0, 0

	r.Start(Tween{
		Target:      &target,
		To:          components.Transform{X: 100, ScaleX: 1, ScaleY: 1},
		Duration:    1.0,
		OnComplete:  func() { completions++ },
		OnInterrupt: func() { interrupts++ },
	})
	r.Update(0.5)
	r.Kill(&target)
	r.Update(1.0)

	if completions != 0 {
		t.Error("killed tween completed")
	}
	if interrupts != 1 {
		t.Errorf("OnInterrupt fired %d times, want 1", interrupts)
	}
	if r.Active(&target) {
		t.Error("target still active after Kill")
	}
	if target.X != 50 {
		t.Errorf("killed tween should leave the target where it was: X = %.1f", target.X)
	}
}

// TestStartReplacesInFlightTween 测试对同一目标启动新补间
// 会先取消旧的
func TestStartReplacesInFlightTween(t *testing.T) {
	r := NewRunner()
	target := components.IdentityTransform()
	firstCompleted, firstInterrupted := false, false

	r.Start(Tween{
		Target:      &target,
		To:          components.Transform{X: 100, ScaleX: 1, ScaleY: 1},
		Duration:    1.0,
		OnComplete:  func() { firstCompleted = true },
		OnInterrupt: func() { firstInterrupted = true },
	})
	r.Update(0.5)

	r.Start(Tween{
		Target:   &target,
		To:       components.Transform{X: 0, ScaleX: 1, ScaleY: 1},
		Duration: 0.5,
	})
	r.Update(1.0)

	if firstCompleted {
		t.Error("replaced tween still completed")
	}
	if !firstInterrupted {
		t.Error("replaced tween was not interrupted")
	}
	if target.X != 0 {
		t.Errorf("second tween target not reached: X = %.1f", target.X)
	}
}

// TestZeroDurationCompletesSynchronously 测试 Duration <= 0 时
// 在 Start 内直接写终值并同步完成
func TestZeroDurationCompletesSynchronously(t *testing.T) {
	r := NewRunner()
	target := components.IdentityTransform()
	done := false

	r.Start(Tween{
		Target:     &target,
		To:         components.Transform{X: 7, ScaleX: 1, ScaleY: 1},
		OnComplete: func() { done = true },
	})

	if !done {
		t.Error("zero-duration tween did not complete synchronously")
	}
	if target.X != 7 {
		t.Errorf("target X = %.1f, want 7", target.X)
	}
	if r.Active(&target) {
		t.Error("zero-duration tween left an active entry")
	}
}

// TestCompletionCanStartNextTween 测试在 OnComplete 内串联下一个补间
func TestCompletionCanStartNextTween(t *testing.T) {
	r := NewRunner()
	target := components.IdentityTransform()

	r.Start(Tween{
		Target:   &target,
		To:       components.Transform{X: 10, ScaleX: 1, ScaleY: 1},
		Duration: 0.2,
		OnComplete: func() {
			r.Start(Tween{
				Target:   &target,
				To:       components.Transform{X: 20, ScaleX: 1, ScaleY: 1},
				Duration: 0.2,
			})
		},
	})

	r.Update(0.25) // 本帧结束第一个补间并启动第二个
	if !r.Active(&target) {
		t.Fatal("chained tween not active")
	}
	r.Update(0.25)
	if target.X != 20 {
		t.Errorf("chained tween target not reached: X = %.1f", target.X)
	}
}

// TestKillAll 测试 KillAll 中断所有在途补间
func TestKillAll(t *testing.T) {
	r := NewRunner()
	a := components.IdentityTransform()
	b := components.IdentityTransform()
	interrupts := 0

	for _, target := range []*components.Transform{&a, &b} {
		r.Start(Tween{
			Target:      target,
			To:          components.Transform{X: 1, ScaleX: 1, ScaleY: 1},
			Duration:    1.0,
			OnInterrupt: func() { interrupts++ },
		})
	}
	r.KillAll()

	if interrupts != 2 {
		t.Errorf("interrupts = %d, want 2", interrupts)
	}
	if r.Active(&a) || r.Active(&b) {
		t.Error("targets still active after KillAll")
	}
}

// TestImmediateAnimator 测试无动画实现直达终值并同步完成，
// 且从不报告在途补间
func TestImmediateAnimator(t *testing.T) {
	im := NewImmediate()
	target := components.IdentityTransform()
	done := false

	im.Start(Tween{
		Target:     &target,
		To:         components.Transform{X: 42, ScaleX: 1, ScaleY: 1},
		Duration:   5.0,
		OnComplete: func() { done = true },
	})

	if !done {
		t.Error("Immediate did not complete synchronously")
	}
	if target.X != 42 {
		t.Errorf("target X = %.1f, want 42", target.X)
	}
	if im.Active(&target) {
		t.Error("Immediate reported an active tween")
	}
	im.Update(1.0) // 必须是无操作
	im.Kill(&target)
	im.KillAll()
}
